package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgate/internal/engine"
	"riskgate/internal/message"
	"riskgate/internal/rule"
	"riskgate/internal/schema"
	"riskgate/internal/wire"
)

// startTestServer finds a free port and brings the gate up on it.
func startTestServer(t *testing.T, ctx context.Context) (*Server, int) {
	t.Helper()
	eng := engine.New(engine.Config{}, nil)
	rules := rule.Install(eng, rule.Config{}.WithDefaults())
	t.Cleanup(func() { rule.CloseAll(rules) })

	for port := 21700; port < 21720; port++ {
		cfg := Config{Port: port, Tick: 20 * time.Millisecond}
		srv, err := New(cfg, eng, nil)
		require.NoError(t, err)
		if err := srv.Start(ctx); err != nil {
			continue
		}
		t.Cleanup(srv.Stop)
		return srv, port
	}
	t.Fatal("no free port")
	return nil, 0
}

func sendFrame(t *testing.T, conn net.Conn, attrs message.Attrs) {
	t.Helper()
	_, err := conn.Write(wire.AppendMessage(nil, attrs))
	require.NoError(t, err)
}

func readFrame(t *testing.T, r *bufio.Reader) message.Attrs {
	t.Helper()
	frame, err := r.ReadBytes(wire.NUL)
	require.NoError(t, err)
	return wire.ParseAttrs(frame[:len(frame)-1], wire.SOH)
}

func orderAttrs(id string, at string) message.Attrs {
	o := schema.Order{
		OrderID: schema.OrderID(id),
		UserID:  "U",
		Symbol:  "X",
		Side:    schema.SideBuy,
		Kind:    schema.OrderMarket,
		Price:   100,
		Qty:     1,
		Time:    schema.ParseTime(at),
	}
	return message.New(o.Attrs()).Attrs()
}

func TestServerGatesOrdersOverTCP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, port := startTestServer(t, ctx)

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	r := bufio.NewReader(conn)

	// Quotes produce no response.
	q := schema.Quote{Symbol: "X", Price: 100, Time: schema.ParseTime("2024-03-01 10:00:00.000")}
	sendFrame(t, conn, q.Attrs())

	// First order echoes back unchanged.
	first := orderAttrs("O1", "2024-03-01 10:00:01.000")
	sendFrame(t, conn, first)
	got := readFrame(t, r)
	assert.Equal(t, first, got)

	// Second order inside the moratorium window is rejected.
	second := orderAttrs("O2", "2024-03-01 10:00:01.500")
	sendFrame(t, conn, second)
	got = readFrame(t, r)
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, "reject", last.Key)
	assert.Contains(t, last.Value, "NewOrderMoratorium")
}

func TestServerGracefulCloseOnLoneNul(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, port := startTestServer(t, ctx)

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = conn.Write([]byte{wire.NUL})
	require.NoError(t, err)

	// The server answers with its own close mark and shuts the socket.
	buf := make([]byte, 16)
	n, _ := conn.Read(buf)
	if n > 0 {
		assert.Equal(t, byte(wire.NUL), buf[0])
	}
}

func TestServerKillsOversizeMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(engine.Config{}, nil)
	var srv *Server
	var port int
	for p := 21750; p < 21770; p++ {
		cfg := Config{Port: p, Tick: 20 * time.Millisecond, MaxMessageSize: 64}
		s, err := New(cfg, eng, nil)
		require.NoError(t, err)
		if err := s.Start(ctx); err != nil {
			continue
		}
		srv, port = s, p
		break
	}
	require.NotNil(t, srv)
	defer srv.Stop()

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = 'a'
	}
	_, _ = conn.Write(payload)

	// The connection dies without a terminator ever arriving.
	buf := make([]byte, 16)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := conn.Read(buf); err != nil {
			return
		}
	}
	t.Fatal("connection survived oversize message")
}
