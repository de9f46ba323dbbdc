package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"riskgate/internal/bus"
	"riskgate/internal/engine"
	"riskgate/internal/message"
	"riskgate/internal/wire"
	"riskgate/pkg/scanner"
)

// Conn is one client connection. The reader goroutine frames the byte
// stream; a second goroutine parses and dispatches the frames in arrival
// order, so per-connection message order is preserved.
type Conn struct {
	srv *Server
	tc  *net.TCPConn

	dispatcher *engine.Dispatcher
	frames     *bus.Queue[[]byte]

	writeMu sync.Mutex
	started time.Time

	closeOnce sync.Once
}

func newConn(s *Server, tc *net.TCPConn) *Conn {
	return &Conn{
		srv:        s,
		tc:         tc,
		dispatcher: s.eng.NewDispatcher(),
		frames:     bus.NewQueue[[]byte](s.cfg.QueueSize),
		started:    time.Now(),
	}
}

// SendMessage writes a response frame back to the client.
func (c *Conn) SendMessage(attrs message.Attrs) {
	if len(attrs) == 0 {
		return
	}
	buf := wire.AppendMessage(nil, attrs)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.tc.Write(buf); err != nil {
		logs.Errorf("send failed, peer %s: %+v", c.tc.RemoteAddr(), err)
		c.shutdown()
	}
}

func (c *Conn) run(ctx context.Context) {
	logs.Infof("accept %s", c.tc.RemoteAddr())
	defer func() {
		c.dispatcher.Close()
		c.shutdown()
		c.srv.forget(c)
		logs.Infof("disconnect %s after %s", c.tc.RemoteAddr(), time.Since(c.started))
	}()

	var workWG sync.WaitGroup
	workWG.Add(1)
	go func() {
		defer workWG.Done()
		c.frames.Run(ctx, func(frame []byte) {
			c.handleFrame(ctx, frame)
		})
	}()
	defer workWG.Wait()
	defer c.frames.Close()

	c.readLoop(ctx)
}

func (c *Conn) readLoop(ctx context.Context) {
	frames := scanner.NewFrames(wire.NUL, c.srv.cfg.MaxMessageSize)
	buf := make([]byte, 64*1024)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.tc.SetReadDeadline(time.Now().Add(c.srv.cfg.Tick)); err != nil {
			return
		}
		n, err := c.tc.Read(buf)
		if n > 0 {
			closing := false
			feedErr := frames.Feed(buf[:n], func(frame []byte) bool {
				if len(frame) == 0 {
					// Lone NUL: the peer asked for a graceful close.
					closing = true
					return false
				}
				cp := make([]byte, len(frame))
				copy(cp, frame)
				if pubErr := c.frames.Publish(ctx, cp); pubErr != nil {
					closing = true
					return false
				}
				return true
			})
			if feedErr != nil {
				logs.Errorf("peer %s: %+v", c.tc.RemoteAddr(), feedErr)
				return
			}
			if closing {
				return
			}
		}
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return
		}
	}
}

func (c *Conn) handleFrame(ctx context.Context, frame []byte) {
	if !c.srv.acquire(ctx) {
		return
	}
	defer c.srv.release()

	attrs := wire.ParseAttrs(frame, wire.SOH)
	if len(attrs) < 2 {
		return
	}
	c.dispatcher.Dispatch(c, message.New(attrs))
}

// shutdown sends the close mark and tears the socket down. Idempotent.
func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		_ = c.tc.SetWriteDeadline(time.Now().Add(c.srv.cfg.Tick))
		_, _ = c.tc.Write([]byte{wire.NUL})
		_ = c.tc.Close()
	})
}
