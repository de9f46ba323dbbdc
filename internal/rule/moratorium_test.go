package rule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgate/internal/engine"
	"riskgate/internal/schema"
)

func ts(s string) time.Time {
	return schema.ParseTime(s)
}

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(engine.Config{}, nil)
}

func order(id, user, symbol string, at string) schema.Order {
	return schema.Order{
		OrderID: schema.OrderID(id),
		UserID:  schema.UserID(user),
		Symbol:  schema.Symbol(symbol),
		Side:    schema.SideBuy,
		Kind:    schema.OrderMarket,
		Qty:     1,
		Time:    ts(at),
	}
}

func TestMoratoriumTrip(t *testing.T) {
	eng := testEngine(t)
	r := NewMoratorium(eng, Config{}.WithDefaults())
	defer r.Close()

	a := order("A", "U", "X", "2024-03-01 10:00:00.000")
	b := order("B", "U", "X", "2024-03-01 10:00:00.500")

	require.NoError(t, r.CheckOrder(a))

	err := r.CheckOrder(b)
	require.Error(t, err)
	rej, ok := err.(*engine.Rejection)
	require.True(t, ok)
	assert.Equal(t, NameNewOrderMoratorium, rej.Reason)
	assert.Equal(t, "500ms", rej.Detail)
	assert.Equal(t, time.Minute, rej.Moratorium)
}

func TestMoratoriumExpiresAfterTimeout(t *testing.T) {
	eng := testEngine(t)
	r := NewMoratorium(eng, Config{}.WithDefaults())
	defer r.Close()

	require.NoError(t, r.CheckOrder(order("A", "U", "X", "2024-03-01 10:00:00.000")))
	require.NoError(t, r.CheckOrder(order("B", "U", "X", "2024-03-01 10:00:01.000")))
}

func TestMoratoriumKeysAreIndependent(t *testing.T) {
	eng := testEngine(t)
	r := NewMoratorium(eng, Config{}.WithDefaults())
	defer r.Close()

	require.NoError(t, r.CheckOrder(order("A", "U", "X", "2024-03-01 10:00:00.000")))
	require.NoError(t, r.CheckOrder(order("B", "U", "Y", "2024-03-01 10:00:00.100")))
	require.NoError(t, r.CheckOrder(order("C", "V", "X", "2024-03-01 10:00:00.100")))
}

func TestMoratoriumOutOfOrderAccepted(t *testing.T) {
	eng := testEngine(t)
	r := NewMoratorium(eng, Config{}.WithDefaults())
	defer r.Close()

	require.NoError(t, r.CheckOrder(order("A", "U", "X", "2024-03-01 10:00:05.000")))

	// Replayed older order: accepted, clock untouched.
	require.NoError(t, r.CheckOrder(order("B", "U", "X", "2024-03-01 10:00:03.000")))

	// The clock still guards relative to the newest order.
	err := r.CheckOrder(order("C", "U", "X", "2024-03-01 10:00:05.500"))
	assert.Error(t, err)
}
