package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskgate/internal/engine"
	"riskgate/internal/schema"
)

func TestDrawDownTrip(t *testing.T) {
	eng := testEngine(t)
	r := NewDrawDown(eng, Config{}.WithDefaults())
	defer r.Close()

	require.NoError(t, r.ProcessQuote(quote("X", 100, "2024-03-01 10:00:00.000")))
	require.NoError(t, r.ProcessTrade(schema.Trade{
		TradeID: "T1", UserID: "U", Symbol: "X",
		Side: schema.SideBuy, Price: 100, Qty: 10,
		Time: ts("2024-03-01 10:00:01.000"),
	}))

	// Mark to 110: PnL climbs to +100, drawdown stays zero.
	require.NoError(t, r.ProcessQuote(quote("X", 110, "2024-03-01 10:00:02.000")))
	assert.NoError(t, r.CheckOrder(order("O1", "U", "X", "2024-03-01 10:00:03.000")))

	// Mark to 90: PnL falls to -100, drawdown = 100 - (-100) = 200.
	require.NoError(t, r.ProcessQuote(quote("X", 90, "2024-03-01 10:00:04.000")))

	err := r.CheckOrder(order("O2", "U", "X", "2024-03-01 10:00:05.000"))
	require.Error(t, err)
	rej := err.(*engine.Rejection)
	assert.Equal(t, "TrailingDrawdown", rej.Reason)
	assert.Equal(t, "200", rej.Detail)
}

func TestDrawDownTradeBeforeFirstQuoteIgnored(t *testing.T) {
	eng := testEngine(t)
	r := NewDrawDown(eng, Config{}.WithDefaults())
	defer r.Close()

	require.NoError(t, r.ProcessTrade(schema.Trade{
		TradeID: "T1", UserID: "U", Symbol: "X",
		Side: schema.SideBuy, Price: 100, Qty: 10,
		Time: ts("2024-03-01 10:00:00.000"),
	}))

	// Without a mark the trade carries no yield; later crashes in the
	// price leave the investor untouched.
	require.NoError(t, r.ProcessQuote(quote("X", 1, "2024-03-01 10:00:01.000")))
	assert.NoError(t, r.CheckOrder(order("O1", "U", "X", "2024-03-01 10:00:02.000")))
}

func TestDrawDownStaleQuoteIgnored(t *testing.T) {
	eng := testEngine(t)
	r := NewDrawDown(eng, Config{}.WithDefaults())
	defer r.Close()

	require.NoError(t, r.ProcessQuote(quote("X", 100, "2024-03-01 10:00:00.000")))
	require.NoError(t, r.ProcessTrade(schema.Trade{
		TradeID: "T1", UserID: "U", Symbol: "X",
		Side: schema.SideBuy, Price: 100, Qty: 10,
		Time: ts("2024-03-01 10:00:01.000"),
	}))
	require.NoError(t, r.ProcessQuote(quote("X", 110, "2024-03-01 10:00:02.000")))

	// An older quote must not roll the mark back.
	require.NoError(t, r.ProcessQuote(quote("X", 10, "2024-03-01 09:59:00.000")))
	assert.NoError(t, r.CheckOrder(order("O1", "U", "X", "2024-03-01 10:00:03.000")))
}

func TestDrawDownUnknownInvestorPasses(t *testing.T) {
	eng := testEngine(t)
	r := NewDrawDown(eng, Config{}.WithDefaults())
	defer r.Close()

	assert.NoError(t, r.CheckOrder(order("O1", "U", "X", "2024-03-01 10:00:00.000")))
}

func TestDrawDownRecoversWithPrice(t *testing.T) {
	eng := testEngine(t)
	r := NewDrawDown(eng, Config{}.WithDefaults())
	defer r.Close()

	require.NoError(t, r.ProcessQuote(quote("X", 100, "2024-03-01 10:00:00.000")))
	require.NoError(t, r.ProcessTrade(schema.Trade{
		TradeID: "T1", UserID: "U", Symbol: "X",
		Side: schema.SideBuy, Price: 100, Qty: 10,
		Time: ts("2024-03-01 10:00:01.000"),
	}))
	require.NoError(t, r.ProcessQuote(quote("X", 90, "2024-03-01 10:00:02.000")))

	// Down 100 exactly: not beyond the threshold.
	assert.NoError(t, r.CheckOrder(order("O1", "U", "X", "2024-03-01 10:00:03.000")))

	// Price returns: the drawdown closes again.
	require.NoError(t, r.ProcessQuote(quote("X", 100, "2024-03-01 10:00:04.000")))
	assert.NoError(t, r.CheckOrder(order("O2", "U", "X", "2024-03-01 10:00:05.000")))
}
