package rule

import (
	"strconv"
	"sync"
	"time"

	"riskgate/internal/callback"
	"riskgate/internal/engine"
	"riskgate/internal/locked"
	"riskgate/internal/schema"
	"riskgate/internal/window"
)

type symbolUser struct {
	Symbol schema.Symbol
	User   schema.UserID
}

// tradesPair tracks the run of same-side trades currently open for one
// investor on one instrument, plus the flags of completed lossy pairs.
type tradesPair struct {
	mu sync.Mutex

	side    schema.Side
	last    time.Time
	prices  *window.Average
	prevAvg float64

	bads *window.Queue[int]
}

func newTradesPair(frame time.Duration) *tradesPair {
	return &tradesPair{
		side:   schema.SideBuy,
		prices: window.NewAverage(frame),
		bads:   window.NewQueueKeep[int](frame, 0),
	}
}

// isBad reports whether a run with the given average, closed against the
// previous opposite run, is lossy. Unpriced sides never count.
func (p *tradesPair) isBad(avg float64) bool {
	if p.prevAvg == 0 || avg == 0 {
		return false
	}
	if p.side == schema.SideBuy {
		return avg > p.prevAvg
	}
	return avg < p.prevAvg
}

func (p *tradesPair) processTrade(t schema.Trade) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t.Side == p.side {
		p.last = t.Time
		p.prices.Put(t.Time, t.Price)
		return
	}

	avg := p.prices.AverageAt(t.Time)
	if p.isBad(avg) {
		p.bads.Put(p.last, 1)
	}
	p.prices.Clear()

	p.side = t.Side
	p.last = t.Time
	p.prices.Put(t.Time, t.Price)
	p.prevAvg = avg
}

func (p *tradesPair) badTrades(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.bads.SizeAt(now)
	if p.isBad(p.prices.Average()) {
		n++
	}
	return n
}

// SeqBadTrades rejects orders from an investor who just closed more than
// the allowed number of lossy buy/sell pairs on the instrument within the
// timeframe.
type SeqBadTrades struct {
	timeframe  time.Duration
	count      int
	moratorium time.Duration

	pairs  *locked.Map[symbolUser, *tradesPair]
	hTrade *callback.Handle[schema.Trade]
	hOrder *callback.Handle[schema.Order]
}

// NewSeqBadTrades installs the rule.
func NewSeqBadTrades(eng *engine.Engine, cfg Config) *SeqBadTrades {
	r := &SeqBadTrades{
		timeframe:  cfg.SeqBadTrades.Timeframe,
		count:      cfg.SeqBadTrades.Count,
		moratorium: cfg.Moratorium,
		pairs:      locked.NewMap[symbolUser, *tradesPair](),
	}
	r.hTrade = eng.RegisterTrade(r.ProcessTrade)
	r.hOrder = eng.RegisterOrderCheck(r.CheckOrder)
	return r
}

func (r *SeqBadTrades) Name() string { return NameSeqBadTrades }

// Close detaches the rule from the engine.
func (r *SeqBadTrades) Close() {
	r.hTrade.Close()
	r.hOrder.Close()
}

// ProcessTrade extends or closes the investor's current same-side run.
func (r *SeqBadTrades) ProcessTrade(t schema.Trade) error {
	pair, _ := r.pairs.GetOrCreate(symbolUser{Symbol: t.Symbol, User: t.UserID}, func() *tradesPair {
		return newTradesPair(r.timeframe)
	})
	pair.processTrade(t)
	return nil
}

// CheckOrder counts lossy pairs in the window, including the open run as
// if it were closed now, and rejects past the threshold.
func (r *SeqBadTrades) CheckOrder(o schema.Order) error {
	pair, ok := r.pairs.Get(symbolUser{Symbol: o.Symbol, User: o.UserID})
	if !ok {
		return nil
	}

	n := pair.badTrades(o.Time)
	if n > r.count {
		return engine.NewRejection(r.moratorium, NameSeqBadTrades, strconv.Itoa(n))
	}
	return nil
}
