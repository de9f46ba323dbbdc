package rule

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"riskgate/internal/callback"
	"riskgate/internal/engine"
	"riskgate/internal/locked"
	"riskgate/internal/schema"
	"riskgate/internal/window"
)

// signedTrade is a trade with the quantity signed by side: positive for
// buys, negative for sells.
type signedTrade struct {
	price float64
	qty   float64
}

// positionYield accumulates signed notional and quantity over the trades
// window.
type positionYield struct {
	sum float64
	qty float64
}

func (y positionYield) yieldOf(mark float64) float64 {
	return mark*y.qty - y.sum
}

func addTrade(s positionYield, t signedTrade) positionYield {
	s.sum += t.price * t.qty
	s.qty += t.qty
	return s
}

func subTrade(s positionYield, t signedTrade) positionYield {
	s.sum -= t.price * t.qty
	s.qty -= t.qty
	return s
}

// ddPosition is an investor's exposure on one instrument.
type ddPosition struct {
	price     float64
	priceTime time.Time
	yield     float64
	trades    *window.Sum[signedTrade, positionYield]
}

func (p *ddPosition) putQuote(q schema.Quote) {
	if q.Time.Before(p.priceTime) {
		return
	}
	p.price = q.Price
	p.priceTime = q.Time
}

// ddInvestor owns all positions of one investor, the cumulative PnL, and
// the trailing PnL high window.
type ddInvestor struct {
	rule *DrawDown

	mu        sync.Mutex
	pnl       float64
	pnlMax    *window.MinMax[float64]
	latest    time.Time
	positions map[schema.Symbol]*ddPosition

	drawdown atomic.Uint64 // Float64bits
}

func newDDInvestor(rule *DrawDown) *ddInvestor {
	return &ddInvestor{
		rule:      rule,
		pnlMax:    window.NewMinMax[float64](rule.pnlTime),
		positions: make(map[schema.Symbol]*ddPosition),
	}
}

func (inv *ddInvestor) loadDrawdown() float64 {
	return math.Float64frombits(inv.drawdown.Load())
}

func (inv *ddInvestor) putQuote(q schema.Quote) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	pos, ok := inv.positions[q.Symbol]
	if !ok {
		return
	}
	if inv.latest.Before(q.Time) {
		inv.latest = q.Time
	}
	pos.putQuote(q)
	inv.updatePnL(pos)
}

func (inv *ddInvestor) putTrade(t schema.Trade) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	pos := inv.position(t.Symbol)
	if pos.price == 0 {
		// No mark yet: yield is undefined without a quote.
		return
	}

	if inv.latest.Before(t.Time) {
		inv.latest = t.Time
	}

	qty := t.Qty
	if t.Side == schema.SideSell {
		qty = -qty
	}
	pos.trades.Put(t.Time, signedTrade{price: t.Price, qty: qty})
	inv.updatePnL(pos)
}

// position returns the investor's position, seeding a new one with the
// rule-global last price of the instrument.
func (inv *ddInvestor) position(symbol schema.Symbol) *ddPosition {
	if pos, ok := inv.positions[symbol]; ok {
		return pos
	}
	price, priceTime := inv.rule.lastPriceOf(symbol)
	pos := &ddPosition{
		price:     price,
		priceTime: priceTime,
		trades:    window.NewSum(inv.rule.pnlTime, addTrade, subTrade),
	}
	inv.positions[symbol] = pos
	return pos
}

// updatePnL folds the position's fresh yield into the cumulative PnL and
// refreshes the trailing drawdown. The current PnL enters the high window
// before the maximum is read, so the drawdown never goes negative.
func (inv *ddInvestor) updatePnL(pos *ddPosition) {
	old := pos.yield
	pos.yield = pos.trades.SumAt(pos.priceTime).yieldOf(pos.price)
	inv.pnl += pos.yield - old

	inv.pnlMax.Put(inv.latest, inv.pnl)
	high := inv.pnlMax.MaxAt(inv.latest)
	inv.drawdown.Store(math.Float64bits(high - inv.pnl))
}

type lastPrice struct {
	mu    sync.Mutex
	price float64
	t     time.Time
}

// DrawDown rejects orders from an investor whose trailing drawdown (PnL
// high over the window minus current PnL) exceeds the threshold.
type DrawDown struct {
	pnlTime    time.Duration
	threshold  float64
	moratorium time.Duration

	investors *locked.Map[schema.UserID, *ddInvestor]
	// index: instrument -> investors holding a position in it, so a quote
	// fans out without scanning every investor. Non-owning: investors live
	// for the process lifetime.
	index  *locked.Map[schema.Symbol, *locked.Map[schema.UserID, *ddInvestor]]
	prices *locked.Map[schema.Symbol, *lastPrice]

	hQuote *callback.Handle[schema.Quote]
	hTrade *callback.Handle[schema.Trade]
	hOrder *callback.Handle[schema.Order]
}

// NewDrawDown installs the rule.
func NewDrawDown(eng *engine.Engine, cfg Config) *DrawDown {
	r := &DrawDown{
		pnlTime:    cfg.DrawDown.PnlTime,
		threshold:  cfg.DrawDown.Threshold,
		moratorium: cfg.Moratorium,
		investors:  locked.NewMap[schema.UserID, *ddInvestor](),
		index:      locked.NewMap[schema.Symbol, *locked.Map[schema.UserID, *ddInvestor]](),
		prices:     locked.NewMap[schema.Symbol, *lastPrice](),
	}
	r.hQuote = eng.RegisterQuote(r.ProcessQuote)
	r.hTrade = eng.RegisterTrade(r.ProcessTrade)
	r.hOrder = eng.RegisterOrderCheck(r.CheckOrder)
	return r
}

func (r *DrawDown) Name() string { return NameDrawDown }

// Close detaches the rule from the engine.
func (r *DrawDown) Close() {
	r.hQuote.Close()
	r.hTrade.Close()
	r.hOrder.Close()
}

// updateLastPrice refreshes the rule-global mark, ignoring stale quotes.
func (r *DrawDown) updateLastPrice(q schema.Quote) bool {
	lp, _ := r.prices.GetOrCreate(q.Symbol, func() *lastPrice { return &lastPrice{} })
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if q.Time.Before(lp.t) {
		return false
	}
	lp.price = q.Price
	lp.t = q.Time
	return true
}

func (r *DrawDown) lastPriceOf(symbol schema.Symbol) (float64, time.Time) {
	lp, ok := r.prices.Get(symbol)
	if !ok {
		return 0, time.Time{}
	}
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.price, lp.t
}

// ProcessQuote marks every investor holding a position in the instrument.
func (r *DrawDown) ProcessQuote(q schema.Quote) error {
	if !r.updateLastPrice(q) {
		return nil
	}

	holders, ok := r.index.Get(q.Symbol)
	if !ok {
		return nil
	}
	var invs []*ddInvestor
	holders.Range(func(_ schema.UserID, inv *ddInvestor) bool {
		invs = append(invs, inv)
		return true
	})
	for _, inv := range invs {
		inv.putQuote(q)
	}
	return nil
}

// ProcessTrade books the trade into the investor's position.
func (r *DrawDown) ProcessTrade(t schema.Trade) error {
	r.investorFor(t.UserID, t.Symbol).putTrade(t)
	return nil
}

// CheckOrder rejects when the investor's trailing drawdown exceeds the
// threshold. Unknown investors pass.
func (r *DrawDown) CheckOrder(o schema.Order) error {
	inv, ok := r.investors.Get(o.UserID)
	if !ok {
		return nil
	}
	if dd := inv.loadDrawdown(); dd > r.threshold {
		return engine.NewRejection(r.moratorium, "TrailingDrawdown", schema.FormatNumber(dd))
	}
	return nil
}

// investorFor returns the investor record, creating it lazily, and indexes
// it under the instrument for quote fan-out.
func (r *DrawDown) investorFor(id schema.UserID, symbol schema.Symbol) *ddInvestor {
	inv, _ := r.investors.GetOrCreate(id, func() *ddInvestor {
		return newDDInvestor(r)
	})
	holders, _ := r.index.GetOrCreate(symbol, func() *locked.Map[schema.UserID, *ddInvestor] {
		return locked.NewMap[schema.UserID, *ddInvestor]()
	})
	holders.GetOrCreate(id, func() *ddInvestor { return inv })
	return inv
}
