package rule

import (
	"sync"
	"time"

	"riskgate/internal/callback"
	"riskgate/internal/engine"
	"riskgate/internal/locked"
	"riskgate/internal/schema"
)

type userSymbol struct {
	User   schema.UserID
	Symbol schema.Symbol
}

type orderClock struct {
	mu   sync.Mutex
	last time.Time
}

// Moratorium rejects an order arriving within the configured timeout of
// the previous order for the same investor and symbol.
type Moratorium struct {
	timeout    time.Duration
	moratorium time.Duration

	entries *locked.Map[userSymbol, *orderClock]
	hOrder  *callback.Handle[schema.Order]
}

// NewMoratorium installs the rule.
func NewMoratorium(eng *engine.Engine, cfg Config) *Moratorium {
	r := &Moratorium{
		timeout:    cfg.NewOrderMoratorium.Timeout,
		moratorium: cfg.Moratorium,
		entries:    locked.NewMap[userSymbol, *orderClock](),
	}
	r.hOrder = eng.RegisterOrderCheck(r.CheckOrder)
	return r
}

func (r *Moratorium) Name() string { return NameNewOrderMoratorium }

// Close detaches the rule from the engine.
func (r *Moratorium) Close() {
	r.hOrder.Close()
}

// CheckOrder applies the moratorium window. Out-of-order arrivals are
// accepted without touching the clock so replay stays idempotent.
func (r *Moratorium) CheckOrder(o schema.Order) error {
	key := userSymbol{User: o.UserID, Symbol: o.Symbol}
	entry, created := r.entries.GetOrCreate(key, func() *orderClock {
		return &orderClock{last: o.Time}
	})
	if created {
		return nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.last.After(o.Time) {
		return nil
	}

	deadline := entry.last.Add(r.timeout)
	if deadline.After(o.Time) {
		return engine.NewRejection(r.moratorium, NameNewOrderMoratorium, deadline.Sub(o.Time).String())
	}

	entry.last = o.Time
	return nil
}
