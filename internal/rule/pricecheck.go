package rule

import (
	"time"

	"riskgate/internal/callback"
	"riskgate/internal/engine"
	"riskgate/internal/locked"
	"riskgate/internal/schema"
	"riskgate/internal/window"
)

// PriceCheck rejects limit orders priced too far from the trailing average
// of the instrument's quotes. Market orders bypass the rule.
type PriceCheck struct {
	timeframe  time.Duration
	deviation  float64
	moratorium time.Duration

	instrs *locked.Map[schema.Symbol, *window.Average]
	hQuote *callback.Handle[schema.Quote]
	hOrder *callback.Handle[schema.Order]
}

// NewPriceCheck installs the rule.
func NewPriceCheck(eng *engine.Engine, cfg Config) *PriceCheck {
	r := &PriceCheck{
		timeframe:  cfg.PriceCheck.Timeframe,
		deviation:  cfg.PriceCheck.Deviation,
		moratorium: cfg.Moratorium,
		instrs:     locked.NewMap[schema.Symbol, *window.Average](),
	}
	r.hQuote = eng.RegisterQuote(r.ProcessQuote)
	r.hOrder = eng.RegisterOrderCheck(r.CheckOrder)
	return r
}

func (r *PriceCheck) Name() string { return NamePriceCheck }

// Close detaches the rule from the engine.
func (r *PriceCheck) Close() {
	r.hQuote.Close()
	r.hOrder.Close()
}

// ProcessQuote feeds the instrument's trailing window.
func (r *PriceCheck) ProcessQuote(q schema.Quote) error {
	instr, _ := r.instrs.GetOrCreate(q.Symbol, func() *window.Average {
		return window.NewAverage(r.timeframe)
	})
	instr.Put(q.Time, q.Price)
	return nil
}

// CheckOrder compares a limit order price against the trailing average.
// An instrument never quoted is itself a rejection.
func (r *PriceCheck) CheckOrder(o schema.Order) error {
	if o.Kind != schema.OrderLimit {
		return nil
	}

	instr, ok := r.instrs.Get(o.Symbol)
	if !ok {
		return engine.NewRejection(r.moratorium, "InstrumentNotFound", string(o.Symbol))
	}

	avg := instr.AverageAt(o.Time)

	var reject bool
	if o.Side == schema.SideBuy {
		reject = o.Price > avg*(1+r.deviation)
	} else {
		// With avg == 0 this is price < 0 and never rejects.
		reject = o.Price < avg*(1-r.deviation)
	}
	if reject {
		return engine.NewRejection(r.moratorium, NamePriceCheck, schema.FormatNumber(avg))
	}
	return nil
}
