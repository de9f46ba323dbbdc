package engine

import (
	"errors"
	"time"

	"github.com/yanun0323/logs"

	"riskgate/internal/callback"
	"riskgate/internal/message"
	"riskgate/internal/obs"
	"riskgate/internal/schema"
)

// Transport writes response messages back to the source of an order. Quote
// and trade ingestion produces no response.
type Transport interface {
	SendMessage(attrs message.Attrs)
}

// Config holds engine-level settings.
type Config struct {
	// EnforceMoratorium rejects any order arriving before the investor's
	// cool-off deadline with reason Moratorium, before rules run. Off by
	// default: the deadline is recorded but not consulted.
	EnforceMoratorium bool `json:"enforceMoratorium"`
}

// Engine fans quotes and trades out to observers and gates orders through
// the registered checks.
type Engine struct {
	cfg     Config
	metrics *obs.Metrics

	quotes *callback.Manager[callback.Void, schema.Quote]
	trades *callback.Manager[callback.Void, schema.Trade]
	orders *callback.Manager[callback.Void, schema.Order]

	investors investors
	onReject  []func(schema.Order, *Rejection)
}

// New creates an engine. metrics may be nil.
func New(cfg Config, metrics *obs.Metrics) *Engine {
	return &Engine{
		cfg:       cfg,
		metrics:   metrics,
		quotes:    callback.NewManager[callback.Void, schema.Quote](),
		trades:    callback.NewManager[callback.Void, schema.Trade](),
		orders:    callback.NewManager[callback.Void, schema.Order](),
		investors: newInvestors(),
	}
}

// RegisterQuote subscribes an observer to the quote stream.
func (e *Engine) RegisterQuote(fn func(schema.Quote) error) *callback.Handle[schema.Quote] {
	return e.quotes.Register(callback.Void{}, fn)
}

// RegisterTrade subscribes an observer to the trade stream.
func (e *Engine) RegisterTrade(fn func(schema.Trade) error) *callback.Handle[schema.Trade] {
	return e.trades.Register(callback.Void{}, fn)
}

// RegisterOrderCheck appends an order check. Checks run in registration
// order; returning a *Rejection declines the order.
func (e *Engine) RegisterOrderCheck(fn func(schema.Order) error) *callback.Handle[schema.Order] {
	return e.orders.Register(callback.Void{}, fn)
}

// OnReject attaches a hook observing every rejected order.
func (e *Engine) OnReject(fn func(schema.Order, *Rejection)) {
	e.onReject = append(e.onReject, fn)
}

// Investor returns the per-user engine record, creating it on first use.
func (e *Engine) Investor(id schema.UserID) *Investor {
	return e.investors.get(id)
}

// PutQuote fans a quote out to all observers. Observer errors are logged
// and swallowed so one bad record cannot starve the others.
func (e *Engine) PutQuote(q schema.Quote) {
	e.metrics.IncEvent(schema.KindQuote)
	e.quotes.Fanout(callback.Void{}, q, func(err error) bool {
		if err != nil {
			logs.Errorf("quote observer failed, symbol %s: %+v", q.Symbol, err)
		}
		return true
	})
}

// PutTrade fans a trade out to all observers.
func (e *Engine) PutTrade(t schema.Trade) {
	e.metrics.IncEvent(schema.KindTrade)
	e.trades.Fanout(callback.Void{}, t, func(err error) bool {
		if err != nil {
			logs.Errorf("trade observer failed, trade %s: %+v", t.TradeID, err)
		}
		return true
	})
}

// CheckOrder runs the registered checks in order and returns the first
// rejection, or nil when the order passes. Non-rejection errors are logged
// and the order keeps going: the gate fails open on infrastructure errors
// and closed only on explicit risk rejection.
func (e *Engine) CheckOrder(o schema.Order) *Rejection {
	start := time.Now()
	var rej *Rejection
	e.orders.Fanout(callback.Void{}, o, func(err error) bool {
		if err == nil {
			return true
		}
		var r *Rejection
		if errors.As(err, &r) {
			rej = r
			return false
		}
		logs.Errorf("order check failed, order %s: %+v", o.OrderID, err)
		return true
	})
	e.metrics.ObserveCheck(time.Since(start))
	return rej
}

// ProcessMessage is the single entry point for decoded messages, live or
// replayed. Quotes and trades are broadcast; orders are gated and answered
// through the transport. Unknown kinds are ignored.
func (e *Engine) ProcessMessage(tr Transport, msg *message.Message) {
	switch msg.Kind() {
	case schema.KindQuote:
		e.PutQuote(schema.ParseQuote(msg))
	case schema.KindTrade:
		e.PutTrade(schema.ParseTrade(msg))
	case schema.KindOrder:
		e.processOrder(tr, msg)
	}
}

func (e *Engine) processOrder(tr Transport, msg *message.Message) {
	e.metrics.IncEvent(schema.KindOrder)
	order := schema.ParseOrder(msg)
	inv := e.investors.get(order.UserID)

	now := time.Now()
	if e.cfg.EnforceMoratorium && inv.MoratoriumUntil().After(now) {
		e.metrics.IncReject("Moratorium")
		e.sendReject(tr, msg, "Moratorium")
		return
	}

	rej := e.CheckOrder(order)
	if rej == nil {
		e.metrics.IncAccepted()
		tr.SendMessage(msg.Attrs())
		return
	}

	inv.SetMoratorium(now.Add(rej.Moratorium))
	e.metrics.IncReject(rej.Reason)
	for _, fn := range e.onReject {
		fn(order, rej)
	}
	e.sendReject(tr, msg, rej.Error())
}

func (e *Engine) sendReject(tr Transport, msg *message.Message, reason string) {
	src := msg.Attrs()
	attrs := make(message.Attrs, 0, len(src)+1)
	attrs = append(attrs, src...)
	attrs = append(attrs, message.Attr{Key: "reject", Value: reason})
	tr.SendMessage(attrs)
}
