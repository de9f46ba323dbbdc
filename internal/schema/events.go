package schema

import (
	"time"

	"riskgate/internal/message"
)

// Message kind tags.
const (
	KindQuote = "Quote"
	KindTrade = "Trade"
	KindOrder = "Order"
)

// Quote is an observed market price.
type Quote struct {
	Symbol Symbol
	Price  Price
	Time   time.Time
}

// Trade is an executed trade.
type Trade struct {
	TradeID TradeID
	UserID  UserID
	Symbol  Symbol
	Side    Side
	Price   Price
	Qty     Qty
	Time    time.Time
}

// Order is an order request being gated.
type Order struct {
	OrderID OrderID
	UserID  UserID
	Kind    OrderKind
	Symbol  Symbol
	Side    Side
	Price   Price
	Qty     Qty
	Time    time.Time
}

// ParseQuote fills a quote from message attributes. Missing attributes keep
// their zero values.
func ParseQuote(m *message.Message) Quote {
	var q Quote
	if s, ok := m.Get("symbol"); ok {
		q.Symbol = Symbol(s)
	}
	if s, ok := m.Get("price"); ok {
		q.Price = ParseNumber(s)
	}
	if s, ok := m.Get("time"); ok {
		q.Time = ParseTime(s)
	}
	return q
}

// ParseTrade fills a trade from message attributes.
func ParseTrade(m *message.Message) Trade {
	var t Trade
	if s, ok := m.Get("trade_id"); ok {
		t.TradeID = TradeID(s)
	}
	if s, ok := m.Get("user_id"); ok {
		t.UserID = UserID(s)
	}
	if s, ok := m.Get("symbol"); ok {
		t.Symbol = Symbol(s)
	}
	if s, ok := m.Get("side"); ok {
		t.Side = ParseSide(s)
	}
	if s, ok := m.Get("price"); ok {
		t.Price = ParseNumber(s)
	}
	if s, ok := m.Get("qty"); ok {
		t.Qty = ParseNumber(s)
	}
	if s, ok := m.Get("time"); ok {
		t.Time = ParseTime(s)
	}
	return t
}

// ParseOrder fills an order from message attributes.
func ParseOrder(m *message.Message) Order {
	var o Order
	if s, ok := m.Get("order_id"); ok {
		o.OrderID = OrderID(s)
	}
	if s, ok := m.Get("user_id"); ok {
		o.UserID = UserID(s)
	}
	if s, ok := m.Get("type"); ok {
		o.Kind = ParseOrderKind(s)
	}
	if s, ok := m.Get("symbol"); ok {
		o.Symbol = Symbol(s)
	}
	if s, ok := m.Get("side"); ok {
		o.Side = ParseSide(s)
	}
	if s, ok := m.Get("price"); ok {
		o.Price = ParseNumber(s)
	}
	if s, ok := m.Get("qty"); ok {
		o.Qty = ParseNumber(s)
	}
	if s, ok := m.Get("time"); ok {
		o.Time = ParseTime(s)
	}
	return o
}

// Attrs encodes a quote in the fixed journal schema order.
func (q Quote) Attrs() message.Attrs {
	return message.Attrs{
		{Key: KindQuote},
		{Key: "symbol", Value: string(q.Symbol)},
		{Key: "price", Value: FormatNumber(q.Price)},
		{Key: "time", Value: FormatTime(q.Time)},
	}
}

// Attrs encodes a trade in the fixed journal schema order.
func (t Trade) Attrs() message.Attrs {
	return message.Attrs{
		{Key: KindTrade},
		{Key: "trade_id", Value: string(t.TradeID)},
		{Key: "user_id", Value: string(t.UserID)},
		{Key: "symbol", Value: string(t.Symbol)},
		{Key: "side", Value: t.Side.String()},
		{Key: "price", Value: FormatNumber(t.Price)},
		{Key: "qty", Value: FormatNumber(t.Qty)},
		{Key: "time", Value: FormatTime(t.Time)},
	}
}

// Attrs encodes an order in the fixed journal schema order.
func (o Order) Attrs() message.Attrs {
	return message.Attrs{
		{Key: KindOrder},
		{Key: "order_id", Value: string(o.OrderID)},
		{Key: "user_id", Value: string(o.UserID)},
		{Key: "type", Value: o.Kind.String()},
		{Key: "symbol", Value: string(o.Symbol)},
		{Key: "side", Value: o.Side.String()},
		{Key: "price", Value: FormatNumber(o.Price)},
		{Key: "qty", Value: FormatNumber(o.Qty)},
		{Key: "time", Value: FormatTime(o.Time)},
	}
}
