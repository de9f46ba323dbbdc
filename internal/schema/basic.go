package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Symbol identifies an instrument.
type Symbol string

// UserID identifies an investor.
type UserID string

// OrderID identifies a client order.
type OrderID string

// TradeID identifies an executed trade.
type TradeID string

// Price is a price level or monetary amount.
type Price = float64

// Qty is an order or trade quantity.
type Qty = float64

// Side is the trade direction.
type Side byte

const (
	SideUnknown Side = 0
	SideBuy     Side = 'B'
	SideSell    Side = 'S'
)

// ParseSide decodes the wire representation.
func ParseSide(s string) Side {
	switch s {
	case "B":
		return SideBuy
	case "S":
		return SideSell
	default:
		return SideUnknown
	}
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "B"
	case SideSell:
		return "S"
	default:
		return ""
	}
}

// OrderKind is the order type.
type OrderKind int

const (
	OrderMarket OrderKind = 0
	OrderLimit  OrderKind = 1
)

// ParseOrderKind decodes the wire representation.
func ParseOrderKind(s string) OrderKind {
	if s == "1" {
		return OrderLimit
	}
	return OrderMarket
}

func (k OrderKind) String() string {
	if k == OrderLimit {
		return "1"
	}
	return "0"
}

// TimeLayout is the wire timestamp layout, millisecond resolution.
const TimeLayout = "2006-01-02 15:04:05.000"

// ParseTime decodes a wire timestamp. Malformed input yields the zero time.
func ParseTime(s string) time.Time {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTime encodes a wire timestamp.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseNumber decodes a decimal numeric attribute. Malformed input yields 0.
func ParseNumber(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// FormatNumber encodes a numeric attribute without float artifacts.
func FormatNumber(v float64) string {
	return decimal.NewFromFloat(v).String()
}
