package rule

import "time"

// Rule names, matching the wire-visible rejection reasons.
const (
	NameNewOrderMoratorium = "NewOrderMoratorium"
	NamePriceCheck         = "PriceCheck"
	NameSeqBadTrades       = "SeqBadTrades"
	NameDrawDown           = "DrawDown"
)

// Config selects and parameterizes the order check rules. Durations are
// nanoseconds in JSON.
type Config struct {
	// Enabled lists rule names in construction order; checks run in the
	// same order. Empty means the full default set.
	Enabled []string `json:"enabled"`

	// Moratorium is attached to every rejection and recorded against the
	// investor by the engine.
	Moratorium time.Duration `json:"moratorium"`

	NewOrderMoratorium MoratoriumConfig   `json:"newOrderMoratorium"`
	PriceCheck         PriceCheckConfig   `json:"priceCheck"`
	SeqBadTrades       SeqBadTradesConfig `json:"seqBadTrades"`
	DrawDown           DrawDownConfig     `json:"drawDown"`
}

// MoratoriumConfig parameterizes the new-order moratorium rule.
type MoratoriumConfig struct {
	Timeout time.Duration `json:"timeout"`
}

// PriceCheckConfig parameterizes the price deviation rule.
type PriceCheckConfig struct {
	Timeframe time.Duration `json:"timeframe"`
	Deviation float64       `json:"deviation"`
}

// SeqBadTradesConfig parameterizes the bad-trade sequence rule.
type SeqBadTradesConfig struct {
	Timeframe time.Duration `json:"timeframe"`
	Count     int           `json:"count"`
}

// DrawDownConfig parameterizes the trailing drawdown rule.
type DrawDownConfig struct {
	PnlTime   time.Duration `json:"pnlTime"`
	Threshold float64       `json:"threshold"`
}

// WithDefaults fills unset values.
func (c Config) WithDefaults() Config {
	if len(c.Enabled) == 0 {
		c.Enabled = []string{NameNewOrderMoratorium, NamePriceCheck, NameSeqBadTrades, NameDrawDown}
	}
	if c.Moratorium == 0 {
		c.Moratorium = time.Minute
	}
	if c.NewOrderMoratorium.Timeout == 0 {
		c.NewOrderMoratorium.Timeout = time.Second
	}
	if c.PriceCheck.Timeframe == 0 {
		c.PriceCheck.Timeframe = 3 * time.Hour
	}
	if c.PriceCheck.Deviation == 0 {
		c.PriceCheck.Deviation = 0.05
	}
	if c.SeqBadTrades.Timeframe == 0 {
		c.SeqBadTrades.Timeframe = time.Minute
	}
	if c.SeqBadTrades.Count == 0 {
		c.SeqBadTrades.Count = 5
	}
	if c.DrawDown.PnlTime == 0 {
		c.DrawDown.PnlTime = 24 * time.Hour
	}
	if c.DrawDown.Threshold == 0 {
		c.DrawDown.Threshold = 100
	}
	return c
}
