package rule

import (
	"github.com/yanun0323/logs"

	"riskgate/internal/engine"
)

// Rule is an installed order check. Closing it detaches its callbacks from
// the engine.
type Rule interface {
	Name() string
	Close()
}

// Install constructs the enabled rules against the engine in configuration
// order. Unknown names are logged and skipped.
func Install(eng *engine.Engine, cfg Config) []Rule {
	cfg = cfg.WithDefaults()
	rules := make([]Rule, 0, len(cfg.Enabled))
	for _, name := range cfg.Enabled {
		switch name {
		case NameNewOrderMoratorium:
			rules = append(rules, NewMoratorium(eng, cfg))
		case NamePriceCheck:
			rules = append(rules, NewPriceCheck(eng, cfg))
		case NameSeqBadTrades:
			rules = append(rules, NewSeqBadTrades(eng, cfg))
		case NameDrawDown:
			rules = append(rules, NewDrawDown(eng, cfg))
		default:
			logs.Errorf("unknown order check rule: %s", name)
		}
	}
	return rules
}

// CloseAll detaches every rule.
func CloseAll(rules []Rule) {
	for _, r := range rules {
		r.Close()
	}
}
