package engine

import (
	"sync"
	"time"

	"riskgate/internal/locked"
	"riskgate/internal/schema"
)

// Investor is the engine-level per-user record. Rules keep their own state;
// the engine only tracks the post-rejection cool-off mark.
type Investor struct {
	mu              sync.Mutex
	moratoriumUntil time.Time
}

// MoratoriumUntil returns the current cool-off deadline.
func (inv *Investor) MoratoriumUntil() time.Time {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.moratoriumUntil
}

// SetMoratorium records a cool-off deadline.
func (inv *Investor) SetMoratorium(until time.Time) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.moratoriumUntil = until
}

type investors struct {
	m *locked.Map[schema.UserID, *Investor]
}

func newInvestors() investors {
	return investors{m: locked.NewMap[schema.UserID, *Investor]()}
}

func (s investors) get(id schema.UserID) *Investor {
	inv, _ := s.m.GetOrCreate(id, func() *Investor { return &Investor{} })
	return inv
}
