package window

import (
	"sync"
	"time"
)

// Sum wraps a Queue and maintains a running aggregate: add on insert,
// subtract on eviction. The aggregate type is free as long as both hooks
// agree on it.
type Sum[V any, S any] struct {
	mu  sync.Mutex
	q   *Queue[V]
	sum S
	add func(S, V) S
	sub func(S, V) S
}

// NewSum creates a running aggregate over the given frame.
func NewSum[V any, S any](frame time.Duration, add, sub func(S, V) S) *Sum[V, S] {
	s := &Sum[V, S]{add: add, sub: sub}
	s.q = NewQueueOnEvict(frame, 1, func(_ time.Time, v V) {
		s.sum = s.sub(s.sum, v)
	})
	return s
}

// Put inserts a value and updates the aggregate. Too-old values are
// rejected and leave the aggregate untouched.
func (s *Sum[V, S]) Put(t time.Time, v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.q.Put(t, v) {
		return false
	}
	s.sum = s.add(s.sum, v)
	return true
}

// SumAt evicts relative to now and returns the aggregate.
func (s *Sum[V, S]) SumAt(now time.Time) S {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.q.EraseExpired(now)
	return s.sum
}

// SizeAt evicts relative to now and returns the item count.
func (s *Sum[V, S]) SizeAt(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.SizeAt(now)
}

// Size returns the item count without evicting.
func (s *Sum[V, S]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.Size()
}

// Frame returns the sliding time horizon.
func (s *Sum[V, S]) Frame() time.Duration {
	return s.q.Frame()
}

// Clear drops all values and resets the aggregate through the hooks.
func (s *Sum[V, S]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.q.Clear()
}

// Average is a running mean of float64 samples over a frame.
type Average struct {
	sum *Sum[float64, float64]
}

// NewAverage creates a running mean over the given frame.
func NewAverage(frame time.Duration) *Average {
	return &Average{sum: NewSum(frame,
		func(s, v float64) float64 { return s + v },
		func(s, v float64) float64 { return s - v },
	)}
}

// Put inserts a sample.
func (a *Average) Put(t time.Time, v float64) bool {
	return a.sum.Put(t, v)
}

// AverageAt evicts relative to now and returns the mean of the survivors,
// or 0 when empty.
func (a *Average) AverageAt(now time.Time) float64 {
	a.sum.mu.Lock()
	defer a.sum.mu.Unlock()
	a.sum.q.EraseExpired(now)
	n := a.sum.q.Size()
	if n == 0 {
		return 0
	}
	return a.sum.sum / float64(n)
}

// Average returns the mean without evicting.
func (a *Average) Average() float64 {
	a.sum.mu.Lock()
	defer a.sum.mu.Unlock()
	n := a.sum.q.Size()
	if n == 0 {
		return 0
	}
	return a.sum.sum / float64(n)
}

// Clear drops all samples.
func (a *Average) Clear() {
	a.sum.Clear()
}

// Size returns the sample count without evicting.
func (a *Average) Size() int {
	return a.sum.Size()
}
