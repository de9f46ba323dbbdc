package window

import (
	"cmp"
	"sort"
	"sync"
	"time"
)

// MinMax wraps a Queue and maintains a running multiset of the present
// values so the minimum and maximum are readable in constant time.
type MinMax[V cmp.Ordered] struct {
	mu sync.Mutex
	q  *Queue[V]

	// distinct values sorted ascending, with parallel occurrence counts
	vals   []V
	counts []int
}

// NewMinMax creates a running min/max over the given frame.
func NewMinMax[V cmp.Ordered](frame time.Duration) *MinMax[V] {
	m := &MinMax[V]{}
	m.q = NewQueueOnEvict(frame, 1, func(_ time.Time, v V) {
		m.remove(v)
	})
	return m
}

// Put inserts a value.
func (m *MinMax[V]) Put(t time.Time, v V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.q.Put(t, v) {
		return false
	}
	i := sort.Search(len(m.vals), func(i int) bool { return m.vals[i] >= v })
	if i < len(m.vals) && m.vals[i] == v {
		m.counts[i]++
		return true
	}
	m.vals = append(m.vals, v)
	copy(m.vals[i+1:], m.vals[i:])
	m.vals[i] = v
	m.counts = append(m.counts, 0)
	copy(m.counts[i+1:], m.counts[i:])
	m.counts[i] = 1
	return true
}

func (m *MinMax[V]) remove(v V) {
	i := sort.Search(len(m.vals), func(i int) bool { return m.vals[i] >= v })
	if i >= len(m.vals) || m.vals[i] != v {
		return
	}
	m.counts[i]--
	if m.counts[i] == 0 {
		m.vals = append(m.vals[:i], m.vals[i+1:]...)
		m.counts = append(m.counts[:i], m.counts[i+1:]...)
	}
}

// MinAt evicts relative to now and returns the smallest present value, or
// the zero value when empty.
func (m *MinMax[V]) MinAt(now time.Time) V {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.q.EraseExpired(now)
	var zero V
	if len(m.vals) == 0 {
		return zero
	}
	return m.vals[0]
}

// MaxAt evicts relative to now and returns the largest present value, or
// the zero value when empty.
func (m *MinMax[V]) MaxAt(now time.Time) V {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.q.EraseExpired(now)
	var zero V
	if len(m.vals) == 0 {
		return zero
	}
	return m.vals[len(m.vals)-1]
}

// Min returns the smallest present value without evicting.
func (m *MinMax[V]) Min() V {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero V
	if len(m.vals) == 0 {
		return zero
	}
	return m.vals[0]
}

// Max returns the largest present value without evicting.
func (m *MinMax[V]) Max() V {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero V
	if len(m.vals) == 0 {
		return zero
	}
	return m.vals[len(m.vals)-1]
}

// Size returns the item count without evicting.
func (m *MinMax[V]) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q.Size()
}

// Frame returns the sliding time horizon.
func (m *MinMax[V]) Frame() time.Duration {
	return m.q.Frame()
}
