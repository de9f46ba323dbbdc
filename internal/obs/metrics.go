package obs

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and latency stats for the gate.
type Metrics struct {
	mu           sync.Mutex
	eventCounts  map[string]uint64
	rejectCounts map[string]uint64

	accepted   uint64
	queueDrops uint64
	connsOpen  int64

	checkLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// Observe records a duration sample.
func (s *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	v := uint64(d)
	atomic.AddUint64(&s.count, 1)
	atomic.AddUint64(&s.sum, v)
	for {
		cur := atomic.LoadUint64(&s.min)
		if cur != 0 && cur <= v {
			break
		}
		if atomic.CompareAndSwapUint64(&s.min, cur, v) {
			break
		}
	}
	for {
		cur := atomic.LoadUint64(&s.max)
		if cur >= v {
			break
		}
		if atomic.CompareAndSwapUint64(&s.max, cur, v) {
			break
		}
	}
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

func (s *LatencyStats) snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&s.count)
	out := LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&s.min)),
		Max:   time.Duration(atomic.LoadUint64(&s.max)),
	}
	if count > 0 {
		out.Avg = time.Duration(atomic.LoadUint64(&s.sum) / count)
	}
	return out
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventCounts  map[string]uint64
	RejectCounts map[string]uint64
	Accepted     uint64
	QueueDrops   uint64
	ConnsOpen    int64
	CheckLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{
		eventCounts:  make(map[string]uint64),
		rejectCounts: make(map[string]uint64),
	}
}

// IncEvent counts one inbound event of the given kind.
func (m *Metrics) IncEvent(kind string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.eventCounts[kind]++
	m.mu.Unlock()
}

// IncReject counts one rejection under its reason.
func (m *Metrics) IncReject(reason string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.rejectCounts[reason]++
	m.mu.Unlock()
}

// IncAccepted counts one accepted order.
func (m *Metrics) IncAccepted() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.accepted, 1)
}

// IncQueueDrop records a dropped frame.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// AddConn tracks connection open (+1) and close (-1).
func (m *Metrics) AddConn(delta int64) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.connsOpen, delta)
}

// ObserveCheck measures one order-check pass.
func (m *Metrics) ObserveCheck(d time.Duration) {
	if m == nil {
		return
	}
	m.checkLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	events := make(map[string]uint64, len(m.eventCounts))
	for k, v := range m.eventCounts {
		events[k] = v
	}
	rejects := make(map[string]uint64, len(m.rejectCounts))
	for k, v := range m.rejectCounts {
		rejects[k] = v
	}
	m.mu.Unlock()
	return Snapshot{
		EventCounts:  events,
		RejectCounts: rejects,
		Accepted:     atomic.LoadUint64(&m.accepted),
		QueueDrops:   atomic.LoadUint64(&m.queueDrops),
		ConnsOpen:    atomic.LoadInt64(&m.connsOpen),
		CheckLatency: m.checkLatency.snapshot(),
	}
}
