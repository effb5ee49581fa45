// Package metrics provides latency tracking with percentile calculations.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// LatencyTracker tracks durations and calculates percentiles over a sliding
// window of recent samples.
type LatencyTracker struct {
	mu         sync.Mutex
	samples    []int64 // microseconds
	maxSamples int
	sorted     bool
}

// NewLatencyTracker creates a new latency tracker.
// windowSize determines how many samples to keep for percentile calculation.
func NewLatencyTracker(windowSize int) *LatencyTracker {
	if windowSize <= 0 {
		windowSize = 1000
	}
	return &LatencyTracker{
		samples:    make([]int64, 0, windowSize),
		maxSamples: windowSize,
	}
}

// Record records a latency measurement.
func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if len(lt.samples) >= lt.maxSamples {
		// Drop the oldest 10% to avoid shifting on every insert
		removeCount := lt.maxSamples / 10
		if removeCount < 1 {
			removeCount = 1
		}
		lt.samples = lt.samples[removeCount:]
	}

	lt.samples = append(lt.samples, d.Microseconds())
	lt.sorted = false
}

// LatencyStats holds latency statistics.
type LatencyStats struct {
	Count int64         `json:"count"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Avg   time.Duration `json:"avg"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
}

// Stats returns latency statistics including percentiles.
func (lt *LatencyTracker) Stats() LatencyStats {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	n := len(lt.samples)
	if n == 0 {
		return LatencyStats{}
	}

	if !lt.sorted {
		sort.Slice(lt.samples, func(i, j int) bool { return lt.samples[i] < lt.samples[j] })
		lt.sorted = true
	}

	var sum int64
	for _, v := range lt.samples {
		sum += v
	}

	return LatencyStats{
		Count: int64(n),
		Min:   time.Duration(lt.samples[0]) * time.Microsecond,
		Max:   time.Duration(lt.samples[n-1]) * time.Microsecond,
		Avg:   time.Duration(sum/int64(n)) * time.Microsecond,
		P50:   time.Duration(lt.percentile(0.50)) * time.Microsecond,
		P95:   time.Duration(lt.percentile(0.95)) * time.Microsecond,
		P99:   time.Duration(lt.percentile(0.99)) * time.Microsecond,
	}
}

// percentile assumes samples are sorted and the mutex is held.
func (lt *LatencyTracker) percentile(p float64) int64 {
	n := len(lt.samples)
	if n == 0 {
		return 0
	}
	idx := int(float64(n-1) * p)
	return lt.samples[idx]
}

// StageMetrics tracks per-pipeline-stage latency and fallback usage.
type StageMetrics struct {
	mu       sync.RWMutex
	trackers map[string]*LatencyTracker

	fallbacks map[string]*int64
	calls     map[string]*int64
}

// NewStageMetrics creates an empty stage metrics registry.
func NewStageMetrics() *StageMetrics {
	return &StageMetrics{
		trackers:  make(map[string]*LatencyTracker),
		fallbacks: make(map[string]*int64),
		calls:     make(map[string]*int64),
	}
}

func (m *StageMetrics) tracker(stage string) *LatencyTracker {
	m.mu.RLock()
	lt, ok := m.trackers[stage]
	m.mu.RUnlock()
	if ok {
		return lt
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if lt, ok = m.trackers[stage]; ok {
		return lt
	}
	lt = NewLatencyTracker(1000)
	m.trackers[stage] = lt
	m.fallbacks[stage] = new(int64)
	m.calls[stage] = new(int64)
	return lt
}

// Observe records one stage invocation.
func (m *StageMetrics) Observe(stage string, d time.Duration, fallbackUsed bool) {
	lt := m.tracker(stage)
	lt.Record(d)

	m.mu.RLock()
	atomic.AddInt64(m.calls[stage], 1)
	if fallbackUsed {
		atomic.AddInt64(m.fallbacks[stage], 1)
	}
	m.mu.RUnlock()
}

// StageSnapshot is the exported view of one stage's metrics.
type StageSnapshot struct {
	Stage     string       `json:"stage"`
	Calls     int64        `json:"calls"`
	Fallbacks int64        `json:"fallbacks"`
	Latency   LatencyStats `json:"latency"`
}

// Snapshot returns a point-in-time view of all stages.
func (m *StageMetrics) Snapshot() []StageSnapshot {
	m.mu.RLock()
	stages := make([]string, 0, len(m.trackers))
	for s := range m.trackers {
		stages = append(stages, s)
	}
	m.mu.RUnlock()

	sort.Strings(stages)

	out := make([]StageSnapshot, 0, len(stages))
	for _, s := range stages {
		m.mu.RLock()
		lt := m.trackers[s]
		calls := atomic.LoadInt64(m.calls[s])
		fb := atomic.LoadInt64(m.fallbacks[s])
		m.mu.RUnlock()

		out = append(out, StageSnapshot{
			Stage:     s,
			Calls:     calls,
			Fallbacks: fb,
			Latency:   lt.Stats(),
		})
	}
	return out
}
