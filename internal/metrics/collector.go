// Package metrics collects in-process counters and latency histograms for
// commits and card lookups. A nil *Collector is valid and records nothing.
package metrics

import (
	"sync/atomic"
	"time"
)

// Collector tracks commit and card lookup activity.
type Collector struct {
	CommitLatency  *Histogram
	ResolveLatency *Histogram

	Commits        atomic.Uint64
	CommitFailures atomic.Uint64
	Reverts        atomic.Uint64
	ChangesApplied atomic.Uint64
	ChangesSkipped atomic.Uint64

	CacheHits      atomic.Uint64
	CacheMisses    atomic.Uint64
	ProviderErrors atomic.Uint64

	startTime time.Time
}

// NewCollector creates a collector.
func NewCollector() *Collector {
	return &Collector{
		CommitLatency:  NewHistogram(DefaultSamples),
		ResolveLatency: NewHistogram(DefaultSamples),
		startTime:      time.Now(),
	}
}

// RecordCommit records a finished commit attempt.
func (c *Collector) RecordCommit(d time.Duration, applied, skipped int, err error) {
	if c == nil {
		return
	}
	c.CommitLatency.Record(d)
	if err != nil {
		c.CommitFailures.Add(1)
		return
	}
	c.Commits.Add(1)
	c.ChangesApplied.Add(uint64(applied))
	c.ChangesSkipped.Add(uint64(skipped))
}

// RecordRevert counts a successful revert.
func (c *Collector) RecordRevert() {
	if c == nil {
		return
	}
	c.Reverts.Add(1)
}

// RecordResolve records one cache-first lookup.
func (c *Collector) RecordResolve(d time.Duration, hits, misses int) {
	if c == nil {
		return
	}
	c.ResolveLatency.Record(d)
	c.CacheHits.Add(uint64(hits))
	c.CacheMisses.Add(uint64(misses))
}

// RecordProviderError counts a failed provider fetch.
func (c *Collector) RecordProviderError() {
	if c == nil {
		return
	}
	c.ProviderErrors.Add(1)
}

// Snapshot is a point-in-time view of a Collector.
type Snapshot struct {
	CommitLatency  LatencyStats `json:"commit_latency"`
	ResolveLatency LatencyStats `json:"resolve_latency"`

	Commits        uint64 `json:"commits"`
	CommitFailures uint64 `json:"commit_failures"`
	Reverts        uint64 `json:"reverts"`
	ChangesApplied uint64 `json:"changes_applied"`
	ChangesSkipped uint64 `json:"changes_skipped"`

	CacheHits      uint64  `json:"cache_hits"`
	CacheMisses    uint64  `json:"cache_misses"`
	CacheHitRate   float64 `json:"cache_hit_rate"` // percentage
	ProviderErrors uint64  `json:"provider_errors"`

	Uptime string `json:"uptime"`
}

// Snapshot returns the current values.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}

	hits := c.CacheHits.Load()
	misses := c.CacheMisses.Load()
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses) * 100
	}

	return Snapshot{
		CommitLatency:  c.CommitLatency.Summary(),
		ResolveLatency: c.ResolveLatency.Summary(),
		Commits:        c.Commits.Load(),
		CommitFailures: c.CommitFailures.Load(),
		Reverts:        c.Reverts.Load(),
		ChangesApplied: c.ChangesApplied.Load(),
		ChangesSkipped: c.ChangesSkipped.Load(),
		CacheHits:      hits,
		CacheMisses:    misses,
		CacheHitRate:   hitRate,
		ProviderErrors: c.ProviderErrors.Load(),
		Uptime:         time.Since(c.startTime).Round(time.Second).String(),
	}
}
