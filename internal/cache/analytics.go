package cache

import (
	"sort"
	"sync"
	"time"
)

const overallCategory = "overall"

// Stats represents cache statistics for one resource.
type Stats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	StaleHits   int64     `json:"stale_hits"`
	Writes      int64     `json:"writes"`
	WriteErrors int64     `json:"write_errors"`
	HitRate     float64   `json:"hit_rate"`
	TotalOps    int64     `json:"total_ops"`
	LastUpdated time.Time `json:"last_updated"`
}

// Metrics is the snapshot returned by the cache stats endpoint.
type Metrics struct {
	Backend    string           `json:"backend"`
	Overall    Stats            `json:"overall"`
	ByResource map[string]Stats `json:"by_resource"`
}

// Analytics tracks cache performance per resource key.
type Analytics struct {
	stats map[string]*Stats
	mu    sync.RWMutex
}

// NewAnalytics creates an empty tracker.
func NewAnalytics() *Analytics {
	return &Analytics{stats: make(map[string]*Stats)}
}

// RecordHit records a fresh read for key.
func (a *Analytics) RecordHit(key string) {
	a.record(key, func(s *Stats) {
		s.Hits++
		s.TotalOps++
	})
}

// RecordMiss records a read that found nothing usable.
func (a *Analytics) RecordMiss(key string) {
	a.record(key, func(s *Stats) {
		s.Misses++
		s.TotalOps++
	})
}

// RecordStaleHit records a fallback read of an expired entry.
func (a *Analytics) RecordStaleHit(key string) {
	a.record(key, func(s *Stats) {
		s.StaleHits++
	})
}

// RecordWrite records a write attempt and whether it failed.
func (a *Analytics) RecordWrite(key string, failed bool) {
	a.record(key, func(s *Stats) {
		s.Writes++
		if failed {
			s.WriteErrors++
		}
	})
}

func (a *Analytics) record(key string, apply func(*Stats)) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	for _, category := range []string{key, overallCategory} {
		s := a.stats[category]
		if s == nil {
			s = &Stats{}
			a.stats[category] = s
		}
		apply(s)
		if s.TotalOps > 0 {
			s.HitRate = float64(s.Hits) / float64(s.TotalOps)
		}
		s.LastUpdated = now
	}
}

// GetStats returns statistics for a key, or zero stats if it was never used.
func (a *Analytics) GetStats(key string) Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if s, ok := a.stats[key]; ok {
		return *s
	}
	return Stats{}
}

// Keys lists tracked resource keys in sorted order.
func (a *Analytics) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	keys := make([]string, 0, len(a.stats))
	for k := range a.stats {
		if k != overallCategory {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of all counters.
func (a *Analytics) Snapshot(backend string) Metrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	m := Metrics{Backend: backend, ByResource: make(map[string]Stats, len(a.stats))}
	for k, s := range a.stats {
		if k == overallCategory {
			m.Overall = *s
			continue
		}
		m.ByResource[k] = *s
	}
	return m
}

// Reset clears all statistics.
func (a *Analytics) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats = make(map[string]*Stats)
}
