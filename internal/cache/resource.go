package cache

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]*$`)

// Resource binds a cache key to its TTL and the JSON field the payload is
// stored under.
type Resource struct {
	Key   string        `json:"key"`
	TTL   time.Duration `json:"ttl"`
	Field string        `json:"field"`
}

// Registry hands out Resources and guarantees a key always carries the same
// TTL and field.
type Registry struct {
	mu        sync.Mutex
	resources map[string]Resource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{resources: make(map[string]Resource)}
}

// Register returns the Resource for key. Registering a known key again with
// identical settings returns the existing Resource; different settings are an
// error.
func (r *Registry) Register(key string, ttl time.Duration, field string) (Resource, error) {
	if !keyPattern.MatchString(key) {
		return Resource{}, fmt.Errorf("invalid cache key %q", key)
	}
	if ttl <= 0 {
		return Resource{}, fmt.Errorf("cache key %q: ttl must be positive, got %s", key, ttl)
	}
	if field == "" || field == fetchedAtField {
		return Resource{}, fmt.Errorf("cache key %q: invalid payload field %q", key, field)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := Resource{Key: key, TTL: ttl, Field: field}
	if existing, ok := r.resources[key]; ok {
		if existing != res {
			return Resource{}, fmt.Errorf("cache key %q already registered with ttl=%s field=%q",
				key, existing.TTL, existing.Field)
		}
		return existing, nil
	}
	r.resources[key] = res
	return res, nil
}

// MustRegister is Register that panics on conflict. Intended for wiring at
// startup.
func (r *Registry) MustRegister(key string, ttl time.Duration, field string) Resource {
	res, err := r.Register(key, ttl, field)
	if err != nil {
		panic(err)
	}
	return res
}

// Resources lists registered resources ordered by key.
func (r *Registry) Resources() []Resource {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
