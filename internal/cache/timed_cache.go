package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/btc-dashboard-go/internal/clock"
)

const fetchedAtField = "fetched_at"

// TimedCache stores upstream responses with a fetch timestamp and serves them
// while younger than the resource TTL. It never returns errors to callers: any
// problem reading an entry is a miss and any problem writing one is logged.
type TimedCache struct {
	store     Store
	clock     clock.Clock
	logger    *logrus.Logger
	analytics *Analytics
}

// NewTimedCache creates a TimedCache. analytics may be nil.
func NewTimedCache(store Store, clk clock.Clock, logger *logrus.Logger, analytics *Analytics) *TimedCache {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &TimedCache{store: store, clock: clk, logger: logger, analytics: analytics}
}

// Store returns the backing store.
func (c *TimedCache) Store() Store { return c.store }

// Analytics returns the hit/miss tracker, possibly nil.
func (c *TimedCache) Analytics() *Analytics { return c.analytics }

// Read decodes the cached payload into dst when the entry is fresh, meaning
// now - fetched_at < TTL. Missing, malformed, and stale entries report false
// and leave dst untouched.
func (c *TimedCache) Read(ctx context.Context, res Resource, dst interface{}) bool {
	fetchedAt, payload, err := c.load(ctx, res)
	if err != nil {
		c.miss(res, err)
		return false
	}

	age := c.clock.Now().Sub(fetchedAt)
	if age >= res.TTL {
		c.miss(res, fmt.Errorf("entry expired %s ago", age-res.TTL))
		return false
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		c.miss(res, fmt.Errorf("decode payload: %w", err))
		return false
	}

	c.analytics.RecordHit(res.Key)
	c.logger.WithFields(logrus.Fields{
		"component": "timed_cache",
		"cache_key": res.Key,
		"hit":       true,
		"age":       age.String(),
	}).Debug("Cache read")
	return true
}

// ReadStale decodes the cached payload regardless of age. It returns the time
// the entry was fetched and whether anything usable was found.
func (c *TimedCache) ReadStale(ctx context.Context, res Resource, dst interface{}) (time.Time, bool) {
	fetchedAt, payload, err := c.load(ctx, res)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"component": "timed_cache",
			"cache_key": res.Key,
			"error":     err.Error(),
		}).Debug("No stale cache entry available")
		return time.Time{}, false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		c.logger.WithFields(logrus.Fields{
			"component": "timed_cache",
			"cache_key": res.Key,
			"error":     err.Error(),
		}).Warn("Stale cache entry could not be decoded")
		return time.Time{}, false
	}

	c.analytics.RecordStaleHit(res.Key)
	return fetchedAt, true
}

// Write stores payload with the current time as fetched_at, replacing any
// previous entry. Failures are logged and swallowed.
func (c *TimedCache) Write(ctx context.Context, res Resource, payload interface{}) {
	data, err := c.encode(res, payload)
	if err == nil {
		err = c.store.Save(ctx, res.Key, data)
	}

	c.analytics.RecordWrite(res.Key, err != nil)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"component": "timed_cache",
			"cache_key": res.Key,
			"backend":   c.store.Name(),
			"error":     err.Error(),
		}).Warn("Failed to write cache entry")
	}
}

func (c *TimedCache) encode(res Resource, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	entry := map[string]json.RawMessage{
		res.Field: body,
	}
	stamp, _ := json.Marshal(c.clock.Now().UTC().Format(time.RFC3339Nano))
	entry[fetchedAtField] = stamp
	return json.Marshal(entry)
}

func (c *TimedCache) load(ctx context.Context, res Resource) (time.Time, json.RawMessage, error) {
	data, err := c.store.Load(ctx, res.Key)
	if err != nil {
		return time.Time{}, nil, err
	}

	var entry map[string]json.RawMessage
	if err := json.Unmarshal(data, &entry); err != nil {
		return time.Time{}, nil, fmt.Errorf("malformed entry: %w", err)
	}

	rawStamp, ok := entry[fetchedAtField]
	if !ok {
		return time.Time{}, nil, errors.New("entry has no fetched_at")
	}
	var stamp string
	if err := json.Unmarshal(rawStamp, &stamp); err != nil {
		return time.Time{}, nil, fmt.Errorf("fetched_at is not a string: %w", err)
	}
	fetchedAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("fetched_at: %w", err)
	}

	payload, ok := entry[res.Field]
	if !ok {
		return time.Time{}, nil, fmt.Errorf("entry has no %q field", res.Field)
	}
	return fetchedAt, payload, nil
}

func (c *TimedCache) miss(res Resource, reason error) {
	c.analytics.RecordMiss(res.Key)
	fields := logrus.Fields{
		"component": "timed_cache",
		"cache_key": res.Key,
		"hit":       false,
	}
	if reason != nil && !errors.Is(reason, ErrNotFound) {
		fields["reason"] = reason.Error()
	}
	c.logger.WithFields(fields).Debug("Cache read")
}

// GetOrFetch returns the fresh cached value for res or calls fetch, caches
// its result and returns it. Fetch errors are returned unchanged and nothing
// is written.
func GetOrFetch[T any](ctx context.Context, c *TimedCache, res Resource, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.Read(ctx, res, &cached) {
		return cached, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Write(ctx, res, value)
	return value, nil
}
