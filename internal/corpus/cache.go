package corpus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is the default maximum snapshot age before a refresh.
const DefaultTTL = time.Hour

// Cache holds the most recently fetched snapshot and refreshes it from the
// upstream source when it goes stale. The snapshot is replaced atomically;
// readers always see a complete fetch epoch.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewCache creates a corpus cache over the given source.
func NewCache(source Source, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Fetch returns the current snapshot if it is fresh and force is false;
// otherwise it fetches from the upstream source and swaps the snapshot in.
// On fetch failure with no cached snapshot, the upstream error propagates.
// On fetch failure with a stale cached snapshot, the stale snapshot is
// returned with a warning rather than failing the caller.
func (c *Cache) Fetch(ctx context.Context, force bool) (*Snapshot, error) {
	if !force {
		if snap := c.freshSnapshot(); snap != nil {
			slog.Debug("returning cached messages", slog.Int("count", snap.Len()))
			return snap, nil
		}
	}

	_, messages, err := c.source.FetchAll(ctx)
	if err != nil {
		c.mu.RLock()
		stale := c.snapshot
		c.mu.RUnlock()

		if stale != nil && !force {
			slog.Warn("upstream unavailable, serving stale snapshot",
				slog.Int("count", stale.Len()),
				slog.Duration("age", stale.Age(c.now())),
				slog.String("error", err.Error()))
			return stale, nil
		}
		return nil, err
	}

	snap := &Snapshot{
		Messages:  messages,
		FetchedAt: c.now(),
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	return snap, nil
}

// Cached returns the current snapshot without fetching, or nil if none.
func (c *Cache) Cached() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Prime installs a snapshot directly, e.g. one restored from the backup file.
func (c *Cache) Prime(snap *Snapshot) {
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
}

// freshSnapshot returns the snapshot if present and within TTL, nil otherwise.
func (c *Cache) freshSnapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshot == nil {
		return nil
	}
	if c.snapshot.Age(c.now()) >= c.ttl {
		return nil
	}
	return c.snapshot
}
