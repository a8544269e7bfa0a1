package local

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration
}

type entry struct {
	data     string
	expireAt time.Time // zero: never
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// LocalCache is the in-process backend for sessions and recent-craft lists.
// Lists never expire; the GC only sweeps KV entries.
type LocalCache struct {
	mu    sync.Mutex
	kv    map[string]entry
	lists map[string][]string

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCache creates a LocalCache and starts the background GC goroutine.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		kv:    make(map[string]entry),
		lists: make(map[string][]string),
		stop:  make(chan struct{}),
	}
	go c.runGC(interval)
	return c, nil
}

// Close stops the GC goroutine. It is safe to call more than once.
func (c *LocalCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *LocalCache) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.sweep(now)
		case <-c.stop:
			return
		}
	}
}

func (c *LocalCache) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.kv {
		if e.expired(now) {
			delete(c.kv, k)
			n++
		}
	}
	return n
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.kv[key]
	if !ok {
		return "", ErrNotFound
	}
	if e.expired(time.Now()) {
		delete(c.kv, key)
		return "", ErrNotFound
	}
	return e.data, nil
}

// Set stores value under key. A ttl of zero or less never expires.
func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{data: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.kv[key] = e
	c.mu.Unlock()
	return nil
}

// Del removes KV entries and lists stored under keys.
func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.kv, k)
		delete(c.lists, k)
	}
	return nil
}

// PushCapped puts value at the head of the list and keeps at most limit entries.
func (c *LocalCache) PushCapped(_ context.Context, key string, limit int, value string) error {
	if limit <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.lists[key]
	n := min(len(old)+1, limit)
	l := make([]string, n)
	l[0] = value
	copy(l[1:], old)
	c.lists[key] = l
	return nil
}

// Range returns up to limit entries from the head of the list. A missing
// list is empty, not an error.
func (c *LocalCache) Range(_ context.Context, key string, limit int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.lists[key]
	if limit > 0 && len(l) > limit {
		l = l[:limit]
	}
	out := make([]string, len(l))
	copy(out, l)
	return out, nil
}
