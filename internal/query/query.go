package query

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies a cached read, e.g. {"attendance", classID}.
// Invalidation matches keys by prefix.
type Key []string

func (k Key) String() string { return strings.Join(k, "/") }

// With returns a new key extending k.
func (k Key) With(parts ...string) Key {
	out := make(Key, 0, len(k)+len(parts))
	return append(append(out, k...), parts...)
}

// HasPrefix reports whether p is a leading subsequence of k.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

// Fetcher loads the data behind a key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Client caches read results shared by every consumer of a key.
// Results stay fresh until invalidated or, when staleAfter > 0, until they age out.
type Client struct {
	mu         sync.Mutex
	entries    map[string]*entry
	group      singleflight.Group
	staleAfter time.Duration
	now        func() time.Time
}

type entry struct {
	key        Key
	value      any
	hasValue   bool
	fetchedAt  time.Time
	generation uint64
	valueGen   uint64
	inFlight   int
}

// NewClient creates an empty cache.
func NewClient(staleAfter time.Duration) *Client {
	return &Client{
		entries:    make(map[string]*entry),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Fetch returns the cached value for key, calling fn when the entry is missing,
// invalidated or aged out. Concurrent callers of one key share a single call.
// Failed fetches are not cached.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn Fetcher[T]) (T, error) {
	ks := key.String()

	c.mu.Lock()
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{key: append(Key(nil), key...)}
		c.entries[ks] = e
	}
	if c.freshLocked(e) {
		v := e.value.(T)
		c.mu.Unlock()
		return v, nil
	}
	gen := e.generation
	e.inFlight++
	c.mu.Unlock()

	// Shared by every waiter on the key, so it outlives any one caller.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(ks+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		return fn(shared)
	})

	c.mu.Lock()
	e.inFlight--
	if err == nil && gen >= e.valueGen {
		e.value = v
		e.hasValue = true
		e.valueGen = gen
		e.fetchedAt = c.now()
	}
	c.mu.Unlock()

	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Peek returns whatever is cached for key, fresh or not, without fetching.
func Peek[T any](c *Client, key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || !e.hasValue {
		var zero T
		return zero, false
	}
	v, ok := e.value.(T)
	return v, ok
}

// Invalidate marks every entry under prefix stale so the next read refetches.
// A fetch already in flight for such an entry will not make it fresh again.
// It returns the number of entries touched.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.generation++
			n++
		}
	}
	return n
}

// Fetching reports whether any read under prefix is in flight.
func (c *Client) Fetching(prefix Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.inFlight > 0 && e.key.HasPrefix(prefix) {
			return true
		}
	}
	return false
}

func (c *Client) freshLocked(e *entry) bool {
	if !e.hasValue || e.valueGen != e.generation {
		return false
	}
	if c.staleAfter > 0 && c.now().Sub(e.fetchedAt) > c.staleAfter {
		return false
	}
	return true
}

// Query binds a key and fetcher into a reusable read, the unit consumers hold on to.
// A disabled query yields the zero value without fetching.
type Query[T any] struct {
	Client  *Client
	Key     Key
	Enabled bool
	Fetch   Fetcher[T]
}

// Data returns the query's result.
func (q Query[T]) Data(ctx context.Context) (T, error) {
	if !q.Enabled {
		var zero T
		return zero, nil
	}
	return Fetch(ctx, q.Client, q.Key, q.Fetch)
}

// Refetch drops the cached result and loads it again.
func (q Query[T]) Refetch(ctx context.Context) (T, error) {
	q.Client.Invalidate(q.Key)
	return q.Data(ctx)
}

// Loading reports whether the query's fetch is in flight.
func (q Query[T]) Loading() bool {
	if !q.Enabled {
		return false
	}
	return q.Client.Fetching(q.Key)
}
