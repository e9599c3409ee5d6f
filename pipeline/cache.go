package pipeline

import (
	"sync"
	"time"

	"github.com/theimaginaryfoundation/sleuth-o-bot/detective"
)

const defaultSignalCacheTTL = 5 * time.Minute

// now is overridable in tests for deterministic TTL checks.
var now = time.Now

type cacheEntry struct {
	bundle detective.SignalBundle
	at     time.Time
}

// signalCache keeps the last fetched bundle per mode so a retried run does
// not re-issue expensive fetches. Demo and live bundles never mix: the key
// is the demo flag.
type signalCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[bool]cacheEntry
}

func newSignalCache(ttl time.Duration) *signalCache {
	if ttl <= 0 {
		ttl = defaultSignalCacheTTL
	}
	return &signalCache{
		ttl:     ttl,
		entries: make(map[bool]cacheEntry, 2),
	}
}

func (c *signalCache) get(demo bool) (detective.SignalBundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[demo]
	if !ok {
		return detective.SignalBundle{}, false
	}
	if now().Sub(entry.at) > c.ttl {
		delete(c.entries, demo)
		return detective.SignalBundle{}, false
	}
	return entry.bundle, true
}

func (c *signalCache) put(demo bool, bundle detective.SignalBundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[demo] = cacheEntry{bundle: bundle, at: now()}
}

func (c *signalCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[bool]cacheEntry, 2)
}
