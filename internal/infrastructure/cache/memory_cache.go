package cache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// MemoryCache keeps results for the lifetime of the process.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
	now     func() time.Time
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]domain.CacheEntry), now: time.Now}
}

// Get returns a live entry. Expired entries are reported as misses and dropped lazily on write.
func (c *MemoryCache) Get(checkID, fingerprint string) (domain.CheckResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[entryKey(checkID, fingerprint)]
	c.mu.RUnlock()
	if !ok || entry.Expired(c.now()) {
		return domain.CheckResult{}, false
	}
	return entry.Result.Clone(), true
}

// Put stores a result until ttl elapses.
func (c *MemoryCache) Put(checkID, fingerprint string, result domain.CheckResult, ttl time.Duration) error {
	now := c.now()
	entry := newEntry(checkID, fingerprint, result, ttl, now)

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, existing := range c.entries {
		if existing.Expired(now) {
			delete(c.entries, key)
		}
	}
	c.entries[entry.Key] = entry
	return nil
}

// Invalidate drops every entry of a check.
func (c *MemoryCache) Invalidate(checkID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.CheckID == checkID {
			delete(c.entries, key)
		}
	}
	return nil
}

// InvalidateAll empties the cache.
func (c *MemoryCache) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]domain.CacheEntry)
	return nil
}

// Entries lists stored entries ordered by check id.
func (c *MemoryCache) Entries() ([]domain.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.CacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		e.Result = e.Result.Clone()
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

// Stats reports the number of live and expired entries.
func (c *MemoryCache) Stats() (ports.CacheStats, error) {
	entries, _ := c.Entries()
	stats := ports.CacheStats{Entries: len(entries), Location: "memory"}
	now := c.now()
	for _, e := range entries {
		if e.Expired(now) {
			stats.Expired++
		}
	}
	return stats, nil
}

const keySeparator = "--"

func entryKey(checkID, fingerprint string) string {
	return checkID + keySeparator + fingerprint
}

// checkIDFromKey strips the fingerprint suffix from a key.
func checkIDFromKey(key string) string {
	if i := strings.LastIndex(key, keySeparator); i >= 0 {
		return key[:i]
	}
	return key
}

func newEntry(checkID, fingerprint string, result domain.CheckResult, ttl time.Duration, now time.Time) domain.CacheEntry {
	entry := domain.CacheEntry{
		Key:         entryKey(checkID, fingerprint),
		CheckID:     checkID,
		Fingerprint: fingerprint,
		Result:      result.Clone(),
		CreatedAt:   now,
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}
	return entry
}

func sortEntries(entries []domain.CacheEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CheckID != entries[j].CheckID {
			return entries[i].CheckID < entries[j].CheckID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

var _ ports.ResultCache = (*MemoryCache)(nil)
var _ ports.CacheAdmin = (*MemoryCache)(nil)
