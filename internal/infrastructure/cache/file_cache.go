package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// FileCache stores check results as JSON files so they survive between CLI
// invocations. One file per (check, fingerprint).
type FileCache struct {
	dir        string
	mu         sync.RWMutex
	maxEntries int
	now        func() time.Time
}

// NewFileCache returns a cache rooted at dir, normally <project>/.vitals/cache.
func NewFileCache(dir string, maxEntries int) *FileCache {
	if maxEntries <= 0 {
		maxEntries = domain.DefaultMaxCacheEntries
	}
	return &FileCache{dir: dir, maxEntries: maxEntries, now: time.Now}
}

// Get retrieves a live entry. Read or decode failures are silent misses.
func (c *FileCache) Get(checkID, fingerprint string) (domain.CheckResult, bool) {
	c.mu.RLock()
	data, err := os.ReadFile(c.pathFor(entryKey(checkID, fingerprint)))
	c.mu.RUnlock()
	if err != nil {
		return domain.CheckResult{}, false
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.CheckResult{}, false
	}
	if entry.Expired(c.now()) {
		return domain.CheckResult{}, false
	}
	return entry.Result, true
}

// Put writes an entry atomically through a temp file and rename.
func (c *FileCache) Put(checkID, fingerprint string, result domain.CheckResult, ttl time.Duration) error {
	entry := newEntry(checkID, fingerprint, result, ttl, c.now())
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, domain.DirectoryPermissions); err != nil {
		return err
	}
	path := c.pathFor(entry.Key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, domain.FilePermissions); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return c.evictIfNeeded()
}

// Invalidate removes every file of a check.
func (c *FileCache) Invalidate(checkID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	files, err := c.files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if checkIDFromKey(strings.TrimSuffix(f.Name(), ".json")) == checkID {
			if err := os.Remove(filepath.Join(c.dir, f.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}
	return nil
}

// InvalidateAll removes the cache directory.
func (c *FileCache) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(c.dir)
}

// Dir exposes the cache directory path.
func (c *FileCache) Dir() string {
	return c.dir
}

// Entries lists cache entries (best-effort).
func (c *FileCache) Entries() ([]domain.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	files, err := c.files()
	if err != nil {
		return nil, err
	}
	var entries []domain.CacheEntry
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(c.dir, f.Name()))
		if err != nil {
			continue
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	sortEntries(entries)
	return entries, nil
}

// Stats reports entry counts and the on-disk footprint.
func (c *FileCache) Stats() (ports.CacheStats, error) {
	entries, err := c.Entries()
	if err != nil {
		return ports.CacheStats{}, err
	}
	stats := ports.CacheStats{Entries: len(entries), Location: c.dir}
	now := c.now()
	for _, e := range entries {
		if e.Expired(now) {
			stats.Expired++
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	files, err := c.files()
	if err != nil {
		return stats, err
	}
	for _, f := range files {
		if info, err := f.Info(); err == nil {
			stats.SizeBytes += info.Size()
		}
	}
	return stats, nil
}

func (c *FileCache) pathFor(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *FileCache) files() ([]os.DirEntry, error) {
	all, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	files := all[:0]
	for _, f := range all {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".json") {
			files = append(files, f)
		}
	}
	return files, nil
}

func (c *FileCache) evictIfNeeded() error {
	files, err := c.files()
	if err != nil {
		return err
	}
	if len(files) <= c.maxEntries {
		return nil
	}
	type fileInfo struct {
		name string
		mod  time.Time
	}
	var infos []fileInfo
	for _, f := range files {
		info, err := f.Info()
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{name: f.Name(), mod: info.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].mod.Before(infos[j].mod) })
	for len(infos) > c.maxEntries {
		old := infos[0]
		_ = os.Remove(filepath.Join(c.dir, old.name))
		infos = infos[1:]
	}
	return nil
}

var _ ports.ResultCache = (*FileCache)(nil)
var _ ports.CacheAdmin = (*FileCache)(nil)
