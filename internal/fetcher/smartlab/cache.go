package smartlab

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PageCache keeps fetched HTML on disk, keyed by URL, for a fixed TTL.
// A nil *PageCache or a zero TTL disables caching.
type PageCache struct {
	dir string
	ttl time.Duration
	mu  sync.RWMutex
	now func() time.Time
}

type pageEntry struct {
	URL       string    `json:"url"`
	Body      []byte    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
}

func NewPageCache(dir string, ttl time.Duration) (*PageCache, error) {
	if ttl <= 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &PageCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached page if it is younger than the TTL.
func (c *PageCache) Get(url string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.path(url))
	if err != nil {
		return nil, false
	}
	var e pageEntry
	if err := json.Unmarshal(data, &e); err != nil || e.URL != url {
		return nil, false
	}
	if c.now().Sub(e.FetchedAt) > c.ttl {
		return nil, false
	}
	return e.Body, true
}

func (c *PageCache) Set(url string, body []byte) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(pageEntry{URL: url, Body: body, FetchedAt: c.now()})
	if err != nil {
		return err
	}
	tmp := c.path(url) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path(url))
}

// Prune deletes entries older than the TTL.
func (c *PageCache) Prune() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if c.now().Sub(info.ModTime()) > c.ttl {
			_ = os.Remove(filepath.Join(c.dir, entry.Name()))
		}
	}
	return nil
}

func (c *PageCache) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:16])+".json")
}
