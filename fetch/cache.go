package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/promptcrawl/promptcrawl/utils"
)

// A Cache stores per-URL crawl outcomes between runs. Values are opaque JSON
// blobs; corrupt entries are treated as misses.
type Cache interface {
	Get(url string) ([]byte, bool)
	Set(url string, value []byte) error
	Delete(url string) error
}

// CacheKey derives the stable filename-safe identifier for a URL.
func CacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

// FileCache keeps one JSON file per URL under a cache directory.
type FileCache struct {
	Dir string
}

func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, fmt.Errorf("error creating cache directory %q: %w", dir, err)
	}
	return &FileCache{Dir: dir}, nil
}

func (c *FileCache) path(url string) string {
	return filepath.Join(c.Dir, CacheKey(url)+".json")
}

func (c *FileCache) Get(url string) ([]byte, bool) {
	bs, err := os.ReadFile(c.path(url))
	if err != nil {
		return nil, false
	}
	return bs, true
}

func (c *FileCache) Set(url string, value []byte) error {
	slog.Debug("caching result", slog.String("url", url), slog.String("key", CacheKey(url)))
	return utils.WriteBytesFile(c.path(url), value)
}

func (c *FileCache) Delete(url string) error {
	err := os.Remove(c.path(url))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every cached entry.
func (c *FileCache) Clear() error {
	paths, err := filepath.Glob(filepath.Join(c.Dir, "*.json"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			return err
		}
	}
	slog.Info("cache cleared", slog.String("dir", c.Dir), slog.Int("entries", len(paths)))
	return nil
}

// MemoryCache is an in-process cache, used when no cache directory is
// configured and in tests.
type MemoryCache struct {
	entries map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string][]byte{}}
}

func (c *MemoryCache) Get(url string) ([]byte, bool) {
	v, ok := c.entries[CacheKey(url)]
	return v, ok
}

func (c *MemoryCache) Set(url string, value []byte) error {
	c.entries[CacheKey(url)] = value
	return nil
}

func (c *MemoryCache) Delete(url string) error {
	delete(c.entries, CacheKey(url))
	return nil
}
