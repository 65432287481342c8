package repository

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultCacheDir is the default cache directory relative to the user's home directory.
const DefaultCacheDir = ".jsync/cache"

// sourceFile records the source URL next to each cached document.
const sourceFile = ".source"

// Cache stores fetched descriptors on disk, one directory per source:
//
//	<dir>/<protocol>/<sha256(source)>/<name>
type Cache struct {
	// Dir is the base cache directory
	Dir string
}

// CacheEntry describes one cached document.
type CacheEntry struct {
	Protocol string
	Key      string
	Source   string
	Name     string
	Size     int64
	ModTime  time.Time
}

// DefaultCache returns a cache using the default location (~/.jsync/cache).
func DefaultCache() (*Cache, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewCache(filepath.Join(homeDir, DefaultCacheDir)), nil
}

// NewCache creates a cache at the specified directory.
// The directory is created when the first document is stored.
func NewCache(baseDir string) *Cache {
	return &Cache{Dir: baseDir}
}

// Key returns the cache key for a source URL.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// GetCacheDir returns the cache directory for a specific protocol.
func (c *Cache) GetCacheDir(protocol string) string {
	return filepath.Join(c.Dir, protocol)
}

func (c *Cache) entryDir(source string) (string, error) {
	protocol, _, err := ParseSource(source)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.GetCacheDir(protocol), Key(source)), nil
}

// Get returns the cached document name and content for source.
func (c *Cache) Get(source string) (name string, data []byte, ok bool) {
	dir, err := c.entryDir(source)
	if err != nil {
		return "", nil, false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, false
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == sourceFile {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return "", nil, false
		}
		return e.Name(), data, true
	}
	return "", nil, false
}

// Put stores a document for source, replacing any previous one.
func (c *Cache) Put(source, name string, data []byte) error {
	if name == "" || name == sourceFile || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid cache document name: %q", name)
	}

	dir, err := c.entryDir(source)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to replace cache entry: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, sourceFile), []byte(source+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Entries lists the cached documents sorted by protocol and source.
func (c *Cache) Entries() ([]CacheEntry, error) {
	protocols, err := os.ReadDir(c.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []CacheEntry
	for _, p := range protocols {
		if !p.IsDir() {
			continue
		}
		keys, err := os.ReadDir(c.GetCacheDir(p.Name()))
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if !k.IsDir() {
				continue
			}
			if entry, ok := c.readEntry(p.Name(), k.Name()); ok {
				out = append(out, entry)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Protocol != out[j].Protocol {
			return out[i].Protocol < out[j].Protocol
		}
		return out[i].Source < out[j].Source
	})
	return out, nil
}

func (c *Cache) readEntry(protocol, key string) (CacheEntry, bool) {
	dir := filepath.Join(c.GetCacheDir(protocol), key)
	source, err := os.ReadFile(filepath.Join(dir, sourceFile))
	if err != nil {
		return CacheEntry{}, false
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return CacheEntry{}, false
	}
	for _, f := range files {
		if f.IsDir() || f.Name() == sourceFile {
			continue
		}
		info, err := f.Info()
		if err != nil {
			return CacheEntry{}, false
		}
		return CacheEntry{
			Protocol: protocol,
			Key:      key,
			Source:   strings.TrimSpace(string(source)),
			Name:     f.Name(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		}, true
	}
	return CacheEntry{}, false
}

// Clear removes all cached content for a specific protocol.
// If protocol is empty, clears the entire cache.
func (c *Cache) Clear(protocol string) error {
	targetDir := c.Dir
	if protocol != "" {
		targetDir = c.GetCacheDir(protocol)
	}

	if err := os.RemoveAll(targetDir); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// ComputeIntegrity returns the integrity hash of data in the Subresource
// Integrity format "sha256-{base64-encoded-hash}".
func ComputeIntegrity(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256-" + base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyIntegrity checks data against an expected integrity hash.
// An empty expected hash always matches.
func VerifyIntegrity(data []byte, expected string) error {
	if expected == "" {
		return nil
	}
	if !strings.HasPrefix(expected, "sha256-") {
		return fmt.Errorf("unsupported integrity format: %s", expected)
	}
	if actual := ComputeIntegrity(data); actual != expected {
		return fmt.Errorf("integrity mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}
