package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	homedir "github.com/mitchellh/go-homedir"
)

// AudioCache persists synthesized audio across sessions, compressed with
// zstd and bounded by a byte budget. Entries are keyed by a digest of the
// text and every prosody knob, so a changed rate never serves stale audio.
type AudioCache struct {
	basePath string
	capacity int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	index map[string]*cacheEntry
	size  int64

	hits   int64
	misses int64
}

type cacheEntry struct {
	path       string
	size       int64
	lastAccess time.Time
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int
	Bytes   int64
	Hits    int64
	Misses  int64
}

// NewAudioCache opens (or creates) the cache under cfg.Dir. An empty Dir
// defaults to ~/.cache/alouette/audio.
func NewAudioCache(cfg CacheConfig) (*AudioCache, error) {
	dir := cfg.Dir
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache", "alouette", "audio")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.CompressionLevel)))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	c := &AudioCache{
		basePath: dir,
		capacity: cfg.MaxBytes,
		encoder:  encoder,
		decoder:  decoder,
		index:    make(map[string]*cacheEntry),
	}
	c.loadIndex()
	return c, nil
}

// Key derives the cache key for one synthesis request.
func Key(text, voice string, rate, pitch, volume float64) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%.3f|%.3f|%.3f", text, voice, rate, pitch, volume)))
	return hex.EncodeToString(h[:])
}

// Get returns the cached audio for the key, if present.
func (c *AudioCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	entry, ok := c.index[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	entry.lastAccess = time.Now()
	c.hits++
	path := entry.path
	c.mu.Unlock()

	compressed, err := os.ReadFile(path)
	if err != nil {
		c.drop(key)
		return nil, false
	}
	data, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		c.drop(key)
		return nil, false
	}
	return data, true
}

// Put stores audio under the key, evicting least-recently-used entries
// when the byte budget is exceeded.
func (c *AudioCache) Put(key string, data []byte) error {
	compressed := c.encoder.EncodeAll(data, nil)
	path := filepath.Join(c.basePath, key+".zst")
	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.index[key]; ok {
		c.size -= old.size
	}
	c.index[key] = &cacheEntry{path: path, size: int64(len(compressed)), lastAccess: time.Now()}
	c.size += int64(len(compressed))
	c.evictLocked()
	return nil
}

// Stats returns a snapshot of cache effectiveness.
func (c *AudioCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries: len(c.index),
		Bytes:   c.size,
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// Clear removes every entry.
func (c *AudioCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for key, entry := range c.index {
		if err := os.Remove(entry.path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
		delete(c.index, key)
	}
	c.size = 0
	return firstErr
}

// Close releases the compressor resources.
func (c *AudioCache) Close() error {
	c.decoder.Close()
	return c.encoder.Close()
}

func (c *AudioCache) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.index[key]; ok {
		c.size -= entry.size
		delete(c.index, key)
		_ = os.Remove(entry.path)
	}
}

// evictLocked removes least-recently-used entries until the budget holds.
// Caller holds c.mu.
func (c *AudioCache) evictLocked() {
	if c.capacity <= 0 || c.size <= c.capacity {
		return
	}

	type aged struct {
		key        string
		lastAccess time.Time
	}
	entries := make([]aged, 0, len(c.index))
	for key, entry := range c.index {
		entries = append(entries, aged{key: key, lastAccess: entry.lastAccess})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastAccess.Before(entries[j].lastAccess)
	})

	for _, candidate := range entries {
		if c.size <= c.capacity {
			return
		}
		entry := c.index[candidate.key]
		_ = os.Remove(entry.path)
		c.size -= entry.size
		delete(c.index, candidate.key)
	}
}

// loadIndex rebuilds the in-memory index from files already on disk.
func (c *AudioCache) loadIndex() {
	matches, err := filepath.Glob(filepath.Join(c.basePath, "*.zst"))
	if err != nil {
		return
	}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		key := filepath.Base(path)
		key = key[:len(key)-len(".zst")]
		c.index[key] = &cacheEntry{path: path, size: info.Size(), lastAccess: info.ModTime()}
		c.size += info.Size()
	}
}
