// package cache implements the content-addressed local cache tier.
//
// Files live flat under a single root directory, named by content hash.
// Bookkeeping is in-memory and rebuilt by rescanning the root on open, so
// no other process may assume any layout beyond "keyed by content hash".
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
)

// tmpPrefix marks in-progress Put files so a crashed write is never
// mistaken for a content-addressed entry.
const tmpPrefix = ".put-"

// entry wraps the exported bookkeeping record with a strict recency
// sequence so LRU ordering never depends on clock granularity.
type entry struct {
	models.CacheEntry
	seq uint64
}

// Store is the local cache tier with strict LRU eviction.
//
// The filesystem under root is mutated only by the Store (single-writer
// discipline via the internal lock).
type Store struct {
	mu       sync.Mutex
	root     string
	capacity int64
	entries  map[string]*entry
	size     int64
	seq      uint64

	// hashes whose file deletion failed; retried on the next eviction pass
	failedDeletes map[string]string

	logger *log.Logger
	now    func() time.Time
}

// Open creates a Store rooted at dir with the given capacity in bytes,
// rescanning any files already present to rebuild bookkeeping.
func Open(dir string, capacity int64, logger *log.Logger) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Store{
		root:          dir,
		capacity:      capacity,
		entries:       make(map[string]*entry),
		failedDeletes: make(map[string]string),
		logger:        logger,
		now:           time.Now,
	}

	if err := s.rescan(); err != nil {
		return nil, err
	}

	return s, nil
}

// rescan walks the root directory and rebuilds the entry map.
func (s *Store) rescan() error {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		hash := de.Name()
		// A temp file here means a Put died mid-write; it carries no hash
		if strings.HasPrefix(hash, tmpPrefix) {
			if err := os.Remove(filepath.Join(s.root, hash)); err != nil {
				s.logger.Warnf("failed to remove orphaned temp file %s: %v", hash, err)
			}
			continue
		}
		s.seq++
		s.entries[hash] = &entry{
			CacheEntry: models.CacheEntry{
				Hash:       hash,
				Path:       filepath.Join(s.root, hash),
				Size:       info.Size(),
				LastAccess: info.ModTime(),
			},
			seq: s.seq,
		}
		s.size += info.Size()
	}

	return nil
}

// Get returns the cached file path for hash and refreshes its last-access
// timestamp. The second return is false on a miss.
func (s *Store) Get(hash string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[hash]
	if !ok {
		return "", false
	}

	s.seq++
	e.seq = s.seq
	e.LastAccess = s.now()
	return e.Path, true
}

// Put stores the reader's bytes under hash and runs eviction if the write
// pushed the store over capacity.
//
// One entry per hash: a Put for an existing hash replaces the entry rather
// than duplicating it. A single item larger than capacity is accepted and
// immediately evicted along with everything else, leaving the store empty.
func (s *Store) Put(hash string, r io.Reader) (string, error) {
	path := filepath.Join(s.root, hash)
	tmp, err := os.CreateTemp(s.root, tmpPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to place cache file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[hash]; ok {
		s.size -= old.Size
	}

	s.seq++
	s.entries[hash] = &entry{
		CacheEntry: models.CacheEntry{
			Hash:       hash,
			Path:       path,
			Size:       written,
			LastAccess: s.now(),
		},
		seq: s.seq,
	}
	s.size += written

	s.evictLocked()
	return path, nil
}

// EvictIfOverCapacity removes least-recently-used entries until the store
// is back under capacity, and retries any previously failed deletions.
func (s *Store) EvictIfOverCapacity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
}

func (s *Store) evictLocked() {
	s.retryFailedLocked()

	if s.size <= s.capacity {
		return
	}

	ordered := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	for _, e := range ordered {
		if s.size <= s.capacity {
			break
		}
		s.removeLocked(e)
	}
}

// removeLocked drops an entry from bookkeeping and deletes its file.
// A failed deletion is logged and queued for the next eviction pass
// rather than aborting the cycle.
func (s *Store) removeLocked(e *entry) {
	delete(s.entries, e.Hash)
	s.size -= e.Size

	if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
		if s.logger != nil {
			s.logger.Warnf("cache eviction: failed to delete %s: %v", e.Path, err)
		}
		s.failedDeletes[e.Hash] = e.Path
	}
}

func (s *Store) retryFailedLocked() {
	for hash, path := range s.failedDeletes {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			if s.logger != nil {
				s.logger.Warnf("cache eviction: retry failed for %s: %v", path, err)
			}
			continue
		}
		delete(s.failedDeletes, hash)
	}
}

// Clear removes every entry and its file, resetting bookkeeping atomically
// with the filesystem deletion so no entry ever references a deleted file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, e := range s.entries {
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = err
			}
			if s.logger != nil {
				s.logger.Warnf("cache clear: failed to delete %s: %v", e.Path, err)
			}
		}
	}

	s.entries = make(map[string]*entry)
	s.failedDeletes = make(map[string]string)
	s.size = 0
	return firstErr
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Size returns the total size of cached bytes.
func (s *Store) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Capacity returns the configured capacity in bytes.
func (s *Store) Capacity() int64 { return s.capacity }

// Entries returns a snapshot of all entries, most recently used first.
func (s *Store) Entries() []models.CacheEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordered := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq > ordered[j].seq })

	out := make([]models.CacheEntry, len(ordered))
	for i, e := range ordered {
		out[i] = e.CacheEntry
	}
	return out
}
