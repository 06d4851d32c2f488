package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

// Store is an in-memory LRU cache of base64 audio payloads.
type Store struct {
	capacity int64 // Maximum stored size in bytes
	size     int64 // Current stored size in bytes
	rawSize  int64

	items    map[string]*list.Element
	eviction *list.List

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	stats Stats

	pruneStop chan struct{}
	pruneWg   sync.WaitGroup
	closeOnce sync.Once
}

type entry struct {
	key       string
	value     []byte
	size      int64
	rawSize   int64
	timestamp time.Time
	hits      int64
}

// New creates a store holding at most capacity bytes of stored data.
// A compressionLevel of 0 stores payloads uncompressed; 1 to 22 follow the
// zstd levels.
func New(capacity int64, compressionLevel int) (*Store, error) {
	s := &Store{
		capacity: capacity,
		items:     make(map[string]*list.Element),
		eviction:  list.New(),
		stats:     Stats{Capacity: capacity},
		pruneStop: make(chan struct{}),
	}

	if compressionLevel > 0 {
		var err error
		s.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}

		s.decoder, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
	}

	return s, nil
}

// Get returns the payload stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		s.stats.Misses++
		return "", false
	}

	e := elem.Value.(*entry)
	payload, err := s.decode(e.value)
	if err != nil {
		log.Warn("Dropping corrupted cache entry", "key", key, "error", err)
		s.removeElement(elem)
		s.stats.Misses++
		return "", false
	}

	s.eviction.MoveToFront(elem)
	e.hits++
	s.stats.Hits++
	return payload, true
}

// Put stores payload under key, evicting the least recently used entries
// until it fits.
func (s *Store) Put(key, payload string) error {
	value := s.encode(payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	valueSize := int64(len(value))
	if valueSize > s.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := s.items[key]; ok {
		s.removeElement(elem)
	}

	for s.size+valueSize > s.capacity && s.eviction.Len() > 0 {
		s.evictOldest()
	}

	e := &entry{
		key:       key,
		value:     value,
		size:      valueSize,
		rawSize:   int64(len(payload)),
		timestamp: time.Now(),
	}
	s.items[key] = s.eviction.PushFront(e)
	s.size += e.size
	s.rawSize += e.rawSize

	log.Debug("Cached payload", "key", key, "raw", e.rawSize, "stored", e.size)
	return nil
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*list.Element)
	s.eviction.Init()
	s.size = 0
	s.rawSize = 0
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.Size = s.size
	stats.RawSize = s.rawSize
	stats.ItemCount = int64(len(s.items))

	if stats.Hits+stats.Misses > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Hits+stats.Misses)
	}

	return stats
}

// Prune removes entries older than maxAge and returns how many were removed.
func (s *Store) Prune(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	pruned := 0

	elem := s.eviction.Back()
	for elem != nil {
		prev := elem.Prev()
		if elem.Value.(*entry).timestamp.Before(cutoff) {
			s.removeElement(elem)
			pruned++
		}
		elem = prev
	}

	return pruned
}

// PruneEvery removes entries older than maxAge in the background until the
// store is closed. The check runs at half of maxAge, between one second and
// one minute.
func (s *Store) PruneEvery(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	interval := min(max(maxAge/2, time.Second), time.Minute)

	s.pruneWg.Add(1)
	go func() {
		defer s.pruneWg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := s.Prune(maxAge); n > 0 {
					log.Debug("Pruned cache", "removed", n, "max_age", maxAge)
				}
			case <-s.pruneStop:
				return
			}
		}
	}()
}

// Close stops background pruning and releases the zstd encoder and decoder.
// It is safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.pruneStop)
		s.pruneWg.Wait()

		if s.encoder != nil {
			if err := s.encoder.Close(); err != nil {
				log.Debug("Closing zstd encoder", "error", err)
			}
		}
		if s.decoder != nil {
			s.decoder.Close()
		}
	})
}

func (s *Store) encode(payload string) []byte {
	if s.encoder == nil {
		return []byte(payload)
	}
	return s.encoder.EncodeAll([]byte(payload), nil)
}

func (s *Store) decode(value []byte) (string, error) {
	if s.decoder == nil {
		return string(value), nil
	}
	raw, err := s.decoder.DecodeAll(value, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	return string(raw), nil
}

// evictOldest removes the least recently used item (must be called with lock held).
func (s *Store) evictOldest() {
	if elem := s.eviction.Back(); elem != nil {
		s.removeElement(elem)
		s.stats.Evictions++
	}
}

// removeElement removes an element from the cache (must be called with lock held).
func (s *Store) removeElement(elem *list.Element) {
	s.eviction.Remove(elem)
	e := elem.Value.(*entry)
	delete(s.items, e.key)
	s.size -= e.size
	s.rawSize -= e.rawSize
}
