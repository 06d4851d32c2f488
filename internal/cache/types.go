package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when a stored entry cannot be decompressed.
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Stats holds cache performance metrics.
type Stats struct {
	Capacity  int64 // Maximum stored size in bytes
	Size      int64 // Stored (compressed) size in bytes
	RawSize   int64 // Uncompressed size of all entries
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64 // hits / (hits + misses)
}

// Ratio returns the compression ratio, or 1 for an empty cache.
func (s Stats) Ratio() float64 {
	if s.Size == 0 {
		return 1
	}
	return float64(s.RawSize) / float64(s.Size)
}

// Key derives the cache key for a synthesis request. The SSML document
// already carries text, rate and pitch.
func Key(ssml, voice string) string {
	data := fmt.Sprintf("%s|%s", voice, ssml)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
