// Package cache keeps recently synthesized audio payloads in memory so that
// repeating a phrase does not go back to the synthesis engine. Entries are
// zstd-compressed and evicted least recently used first.
package cache
