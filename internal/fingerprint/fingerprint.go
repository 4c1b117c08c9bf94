// Package fingerprint provides a content-addressed cache for search results,
// keyed by a deterministic hash of the request. One entry per unique
// (content, query, model, k) fingerprint; a schema bump changes every key and
// thereby invalidates old entries.
package fingerprint

import "fmt"

// SchemaVersion participates in the key so that incompatible entry layouts
// never collide across upgrades.
const SchemaVersion = 1

// Key derives the cache key for a search request. The serialization uses a
// fixed field order, so identical inputs always yield the same key.
func Key(content, query, model string, k int) string {
	canonical := fmt.Sprintf("content=%s\x00query=%s\x00model=%s\x00k=%d\x00v=%d",
		content, query, model, k, SchemaVersion)
	return fmt.Sprintf("%08x", djb2(canonical))
}

func djb2(s string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return h
}
