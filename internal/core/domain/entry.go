package domain

import "time"

// KnowledgeEntry is the persisted record derived from a content item.
// The knowledge store exclusively owns the row; the sync service only
// issues commands against it. Entries are never deleted by the pipeline.
type KnowledgeEntry struct {
	// ID is the numeric row identifier assigned by the store.
	ID int64

	// SourceType and SourceID identify the origin; the pair is unique.
	SourceType string
	SourceID   string

	// SourceURL is the canonical URL of the origin, if any.
	SourceURL string

	// Title is the human-readable title.
	Title string

	// Content is the full canonical document body.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// ContentHash is the fingerprint of Content at index time.
	ContentHash Fingerprint

	// Embedding is the vector representation of Content.
	Embedding []float32

	// IndexedAt is when the entry was last written.
	IndexedAt time.Time
}

// EntryUpdate carries the mutable fields applied when a fingerprint
// mismatch is detected for an existing entry.
type EntryUpdate struct {
	Title       string
	Content     string
	SourceURL   string
	Metadata    map[string]any
	ContentHash Fingerprint
	Embedding   []float32
	IndexedAt   time.Time
}

// SearchHit is one ranked result from a similarity search.
type SearchHit struct {
	// Entry is the matched knowledge entry.
	Entry KnowledgeEntry

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
