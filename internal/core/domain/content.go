package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// SourceTypeAsanaTask tags knowledge entries produced from Asana tasks.
// This pipeline synchronises exactly one source type.
const SourceTypeAsanaTask = "asana_task"

// Status values for the completion state metadata facet.
const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

// ContentItem is the canonical rendering of a task, produced by the
// normaliser. Content is a deterministic function of the task snapshot:
// it is the hashing input for change detection, so no timestamps or
// nondeterministic ordering may leak into it.
type ContentItem struct {
	// SourceType tags the origin kind (always SourceTypeAsanaTask here).
	SourceType string

	// SourceID is the task GID.
	SourceID string

	// SourceURL is the task permalink.
	SourceURL string

	// Title is the task name.
	Title string

	// Content is the canonical markdown document body.
	Content string

	// Metadata carries the structured facets of the task.
	Metadata map[string]any
}

// Fingerprint is the change-detection key: equal content means equal
// fingerprint. Metadata-only edits do not change it.
type Fingerprint = string

// NewFingerprint computes the fingerprint of content as a lowercase hex
// SHA-256 digest. The algorithm is pinned: fingerprints must be stable
// across process restarts and across reimplementations.
func NewFingerprint(content string) Fingerprint {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
