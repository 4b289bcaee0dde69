package driven

import (
	"context"

	"github.com/custodia-labs/knowsync/internal/core/domain"
)

// KnowledgeStore persists knowledge entries with their embeddings and
// fingerprints. It owns the rows exclusively and provides read-after-write
// consistency for the lookup/update pair used by skip detection.
type KnowledgeStore interface {
	// GetBySource retrieves an entry by (source type, source ID).
	// Returns domain.ErrNotFound when absent; that is a normal outcome
	// during sync, not an error condition.
	GetBySource(ctx context.Context, sourceType, sourceID string) (*domain.KnowledgeEntry, error)

	// Insert stores a new entry and returns it with its assigned ID.
	Insert(ctx context.Context, entry *domain.KnowledgeEntry) (*domain.KnowledgeEntry, error)

	// Update applies an in-place update to an existing entry.
	Update(ctx context.Context, id int64, update *domain.EntryUpdate) error

	// List returns all entries, most recently indexed first, without
	// embeddings.
	List(ctx context.Context) ([]domain.KnowledgeEntry, error)

	// Search returns up to limit entries whose embedding similarity to
	// the query vector is at least floor, in descending similarity order.
	// A stored embedding whose dimension differs from the query's is an
	// error, never a silent miss.
	Search(ctx context.Context, embedding []float32, floor float64, limit int) ([]domain.SearchHit, error)
}
