// Package memory provides in-memory implementations of driven port
// interfaces, used for tests and lightweight deployments.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
)

// Ensure KnowledgeStore implements the interface.
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

// KnowledgeStore is an in-memory implementation of driven.KnowledgeStore.
type KnowledgeStore struct {
	mu      sync.RWMutex
	entries map[int64]domain.KnowledgeEntry
	bySrc   map[string]int64
	nextID  int64
}

// NewKnowledgeStore creates a new in-memory knowledge store.
func NewKnowledgeStore() *KnowledgeStore {
	return &KnowledgeStore{
		entries: make(map[int64]domain.KnowledgeEntry),
		bySrc:   make(map[string]int64),
		nextID:  1,
	}
}

func sourceKey(sourceType, sourceID string) string {
	return sourceType + "\x00" + sourceID
}

// GetBySource retrieves an entry by (source type, source ID).
func (s *KnowledgeStore) GetBySource(_ context.Context, sourceType, sourceID string) (*domain.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySrc[sourceKey(sourceType, sourceID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	entry := s.entries[id]
	return &entry, nil
}

// Insert stores a new entry and returns it with its assigned ID.
func (s *KnowledgeStore) Insert(_ context.Context, entry *domain.KnowledgeEntry) (*domain.KnowledgeEntry, error) {
	if entry == nil {
		return nil, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sourceKey(entry.SourceType, entry.SourceID)
	if _, exists := s.bySrc[key]; exists {
		return nil, domain.ErrInvalidInput
	}

	stored := *entry
	stored.ID = s.nextID
	s.nextID++
	s.entries[stored.ID] = stored
	s.bySrc[key] = stored.ID
	return &stored, nil
}

// Update applies an in-place update to an existing entry.
func (s *KnowledgeStore) Update(_ context.Context, id int64, update *domain.EntryUpdate) error {
	if update == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return domain.ErrNotFound
	}

	entry.Title = update.Title
	entry.Content = update.Content
	entry.SourceURL = update.SourceURL
	entry.Metadata = update.Metadata
	entry.ContentHash = update.ContentHash
	entry.Embedding = update.Embedding
	entry.IndexedAt = update.IndexedAt
	s.entries[id] = entry
	return nil
}

// List returns all entries, most recently indexed first, without embeddings.
func (s *KnowledgeStore) List(_ context.Context) ([]domain.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.KnowledgeEntry, 0, len(s.entries))
	for id := range s.entries {
		entry := s.entries[id]
		entry.Embedding = nil
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].IndexedAt.After(entries[j].IndexedAt)
	})
	return entries, nil
}

// Search returns up to limit entries whose embedding similarity to the
// query vector is at least floor, in descending similarity order. A
// stored embedding whose dimension differs from the query is a hard
// error, not a zero score.
func (s *KnowledgeStore) Search(_ context.Context, embedding []float32, floor float64, limit int) ([]domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []domain.SearchHit
	for id := range s.entries {
		entry := s.entries[id]
		if len(entry.Embedding) == 0 {
			continue
		}
		if len(entry.Embedding) != len(embedding) {
			return nil, fmt.Errorf("entry %d: embedding dimension %d does not match query dimension %d: %w",
				entry.ID, len(entry.Embedding), len(embedding), domain.ErrInvalidInput)
		}
		similarity := cosine(embedding, entry.Embedding)
		if similarity < floor {
			continue
		}
		hits = append(hits, domain.SearchHit{Entry: entry, Similarity: similarity})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// cosine computes the cosine similarity between two vectors.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
