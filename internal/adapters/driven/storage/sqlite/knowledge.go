package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
)

// knowledgeStore implements driven.KnowledgeStore.
type knowledgeStore struct {
	store *Store
}

var _ driven.KnowledgeStore = (*knowledgeStore)(nil)

// GetBySource retrieves an entry by (source type, source ID).
func (s *knowledgeStore) GetBySource(ctx context.Context, sourceType, sourceID string) (*domain.KnowledgeEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_type, source_id, source_url, title, content, metadata, content_hash, embedding, indexed_at
		FROM knowledge_base WHERE source_type = ? AND source_id = ?
	`, sourceType, sourceID)

	return scanEntry(row)
}

// Insert stores a new entry and returns it with its assigned ID.
func (s *knowledgeStore) Insert(ctx context.Context, entry *domain.KnowledgeEntry) (*domain.KnowledgeEntry, error) {
	if entry == nil {
		return nil, domain.ErrInvalidInput
	}

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshalling metadata: %w", err)
	}

	result, err := s.store.db.ExecContext(ctx, `
		INSERT INTO knowledge_base
			(source_type, source_id, source_url, title, content, metadata, content_hash, embedding, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.SourceType, entry.SourceID, nullString(entry.SourceURL),
		entry.Title, entry.Content, string(metadataJSON),
		entry.ContentHash, float32SliceToBytes(entry.Embedding), entry.IndexedAt)

	if err != nil {
		return nil, fmt.Errorf("inserting entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting inserted ID: %w", err)
	}

	inserted := *entry
	inserted.ID = id
	return &inserted, nil
}

// Update applies an in-place update to an existing entry.
func (s *knowledgeStore) Update(ctx context.Context, id int64, update *domain.EntryUpdate) error {
	if update == nil {
		return domain.ErrInvalidInput
	}

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	result, err := s.store.db.ExecContext(ctx, `
		UPDATE knowledge_base SET
			source_url = ?,
			title = ?,
			content = ?,
			metadata = ?,
			content_hash = ?,
			embedding = ?,
			indexed_at = ?
		WHERE id = ?
	`, nullString(update.SourceURL), update.Title, update.Content,
		string(metadataJSON), update.ContentHash,
		float32SliceToBytes(update.Embedding), update.IndexedAt, id)

	if err != nil {
		return fmt.Errorf("updating entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all entries, most recently indexed first, without embeddings.
func (s *knowledgeStore) List(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_type, source_id, source_url, title, content, metadata, content_hash, indexed_at
		FROM knowledge_base
		ORDER BY indexed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.KnowledgeEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entry domain.KnowledgeEntry
		var sourceURL sql.NullString
		var metadataJSON sql.NullString
		var indexedAt sql.NullTime
		if err := rows.Scan(&entry.ID, &entry.SourceType, &entry.SourceID, &sourceURL,
			&entry.Title, &entry.Content, &metadataJSON, &entry.ContentHash, &indexedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		entry.SourceURL = sourceURL.String
		if indexedAt.Valid {
			entry.IndexedAt = indexedAt.Time
		}
		if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != jsonNull {
			if err := json.Unmarshal([]byte(metadataJSON.String), &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return entries, nil
}

// Search returns up to limit entries whose embedding similarity to the
// query vector is at least floor, in descending similarity order.
//
// Similarity is computed in-process over all stored embeddings. The
// corpus is task-sized, not web-sized, so a full scan stays well under
// interactive latency.
//
// A stored embedding whose dimension differs from the query is a hard
// error, not a zero score: it means the corpus was embedded with a
// different model than the query.
func (s *knowledgeStore) Search(ctx context.Context, embedding []float32, floor float64, limit int) ([]domain.SearchHit, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_type, source_id, source_url, title, content, metadata, content_hash, embedding, indexed_at
		FROM knowledge_base
		WHERE embedding IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		entry, err := scanEntryRows(rows)
		if err != nil {
			return nil, err
		}

		if len(entry.Embedding) != len(embedding) {
			return nil, fmt.Errorf("entry %d: embedding dimension %d does not match query dimension %d: %w",
				entry.ID, len(entry.Embedding), len(embedding), domain.ErrInvalidInput)
		}

		similarity := cosineSimilarity(embedding, entry.Embedding)
		if similarity < floor {
			continue
		}
		hits = append(hits, domain.SearchHit{Entry: *entry, Similarity: similarity})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	return hits, nil
}

// scanEntry scans a single knowledge entry row.
func scanEntry(row *sql.Row) (*domain.KnowledgeEntry, error) {
	var entry domain.KnowledgeEntry
	var sourceURL, metadataJSON sql.NullString
	var embeddingBlob []byte
	var indexedAt sql.NullTime

	if err := row.Scan(&entry.ID, &entry.SourceType, &entry.SourceID, &sourceURL,
		&entry.Title, &entry.Content, &metadataJSON, &entry.ContentHash,
		&embeddingBlob, &indexedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning entry: %w", err)
	}

	entry.SourceURL = sourceURL.String
	entry.Embedding = bytesToFloat32Slice(embeddingBlob)
	if indexedAt.Valid {
		entry.IndexedAt = indexedAt.Time
	}
	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON.String), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &entry, nil
}

// scanEntryRows scans a knowledge entry from *sql.Rows.
func scanEntryRows(rows *sql.Rows) (*domain.KnowledgeEntry, error) {
	var entry domain.KnowledgeEntry
	var sourceURL, metadataJSON sql.NullString
	var embeddingBlob []byte
	var indexedAt sql.NullTime

	if err := rows.Scan(&entry.ID, &entry.SourceType, &entry.SourceID, &sourceURL,
		&entry.Title, &entry.Content, &metadataJSON, &entry.ContentHash,
		&embeddingBlob, &indexedAt); err != nil {
		return nil, fmt.Errorf("scanning entry: %w", err)
	}

	entry.SourceURL = sourceURL.String
	entry.Embedding = bytesToFloat32Slice(embeddingBlob)
	if indexedAt.Valid {
		entry.IndexedAt = indexedAt.Time
	}
	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON.String), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &entry, nil
}
