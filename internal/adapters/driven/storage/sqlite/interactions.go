package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
)

// interactionLog implements driven.InteractionLog.
type interactionLog struct {
	store *Store
}

var _ driven.InteractionLog = (*interactionLog)(nil)

// Record stores one interaction.
func (s *interactionLog) Record(ctx context.Context, interaction *domain.Interaction) error {
	if interaction == nil {
		return domain.ErrInvalidInput
	}

	sourcesJSON, err := json.Marshal(interaction.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	createdAt := interaction.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO interactions (session_id, question, answer, sources, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, nullString(interaction.SessionID), interaction.Question,
		interaction.Answer, string(sourcesJSON), createdAt)

	if err != nil {
		return fmt.Errorf("recording interaction: %w", err)
	}
	return nil
}
