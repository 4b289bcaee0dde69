package driven

import (
	"context"

	"github.com/custodia-labs/knowsync/internal/core/domain"
)

// InteractionLog records answered questions for later review.
//
// Writes are best-effort: the answer service fires them on a separate
// goroutine and a failed write never affects the response already sent.
type InteractionLog interface {
	// Record stores one interaction.
	Record(ctx context.Context, interaction *domain.Interaction) error
}
