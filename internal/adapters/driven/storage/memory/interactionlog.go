package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/knowsync/internal/core/domain"
	"github.com/custodia-labs/knowsync/internal/core/ports/driven"
)

// Ensure InteractionLog implements the interface.
var _ driven.InteractionLog = (*InteractionLog)(nil)

// InteractionLog is an in-memory implementation of driven.InteractionLog.
type InteractionLog struct {
	mu           sync.RWMutex
	interactions []domain.Interaction
}

// NewInteractionLog creates a new in-memory interaction log.
func NewInteractionLog() *InteractionLog {
	return &InteractionLog{}
}

// Record stores one interaction.
func (l *InteractionLog) Record(_ context.Context, interaction *domain.Interaction) error {
	if interaction == nil {
		return domain.ErrInvalidInput
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.interactions = append(l.interactions, *interaction)
	return nil
}

// Interactions returns a copy of all recorded interactions.
func (l *InteractionLog) Interactions() []domain.Interaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Interaction, len(l.interactions))
	copy(out, l.interactions)
	return out
}
