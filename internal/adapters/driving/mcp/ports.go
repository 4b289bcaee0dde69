package mcp

import (
	"github.com/custodia-labs/knowsync/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer answers questions from the knowledge base.
	Answer driving.AnswerService

	// Sync synchronises projects into the knowledge base.
	Sync driving.SyncService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Sync == nil {
		return ErrMissingSyncService
	}
	return nil
}
