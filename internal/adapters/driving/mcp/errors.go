// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants query the knowledge base and trigger syncs.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")

// ErrMissingSyncService is returned when the sync service is not provided.
var ErrMissingSyncService = errors.New("mcp: sync service is required")
