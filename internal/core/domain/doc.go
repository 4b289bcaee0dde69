// Package domain defines the core business entities for knowsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Task: A read-only snapshot of one Asana task with comments
//   - ContentItem: The canonical rendering of a task (the hashing input)
//   - KnowledgeEntry: A persisted, embedded, searchable document
//   - SyncReport: The outcome of one ingestion run
//   - Answer: A grounded answer with citations
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
