// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - TaskSource: Fetches projects and tasks from the workspace API
//   - Normaliser: Renders a task into its canonical content item
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Chat completion for answer generation
//   - KnowledgeStore: Knowledge entry persistence and similarity search
//   - JobQueue: Durable queue for asynchronous sync invocations
//   - SchedulerStore: Scheduled task state persistence
//
// # Optional Interfaces
//
//   - InteractionLog: Best-effort question/answer logging. When nil,
//     interactions are simply not recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
