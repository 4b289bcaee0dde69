package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The model and dimension are pinned at construction and must be
// consistent between ingestion and query embeddings: mismatched
// dimensions are a hard error at the store boundary.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Compatible APIs via a custom base URL
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
