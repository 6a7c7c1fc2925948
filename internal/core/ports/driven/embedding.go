package driven

import "context"

// EmbeddingEngine generates vector embeddings from text and exposes the
// model catalogue needed to validate a model before use.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI-compatible inference servers
type EmbeddingEngine interface {
	// GenerateEmbedding returns the embedding for text using the given
	// model, or the engine's current default model when model is empty.
	GenerateEmbedding(ctx context.Context, text, model string) ([]float32, error)

	// CurrentModel returns the engine's configured default embedding model.
	CurrentModel() string

	// ValidateModel reports whether the named model is installed and usable.
	ValidateModel(ctx context.Context, model string) (bool, error)

	// Dimensions returns the output vector size of the named model.
	// Returns an error when the dimensionality is unknown.
	Dimensions(ctx context.Context, model string) (int, error)

	// SetDefaultModel persists model as the engine's default so later
	// calls without an explicit preference reuse it.
	SetDefaultModel(model string) error

	// Ping validates the engine is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
