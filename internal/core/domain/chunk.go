package domain

import "time"

// ChunkSource records where a chunk came from.
type ChunkSource struct {
	// Document identifies the source document (file name or upload name).
	Document string

	// PageNumber is the 1-based page the chunk was attributed to.
	// Zero when attribution failed.
	PageNumber int

	// ChunkIndex is the ordinal position within one ingestion run.
	// Indices start at 0 and are contiguous.
	ChunkIndex int

	// ConversationID scopes the chunk to one conversation.
	ConversationID string
}

// Chunk is a bounded-length fragment of document text prepared for
// embedding and retrieval. Its content is at most the configured chunk
// size plus one overlap window, except for single words longer than the
// chunk size, which are emitted whole.
type Chunk struct {
	// ID is unique per chunk, derived from the conversation id,
	// ordinal and creation time.
	ID string

	// Content is the chunk text.
	Content string

	// Source is the chunk provenance.
	Source ChunkSource

	// Embedding is the vector representation. Nil until the embedding
	// step succeeds; a chunk may be stored without one (degraded).
	Embedding []float32

	CreatedAt time.Time
	UpdatedAt time.Time
}
