package driving

import (
	"context"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// IngestOptions configures one document ingestion.
type IngestOptions struct {
	// ChunkSize and ChunkOverlap override the configured chunking
	// defaults when positive.
	ChunkSize    int
	ChunkOverlap int

	// Model overrides the default embedding model.
	Model string

	// OnProgress, when non-nil, receives advisory stage events.
	OnProgress func(domain.IngestProgress)
}

// Ingestor runs the validate → read → chunk → embed → upsert pipeline.
type Ingestor interface {
	// ProcessDocument ingests the file at path into the conversation's
	// collection. The returned result carries an explicit success flag;
	// errors do not propagate as panics past this boundary.
	ProcessDocument(ctx context.Context, path, conversationID string, opts IngestOptions) domain.IngestResult

	// ProcessUpload ingests raw uploaded bytes. The data is staged in a
	// scratch file that is removed on every exit path, including
	// cancellation.
	ProcessUpload(ctx context.Context, name string, data []byte, conversationID string, opts IngestOptions) domain.IngestResult
}
