package driven

import (
	"context"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// ReadOptions configures one read call.
type ReadOptions struct {
	// MaxFileSize rejects buffers larger than this many bytes.
	// Zero means the reader default (50MB).
	MaxFileSize int64

	// Encodings is the decoding priority list for text formats.
	// Nil means the reader default.
	Encodings []string

	// OnProgress, when non-nil, receives advisory progress events.
	// It may be ignored by the reader and has no effect on correctness.
	OnProgress func(domain.ReadProgress)
}

// DocumentReader turns a raw byte buffer into a page-structured
// representation plus document metadata.
type DocumentReader interface {
	// Extensions returns the lower-case file extensions this reader
	// handles, including the leading dot.
	Extensions() []string

	// Read parses buf. name is the original file name, used for
	// metadata and magic-header validation.
	Read(ctx context.Context, name string, buf []byte, opts ReadOptions) (*domain.ReadResult, error)
}
