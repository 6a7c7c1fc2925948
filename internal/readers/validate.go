package readers

import (
	"fmt"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// DefaultMaxFileSize is the default upper bound on input size (50MB).
const DefaultMaxFileSize = 50 * 1024 * 1024

// validateBuffer applies the checks shared by every reader: non-empty
// input and the configured size ceiling. Validation precedes parsing.
func validateBuffer(buf []byte, opts driven.ReadOptions) error {
	if len(buf) == 0 {
		return domain.ErrEmptyFile
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if int64(len(buf)) > maxSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, len(buf), maxSize)
	}
	return nil
}

func reportProgress(opts driven.ReadOptions, p domain.ReadProgress) {
	if opts.OnProgress != nil {
		opts.OnProgress(p)
	}
}
