package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Validation errors: bad input rejected before any parsing.

	// ErrUnsupportedFormat indicates a file type with no registered reader,
	// or a magic header that does not match the extension.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyFile indicates an empty buffer or zero-byte file.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge indicates a file exceeding the configured maximum.
	ErrFileTooLarge = errors.New("file too large")

	// Format errors.

	// ErrCorruptFile indicates a document the parser could not read.
	ErrCorruptFile = errors.New("corrupt file")

	// Embedding context errors.

	// ErrModelNotConfigured indicates no embedding model is configured
	// or its dimensionality is unknown.
	ErrModelNotConfigured = errors.New("embedding model not configured")

	// ErrModelUnavailable indicates the requested model is not installed
	// or not usable by the embedding engine.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrDimensionMismatch indicates a model switch that would mix vector
	// dimensionalities within an existing populated collection.
	// This is always fatal to the calling operation.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// Dependency errors.

	// ErrEngineUnavailable indicates the embedding engine is unreachable.
	ErrEngineUnavailable = errors.New("embedding engine unavailable")

	// ErrStoreUnavailable indicates the vector database is unreachable.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)
