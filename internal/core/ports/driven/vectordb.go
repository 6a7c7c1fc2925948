package driven

import (
	"context"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// Point is one vector plus payload stored in a collection.
// Vector may be nil for chunks whose embedding failed; such points are
// stored payload-only and excluded from similarity search.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a similarity search hit.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// SearchParams configures one similarity query.
type SearchParams struct {
	// Vector is the query embedding.
	Vector []float32

	// Limit is the maximum number of hits.
	Limit int

	// ScoreThreshold drops hits scoring below it. Zero disables it.
	ScoreThreshold float64

	// Filter is an equality match on payload fields. All entries must
	// match (AND semantics).
	Filter map[string]any
}

// VectorDatabase provides collection CRUD, point upsert and similarity
// search. Backed by Qdrant in production; an in-memory implementation
// exists for tests and offline use.
type VectorDatabase interface {
	// CreateCollection creates a collection with the given vector size.
	// Creating an existing collection is not an error.
	CreateCollection(ctx context.Context, name string, vectorSize int, distance string, index domain.HNSWParams) error

	// GetCollection returns collection configuration and stats.
	// Returns domain.ErrNotFound for a missing collection.
	GetCollection(ctx context.Context, name string) (*domain.VectorCollection, error)

	// DeleteCollection removes a collection. Deleting a missing
	// collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// ListCollections returns every collection in the store.
	ListCollections(ctx context.Context) ([]domain.VectorCollection, error)

	// UpsertPoints writes points and waits for the write to be
	// acknowledged before returning.
	UpsertPoints(ctx context.Context, collection string, points []Point) error

	// Search runs a similarity query against one collection.
	Search(ctx context.Context, collection string, params SearchParams) ([]ScoredPoint, error)

	// Close releases resources.
	Close() error
}
