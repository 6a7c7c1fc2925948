// Package memory provides an in-memory vector database used by tests
// and as an offline fallback. It mirrors the Qdrant adapter's semantics:
// idempotent create/delete, acknowledged upserts and cosine scoring.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorDatabase = (*Store)(nil)

type collection struct {
	config domain.VectorCollection
	points map[string]driven.Point
}

// Store is an in-memory vector database.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// CreateCollection creates a collection. Creating an existing collection
// is a no-op.
func (s *Store) CreateCollection(_ context.Context, name string, vectorSize int, distance string, index domain.HNSWParams) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", domain.ErrInvalidInput)
	}
	if distance == "" {
		distance = domain.DistanceCosine
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return nil
	}
	s.collections[name] = &collection{
		config: domain.VectorCollection{
			Name:       name,
			VectorSize: vectorSize,
			Distance:   distance,
			Index:      index,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		},
		points: make(map[string]driven.Point),
	}
	return nil
}

// GetCollection returns collection configuration and stats.
func (s *Store) GetCollection(_ context.Context, name string) (*domain.VectorCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}

	out := col.config
	out.Stats = domain.CollectionStats{
		PointsCount:    int64(len(col.points)),
		IndexingStatus: "green",
	}
	for _, p := range col.points {
		out.Stats.SizeBytes += int64(len(p.Vector) * 4)
	}
	return &out, nil
}

// DeleteCollection removes a collection. Missing collections are ignored.
func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// ListCollections returns every collection.
func (s *Store) ListCollections(ctx context.Context) ([]domain.VectorCollection, error) {
	s.mu.RLock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	out := make([]domain.VectorCollection, 0, len(names))
	for _, name := range names {
		col, err := s.GetCollection(ctx, name)
		if err != nil {
			continue
		}
		out = append(out, *col)
	}
	return out, nil
}

// UpsertPoints writes points keyed by ID.
func (s *Store) UpsertPoints(_ context.Context, name string, points []driven.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}
	for _, p := range points {
		if p.Vector != nil && len(p.Vector) != col.config.VectorSize {
			return fmt.Errorf("%w: point %s has %d dimensions, collection expects %d",
				domain.ErrDimensionMismatch, p.ID, len(p.Vector), col.config.VectorSize)
		}
		col.points[p.ID] = p
	}
	col.config.UpdatedAt = time.Now()
	return nil
}

// Search scores every embedded point by cosine similarity, applies the
// payload filter and threshold, and returns the top hits.
func (s *Store) Search(_ context.Context, name string, params driven.SearchParams) ([]driven.ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 5
	}

	var hits []driven.ScoredPoint
	for _, p := range col.points {
		if p.Vector == nil {
			continue
		}
		if !matchesFilter(p.Payload, params.Filter) {
			continue
		}
		score := cosine(params.Vector, p.Vector)
		if params.ScoreThreshold > 0 && score < params.ScoreThreshold {
			continue
		}
		hits = append(hits, driven.ScoredPoint{ID: p.ID, Score: score, Payload: p.Payload})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func matchesFilter(payload, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := payload[key]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
