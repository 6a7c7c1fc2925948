// Package services contains the application services composing the
// ingestion and retrieval pipeline: the collection gateway, the
// embedding context resolver, the ingestion orchestrator and the
// retrieval service.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionAdmin = (*CollectionService)(nil)

// Payload field names used for chunk points.
const (
	payloadContent        = "content"
	payloadSource         = "source"
	payloadPageNumber     = "page_number"
	payloadChunkIndex     = "chunk_index"
	payloadConversationID = "conversation_id"
	payloadCreatedAt      = "created_at"
)

// CollectionConfig tunes the collection gateway.
type CollectionConfig struct {
	// Distance is the metric for new collections (default cosine).
	Distance string

	// Index holds HNSW parameters for new collections.
	Index domain.HNSWParams

	// CacheMaxEntries bounds the metadata cache (default 100).
	CacheMaxEntries int

	// CacheTTL bounds entry lifetime (default 30 minutes).
	CacheTTL time.Duration
}

// CollectionService owns the mapping from conversation ids to vector
// collections and fronts the vector database with a bounded metadata
// cache.
type CollectionService struct {
	db       driven.VectorDatabase
	distance string
	index    domain.HNSWParams
	cache    *collectionCache
}

// NewCollectionService creates the collection gateway.
func NewCollectionService(db driven.VectorDatabase, cfg CollectionConfig) *CollectionService {
	if cfg.Distance == "" {
		cfg.Distance = domain.DistanceCosine
	}
	if cfg.Index == (domain.HNSWParams{}) {
		cfg.Index = domain.DefaultHNSWParams()
	}
	return &CollectionService{
		db:       db,
		distance: cfg.Distance,
		index:    cfg.Index,
		cache:    newCollectionCache(cfg.CacheMaxEntries, cfg.CacheTTL),
	}
}

// EnsureCollection creates the conversation's collection if absent and
// returns its current state. Creation is idempotent. An existing but
// empty collection whose vector size differs, left over from an earlier
// model, is dropped and recreated at the requested size; a populated one
// fails with ErrDimensionMismatch.
func (s *CollectionService) EnsureCollection(ctx context.Context, conversationID string, vectorSize int) (*domain.VectorCollection, error) {
	name := CollectionName(conversationID)

	if col, ok := s.cache.Get(name); ok && col.VectorSize == vectorSize {
		return col, nil
	}

	col, err := s.db.GetCollection(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		col, err = s.createAndGet(ctx, name, vectorSize)
	case err == nil && col.VectorSize != vectorSize && col.Stats.PointsCount > 0:
		return nil, fmt.Errorf("%w: collection %s holds %d points of size %d, need %d",
			domain.ErrDimensionMismatch, name, col.Stats.PointsCount, col.VectorSize, vectorSize)
	case err == nil && col.VectorSize != vectorSize:
		logger.Info("recreating empty collection %s at size %d (was %d)", name, vectorSize, col.VectorSize)
		if err = s.db.DeleteCollection(ctx, name); err != nil {
			return nil, fmt.Errorf("recreate collection %s: %w", name, err)
		}
		s.cache.Delete(name)
		col, err = s.createAndGet(ctx, name, vectorSize)
	}
	if err != nil {
		return nil, err
	}

	col.ConversationID = conversationID
	s.cache.Put(name, *col)
	return col, nil
}

func (s *CollectionService) createAndGet(ctx context.Context, name string, vectorSize int) (*domain.VectorCollection, error) {
	if err := s.db.CreateCollection(ctx, name, vectorSize, s.distance, s.index); err != nil {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}
	return s.db.GetCollection(ctx, name)
}

// AddChunks upserts chunks into the conversation's collection in one
// batch. The upsert is acknowledged before returning. Chunks without an
// embedding are stored payload-only (degraded, but retrievable by id).
func (s *CollectionService) AddChunks(ctx context.Context, conversationID string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	name := CollectionName(conversationID)
	points := make([]driven.Point, 0, len(chunks))
	for _, c := range chunks {
		points = append(points, driven.Point{
			ID:     c.ID,
			Vector: c.Embedding,
			Payload: map[string]any{
				payloadContent:        c.Content,
				payloadSource:         c.Source.Document,
				payloadPageNumber:     c.Source.PageNumber,
				payloadChunkIndex:     c.Source.ChunkIndex,
				payloadConversationID: c.Source.ConversationID,
				payloadCreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
			},
		})
	}

	if err := s.db.UpsertPoints(ctx, name, points); err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), name, err)
	}
	// Stats changed; drop the stale cache entry.
	s.cache.Delete(name)
	return nil
}

// Query runs a similarity search scoped to the conversation. Embedding
// generation is the caller's responsibility: a nil embedding degrades to
// an empty result set rather than an error, as does a missing
// collection.
func (s *CollectionService) Query(ctx context.Context, query domain.RAGQuery, embedding []float32) (*domain.RAGResponse, error) {
	if embedding == nil {
		logger.Warn("query without embedding for conversation %s, returning no sources", query.ConversationID)
		return &domain.RAGResponse{Sources: []domain.RAGSource{}}, nil
	}

	name := CollectionName(query.ConversationID)
	if _, err := s.db.GetCollection(ctx, name); errors.Is(err, domain.ErrNotFound) {
		return &domain.RAGResponse{Sources: []domain.RAGSource{}}, nil
	} else if err != nil {
		return nil, err
	}

	filter := map[string]any{payloadConversationID: query.ConversationID}
	if query.Source != "" {
		filter[payloadSource] = query.Source
	}
	if query.PageNumber > 0 {
		filter[payloadPageNumber] = query.PageNumber
	}

	hits, err := s.db.Search(ctx, name, driven.SearchParams{
		Vector:         embedding,
		Limit:          query.TopK,
		ScoreThreshold: query.SimilarityThreshold,
		Filter:         filter,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", name, err)
	}

	resp := &domain.RAGResponse{Sources: make([]domain.RAGSource, 0, len(hits))}
	var total float64
	for _, hit := range hits {
		src := domain.RAGSource{Score: hit.Score}
		if v, ok := hit.Payload[payloadContent].(string); ok {
			src.Content = v
		}
		if v, ok := hit.Payload[payloadSource].(string); ok {
			src.Source = v
		}
		src.PageNumber = payloadInt(hit.Payload, payloadPageNumber)
		src.ChunkIndex = payloadInt(hit.Payload, payloadChunkIndex)
		resp.Sources = append(resp.Sources, src)
		total += hit.Score
	}
	resp.Count = len(resp.Sources)
	if resp.Count > 0 {
		resp.AverageScore = total / float64(resp.Count)
	}
	return resp, nil
}

// DeleteCollection removes the conversation's collection and its cache
// entry. Deleting a missing collection succeeds.
func (s *CollectionService) DeleteCollection(ctx context.Context, conversationID string) domain.DeleteResult {
	name := CollectionName(conversationID)
	if err := s.db.DeleteCollection(ctx, name); err != nil {
		return domain.DeleteResult{Success: false, Err: err}
	}
	s.cache.Delete(name)
	return domain.DeleteResult{Success: true, DeletedID: conversationID}
}

// GetCollectionStats reports stats for the conversation's collection.
func (s *CollectionService) GetCollectionStats(ctx context.Context, conversationID string) (*domain.CollectionStats, error) {
	col, err := s.db.GetCollection(ctx, CollectionName(conversationID))
	if err != nil {
		return nil, err
	}
	stats := col.Stats
	return &stats, nil
}

// ListCollections returns every collection in the vector store.
func (s *CollectionService) ListCollections(ctx context.Context) ([]domain.VectorCollection, error) {
	return s.db.ListCollections(ctx)
}

func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
