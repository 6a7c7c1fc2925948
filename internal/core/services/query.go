package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// Query defaults.
const (
	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.0
)

// RetrievalService answers natural-language queries: it embeds the
// question and delegates ranking to the collection gateway.
type RetrievalService struct {
	engine      driven.EmbeddingEngine
	resolver    *EmbedContextResolver
	collections *CollectionService
}

// NewRetrievalService creates the retrieval service.
func NewRetrievalService(engine driven.EmbeddingEngine, resolver *EmbedContextResolver, collections *CollectionService) *RetrievalService {
	return &RetrievalService{engine: engine, resolver: resolver, collections: collections}
}

// QueryDocuments embeds the query and returns the top-K nearest chunks
// above the similarity threshold, filtered to the conversation. An
// embedding failure degrades to an empty result set; a dimension
// mismatch is fatal to the call.
func (s *RetrievalService) QueryDocuments(ctx context.Context, query domain.RAGQuery) (*domain.RAGResponse, error) {
	if strings.TrimSpace(query.Query) == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrInvalidInput)
	}
	if query.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", domain.ErrInvalidInput)
	}
	if query.TopK <= 0 {
		query.TopK = DefaultTopK
	}

	embedCtx, err := s.resolver.Resolve(ctx, "")
	if err != nil {
		return nil, err
	}

	embedding, err := s.engine.GenerateEmbedding(ctx, query.Query, embedCtx.Model)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Degraded mode: the gateway answers a nil embedding with an
		// empty result set rather than an error.
		logger.Warn("query embedding failed, degrading to empty results: %v", err)
		embedding = nil
	}

	return s.collections.Query(ctx, query, embedding)
}
