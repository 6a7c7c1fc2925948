package driving

import (
	"context"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// Retriever answers natural-language queries against a conversation's
// ingested documents.
type Retriever interface {
	// QueryDocuments embeds the query and returns the top-K nearest
	// chunks above the similarity threshold, filtered to the
	// conversation. Querying an empty or missing collection returns an
	// empty response, not an error.
	QueryDocuments(ctx context.Context, query domain.RAGQuery) (*domain.RAGResponse, error)
}
