package driving

import (
	"context"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// CollectionAdmin exposes collection lifecycle operations to the host.
type CollectionAdmin interface {
	// DeleteCollection removes the conversation's collection and its
	// cache entry. Deleting a missing collection succeeds.
	DeleteCollection(ctx context.Context, conversationID string) domain.DeleteResult

	// GetCollectionStats reports size and indexing state for the
	// conversation's collection.
	GetCollectionStats(ctx context.Context, conversationID string) (*domain.CollectionStats, error)

	// ListCollections returns every collection in the vector store.
	ListCollections(ctx context.Context) ([]domain.VectorCollection, error)
}
