package services

import (
	"context"
	"fmt"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// settingsKeyVectorSize is the settings key holding the vector store's
// configured default dimensionality.
const settingsKeyVectorSize = "vectorstore.default_size"

// EmbeddingContext is a validated model choice for one ingestion or
// query run.
type EmbeddingContext struct {
	Model      string
	VectorSize int
}

// EmbedContextResolver picks and validates an embedding model, and
// enforces that the vector store's dimensionality matches it before any
// model switch can corrupt an existing collection.
type EmbedContextResolver struct {
	engine   driven.EmbeddingEngine
	db       driven.VectorDatabase
	settings driven.SettingsStore
}

// NewEmbedContextResolver creates a resolver.
func NewEmbedContextResolver(engine driven.EmbeddingEngine, db driven.VectorDatabase, settings driven.SettingsStore) *EmbedContextResolver {
	return &EmbedContextResolver{engine: engine, db: db, settings: settings}
}

// Resolve validates preferredModel (or the engine's current default when
// empty) and returns its embedding context. A model whose output size
// differs from the store's configured default is rejected with
// ErrDimensionMismatch when any populated collection holds vectors of a
// different size; otherwise the stored default is updated to the new
// size. On success the resolved model is persisted as the engine default
// so later calls without a preference reuse it.
func (r *EmbedContextResolver) Resolve(ctx context.Context, preferredModel string) (*EmbeddingContext, error) {
	model := preferredModel
	if model == "" {
		model = r.engine.CurrentModel()
	}
	if model == "" {
		return nil, domain.ErrModelNotConfigured
	}

	ok, err := r.engine.ValidateModel(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("validate model %s: %w", model, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is not installed", domain.ErrModelUnavailable, model)
	}

	size, err := r.engine.Dimensions(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("dimensions of %s: %w", model, err)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: model %s reports dimensionality %d", domain.ErrModelNotConfigured, model, size)
	}

	if err := r.checkCompatibility(ctx, model, size); err != nil {
		return nil, err
	}

	if err := r.engine.SetDefaultModel(model); err != nil {
		return nil, fmt.Errorf("persist default model: %w", err)
	}

	return &EmbeddingContext{Model: model, VectorSize: size}, nil
}

// checkCompatibility compares the target size against the store's
// configured default. A differing target is allowed only when no
// populated collection holds vectors of another size; mixed-dimension
// collections must never be written.
func (r *EmbedContextResolver) checkCompatibility(ctx context.Context, model string, size int) error {
	current := 0
	if r.settings != nil {
		current = r.settings.GetInt(settingsKeyVectorSize)
	}
	if current == size {
		return nil
	}
	if current != 0 {
		collections, err := r.db.ListCollections(ctx)
		if err != nil {
			return fmt.Errorf("list collections: %w", err)
		}
		for _, col := range collections {
			if col.Stats.PointsCount > 0 && col.VectorSize != size {
				return fmt.Errorf("%w: model %s produces %d-dimensional vectors but collection %s holds %d points of size %d",
					domain.ErrDimensionMismatch, model, size, col.Name, col.Stats.PointsCount, col.VectorSize)
			}
		}
		logger.Info("switching default vector size from %d to %d (no populated collection conflicts)", current, size)
	}
	if r.settings != nil {
		if err := r.settings.Set(settingsKeyVectorSize, size); err != nil {
			return fmt.Errorf("persist default vector size: %w", err)
		}
	}
	return nil
}
