package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ragdesk/ragdesk/internal/chunker"
	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
	"github.com/ragdesk/ragdesk/internal/logger"
	"github.com/ragdesk/ragdesk/internal/readers"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// Orchestrator defaults.
const (
	// DefaultEmbedFanOut bounds concurrent embedding calls per run.
	DefaultEmbedFanOut = 4

	// DefaultEmbedTimeout bounds one chunk's embedding call. A timeout
	// degrades that chunk, it does not abort the batch.
	DefaultEmbedTimeout = 30 * time.Second
)

// IngestConfig tunes the ingestion orchestrator.
type IngestConfig struct {
	// ChunkSize and ChunkOverlap are the chunking defaults, overridable
	// per call.
	ChunkSize    int
	ChunkOverlap int

	// MaxFileSize rejects larger inputs (default 50MB).
	MaxFileSize int64

	// EmbedFanOut bounds concurrent embedding calls (default 4).
	EmbedFanOut int

	// EmbedTimeout bounds one chunk's embedding call (default 30s).
	EmbedTimeout time.Duration

	// ScratchDir stages uploaded documents (default os.TempDir()).
	ScratchDir string
}

// IngestService composes the readers, chunker, embedding resolver and
// collection gateway into the validate → read → chunk → embed → upsert
// pipeline. One call ingests one file as one ordered chunk sequence.
type IngestService struct {
	registry    *readers.Registry
	resolver    *EmbedContextResolver
	collections *CollectionService
	cfg         IngestConfig
}

// NewIngestService creates the orchestrator.
func NewIngestService(registry *readers.Registry, resolver *EmbedContextResolver, collections *CollectionService, cfg IngestConfig) *IngestService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = chunker.DefaultChunkOverlap
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = readers.DefaultMaxFileSize
	}
	if cfg.EmbedFanOut <= 0 {
		cfg.EmbedFanOut = DefaultEmbedFanOut
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = DefaultEmbedTimeout
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	return &IngestService{
		registry:    registry,
		resolver:    resolver,
		collections: collections,
		cfg:         cfg,
	}
}

// ProcessDocument ingests the file at path into the conversation's
// collection. Every failure is returned as a structured result with the
// stage that failed; nothing panics past this boundary.
func (s *IngestService) ProcessDocument(ctx context.Context, path, conversationID string, opts driving.IngestOptions) domain.IngestResult {
	report(opts, domain.IngestValidating, 0, filepath.Base(path))

	if conversationID == "" {
		return failed(domain.IngestValidating, fmt.Errorf("%w: conversation id is required", domain.ErrInvalidInput))
	}

	// Unknown extensions fail before any I/O beyond the stat call.
	ext := filepath.Ext(path)
	if !s.registry.Supports(ext) {
		return failed(domain.IngestValidating, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext))
	}

	info, err := os.Stat(path)
	if err != nil {
		return failed(domain.IngestValidating, fmt.Errorf("stat %s: %w", path, err))
	}
	if info.Size() == 0 {
		return failed(domain.IngestValidating, domain.ErrEmptyFile)
	}
	if info.Size() > s.cfg.MaxFileSize {
		return failed(domain.IngestValidating, fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, info.Size(), s.cfg.MaxFileSize))
	}

	report(opts, domain.IngestReading, 10, filepath.Base(path))
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(domain.IngestReading, fmt.Errorf("read %s: %w", path, err))
	}

	return s.run(ctx, filepath.Base(path), ext, data, conversationID, opts)
}

// ProcessUpload stages uploaded bytes in a scratch file and ingests it.
// The scratch file is removed on every exit path, including
// cancellation. Unknown extensions are rejected before anything is
// written to disk.
func (s *IngestService) ProcessUpload(ctx context.Context, name string, data []byte, conversationID string, opts driving.IngestOptions) domain.IngestResult {
	if ext := filepath.Ext(name); !s.registry.Supports(ext) {
		return failed(domain.IngestValidating, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext))
	}

	scratch, err := writeScratchFile(s.cfg.ScratchDir, conversationID, name, data)
	if err != nil {
		return failed(domain.IngestValidating, err)
	}
	defer removeScratchFile(scratch)

	return s.ProcessDocument(ctx, scratch, conversationID, opts)
}

// run drives the parse → chunk → embed → upsert stages on in-memory
// data. name is the original file name kept as chunk provenance.
func (s *IngestService) run(ctx context.Context, name, ext string, data []byte, conversationID string, opts driving.IngestOptions) domain.IngestResult {
	reader, err := s.registry.Get(ext)
	if err != nil {
		return failed(domain.IngestValidating, err)
	}

	report(opts, domain.IngestParsing, 20, name)
	result, err := reader.Read(ctx, name, data, readOptions(s.cfg, opts))
	if err != nil {
		return failed(domain.IngestParsing, err)
	}
	logger.Debug("parsed %s: %d pages, %d chars", name, len(result.Pages), result.TotalCharacterCount)

	report(opts, domain.IngestChunking, 40, name)
	chunks := s.buildChunks(name, conversationID, result.Pages, opts)
	if len(chunks) == 0 {
		return failed(domain.IngestChunking, fmt.Errorf("%w: document produced no chunks", domain.ErrEmptyFile))
	}

	report(opts, domain.IngestEmbedding, 50, name)
	embedCtx, err := s.resolver.Resolve(ctx, opts.Model)
	if err != nil {
		return failed(domain.IngestEmbedding, err)
	}

	failedEmbeddings, err := s.embedChunks(ctx, chunks, embedCtx.Model)
	if err != nil {
		return failed(domain.IngestEmbedding, err)
	}

	report(opts, domain.IngestUpserting, 80, name)
	if _, err := s.collections.EnsureCollection(ctx, conversationID, embedCtx.VectorSize); err != nil {
		return failed(domain.IngestUpserting, err)
	}
	if err := s.collections.AddChunks(ctx, conversationID, chunks); err != nil {
		return failed(domain.IngestUpserting, err)
	}

	report(opts, domain.IngestCompleted, 100, name)
	if failedEmbeddings > 0 {
		logger.Warn("ingested %s with %d/%d chunks lacking embeddings", name, failedEmbeddings, len(chunks))
	}
	return domain.IngestResult{
		Success:          true,
		Chunks:           chunks,
		TotalChunks:      len(chunks),
		FailedEmbeddings: failedEmbeddings,
		Stage:            domain.IngestCompleted,
	}
}

// buildChunks runs the chunker and attaches provenance. Chunk ordinals
// are contiguous from 0 within one run.
func (s *IngestService) buildChunks(name, conversationID string, pages []domain.Page, opts driving.IngestOptions) []domain.Chunk {
	size, overlap := s.cfg.ChunkSize, s.cfg.ChunkOverlap
	if opts.ChunkSize > 0 {
		size = opts.ChunkSize
	}
	if opts.ChunkOverlap > 0 {
		overlap = opts.ChunkOverlap
	}

	c := chunker.New(chunker.Options{ChunkSize: size, ChunkOverlap: overlap})
	texts := c.Chunk(pages)

	now := time.Now()
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:      chunkID(conversationID, i, now),
			Content: text,
			Source: domain.ChunkSource{
				Document:       name,
				PageNumber:     chunker.AttributePage(text, pages),
				ChunkIndex:     i,
				ConversationID: conversationID,
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return chunks
}

// embedChunks generates embeddings with bounded fan-out. A single
// chunk's failure or timeout is downgraded to a warning and the chunk is
// kept without a vector; only context cancellation aborts the batch.
// Completion order does not matter, each chunk carries its ordinal.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk, model string) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbedFanOut)

	var mu sync.Mutex
	failures := 0

	for i := range chunks {
		i := i
		g.Go(func() error {
			embedCtx, cancel := context.WithTimeout(gctx, s.cfg.EmbedTimeout)
			defer cancel()

			vector, err := s.resolver.engine.GenerateEmbedding(embedCtx, chunks[i].Content, model)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("embedding chunk %d failed, storing without vector: %v", chunks[i].Source.ChunkIndex, err)
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			}
			chunks[i].Embedding = vector
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return failures, err
	}
	return failures, nil
}

// chunkID derives a stable UUID from the conversation, ordinal and
// creation time.
func chunkID(conversationID string, index int, createdAt time.Time) string {
	seed := fmt.Sprintf("%s:%d:%d", conversationID, index, createdAt.UnixNano())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func readOptions(cfg IngestConfig, opts driving.IngestOptions) driven.ReadOptions {
	return driven.ReadOptions{
		MaxFileSize: cfg.MaxFileSize,
		OnProgress: func(p domain.ReadProgress) {
			if opts.OnProgress != nil && p.TotalPages > 0 {
				opts.OnProgress(domain.IngestProgress{
					Stage:   domain.IngestParsing,
					Percent: 20 + p.Percent*0.2,
					Detail:  fmt.Sprintf("page %d/%d", p.CurrentPage, p.TotalPages),
				})
			}
		},
	}
}

func report(opts driving.IngestOptions, stage domain.IngestStage, percent float64, detail string) {
	logger.Debug("ingest stage %s (%s)", stage, detail)
	if opts.OnProgress != nil {
		opts.OnProgress(domain.IngestProgress{Stage: stage, Percent: percent, Detail: detail})
	}
}

func failed(stage domain.IngestStage, err error) domain.IngestResult {
	logger.Warn("ingest failed at %s: %v", stage, err)
	return domain.IngestResult{Success: false, Stage: stage, Err: err}
}
