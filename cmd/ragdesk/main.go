// Command ragdesk ingests documents into per-conversation vector
// collections and answers questions against them.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	configfile "github.com/ragdesk/ragdesk/internal/adapters/driven/config/file"
	"github.com/ragdesk/ragdesk/internal/adapters/driven/embedding/ollama"
	vectormem "github.com/ragdesk/ragdesk/internal/adapters/driven/vectorstore/memory"
	"github.com/ragdesk/ragdesk/internal/adapters/driven/vectorstore/qdrant"
	"github.com/ragdesk/ragdesk/internal/adapters/driving/cli"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/core/services"
	"github.com/ragdesk/ragdesk/internal/logger"
	"github.com/ragdesk/ragdesk/internal/readers"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	settings, err := configfile.NewSettingsStore(os.Getenv("RAGDESK_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}

	engine := ollama.NewEngine(ollama.Config{
		BaseURL:  os.Getenv("OLLAMA_URL"),
		Model:    os.Getenv("RAGDESK_EMBEDDING_MODEL"),
		Settings: settings,
	})
	defer engine.Close()

	var db driven.VectorDatabase
	if os.Getenv("RAGDESK_VECTORSTORE") == "memory" {
		db = vectormem.New()
	} else {
		db = qdrant.New(qdrant.Config{
			BaseURL: os.Getenv("QDRANT_URL"),
			APIKey:  os.Getenv("QDRANT_API_KEY"),
		})
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := engine.Ping(ctx); err != nil {
		logger.Warn("embedding engine unreachable, ingestion and queries will fail: %v", err)
	}
	cancel()

	registry := readers.NewDefaultRegistry()
	resolver := services.NewEmbedContextResolver(engine, db, settings)
	collections := services.NewCollectionService(db, services.CollectionConfig{})
	ingestor := services.NewIngestService(registry, resolver, collections, services.IngestConfig{
		ChunkSize:    settings.GetInt("chunking.size"),
		ChunkOverlap: settings.GetInt("chunking.overlap"),
	})
	retriever := services.NewRetrievalService(engine, resolver, collections)

	return cli.Execute(version, cli.Services{
		Ingestor:        ingestor,
		Retriever:       retriever,
		CollectionAdmin: collections,
	})
}
