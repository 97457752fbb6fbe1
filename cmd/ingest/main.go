package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"codefour-rag/internal/config"
	"codefour-rag/internal/extract"
	"codefour-rag/internal/ingest"
	"codefour-rag/internal/llm"
	"codefour-rag/internal/storage"
	"codefour-rag/internal/vectorstore"
)

func main() {
	app := &cli.App{
		Name:  "ingest",
		Usage: "ingest legal documents into the retrieval index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "directory of documents to ingest (overrides DATA_DIR)",
			},
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "drop and recreate the index before ingesting",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	dataDir := cfg.DataDir
	if c.String("data-dir") != "" {
		dataDir = c.String("data-dir")
	}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		return fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	if c.Bool("reset") {
		slog.Info("Resetting index", "collection", cfg.QdrantCollection)
		if err := vectorStore.DropCollection(ctx, cfg.QdrantCollection); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
		if err := storage.Reset(db); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
	}

	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		return fmt.Errorf("failed to ensure Qdrant collection: %w", err)
	}

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)

	pipeline := ingest.NewPipeline(
		extract.FileExtractor{},
		embedder,
		vectorStore,
		storage.NewDocumentRepo(db),
		storage.NewChunkRepo(db),
		cfg.QdrantCollection,
		cfg.IngestWorkers,
	)

	slog.Info("Starting ingestion", "data_dir", dataDir, "workers", cfg.IngestWorkers)
	stats, err := pipeline.IngestDirectory(ctx, dataDir)
	if err != nil {
		return err
	}
	if stats.Failed > 0 {
		return fmt.Errorf("ingestion finished with %d failed documents", stats.Failed)
	}
	return nil
}
