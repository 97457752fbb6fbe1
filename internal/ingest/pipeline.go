package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"codefour-rag/internal/contextutil"
	"codefour-rag/internal/storage"
	"codefour-rag/internal/vectorstore"
)

// embedBatchSize bounds the number of chunk texts sent per embeddings call.
const embedBatchSize = 32

// Extractor classifies files and extracts their text. Implemented by the
// extract package; defined here so the pipeline does not depend on it.
type Extractor interface {
	Classify(filename string) (DocType, error)
	FromFile(path string) (string, error)
}

// Embedder generates embedding vectors for texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Stats summarizes a directory ingestion run.
type Stats struct {
	Ingested int // documents chunked and indexed
	Skipped  int // unchanged, unsupported or unclassifiable documents
	Failed   int // documents that errored
}

// Pipeline ingests legal documents: classify, extract, chunk, embed, index.
// Chunk text goes to SQLite, vectors and metadata to the vector store under
// the same point IDs.
type Pipeline struct {
	extractor  Extractor
	chunker    *Chunker
	embedder   Embedder
	store      vectorstore.VectorStore
	docs       storage.DocumentStore
	chunks     storage.ChunkStore
	collection string
	workers    int
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(extractor Extractor, embedder Embedder, store vectorstore.VectorStore, docs storage.DocumentStore, chunks storage.ChunkStore, collection string, workers int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		extractor:  extractor,
		chunker:    NewChunker(),
		embedder:   embedder,
		store:      store,
		docs:       docs,
		chunks:     chunks,
		collection: collection,
		workers:    workers,
	}
}

// IngestDirectory ingests every file in dir through a worker pool. Failures
// are fatal for the document, never for the batch: unclassifiable and
// unsupported files are logged and skipped, errors are counted and the run
// continues.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read data directory: %w", err)
	}

	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu    sync.Mutex
		stats Stats
		wg    sync.WaitGroup
	)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			skipped, err := p.ingestOne(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				stats.Failed++
			case skipped:
				stats.Skipped++
			default:
				stats.Ingested++
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			stats.Failed++
			mu.Unlock()
			logger.ErrorContext(ctx, "failed to submit ingest task", "file", entry.Name(), "error", submitErr)
		}
	}

	wg.Wait()

	if stats.Failed > 0 {
		logger.WarnContext(ctx, "ingestion completed with errors",
			"ingested", stats.Ingested, "skipped", stats.Skipped, "failed", stats.Failed)
	} else {
		logger.InfoContext(ctx, "ingestion completed",
			"ingested", stats.Ingested, "skipped", stats.Skipped)
	}
	return stats, nil
}

// ingestOne wraps IngestFile with the skip/fail classification used by the
// batch: unclassifiable and unsupported documents are skips, not failures.
func (p *Pipeline) ingestOne(ctx context.Context, path string) (skipped bool, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	changed, err := p.IngestFile(ctx, path)
	if err != nil {
		var classErr *ClassificationError
		if errors.As(err, &classErr) {
			logger.WarnContext(ctx, "skipping unclassifiable document", "file", filepath.Base(path))
			return true, nil
		}
		if errors.Is(err, ErrUnsupportedFormat) {
			logger.InfoContext(ctx, "skipping unsupported format", "file", filepath.Base(path))
			return true, nil
		}
		logger.ErrorContext(ctx, "failed to ingest document", "file", filepath.Base(path), "error", err)
		return false, err
	}
	if !changed {
		logger.DebugContext(ctx, "document unchanged", "file", filepath.Base(path))
		return true, nil
	}
	return false, nil
}

// IngestFile ingests a single document. Returns false when the document was
// skipped because its content hash is unchanged since the last run.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (bool, error) {
	logger := contextutil.LoggerFromContext(ctx)
	sourceFile := filepath.Base(path)

	docType, err := p.extractor.Classify(sourceFile)
	if err != nil {
		return false, err
	}

	text, err := p.extractor.FromFile(path)
	if err != nil {
		return false, err
	}

	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:])

	docID := uuid.NewString()
	existing, err := p.docs.GetBySourceFile(ctx, sourceFile)
	switch {
	case err == nil:
		if existing.Hash == hash {
			return false, nil
		}
		docID = existing.ID
	case errors.Is(err, storage.ErrNotFound):
		// new document
	default:
		return false, fmt.Errorf("failed to look up document: %w", err)
	}

	if err := p.docs.Upsert(ctx, &storage.DocumentRecord{
		ID:         docID,
		SourceFile: sourceFile,
		DocType:    string(docType),
		Hash:       hash,
	}); err != nil {
		return false, err
	}

	// Remove stale chunks from both stores before re-indexing
	oldIDs, err := p.chunks.ListIDsByDocument(ctx, docID)
	if err != nil {
		return false, err
	}
	if len(oldIDs) > 0 {
		if err := p.store.Delete(ctx, p.collection, oldIDs); err != nil {
			return false, err
		}
		if err := p.chunks.DeleteByDocument(ctx, docID); err != nil {
			return false, err
		}
	}

	chunks, err := p.chunker.Chunk(Document{SourceID: sourceFile, Type: docType, Text: text})
	if err != nil {
		return false, err
	}
	if len(chunks) == 0 {
		logger.WarnContext(ctx, "document produced no chunks", "file", sourceFile)
		return true, nil
	}

	if err := p.index(ctx, docID, sourceFile, chunks); err != nil {
		return false, err
	}

	logger.InfoContext(ctx, "ingested document",
		"file", sourceFile, "doc_type", string(docType), "chunks", len(chunks))
	return true, nil
}

// index embeds chunk texts in batches and writes chunk rows and vector
// points under shared IDs.
func (p *Pipeline) index(ctx context.Context, docID, sourceFile string, chunks []Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vecs, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunks: %w", err)
		}

		points := make([]vectorstore.Point, len(batch))
		for i, chunk := range batch {
			id := uuid.NewString()

			if err := p.chunks.Insert(ctx, &storage.ChunkRecord{
				ID:            id,
				DocumentID:    docID,
				ChunkIndex:    chunk.Index,
				Chapter:       chunk.Chapter,
				SectionNumber: chunk.SectionNumber,
				CitationKey:   chunk.CitationKey,
				CharStart:     chunk.CharStart,
				CharEnd:       chunk.CharEnd,
				Text:          chunk.Text,
			}); err != nil {
				return err
			}

			points[i] = vectorstore.Point{
				ID:  id,
				Vec: vecs[i],
				Meta: map[string]any{
					"source_file":    sourceFile,
					"doc_type":       string(chunk.Type),
					"chunk_index":    chunk.Index,
					"chapter":        chunk.Chapter,
					"section_number": chunk.SectionNumber,
					"citation_key":   chunk.CitationKey,
				},
			}
		}

		if err := p.store.Upsert(ctx, p.collection, points); err != nil {
			return err
		}
	}
	return nil
}
