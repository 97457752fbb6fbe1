package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codefour-rag/internal/contextutil"
	"codefour-rag/internal/ingest"
	"codefour-rag/internal/llm"
	"codefour-rag/internal/storage"
	"codefour-rag/internal/vectorstore"
)

// noMaterialAnswer is returned without calling the LLM when retrieval finds
// nothing.
const noMaterialAnswer = "No relevant legal material was found for this question. " +
	"Try rephrasing, or cite the statute section directly."

// Embedder generates embedding vectors for texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces an answer from a chat conversation.
type Generator interface {
	Chat(ctx context.Context, messages []llm.ChatMessage) (string, error)
}

// Engine answers legal research questions over the indexed corpus.
type Engine interface {
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
}

type engine struct {
	embedder   Embedder
	generator  Generator
	store      vectorstore.VectorStore
	chunks     storage.ChunkStore
	expander   *Expander
	collection string
	topN       int
	fetchK     int
}

// NewEngine creates a query engine. topN and fetchK fall back to their
// defaults when non-positive.
func NewEngine(embedder Embedder, generator Generator, store vectorstore.VectorStore, chunks storage.ChunkStore, collection string, topN, fetchK int) Engine {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}
	return &engine{
		embedder:   embedder,
		generator:  generator,
		store:      store,
		chunks:     chunks,
		expander:   NewExpander(store, chunks, collection),
		collection: collection,
		topN:       topN,
		fetchK:     fetchK,
	}
}

// Query runs the full retrieval flow: extract citations and terms, embed the
// expanded question, fetch semantic candidates, apply the keyword boost,
// follow cross-references, and generate the answer.
func (e *engine) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return QueryResponse{}, ErrEmptyQuery
	}

	parsed := ExtractQuery(question)
	logger.DebugContext(ctx, "extracted query",
		"citation_refs", parsed.CitationRefs, "terms", len(parsed.Terms))

	vecs, err := e.embedder.EmbedTexts(ctx, []string{parsed.Expanded})
	if err != nil {
		return QueryResponse{}, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	var filters map[string]any
	if req.DocTypeFilter != "" {
		filters = map[string]any{"doc_type": req.DocTypeFilter}
	}

	hits, err := e.store.Search(ctx, e.collection, vecs[0], e.fetchK, filters)
	if err != nil {
		return QueryResponse{}, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	candidates := e.hydrate(ctx, hits)
	if len(candidates) == 0 {
		logger.InfoContext(ctx, "no candidates retrieved", "question_len", len(question))
		return QueryResponse{
			Answer:     noMaterialAnswer,
			Sources:    []Source{},
			Confidence: 0,
		}, nil
	}

	rs := Score(candidates, parsed.CitationRefs, parsed.Terms, e.topN)
	rs = e.expander.Expand(ctx, rs)

	answer, err := e.generate(ctx, question, rs)
	if err != nil {
		return QueryResponse{}, err
	}

	logger.InfoContext(ctx, "query answered",
		"results", len(rs.Results), "confidence", rs.Confidence)

	return QueryResponse{
		Answer:     answer,
		Sources:    collectSources(rs),
		Confidence: rs.Confidence,
	}, nil
}

// hydrate joins vector hits with their stored chunk text. Hits whose chunk
// row is missing are logged and skipped; the index and storage can briefly
// disagree during re-ingestion.
func (e *engine) hydrate(ctx context.Context, hits []vectorstore.SearchResult) []Candidate {
	logger := contextutil.LoggerFromContext(ctx)

	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		record, err := e.chunks.GetByID(ctx, hit.PointID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				logger.WarnContext(ctx, "chunk missing from storage", "point_id", hit.PointID)
			} else {
				logger.ErrorContext(ctx, "failed to load chunk", "point_id", hit.PointID, "error", err)
			}
			continue
		}

		chunk := chunkFromRecord(record)
		if sourceFile, ok := hit.Meta["source_file"].(string); ok {
			chunk.SourceID = sourceFile
		}
		if docType, ok := hit.Meta["doc_type"].(string); ok {
			chunk.Type = ingest.DocType(docType)
		}

		candidates = append(candidates, Candidate{
			ID:            hit.PointID,
			Chunk:         chunk,
			SemanticScore: float64(hit.Score),
		})
	}
	return candidates
}

// generate builds the legal prompt from the result set and calls the LLM.
func (e *engine) generate(ctx context.Context, question string, rs ResultSet) (string, error) {
	blocks := make([]llm.ContextBlock, 0, len(rs.Results))
	for _, r := range rs.Results {
		blocks = append(blocks, llm.ContextBlock{
			SourceFile:    r.Chunk.SourceID,
			DocType:       string(r.Chunk.Type),
			SectionNumber: r.Chunk.SectionNumber,
			Text:          r.Chunk.Text,
			IsCrossRef:    r.IsCrossRef,
		})
	}

	messages := []llm.ChatMessage{
		{Role: "system", Content: llm.SystemPrompt},
		{Role: "user", Content: llm.BuildPrompt(question, blocks)},
	}

	answer, err := e.generator.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return answer, nil
}

// collectSources lists the contributing chunks, deduplicated by source file
// and section, keeping the first (highest ranked) occurrence.
func collectSources(rs ResultSet) []Source {
	seen := make(map[string]struct{}, len(rs.Results))
	sources := make([]Source, 0, len(rs.Results))
	for _, r := range rs.Results {
		key := r.Chunk.SourceID + "|" + r.Chunk.SectionNumber
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		sources = append(sources, Source{
			SourceFile:    r.Chunk.SourceID,
			DocType:       string(r.Chunk.Type),
			SectionNumber: r.Chunk.SectionNumber,
			IsCrossRef:    r.IsCrossRef,
		})
	}
	return sources
}
