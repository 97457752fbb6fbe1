package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"codefour-rag/internal/storage"
	"codefour-rag/internal/vectorstore"
)

func engineFixture(store *fakeVectorStore, chunks *fakeChunkStore, embedder *fakeEmbedder, generator *fakeGenerator) Engine {
	return NewEngine(embedder, generator, store, chunks, "legal", 5, 15)
}

func TestEngine_EmptyQuestion(t *testing.T) {
	eng := engineFixture(&fakeVectorStore{}, &fakeChunkStore{}, &fakeEmbedder{}, &fakeGenerator{})

	for _, question := range []string{"", "   ", "\n\t"} {
		_, err := eng.Query(context.Background(), QueryRequest{Question: question})
		if !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Query(%q) error = %v, want ErrEmptyQuery", question, err)
		}
	}
}

func TestEngine_ZeroCandidates(t *testing.T) {
	generator := &fakeGenerator{}
	eng := engineFixture(&fakeVectorStore{}, &fakeChunkStore{}, &fakeEmbedder{}, generator)

	resp, err := eng.Query(context.Background(), QueryRequest{Question: "obscure question"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if resp.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", resp.Confidence)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("Sources = %v, want empty", resp.Sources)
	}
	if resp.Answer == "" {
		t.Error("Answer should explain that nothing was found")
	}
	if generator.calls != 0 {
		t.Errorf("generator called %d times, want 0 for zero candidates", generator.calls)
	}
}

func TestEngine_SearchErrorMapsToIndexUnavailable(t *testing.T) {
	store := &fakeVectorStore{searchErr: errBoom}
	eng := engineFixture(store, &fakeChunkStore{}, &fakeEmbedder{}, &fakeGenerator{})

	_, err := eng.Query(context.Background(), QueryRequest{Question: "anything"})
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("Query() error = %v, want ErrIndexUnavailable", err)
	}
}

func TestEngine_EmbedError(t *testing.T) {
	eng := engineFixture(&fakeVectorStore{}, &fakeChunkStore{}, &fakeEmbedder{err: errBoom}, &fakeGenerator{})

	_, err := eng.Query(context.Background(), QueryRequest{Question: "anything"})
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("Query() error = %v, want ErrEmbedding", err)
	}
}

func TestEngine_GenerationError(t *testing.T) {
	store := &fakeVectorStore{searchResults: []vectorstore.SearchResult{
		{PointID: "p1", Score: 0.8, Meta: map[string]any{"source_file": "346.pdf", "doc_type": "statute"}},
	}}
	chunks := &fakeChunkStore{records: map[string]*storage.ChunkRecord{
		"p1": {ID: "p1", Text: "346.63 text.", SectionNumber: "346.63", CitationKey: "346.63"},
	}}
	eng := engineFixture(store, chunks, &fakeEmbedder{}, &fakeGenerator{err: errBoom})

	_, err := eng.Query(context.Background(), QueryRequest{Question: "OWI elements"})
	if !errors.Is(err, ErrGeneration) {
		t.Errorf("Query() error = %v, want ErrGeneration", err)
	}
}

func TestEngine_HappyPath(t *testing.T) {
	store := &fakeVectorStore{searchResults: []vectorstore.SearchResult{
		{PointID: "p1", Score: 0.82, Meta: map[string]any{"source_file": "346.pdf", "doc_type": "statute"}},
		{PointID: "p2", Score: 0.61, Meta: map[string]any{"source_file": "pursuit_policy.md", "doc_type": "department_policy"}},
	}}
	chunks := &fakeChunkStore{records: map[string]*storage.ChunkRecord{
		"p1": {ID: "p1", Text: "346.63 Operating while intoxicated.", Chapter: "346", SectionNumber: "346.63", CitationKey: "346.63"},
		"p2": {ID: "p2", Text: "Officers shall terminate pursuits when risk outweighs need."},
	}}
	generator := &fakeGenerator{answer: "Per s. 346.63, operating while intoxicated is prohibited."}

	eng := engineFixture(store, chunks, &fakeEmbedder{}, generator)

	resp, err := eng.Query(context.Background(), QueryRequest{Question: "What does 346.63 prohibit?"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if resp.Answer != generator.answer {
		t.Errorf("Answer = %q, want %q", resp.Answer, generator.answer)
	}
	// 0.82 + citation boost 0.15 = 0.97
	if resp.Confidence <= 0.82 || resp.Confidence > 1.0 {
		t.Errorf("Confidence = %v, want boosted value in (0.82, 1.0]", resp.Confidence)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("Sources = %d, want 2", len(resp.Sources))
	}
	if resp.Sources[0].SourceFile != "346.pdf" || resp.Sources[0].SectionNumber != "346.63" {
		t.Errorf("first source = %+v, want 346.pdf section 346.63", resp.Sources[0])
	}

	// Prompt contains system rules and the context blocks
	if generator.calls != 1 {
		t.Fatalf("generator called %d times, want 1", generator.calls)
	}
	if generator.messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", generator.messages[0].Role)
	}
	if !strings.Contains(generator.messages[1].Content, "[Source: 346.pdf | Type: statute | Section: 346.63]") {
		t.Errorf("prompt missing context header:\n%s", generator.messages[1].Content)
	}
}

func TestEngine_DocTypeFilterPassthrough(t *testing.T) {
	store := &fakeVectorStore{}
	eng := engineFixture(store, &fakeChunkStore{}, &fakeEmbedder{}, &fakeGenerator{})

	_, err := eng.Query(context.Background(), QueryRequest{Question: "pursuit rules", DocTypeFilter: "statute"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if store.searchFilters == nil || store.searchFilters["doc_type"] != "statute" {
		t.Errorf("search filters = %v, want doc_type=statute", store.searchFilters)
	}

	_, err = eng.Query(context.Background(), QueryRequest{Question: "pursuit rules"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if store.searchFilters != nil {
		t.Errorf("search filters = %v, want nil without a filter", store.searchFilters)
	}
}

func TestEngine_MissingChunkRowsSkipped(t *testing.T) {
	store := &fakeVectorStore{searchResults: []vectorstore.SearchResult{
		{PointID: "present", Score: 0.7, Meta: map[string]any{"source_file": "346.pdf", "doc_type": "statute"}},
		{PointID: "orphaned", Score: 0.9, Meta: map[string]any{"source_file": "346.pdf", "doc_type": "statute"}},
	}}
	chunks := &fakeChunkStore{records: map[string]*storage.ChunkRecord{
		"present": {ID: "present", Text: "346.61 text.", SectionNumber: "346.61", CitationKey: "346.61"},
	}}

	eng := engineFixture(store, chunks, &fakeEmbedder{}, &fakeGenerator{})

	resp, err := eng.Query(context.Background(), QueryRequest{Question: "registration rules"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(resp.Sources) != 1 {
		t.Errorf("Sources = %d, want 1 (orphaned hit skipped)", len(resp.Sources))
	}
}
