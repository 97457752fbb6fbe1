package retrieval

import (
	"context"
	"errors"

	"codefour-rag/internal/llm"
	"codefour-rag/internal/storage"
	"codefour-rag/internal/vectorstore"
)

// fakeVectorStore serves canned search and citation-key results.
type fakeVectorStore struct {
	searchResults []vectorstore.SearchResult
	searchErr     error
	searchFilters map[string]any

	byCitationKey map[string][]vectorstore.SearchResult
	citationErr   error
}

func (f *fakeVectorStore) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]vectorstore.SearchResult, error) {
	f.searchFilters = filters
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.searchResults) > k {
		return f.searchResults[:k], nil
	}
	return f.searchResults, nil
}

func (f *fakeVectorStore) GetByCitationKey(ctx context.Context, collection string, key string) ([]vectorstore.SearchResult, error) {
	if f.citationErr != nil {
		return nil, f.citationErr
	}
	return f.byCitationKey[key], nil
}

func (f *fakeVectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	return nil
}

func (f *fakeVectorStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	return nil
}

func (f *fakeVectorStore) DropCollection(ctx context.Context, collection string) error {
	return nil
}

func (f *fakeVectorStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return true, nil
}

// fakeChunkStore serves chunk records from a map keyed by ID.
type fakeChunkStore struct {
	records map[string]*storage.ChunkRecord
}

func (f *fakeChunkStore) Insert(ctx context.Context, chunk *storage.ChunkRecord) error {
	return nil
}

func (f *fakeChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	return nil
}

func (f *fakeChunkStore) ListIDsByDocument(ctx context.Context, documentID string) ([]string, error) {
	return nil, nil
}

func (f *fakeChunkStore) GetByID(ctx context.Context, id string) (*storage.ChunkRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// fakeEmbedder returns a fixed vector for any input.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{0.1, 0.2, 0.3}
	}
	return vecs, nil
}

// fakeGenerator records the prompt it was given and returns a fixed answer.
type fakeGenerator struct {
	answer   string
	err      error
	calls    int
	messages []llm.ChatMessage
}

func (f *fakeGenerator) Chat(ctx context.Context, messages []llm.ChatMessage) (string, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	if f.answer == "" {
		return "generated answer", nil
	}
	return f.answer, nil
}

var errBoom = errors.New("boom")
