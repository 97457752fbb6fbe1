package vectorstore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a chunk reference returned by the index: the point
// ID, the cosine similarity score (zero for exact-key lookups), and the
// chunk metadata payload.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for the vector index collaborator. The
// index is the sole mutable store: ingestion writes, query time only reads.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a semantic similarity search with optional metadata
	// filters (e.g. "doc_type").
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// GetByCitationKey looks up chunks by their exact citation key. This is
	// the non-semantic fetch path used by citation chain expansion.
	GetByCitationKey(ctx context.Context, collection string, key string) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// EnsureCollection ensures the collection exists with the given vector size.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// DropCollection deletes the collection if it exists. Used by ingestion reset.
	DropCollection(ctx context.Context, collection string) error

	// CollectionExists reports whether the collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)
}
