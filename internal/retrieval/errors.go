package retrieval

import "errors"

var (
	// ErrEmptyQuery is returned for blank or whitespace-only questions.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrIndexUnavailable is returned when the vector index cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbedding is returned when the embeddings service fails.
	ErrEmbedding = errors.New("embedding request failed")

	// ErrGeneration is returned when the answer generation call fails.
	ErrGeneration = errors.New("answer generation failed")
)
