package retrieval

import "codefour-rag/internal/ingest"

// Candidate is a chunk returned by semantic search, before hybrid scoring.
// Rank order follows the vector store's result order.
type Candidate struct {
	ID            string
	Chunk         ingest.Chunk
	SemanticScore float64
}

// ScoredResult is a candidate after hybrid scoring. FinalScore is the
// semantic score plus the keyword boost and may exceed 1.0. Chain-expanded
// results carry IsCrossRef.
type ScoredResult struct {
	Candidate
	Boost      float64
	FinalScore float64
	IsCrossRef bool
}

// ResultSet is an ordered result list plus the query-level confidence,
// which is the top result's final score clamped to [0, 1].
type ResultSet struct {
	Results    []ScoredResult
	Confidence float64
}

// QueryRequest is a legal research question with an optional document type
// restriction.
type QueryRequest struct {
	Question      string `json:"question"`
	DocTypeFilter string `json:"doc_type_filter,omitempty"`
}

// Source identifies a document chunk that contributed to an answer.
type Source struct {
	SourceFile    string `json:"source_file"`
	DocType       string `json:"doc_type"`
	SectionNumber string `json:"section_number,omitempty"`
	IsCrossRef    bool   `json:"is_cross_ref"`
}

// QueryResponse is the answer to a legal research question.
type QueryResponse struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
}
