package storage

import "time"

// DocumentRecord represents an ingested source document in the database.
type DocumentRecord struct {
	ID         string // UUID
	SourceFile string // Original filename, e.g. "346.pdf"
	DocType    string // "statute", "case_law" or "department_policy"
	Hash       string // SHA256 hex string of extracted text
	UpdatedAt  time.Time
}

// ChunkRecord represents a chunk of document text, indexed for vector search.
// Statute metadata columns are empty strings for non-statute chunks.
type ChunkRecord struct {
	ID            string // UUID (same as Qdrant point ID)
	DocumentID    string // UUID (foreign key to documents.id)
	ChunkIndex    int    // Index within document (starts at 0)
	Chapter       string
	SectionNumber string
	CitationKey   string
	CharStart     int
	CharEnd       int
	Text          string
}
