package ingest

// DocType classifies a source document. The set is closed: the chunker
// dispatches on it and rejects anything else with a ClassificationError.
type DocType string

const (
	DocTypeStatute DocType = "statute"
	DocTypeCaseLaw DocType = "case_law"
	DocTypePolicy  DocType = "department_policy"
)

// Valid reports whether d is one of the three recognized document types.
func (d DocType) Valid() bool {
	switch d {
	case DocTypeStatute, DocTypeCaseLaw, DocTypePolicy:
		return true
	}
	return false
}

// Document is a classified source document. Documents are immutable once
// classified; re-ingestion supersedes them rather than mutating in place.
type Document struct {
	SourceID string // original filename, e.g. "346.pdf"
	Type     DocType
	Text     string
}

// Chunk is a contiguous span of a document's text plus structural metadata.
// It is the unit of indexing and scoring. CharStart/CharEnd are byte offsets
// into the document text; fallback sub-chunks have overlapping spans.
type Chunk struct {
	SourceID  string
	Type      DocType
	Index     int
	Text      string
	CharStart int
	CharEnd   int

	// Statute metadata. Empty for case-law and policy chunks, and for
	// statute preamble text that precedes the first detected section.
	Chapter       string
	SectionNumber string
	CitationKey   string
}
