package extract

import "codefour-rag/internal/ingest"

// FileExtractor adapts the package functions to the ingestion pipeline's
// Extractor interface.
type FileExtractor struct{}

func (FileExtractor) Classify(filename string) (ingest.DocType, error) {
	return Classify(filename)
}

func (FileExtractor) FromFile(path string) (string, error) {
	return FromFile(path)
}
