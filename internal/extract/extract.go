package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codefour-rag/internal/ingest"
)

// ErrUnsupportedFormat is returned for file extensions the extractor cannot
// handle. Batch ingestion skips such files rather than failing.
var ErrUnsupportedFormat = ingest.ErrUnsupportedFormat

// Classify determines the document type from the filename.
// Statute files are named after their chapter number ("346.pdf"), case-law
// files carry "case" or "opinion" in the name, department policies carry
// "policy". HTML files with no other signal are statutes published as web
// pages.
func Classify(filename string) (ingest.DocType, error) {
	base := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	if stem != "" && isAllDigits(stem) {
		return ingest.DocTypeStatute, nil
	}
	if strings.Contains(stem, "case") || strings.Contains(stem, "opinion") {
		return ingest.DocTypeCaseLaw, nil
	}
	if strings.Contains(stem, "policy") {
		return ingest.DocTypePolicy, nil
	}
	if ext == ".html" || ext == ".htm" {
		return ingest.DocTypeStatute, nil
	}
	return "", &ingest.ClassificationError{SourceID: base}
}

// FromFile extracts plain text from a document file, routing on extension.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return fromPDF(data)
	case ".html", ".htm":
		return fromHTML(data)
	case ".md", ".markdown":
		return fromMarkdown(data)
	case ".txt":
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
