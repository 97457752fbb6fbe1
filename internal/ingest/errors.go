package ingest

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat marks file formats the extractors cannot handle.
// Batch ingestion skips such files rather than failing.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ClassificationError indicates a document whose type could not be
// determined. It is fatal for that document only; batch ingestion logs it
// and continues with the remaining files.
type ClassificationError struct {
	SourceID string
	Value    string
}

func (e *ClassificationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("cannot classify document %s", e.SourceID)
	}
	return fmt.Sprintf("cannot classify document %s: unrecognized doc type %q", e.SourceID, e.Value)
}
