package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// Upsert inserts the document or updates its type and hash if the
	// source file already exists. doc.ID must be set before calling.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// GetBySourceFile gets a document by its source filename.
	// Returns nil and ErrNotFound if not found.
	GetBySourceFile(ctx context.Context, sourceFile string) (*DocumentRecord, error)
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert inserts the document, or updates doc_type and hash when a row for
// the same source file already exists. The existing row keeps its ID so
// chunk foreign keys stay valid across re-ingestion.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, source_file, doc_type, hash)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_file) DO UPDATE SET
			doc_type = excluded.doc_type,
			hash = excluded.hash,
			updated_at = CURRENT_TIMESTAMP`,
		doc.ID, doc.SourceFile, doc.DocType, doc.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// GetBySourceFile gets a document by its source filename.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetBySourceFile(ctx context.Context, sourceFile string) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, source_file, doc_type, hash, updated_at FROM documents WHERE source_file = ?",
		sourceFile,
	).Scan(&doc.ID, &doc.SourceFile, &doc.DocType, &doc.Hash, &doc.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return &doc, nil
}
