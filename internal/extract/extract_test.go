package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codefour-rag/internal/ingest"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     ingest.DocType
		wantErr  bool
	}{
		{
			name:     "numeric filename is a statute chapter",
			filename: "346.pdf",
			want:     ingest.DocTypeStatute,
		},
		{
			name:     "numeric html filename",
			filename: "940.html",
			want:     ingest.DocTypeStatute,
		},
		{
			name:     "case in filename",
			filename: "state_v_smith_case.txt",
			want:     ingest.DocTypeCaseLaw,
		},
		{
			name:     "opinion in filename",
			filename: "appellate_opinion_2023.pdf",
			want:     ingest.DocTypeCaseLaw,
		},
		{
			name:     "policy in filename",
			filename: "pursuit_policy.md",
			want:     ingest.DocTypePolicy,
		},
		{
			name:     "uppercase classification",
			filename: "Use_Of_Force_POLICY.md",
			want:     ingest.DocTypePolicy,
		},
		{
			name:     "unclassified html defaults to statute",
			filename: "trans300.html",
			want:     ingest.DocTypeStatute,
		},
		{
			name:     "unclassifiable filename",
			filename: "notes.txt",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.filename)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Classify(%q) expected error, got %q", tt.filename, got)
				}
				var classErr *ingest.ClassificationError
				if !errors.As(err, &classErr) {
					t.Errorf("Classify(%q) error = %T, want *ClassificationError", tt.filename, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Classify(%q) unexpected error: %v", tt.filename, err)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestFromFile_Text(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case_notes.txt")
	content := "The defendant was charged under s. 346.63.\n\nSecond paragraph."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile() error = %v", err)
	}
	if got != content {
		t.Errorf("FromFile() = %q, want %q", got, content)
	}
}

func TestFromFile_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := FromFile(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("FromFile() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFromHTML(t *testing.T) {
	input := `<html><head>
<style>body { color: red; }</style>
<script>var hidden = "should not appear";</script>
</head><body>
<h1>Chapter 346</h1>
<p>346.63 Operating under influence of intoxicant.</p>
<p>(1) No person may drive or operate a motor vehicle while:</p>
</body></html>`

	got, err := fromHTML([]byte(input))
	if err != nil {
		t.Fatalf("fromHTML() error = %v", err)
	}

	if strings.Contains(got, "should not appear") {
		t.Error("fromHTML() included script content")
	}
	if strings.Contains(got, "color: red") {
		t.Error("fromHTML() included style content")
	}
	if !strings.Contains(got, "Chapter 346") {
		t.Errorf("fromHTML() missing heading text, got %q", got)
	}
	if !strings.Contains(got, "346.63 Operating under influence of intoxicant.") {
		t.Errorf("fromHTML() missing paragraph text, got %q", got)
	}
	// Paragraphs must remain separated for downstream chunking
	if !strings.Contains(got, "\n") {
		t.Errorf("fromHTML() lost block separation, got %q", got)
	}
}

func TestFromMarkdown(t *testing.T) {
	input := []byte(`# Pursuit Policy

Officers shall not initiate a pursuit for **minor** traffic violations.

- Supervisors must be notified immediately.
- Pursuits are limited to two units.
`)

	got, err := fromMarkdown(input)
	if err != nil {
		t.Fatalf("fromMarkdown() error = %v", err)
	}

	if !strings.Contains(got, "Pursuit Policy") {
		t.Errorf("fromMarkdown() missing heading, got %q", got)
	}
	if !strings.Contains(got, "minor traffic violations") {
		t.Errorf("fromMarkdown() should strip inline markup, got %q", got)
	}
	if !strings.Contains(got, "Supervisors must be notified immediately.") {
		t.Errorf("fromMarkdown() missing list item, got %q", got)
	}
	if strings.Contains(got, "**") || strings.Contains(got, "# ") {
		t.Errorf("fromMarkdown() leaked markdown syntax, got %q", got)
	}
	if !strings.Contains(got, "\n\n") {
		t.Errorf("fromMarkdown() lost paragraph separation, got %q", got)
	}
}

func TestFromMarkdown_Empty(t *testing.T) {
	got, err := fromMarkdown(nil)
	if err != nil {
		t.Fatalf("fromMarkdown() error = %v", err)
	}
	if got != "" {
		t.Errorf("fromMarkdown(nil) = %q, want empty", got)
	}
}
