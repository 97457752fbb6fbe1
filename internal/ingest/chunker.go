package ingest

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Fallback chunking parameters, applied when a section or paragraph
	// exceeds the boundary-detectable length.
	fallbackChunkSize    = 1000 // runes per fallback chunk
	fallbackChunkOverlap = 200  // trailing overlap between fallback chunks

	// defaultMaxSectionLen is the longest span kept as a single chunk before
	// fixed-length splitting kicks in.
	defaultMaxSectionLen = 1200
)

var (
	paragraphSepRe = regexp.MustCompile(`\n[ \t]*\n`)

	genericBoundaryRe = regexp.MustCompile(`(?m)^[ \t]*\d{2,3}\.\d{2,3}`)
	genericSectionRe  = regexp.MustCompile(`^(\d{2,3}\.\d{2,3})`)
)

// Chunker splits classified documents into ordered chunks along structural
// boundaries: statute sections for statutes, paragraphs for case law and
// department policy. Splitting on detected boundaries keeps each chunk a
// complete legal unit; fixed-length chunking alone can separate a statute's
// operative subsections from each other.
type Chunker struct {
	maxSectionLen int
}

// NewChunker creates a Chunker with the default maximum section length.
func NewChunker() *Chunker {
	return &Chunker{maxSectionLen: defaultMaxSectionLen}
}

// Chunk splits a document into an ordered chunk sequence. A document with no
// extractable text yields an empty sequence, not an error. An unrecognized
// doc type is rejected with a ClassificationError.
func (c *Chunker) Chunk(doc Document) ([]Chunk, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return []Chunk{}, nil
	}
	switch doc.Type {
	case DocTypeStatute:
		return c.chunkStatute(doc), nil
	case DocTypeCaseLaw, DocTypePolicy:
		return c.chunkParagraphs(doc), nil
	default:
		return nil, &ClassificationError{SourceID: doc.SourceID, Value: string(doc.Type)}
	}
}

// chunkStatute splits on section-number boundaries of the form
// <chapter>.<section> (e.g. "346.63") anchored at line starts. Each chunk
// holds one section with all its parenthesized subsections; subsection
// markers never match the boundary pattern, so they are never split apart.
// Sections longer than maxSectionLen fall back to overlapping fixed-length
// chunks that keep the section's metadata.
//
// A numeric filename stem ("346.pdf") pins the boundary pattern to that
// chapter, so section numbers cited inside the text do not open spurious
// boundaries. Statutes without a numeric stem (HTML exports and the like) use
// the generic section pattern and take the chapter from each matched section.
func (c *Chunker) chunkStatute(doc Document) []Chunk {
	docChapter := chapterFromSource(doc.SourceID)
	boundaryRe := genericBoundaryRe
	sectionRe := genericSectionRe
	if docChapter != "" {
		boundaryRe = regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(docChapter) + `\.\d{2,3}`)
		sectionRe = regexp.MustCompile(`^(` + regexp.QuoteMeta(docChapter) + `\.\d{2,3})`)
	}

	text := doc.Text
	bounds := boundaryRe.FindAllStringIndex(text, -1)

	var spans [][2]int
	prev := 0
	for _, b := range bounds {
		if b[0] > prev {
			spans = append(spans, [2]int{prev, b[0]})
		}
		prev = b[0]
	}
	spans = append(spans, [2]int{prev, len(text)})

	var chunks []Chunk
	for _, sp := range spans {
		start, end := trimSpan(text, sp[0], sp[1])
		if start >= end {
			continue
		}
		section := text[start:end]

		var sectionNumber string
		if m := sectionRe.FindStringSubmatch(section); m != nil {
			sectionNumber = m[1]
		}
		chapter := docChapter
		if i := strings.IndexByte(sectionNumber, '.'); i > 0 {
			chapter = sectionNumber[:i]
		}
		meta := Chunk{
			SourceID:      doc.SourceID,
			Type:          doc.Type,
			Chapter:       chapter,
			SectionNumber: sectionNumber,
			CitationKey:   sectionNumber,
		}

		if utf8.RuneCountInString(section) <= c.maxSectionLen {
			ch := meta
			ch.Index = len(chunks)
			ch.Text = section
			ch.CharStart = start
			ch.CharEnd = end
			chunks = append(chunks, ch)
			continue
		}

		for _, sub := range splitOverlapping(section, fallbackChunkSize, fallbackChunkOverlap) {
			ch := meta
			ch.Index = len(chunks)
			ch.Text = section[sub[0]:sub[1]]
			ch.CharStart = start + sub[0]
			ch.CharEnd = start + sub[1]
			chunks = append(chunks, ch)
		}
	}
	return chunks
}

// chunkParagraphs splits on blank-line paragraph boundaries, packing adjacent
// short paragraphs up to the fallback chunk size so they do not become
// fragments. Oversize spans are sub-split with overlap, preferring sentence
// boundaries.
func (c *Chunker) chunkParagraphs(doc Document) []Chunk {
	text := doc.Text
	seps := paragraphSepRe.FindAllStringIndex(text, -1)

	var paras [][2]int
	prev := 0
	for _, s := range seps {
		if start, end := trimSpan(text, prev, s[0]); start < end {
			paras = append(paras, [2]int{start, end})
		}
		prev = s[1]
	}
	if start, end := trimSpan(text, prev, len(text)); start < end {
		paras = append(paras, [2]int{start, end})
	}
	if len(paras) == 0 {
		return nil
	}

	var packed [][2]int
	cur := paras[0]
	for _, p := range paras[1:] {
		if utf8.RuneCountInString(text[cur[0]:p[1]]) <= fallbackChunkSize {
			cur[1] = p[1]
			continue
		}
		packed = append(packed, cur)
		cur = p
	}
	packed = append(packed, cur)

	var chunks []Chunk
	for _, sp := range packed {
		span := text[sp[0]:sp[1]]
		if utf8.RuneCountInString(span) <= c.maxSectionLen {
			chunks = append(chunks, Chunk{
				SourceID:  doc.SourceID,
				Type:      doc.Type,
				Index:     len(chunks),
				Text:      span,
				CharStart: sp[0],
				CharEnd:   sp[1],
			})
			continue
		}
		for _, sub := range splitOverlapping(span, fallbackChunkSize, fallbackChunkOverlap) {
			chunks = append(chunks, Chunk{
				SourceID:  doc.SourceID,
				Type:      doc.Type,
				Index:     len(chunks),
				Text:      span[sub[0]:sub[1]],
				CharStart: sp[0] + sub[0],
				CharEnd:   sp[0] + sub[1],
			})
		}
	}
	return chunks
}

// chapterFromSource derives the statute chapter from a numeric source
// filename stem, e.g. "346.pdf" -> "346". Returns "" when the stem is not a
// chapter number.
func chapterFromSource(sourceID string) string {
	base := filepath.Base(sourceID)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return ""
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return stem
}

// splitOverlapping cuts text into byte-offset spans of at most size runes
// with a trailing overlap, preferring paragraph, newline, then sentence
// boundaries, and never resuming mid-token.
func splitOverlapping(text string, size, overlap int) [][2]int {
	runes := []rune(text)
	if len(runes) <= size {
		return [][2]int{{0, len(text)}}
	}

	// Rune index -> byte offset table.
	offs := make([]int, len(runes)+1)
	i := 0
	for idx := range text {
		offs[i] = idx
		i++
	}
	offs[len(runes)] = len(text)

	var spans [][2]int
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			spans = append(spans, [2]int{offs[start], len(text)})
			break
		}

		window := text[offs[start]:offs[end]]
		cut := end
		if j := strings.LastIndex(window, "\n\n"); j > 0 {
			cut = start + utf8.RuneCountInString(window[:j+2])
		} else if j := strings.LastIndex(window, "\n"); j > 0 {
			cut = start + utf8.RuneCountInString(window[:j+1])
		} else if j := strings.LastIndex(window, ". "); j > 0 {
			cut = start + utf8.RuneCountInString(window[:j+2])
		} else if j := strings.LastIndex(window, " "); j > 0 {
			cut = start + utf8.RuneCountInString(window[:j+1])
		}
		spans = append(spans, [2]int{offs[start], offs[cut]})

		next := cut - overlap
		if next <= start {
			next = cut
		}
		// Never resume mid-token: back up to the preceding whitespace.
		for next > start && next < len(runes) && !unicode.IsSpace(runes[next-1]) {
			next--
		}
		if next <= start {
			next = cut
		}
		start = next
	}
	return spans
}

// trimSpan shrinks [start,end) to exclude leading and trailing whitespace.
func trimSpan(text string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}
