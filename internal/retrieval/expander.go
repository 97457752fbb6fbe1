package retrieval

import (
	"context"
	"errors"
	"regexp"
	"sort"

	"codefour-rag/internal/contextutil"
	"codefour-rag/internal/ingest"
	"codefour-rag/internal/storage"
	"codefour-rag/internal/vectorstore"
)

const (
	// maxCrossRefs bounds chain expansion: at most this many chunks are
	// appended, so the result set never exceeds topN + maxCrossRefs.
	maxCrossRefs = 2

	// crossRefDiscount scales an appended chunk's score relative to the
	// result that cited it, keeping cross-references ranked below their
	// citing result.
	crossRefDiscount = 0.9
)

// Cross-reference citation forms found inside statute text: "§ 940.01",
// "s. 346.63", "section 940.01".
var crossRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:§|s\.)\s*(\d{2,3}\.\d{2,3})`),
	regexp.MustCompile(`(?i)\bsec(?:tion)?\.?\s+(\d{2,3}\.\d{2,3})`),
}

// Expander follows statute citations found in result text one level deep,
// pulling the cited sections into the result set.
type Expander struct {
	store      vectorstore.VectorStore
	chunks     storage.ChunkStore
	collection string
}

// NewExpander creates an Expander over the given vector collection.
func NewExpander(store vectorstore.VectorStore, chunks storage.ChunkStore, collection string) *Expander {
	return &Expander{store: store, chunks: chunks, collection: collection}
}

// Expand scans result texts for statute citations not already present and
// appends up to maxCrossRefs cited chunks, marked IsCrossRef with a
// discounted score. Appended chunks are never themselves scanned, so
// citation cycles cannot recurse. Lookup failures skip the reference;
// expansion never fails a query.
func (e *Expander) Expand(ctx context.Context, rs ResultSet) ResultSet {
	logger := contextutil.LoggerFromContext(ctx)

	present := make(map[string]struct{}, len(rs.Results))
	for _, r := range rs.Results {
		if r.Chunk.CitationKey != "" {
			present[r.Chunk.CitationKey] = struct{}{}
		}
	}

	// Map each referenced section to the best-ranked result citing it.
	citedBy := make(map[string]int)
	for i, r := range rs.Results {
		for _, re := range crossRefPatterns {
			for _, m := range re.FindAllStringSubmatch(r.Chunk.Text, -1) {
				ref := m[1]
				if _, ok := citedBy[ref]; !ok {
					citedBy[ref] = i
				}
			}
		}
	}

	refs := make([]string, 0, len(citedBy))
	for ref := range citedBy {
		if _, ok := present[ref]; ok {
			continue
		}
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	appended := 0
	for _, ref := range refs {
		if appended >= maxCrossRefs {
			break
		}

		result, ok := e.lookup(ctx, ref)
		if !ok {
			continue
		}

		citing := rs.Results[citedBy[ref]]
		result.Boost = 0
		result.FinalScore = crossRefDiscount * citing.FinalScore
		result.IsCrossRef = true
		rs.Results = append(rs.Results, result)
		present[ref] = struct{}{}
		appended++

		logger.DebugContext(ctx, "followed cross-reference",
			"citation_key", ref, "score", result.FinalScore)
	}

	return rs
}

// lookup fetches the first chunk for a citation key and hydrates its text
// from storage. Any failure is logged and reported as a miss.
func (e *Expander) lookup(ctx context.Context, ref string) (ScoredResult, bool) {
	logger := contextutil.LoggerFromContext(ctx)

	matches, err := e.store.GetByCitationKey(ctx, e.collection, ref)
	if err != nil {
		logger.WarnContext(ctx, "cross-reference lookup failed", "citation_key", ref, "error", err)
		return ScoredResult{}, false
	}
	if len(matches) == 0 {
		return ScoredResult{}, false
	}

	record, err := e.chunks.GetByID(ctx, matches[0].PointID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.WarnContext(ctx, "cross-reference chunk missing from storage",
				"citation_key", ref, "point_id", matches[0].PointID, "error", err)
		}
		return ScoredResult{}, false
	}

	chunk := chunkFromRecord(record)
	if sourceFile, ok := matches[0].Meta["source_file"].(string); ok {
		chunk.SourceID = sourceFile
	}
	if docType, ok := matches[0].Meta["doc_type"].(string); ok {
		chunk.Type = ingest.DocType(docType)
	}

	return ScoredResult{
		Candidate: Candidate{
			ID:    record.ID,
			Chunk: chunk,
		},
	}, true
}

// chunkFromRecord rebuilds the ingest-layer chunk from its stored form.
// The source filename and doc type live in the vector payload, not the
// chunk row; callers fill those in.
func chunkFromRecord(record *storage.ChunkRecord) ingest.Chunk {
	return ingest.Chunk{
		Index:         record.ChunkIndex,
		Text:          record.Text,
		CharStart:     record.CharStart,
		CharEnd:       record.CharEnd,
		Chapter:       record.Chapter,
		SectionNumber: record.SectionNumber,
		CitationKey:   record.CitationKey,
	}
}
