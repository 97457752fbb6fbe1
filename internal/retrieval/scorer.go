package retrieval

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Keyword boost weights. A direct statute citation match is worth three
	// term matches; the combined boost never exceeds maxKeywordBoost.
	statuteMatchWeight = 0.15
	termMatchWeight    = 0.05
	maxKeywordBoost    = 0.40

	// DefaultTopN is the number of results kept after scoring.
	DefaultTopN = 5

	// DefaultFetchK is the number of semantic candidates fetched before
	// scoring. Over-fetching gives the keyword boost room to reorder.
	DefaultFetchK = 15
)

// Score applies the keyword boost to semantic candidates and returns the
// top-N results in deterministic order. Candidates with equal final scores
// keep their original rank relative to each other. An empty candidate set is
// a valid outcome: the result set is empty with confidence 0.
func Score(candidates []Candidate, citationRefs, terms []string, topN int) ResultSet {
	if topN <= 0 {
		topN = DefaultTopN
	}

	results := make([]ScoredResult, 0, len(candidates))
	for _, cand := range candidates {
		boost := keywordBoost(cand.Chunk.Text, cand.Chunk.CitationKey, citationRefs, terms)
		results = append(results, ScoredResult{
			Candidate:  cand,
			Boost:      boost,
			FinalScore: cand.SemanticScore + boost,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})

	if len(results) > topN {
		results = results[:topN]
	}

	rs := ResultSet{Results: results}
	if len(results) > 0 {
		rs.Confidence = clamp01(results[0].FinalScore)
	}
	return rs
}

// keywordBoost computes the capped boost from citation and term matches.
// A citation matches when it equals the chunk's citation key or appears
// verbatim in the chunk text. Terms match case-insensitively at word
// boundaries.
func keywordBoost(text, citationKey string, citationRefs, terms []string) float64 {
	statuteMatches := 0
	for _, ref := range citationRefs {
		if ref == citationKey || strings.Contains(text, ref) {
			statuteMatches++
		}
	}

	lower := strings.ToLower(text)
	termMatches := 0
	for _, term := range terms {
		if containsWord(lower, term) {
			termMatches++
		}
	}

	boost := statuteMatchWeight*float64(statuteMatches) + termMatchWeight*float64(termMatches)
	if boost > maxKeywordBoost {
		boost = maxKeywordBoost
	}
	return boost
}

// containsWord reports whether word occurs in text at word boundaries.
// Both arguments must already be lower-cased.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for start := 0; ; {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)

		beforeOK := true
		if idx > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:idx])
			beforeOK = !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}
		afterOK := true
		if end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			afterOK = !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
