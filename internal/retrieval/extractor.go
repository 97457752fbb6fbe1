package retrieval

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// ExtractedQuery is the structured form of a raw question: normalized
// statute citations, search terms, and the expanded text used for embedding.
type ExtractedQuery struct {
	CitationRefs []string
	Terms        []string
	Expanded     string
}

var (
	// Bare statute citations like "346.63" or "940.01".
	citationRe = regexp.MustCompile(`\b(\d{2,3}\.\d{2,3})\b`)

	// Prefixed forms: "§ 940.01", "s. 346.63", "section 940.01", "sec. 940.01".
	prefixedCitationRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:§|s\.)\s*(\d{2,3}\.\d{2,3})`),
		regexp.MustCompile(`(?i)\bsec(?:tion)?\.?\s+(\d{2,3}\.\d{2,3})`),
	}
)

// abbreviations maps law enforcement shorthand to the phrases officers mean
// by it. Expansions are appended to the query so the original token is kept.
var abbreviations = map[string]string{
	"owi":           "operating while intoxicated",
	"dui":           "driving under the influence",
	"dwi":           "driving while intoxicated",
	"bac":           "blood alcohol concentration",
	"pac":           "prohibited alcohol concentration",
	"mvr":           "motor vehicle record",
	"mva":           "motor vehicle accident",
	"leo":           "law enforcement officer",
	"tro":           "temporary restraining order",
	"dv":            "domestic violence",
	"cdl":           "commercial driver license",
	"pts":           "points",
	"fta":           "failure to appear",
	"rso":           "registered sex offender",
	"terry stop":    "investigative stop reasonable suspicion",
	"miranda":       "miranda rights warnings custodial interrogation",
	"4th amendment": "fourth amendment unreasonable search seizure",
}

// legalDictionary holds correctly spelled domain terms used for spelling
// correction. Kept sorted so nearest-match selection is deterministic.
var legalDictionary = []string{
	"accident", "alcohol", "amendment", "appear", "arrest", "arrested",
	"assault", "battery", "burglary", "citation", "commercial", "concentration",
	"constitutional", "custodial", "domestic", "driver", "driving", "evidence",
	"failure", "harassment", "homicide", "influence", "interrogation",
	"intoxicated", "investigative", "larceny", "license", "miranda", "motor",
	"negligence", "offender", "officer", "operating", "points", "probable",
	"prohibited", "pursuit", "reasonable", "reckless", "registered",
	"restraining", "robbery", "search", "seizure", "speeding", "statute",
	"subpoena", "suspicion", "temporary", "traffic", "vehicle", "violence",
	"warrant", "witness",
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "can": {}, "does": {}, "for": {}, "from": {},
	"has": {}, "have": {}, "how": {}, "in": {}, "is": {}, "it": {}, "of": {},
	"on": {}, "or": {}, "the": {}, "this": {}, "to": {}, "was": {},
	"were": {}, "what": {}, "when": {}, "where": {}, "which": {}, "who": {},
	"why": {}, "with": {},
}

// ExtractQuery pulls statute citations out of the question, corrects common
// misspellings, expands law enforcement abbreviations and derives search
// terms. It is a pure transform: no I/O, deterministic for a fixed input.
func ExtractQuery(queryText string) ExtractedQuery {
	refs := extractCitations(queryText)

	corrected := correctSpelling(queryText)
	expanded := expandAbbreviations(corrected)

	return ExtractedQuery{
		CitationRefs: refs,
		Terms:        extractTerms(expanded),
		Expanded:     expanded,
	}
}

// extractCitations finds statute references in prefixed or bare form and
// normalizes them to "chapter.section" strings, sorted and deduplicated.
func extractCitations(text string) []string {
	seen := make(map[string]struct{})
	for _, re := range prefixedCitationRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			seen[m[1]] = struct{}{}
		}
	}
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = struct{}{}
	}

	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// correctSpelling replaces misspelled words with their nearest dictionary
// entry. A word already in the dictionary, a citation token, or a word with
// no close-enough entry passes through unchanged. The edit distance budget
// is 1 for words under six runes, 2 otherwise.
func correctSpelling(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		if citationRe.MatchString(word) {
			continue
		}

		lower := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if len(lower) < 4 {
			continue
		}

		if corrected, ok := nearestDictionaryWord(lower); ok && corrected != lower {
			words[i] = strings.Replace(word, strings.TrimFunc(word, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			}), corrected, 1)
		}
	}
	return strings.Join(words, " ")
}

// nearestDictionaryWord returns the closest dictionary entry within the edit
// distance budget. Ties resolve to the lexicographically first entry because
// the dictionary is sorted.
func nearestDictionaryWord(word string) (string, bool) {
	maxDist := 2
	if len([]rune(word)) < 6 {
		maxDist = 1
	}

	best := ""
	bestDist := maxDist + 1
	for _, entry := range legalDictionary {
		if entry == word {
			return word, true
		}
		if d := editDistance(word, entry); d < bestDist {
			best = entry
			bestDist = d
		}
	}
	if best == "" {
		return word, false
	}
	return best, true
}

// expandAbbreviations appends the expansion of every abbreviation present in
// the text, unless the expansion already appears. Iteration over sorted keys
// keeps the output order fixed.
func expandAbbreviations(text string) string {
	lower := strings.ToLower(text)

	keys := make([]string, 0, len(abbreviations))
	for k := range abbreviations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	expanded := text
	for _, abbrev := range keys {
		if !containsToken(lower, abbrev) {
			continue
		}
		full := abbreviations[abbrev]
		if strings.Contains(strings.ToLower(expanded), full) {
			continue
		}
		expanded = expanded + " " + full
	}
	return expanded
}

// containsToken reports whether token occurs in text at word boundaries.
// Multi-word tokens are matched as substrings with boundary checks at each
// end.
func containsToken(text, token string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], token)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(token)

		beforeOK := idx == 0 || !isWordRune(rune(text[idx-1]))
		afterOK := end == len(text) || !isWordRune(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// extractTerms tokenizes the expanded query into lower-cased search terms of
// four or more letters, with stopwords removed, deduplicated and sorted.
func extractTerms(text string) []string {
	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}

	seen := make(map[string]struct{})
	for _, token := range strings.Fields(builder.String()) {
		if len([]rune(token)) < 4 {
			continue
		}
		if _, isStop := stopwords[token]; isStop {
			continue
		}
		seen[token] = struct{}{}
	}

	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// editDistance computes the Levenshtein distance between two words.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
