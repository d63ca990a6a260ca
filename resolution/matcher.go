package resolution

import (
	"sort"
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

// Similarity scores two strings from 0 to 100 using insert/delete edit
// distance normalized by their combined length.
func Similarity(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	// substitution costs as much as a delete plus an insert
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 100 * float64(total-dist) / float64(total)
}

// Score is the better of the plain and the word-order-insensitive similarity
func Score(a, b string) float64 {
	plain := Similarity(a, b)
	sorted := Similarity(sortWords(a), sortWords(b))
	if sorted > plain {
		return sorted
	}
	return plain
}

func sortWords(s string) string {
	words := strings.Fields(s)
	sort.Strings(words)
	return strings.Join(words, " ")
}

// IsExactReference reports whether the normalized name occurs verbatim in the normalized text
func IsExactReference(text, normalizedName string) bool {
	return normalizedName != "" && strings.Contains(text, normalizedName)
}

// BestMatch picks the catalog entry most similar to phrase. Only a score
// strictly above threshold is accepted; among equal scores the first entry in
// catalog order wins.
func BestMatch(phrase string, entries []CatalogEntry, threshold float64) (Reference, bool) {
	i, score := bestEntry(phrase, entries)
	if i < 0 || score <= threshold {
		return Reference{}, false
	}
	return Reference{
		Entry:  entries[i],
		Phrase: phrase,
		Score:  score,
		Exact:  phrase == entries[i].NormalizedName,
	}, true
}

// bestEntry returns the index and score of the entry most similar to phrase,
// or -1 when there is nothing to score
func bestEntry(phrase string, entries []CatalogEntry) (int, float64) {
	if phrase == "" {
		return -1, 0
	}

	best, bestScore := -1, 0.0
	for i, entry := range entries {
		if entry.NormalizedName == "" {
			continue
		}
		if score := Score(phrase, entry.NormalizedName); best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}

// token is a word of the normalized text with its byte span
type token struct {
	start, end int
	hasDigit   bool
}

func tokenize(text string) []token {
	var tokens []token
	start := -1
	digit := false
	for i, r := range text {
		if r == ' ' {
			if start >= 0 {
				tokens = append(tokens, token{start: start, end: i, hasDigit: digit})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
			digit = false
		}
		if unicode.IsDigit(r) {
			digit = true
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{start: start, end: len(text), hasDigit: digit})
	}
	return tokens
}

// FindReference decides whether entry is mentioned in the normalized text.
// An exact substring wins outright. Otherwise every run of words whose length
// is within one word of the product name is scored and the best run above
// threshold becomes the reference. Runs containing a number are skipped unless
// the product name has one too, so quantities stay outside the phrase.
func FindReference(text string, entry CatalogEntry, threshold float64) (Reference, bool) {
	refs := FindReferences(text, []CatalogEntry{entry}, threshold)
	if refs[0] == nil {
		return Reference{}, false
	}
	return *refs[0], true
}

// FindReferences finds the reference of every entry in the normalized text,
// indexed like entries, nil where the entry is not mentioned. Exact substrings
// always count. A fuzzy run of words only counts for the entry that scores best
// on it across the whole catalog, ties going to the earlier entry, and never
// when it overlaps another entry's exact mention. Entries sharing a normalized
// name are treated alike.
func FindReferences(text string, entries []CatalogEntry, threshold float64) []*Reference {
	refs := make([]*Reference, len(entries))
	if text == "" {
		return refs
	}

	var exactSpans [][2]int
	for i, entry := range entries {
		if !IsExactReference(text, entry.NormalizedName) {
			continue
		}
		refs[i] = &Reference{
			Entry:  entry,
			Phrase: entry.NormalizedName,
			Score:  100,
			Exact:  true,
		}
		for _, pos := range occurrences(text, entry.NormalizedName) {
			exactSpans = append(exactSpans, [2]int{pos, pos + len(entry.NormalizedName)})
		}
	}

	tokens := tokenize(text)
	owners := make(map[string]string)
	owner := func(phrase string) string {
		name, ok := owners[phrase]
		if !ok {
			if i, _ := bestEntry(phrase, entries); i >= 0 {
				name = entries[i].NormalizedName
			}
			owners[phrase] = name
		}
		return name
	}

	for i, entry := range entries {
		if refs[i] != nil || entry.NormalizedName == "" {
			continue
		}
		if ref, ok := fuzzyReference(text, tokens, entry, threshold, exactSpans, owner); ok {
			refs[i] = &ref
		}
	}
	return refs
}

func fuzzyReference(text string, tokens []token, entry CatalogEntry, threshold float64,
	exactSpans [][2]int, owner func(string) string) (Reference, bool) {
	nameWords := len(strings.Fields(entry.NormalizedName))
	allowDigits := strings.IndexFunc(entry.NormalizedName, unicode.IsDigit) >= 0

	var best Reference
	found := false
	for size := max(1, nameWords-1); size <= nameWords+1; size++ {
	windows:
		for i := 0; i+size <= len(tokens); i++ {
			if !allowDigits {
				for _, tok := range tokens[i : i+size] {
					if tok.hasDigit {
						continue windows
					}
				}
			}
			start, end := tokens[i].start, tokens[i+size-1].end
			for _, span := range exactSpans {
				if start < span[1] && span[0] < end {
					continue windows
				}
			}

			phrase := text[start:end]
			score := Score(phrase, entry.NormalizedName)
			if score <= threshold || (found && score <= best.Score) {
				continue
			}
			if owner(phrase) != entry.NormalizedName {
				continue
			}
			best = Reference{Entry: entry, Phrase: phrase, Score: score}
			found = true
		}
	}
	return best, found
}
