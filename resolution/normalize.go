package resolution

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// separatorReplacer folds line breaks, list punctuation and bullets to spaces,
// and typographic dashes to a plain hyphen.
var separatorReplacer = strings.NewReplacer(
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	",", " ",
	";", " ",
	"•", " ",
	"·", " ",
	"▪", " ",
	"◦", " ",
	"‣", " ",
	"–", "-",
	"—", "-",
)

var dashRunPattern = regexp.MustCompile(`-{2,}`)

// Normalizer canonicalizes messages and catalog names so they can be compared
type Normalizer struct {
	typos map[string]string
}

// NewNormalizer creates a normalizer with its own copy of the typo table
func NewNormalizer(typos map[string]string) *Normalizer {
	table := make(map[string]string, len(typos))
	for from, to := range typos {
		table[strings.ToLower(from)] = strings.ToLower(to)
	}
	return &Normalizer{typos: table}
}

// Normalize lower-cases text, folds separators to single spaces and applies
// word-level typo corrections. Empty input yields an empty string.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}

	s := norm.NFKC.String(text)
	s = strings.ToLower(s)
	s = separatorReplacer.Replace(s)
	s = dashRunPattern.ReplaceAllString(s, "-")

	fields := strings.Fields(s)
	for i, f := range fields {
		if fixed, ok := n.typos[f]; ok {
			fields[i] = fixed
		}
	}
	return strings.Join(fields, " ")
}

// NormalizeCatalog returns one entry per catalog name, in catalog order
func (n *Normalizer) NormalizeCatalog(names []string) []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, CatalogEntry{
			CanonicalName:  name,
			NormalizedName: n.Normalize(name),
		})
	}
	return entries
}
