package resolution

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// quantityPattern binds a tier to a regular expression template. The template
// receives the quoted product phrase and its first group captures the quantity.
type quantityPattern struct {
	tier     Tier
	template string
}

var quantityPatterns = []quantityPattern{
	{TierExplicit, `\b(\d+)\s*(?:qty|pcs|pieces|units|qnt)\s+(?:of\s+|for\s+)?%s`},
	{TierExplicit, `\b(\d+)\s*x\s+%s`},
	{TierExplicit, `\b(\d+)\s+of\s+%s`},
	{TierExplicit, `%s\s+(?:from|for)\s+(?:about\s+|around\s+)?(\d+)`},
	{TierAdjacent, `\b(\d+)\s+%s`},
	{TierAdjacent, `%s\s*[-:]?\s*(\d+)`},
}

var digitRunPattern = regexp.MustCompile(`\d+`)

// Scanner collects quantity candidates for a product phrase
type Scanner struct {
	numberWords     NumberWords
	wordWindow      int
	proximityRadius int
	maxDigits       int
}

// NewScanner creates a scanner from the resolver options
func NewScanner(opts Options) *Scanner {
	return &Scanner{
		numberWords:     opts.NumberWords,
		wordWindow:      opts.WordWindow,
		proximityRadius: opts.ProximityRadius,
		maxDigits:       opts.MaxDigits,
	}
}

// Scan returns every candidate for phrase in the normalized text.
// The proximity fallback only runs when no other tier produced a candidate.
func (s *Scanner) Scan(text, phrase string) []Candidate {
	if text == "" || phrase == "" {
		return nil
	}

	var candidates []Candidate
	candidates = append(candidates, s.scanPatterns(text, phrase)...)
	candidates = append(candidates, s.scanWorded(text, phrase)...)

	if len(candidates) == 0 {
		if c, ok := s.scanProximity(text, phrase); ok {
			candidates = append(candidates, c)
		}
	}

	for i := range candidates {
		candidates[i].Position = utf8.RuneCountInString(text[:candidates[i].Position])
	}
	return candidates
}

func (s *Scanner) scanPatterns(text, phrase string) []Candidate {
	quoted := quotePhrase(phrase)

	var candidates []Candidate
	for _, p := range quantityPatterns {
		re, err := regexp.Compile(fmt.Sprintf(p.template, quoted))
		if err != nil {
			continue
		}
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			qty, ok := s.parseQuantity(text[m[2]:m[3]])
			if !ok {
				continue
			}
			candidates = append(candidates, Candidate{Position: m[0], Quantity: qty, Tier: p.tier})
		}
	}
	return candidates
}

// quotePhrase escapes the phrase and anchors it on word boundaries where its
// edges are word characters
func quotePhrase(phrase string) string {
	quoted := regexp.QuoteMeta(phrase)
	if isWordByte(phrase[0]) {
		quoted = `\b` + quoted
	}
	if isWordByte(phrase[len(phrase)-1]) {
		quoted += `\b`
	}
	return quoted
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func (s *Scanner) scanWorded(text, phrase string) []Candidate {
	if s.wordWindow <= 0 {
		return nil
	}

	var candidates []Candidate
	for _, pos := range occurrences(text, phrase) {
		before := strings.Fields(text[:pos])
		if len(before) > s.wordWindow {
			before = before[len(before)-s.wordWindow:]
		}
		after := strings.Fields(text[pos+len(phrase):])
		if len(after) > s.wordWindow {
			after = after[:s.wordWindow]
		}

		if qty, ok := s.numberWords.Decode(s.numberWords.NearestRun(before, after)); ok {
			candidates = append(candidates, Candidate{Position: pos, Quantity: qty, Tier: TierWorded})
		}
	}
	return candidates
}

func (s *Scanner) scanProximity(text, phrase string) (Candidate, bool) {
	positions := occurrences(text, phrase)
	if len(positions) == 0 {
		return Candidate{}, false
	}

	for _, run := range digitRunPattern.FindAllStringIndex(text, -1) {
		for _, pos := range positions {
			end := pos + len(phrase)
			if run[0] >= pos && run[1] <= end {
				// digits belonging to the product name itself
				continue
			}
			// the radius counts characters, not bytes
			if run[1] <= pos && utf8.RuneCountInString(text[run[1]:pos]) >= s.proximityRadius {
				continue
			}
			if run[0] >= end && utf8.RuneCountInString(text[end:run[0]]) >= s.proximityRadius {
				continue
			}
			qty, ok := s.parseQuantity(text[run[0]:run[1]])
			if !ok {
				break
			}
			return Candidate{Position: run[0], Quantity: qty, Tier: TierProximity}, true
		}
	}
	return Candidate{}, false
}

// parseQuantity rejects digit runs longer than the configured cap
func (s *Scanner) parseQuantity(digits string) (int, bool) {
	if len(digits) == 0 || len(digits) > s.maxDigits {
		return 0, false
	}
	qty, err := strconv.Atoi(digits)
	if err != nil || qty < 0 {
		return 0, false
	}
	return qty, true
}

// occurrences returns the start of every non-overlapping occurrence of phrase
func occurrences(text, phrase string) []int {
	var positions []int
	for offset := 0; offset <= len(text)-len(phrase); {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			break
		}
		positions = append(positions, offset+i)
		offset += i + len(phrase)
	}
	return positions
}
