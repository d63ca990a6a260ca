// Package purchaseorder turns purchase-order text, such as the text layer of a
// supplier PDF, into catalog products and quantities.
package purchaseorder

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nexabiz/orderres/resolution"
)

var (
	supplierPattern = regexp.MustCompile(`(?i)supplier\s*:\s*(.*)`)
	leadingQtyLine  = regexp.MustCompile(`^(\d+)\s*(.+)$`)
	nonDigits       = regexp.MustCompile(`\D`)
)

// Line is one product row of a purchase order
type Line struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// Order is the parsed content of a purchase order
type Order struct {
	Supplier string `json:"supplier"`
	Products []Line `json:"products"`
}

// Parser resolves purchase-order rows against a catalog. Rows are matched
// with a single fuzzy score, so the threshold is normally the authoritative one.
type Parser struct {
	resolver  *resolution.Resolver
	threshold float64
}

// NewParser creates a parser using resolver's normalization and digit cap
func NewParser(resolver *resolution.Resolver, threshold float64) *Parser {
	return &Parser{resolver: resolver, threshold: threshold}
}

// ParseLine reads one row in either "Product - Quantity" or
// "<N> <unit>? (of)? <product>" form. It reports false when the row names no
// known product or carries no positive quantity.
func (p *Parser) ParseLine(line string, catalog []string) (Line, bool) {
	s := p.resolver.Normalize(line)
	if s == "" || len(catalog) == 0 {
		return Line{}, false
	}

	if i := strings.LastIndex(s, "-"); i >= 0 {
		name := strings.TrimSpace(s[:i])
		qty := p.quantity(nonDigits.ReplaceAllString(s[i+1:], ""))
		if qty > 0 {
			if ref, ok := p.resolver.MatchProduct(name, catalog, p.threshold); ok {
				return Line{Name: ref.Entry.CanonicalName, Qty: qty}, true
			}
		}
	}

	m := leadingQtyLine.FindStringSubmatch(s)
	if m == nil {
		return Line{}, false
	}
	qty := p.quantity(m[1])
	if qty <= 0 {
		return Line{}, false
	}

	var (
		best  resolution.Reference
		found bool
	)
	for _, phrase := range productPhrases(m[2]) {
		ref, ok := p.resolver.MatchProduct(phrase, catalog, p.threshold)
		if ok && (!found || ref.Score > best.Score) {
			best, found = ref, true
		}
	}
	if !found {
		return Line{}, false
	}
	return Line{Name: best.Entry.CanonicalName, Qty: qty}, true
}

// productPhrases returns the ways the text after a leading quantity can name a
// product: as a whole, or with a unit word in front of it dropped
func productPhrases(rest string) []string {
	phrases := []string{strings.TrimPrefix(rest, "of ")}
	if _, after, ok := strings.Cut(rest, " "); ok {
		phrases = append(phrases, strings.TrimPrefix(strings.TrimSpace(after), "of "))
	}
	return phrases
}

func (p *Parser) quantity(digits string) int {
	if digits == "" || len(digits) > p.resolver.Options().MaxDigits {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// Build parses every line of text. A "Supplier:" line names the supplier.
// A product listed on several rows keeps its first position and the quantity
// of its last row; quantities are never added.
func (p *Parser) Build(text string, catalog []string) Order {
	order := Order{Products: []Line{}}
	index := make(map[string]int)

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if m := supplierPattern.FindStringSubmatch(raw); m != nil {
			order.Supplier = strings.TrimSpace(m[1])
			continue
		}

		line, ok := p.ParseLine(raw, catalog)
		if !ok {
			continue
		}
		if i, seen := index[line.Name]; seen {
			order.Products[i].Qty = line.Qty
			continue
		}
		index[line.Name] = len(order.Products)
		order.Products = append(order.Products, line)
	}

	return order
}
