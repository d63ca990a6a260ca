package resolution

// Resolver turns free-text order messages into resolved order lines.
// It holds only immutable configuration and is safe for concurrent use.
type Resolver struct {
	opts       Options
	normalizer *Normalizer
	scanner    *Scanner
}

// Explanation records how one catalog entry was resolved
type Explanation struct {
	Reference  Reference          `json:"reference"`
	Candidates []Candidate        `json:"candidates"`
	Line       *ResolvedOrderLine `json:"line,omitempty"`
}

// NewResolver validates opts and builds a resolver
func NewResolver(opts Options) (*Resolver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{
		opts:       opts,
		normalizer: NewNormalizer(opts.Typos),
		scanner:    NewScanner(opts),
	}, nil
}

// Options returns the configuration the resolver was built with
func (r *Resolver) Options() Options {
	return r.opts
}

// Normalize applies the resolver's normalization rules to text
func (r *Resolver) Normalize(text string) string {
	return r.normalizer.Normalize(text)
}

// Resolve returns one line per catalog product referenced in message, in
// catalog order. Products that are not mentioned, or whose chosen quantity is
// zero, produce no line. An empty message or catalog yields an empty result.
func (r *Resolver) Resolve(message string, catalog []string) []ResolvedOrderLine {
	lines := []ResolvedOrderLine{}
	for _, ex := range r.Explain(message, catalog) {
		if ex.Line != nil {
			lines = append(lines, *ex.Line)
		}
	}
	return lines
}

// Explain resolves message like Resolve but reports the reference and the
// candidates behind every referenced product, including dropped ones.
func (r *Resolver) Explain(message string, catalog []string) []Explanation {
	text := r.normalizer.Normalize(message)
	if text == "" || len(catalog) == 0 {
		return nil
	}

	entries := r.normalizer.NormalizeCatalog(catalog)
	refs := FindReferences(text, entries, r.opts.FuzzyThreshold)

	var explanations []Explanation
	for i, entry := range entries {
		ref := refs[i]
		if ref == nil {
			continue
		}

		candidates := r.scanner.Scan(text, ref.Phrase)
		ex := Explanation{Reference: *ref, Candidates: candidates}
		if qty, ok := Choose(candidates); ok {
			ex.Line = &ResolvedOrderLine{ProductName: entry.CanonicalName, Qty: qty}
		}
		explanations = append(explanations, ex)
	}
	return explanations
}

// MatchProduct resolves a single product phrase against the catalog. It
// reports false when no product scores above threshold.
func (r *Resolver) MatchProduct(phrase string, catalog []string, threshold float64) (Reference, bool) {
	return BestMatch(r.normalizer.Normalize(phrase), r.normalizer.NormalizeCatalog(catalog), threshold)
}

// Choose reduces the candidates of a referenced product to one quantity.
// No candidates means the product was mentioned without a quantity, which
// counts as one. Otherwise the highest tier wins and, within it, the candidate
// that starts latest in the text. Quantities are never added together.
// The boolean is false when the chosen quantity is zero.
func Choose(candidates []Candidate) (int, bool) {
	if len(candidates) == 0 {
		return 1, true
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Tier > best.Tier || (c.Tier == best.Tier && c.Position > best.Position) {
			best = c
		}
	}

	if best.Quantity <= 0 {
		return 0, false
	}
	return best.Quantity, true
}
