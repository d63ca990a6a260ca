package resolution

// Tier is the priority class of a quantity-extraction pattern.
// Higher values win during tie-breaking.
type Tier int

const (
	TierProximity Tier = iota
	TierWorded
	TierAdjacent
	TierExplicit
)

// String returns the tier name
func (t Tier) String() string {
	switch t {
	case TierExplicit:
		return "EXPLICIT"
	case TierAdjacent:
		return "ADJACENT"
	case TierWorded:
		return "WORDED"
	case TierProximity:
		return "PROXIMITY"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the tier by name
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// CatalogEntry is one product of the catalog supplied to a resolution call
type CatalogEntry struct {
	CanonicalName  string `json:"canonical_name"`
	NormalizedName string `json:"normalized_name"`
}

// Candidate is a quantity found while scanning for one catalog entry.
// Position is the character offset in the normalized text where the match started.
type Candidate struct {
	Position int  `json:"position"`
	Quantity int  `json:"quantity"`
	Tier     Tier `json:"tier"`
}

// ResolvedOrderLine is a product and the single quantity requested for it
type ResolvedOrderLine struct {
	ProductName string `json:"product_name"`
	Qty         int    `json:"qty"`
}

// Reference describes how a catalog entry was found in a message.
// Phrase is the text of the message that stands for the product; for an exact
// reference it equals the entry's normalized name.
type Reference struct {
	Entry  CatalogEntry `json:"entry"`
	Phrase string       `json:"phrase"`
	Score  float64      `json:"score"`
	Exact  bool         `json:"exact"`
}
