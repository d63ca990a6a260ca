package resolution

import "fmt"

const (
	// SuggestionThreshold is the fuzzy score to beat when a match only feeds a suggestion
	SuggestionThreshold = 70.0
	// AuthoritativeThreshold is the fuzzy score to beat before substituting a product name
	AuthoritativeThreshold = 80.0
)

// Options configures a Resolver. Tables are treated as read-only once the
// Resolver is built, so one Options value can be shared by concurrent callers.
type Options struct {
	// FuzzyThreshold is the score (0-100) a fuzzy reference must exceed
	FuzzyThreshold float64 `json:"fuzzy_threshold"`

	// WordWindow is how many words on each side of a product mention are
	// decoded for spelled-out quantities
	WordWindow int `json:"word_window"`

	// ProximityRadius is how many characters on each side of a product
	// mention are searched for a stray digit run
	ProximityRadius int `json:"proximity_radius"`

	// MaxDigits caps the length of a digit run accepted as a quantity
	MaxDigits int `json:"max_digits"`

	NumberWords NumberWords       `json:"-"`
	Typos       map[string]string `json:"-"`
}

// DefaultOptions returns the configuration used by order ingestion and auto-reply
func DefaultOptions() Options {
	return Options{
		FuzzyThreshold:  SuggestionThreshold,
		WordWindow:      6,
		ProximityRadius: 12,
		MaxDigits:       7,
		NumberWords:     EnglishNumberWords(),
		Typos:           DefaultTypos(),
	}
}

// Validate checks that every numeric option is in range
func (o Options) Validate() error {
	if o.FuzzyThreshold < 0 || o.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy threshold %.1f out of range 0-100", o.FuzzyThreshold)
	}
	if o.WordWindow < 0 {
		return fmt.Errorf("word window %d must not be negative", o.WordWindow)
	}
	if o.ProximityRadius < 0 {
		return fmt.Errorf("proximity radius %d must not be negative", o.ProximityRadius)
	}
	if o.MaxDigits < 1 || o.MaxDigits > 18 {
		return fmt.Errorf("max digits %d out of range 1-18", o.MaxDigits)
	}
	return nil
}

// DefaultTypos returns the literal typo corrections applied during normalization
func DefaultTypos() map[string]string {
	return map[string]string{
		"qyt":    "qty",
		"qtty":   "qty",
		"pcz":    "pcs",
		"peices": "pieces",
		"unts":   "units",
	}
}
