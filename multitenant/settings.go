package multitenant

import "github.com/nexabiz/orderres/resolution"

// Settings overrides resolver options for a tenant or a single request.
// Unset fields keep the base value.
type Settings struct {
	FuzzyThreshold  *float64          `json:"fuzzyThreshold,omitempty"`
	WordWindow      *int              `json:"wordWindow,omitempty"`
	ProximityRadius *int              `json:"proximityRadius,omitempty"`
	MaxDigits       *int              `json:"maxDigits,omitempty"`
	Typos           map[string]string `json:"typos,omitempty"`
}

// IsZero reports whether s overrides nothing
func (s Settings) IsZero() bool {
	return s.FuzzyThreshold == nil && s.WordWindow == nil && s.ProximityRadius == nil &&
		s.MaxDigits == nil && len(s.Typos) == 0
}

// Apply returns base with s laid over it. Typos extend the base table.
func (s Settings) Apply(base resolution.Options) resolution.Options {
	opts := base
	if s.FuzzyThreshold != nil {
		opts.FuzzyThreshold = *s.FuzzyThreshold
	}
	if s.WordWindow != nil {
		opts.WordWindow = *s.WordWindow
	}
	if s.ProximityRadius != nil {
		opts.ProximityRadius = *s.ProximityRadius
	}
	if s.MaxDigits != nil {
		opts.MaxDigits = *s.MaxDigits
	}
	if len(s.Typos) > 0 {
		typos := make(map[string]string, len(base.Typos)+len(s.Typos))
		for from, to := range base.Typos {
			typos[from] = to
		}
		for from, to := range s.Typos {
			typos[from] = to
		}
		opts.Typos = typos
	}
	return opts
}

// Merge returns s with every field set in override replacing its own
func (s Settings) Merge(override Settings) Settings {
	out := s
	if override.FuzzyThreshold != nil {
		out.FuzzyThreshold = override.FuzzyThreshold
	}
	if override.WordWindow != nil {
		out.WordWindow = override.WordWindow
	}
	if override.ProximityRadius != nil {
		out.ProximityRadius = override.ProximityRadius
	}
	if override.MaxDigits != nil {
		out.MaxDigits = override.MaxDigits
	}
	if len(override.Typos) > 0 {
		typos := make(map[string]string, len(s.Typos)+len(override.Typos))
		for from, to := range s.Typos {
			typos[from] = to
		}
		for from, to := range override.Typos {
			typos[from] = to
		}
		out.Typos = typos
	}
	return out
}
