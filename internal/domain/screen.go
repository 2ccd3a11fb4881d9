package domain

// ScreenConfig is a named CEL boolean expression applied to observations
// after the facet filter, e.g. "mad > 0.015 && fraud_flag == 1".
type ScreenConfig struct {
	ID          string `json:"id" validate:"required,max=64"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`

	// CEL expression; must evaluate to bool.
	Expression string `json:"expression" validate:"required"`

	// Whether the screen is active
	Enabled bool `json:"enabled"`
}

// ConformityBand maps a MAD range to a Benford conformity label.
// Lower is inclusive, Upper exclusive; a nil Upper is unbounded.
type ConformityBand struct {
	LowerLimit float64  `json:"lowerLimit"`
	UpperLimit *float64 `json:"upperLimit,omitempty"`
	Label      string   `json:"label"`
}

// Conformity labels for first-digit MAD.
const (
	ConformityClose         = "close"
	ConformityAcceptable    = "acceptable"
	ConformityMarginal      = "marginal"
	ConformityNonconforming = "nonconforming"
)

// ConformityCount is the number of records in a conformity band.
type ConformityCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
