package rules

import "github.com/opensource-finance/kestrel/internal/domain"

// DefaultConformityBands returns Nigrini's first-digit MAD thresholds.
func DefaultConformityBands() []domain.ConformityBand {
	acceptable := 0.006
	marginal := 0.012
	nonconforming := 0.015

	return []domain.ConformityBand{
		{LowerLimit: 0, UpperLimit: &acceptable, Label: domain.ConformityClose},
		{LowerLimit: acceptable, UpperLimit: &marginal, Label: domain.ConformityAcceptable},
		{LowerLimit: marginal, UpperLimit: &nonconforming, Label: domain.ConformityMarginal},
		{LowerLimit: nonconforming, Label: domain.ConformityNonconforming},
	}
}

// Classify returns the label of the first band containing mad.
// Bands are lower inclusive, upper exclusive. A value below every band
// falls into the first one.
func Classify(mad float64, bands []domain.ConformityBand) string {
	if len(bands) == 0 {
		return ""
	}
	for _, band := range bands {
		if mad >= band.LowerLimit && (band.UpperLimit == nil || mad < *band.UpperLimit) {
			return band.Label
		}
	}
	if mad < bands[0].LowerLimit {
		return bands[0].Label
	}
	return bands[len(bands)-1].Label
}

// ConformityCounts tallies MAD values per band. Every band is present,
// in band order, even when its count is zero.
func ConformityCounts(mads []float64, bands []domain.ConformityBand) []domain.ConformityCount {
	counts := make([]domain.ConformityCount, len(bands))
	index := make(map[string]int, len(bands))
	for i, b := range bands {
		counts[i] = domain.ConformityCount{Label: b.Label}
		index[b.Label] = i
	}
	for _, m := range mads {
		if i, ok := index[Classify(m, bands)]; ok {
			counts[i].Count++
		}
	}
	return counts
}
