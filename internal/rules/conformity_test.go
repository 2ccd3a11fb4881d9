package rules

import (
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	bands := DefaultConformityBands()

	tests := []struct {
		mad  float64
		want string
	}{
		{0, domain.ConformityClose},
		{0.0059, domain.ConformityClose},
		{0.006, domain.ConformityAcceptable},
		{0.0119, domain.ConformityAcceptable},
		{0.012, domain.ConformityMarginal},
		{0.015, domain.ConformityNonconforming},
		{0.5, domain.ConformityNonconforming},
		{-0.001, domain.ConformityClose},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.mad, bands), "mad=%v", tt.mad)
	}

	assert.Empty(t, Classify(0.01, nil))
}

func TestConformityCounts(t *testing.T) {
	bands := DefaultConformityBands()

	t.Run("AllBandsPresent", func(t *testing.T) {
		counts := ConformityCounts(nil, bands)
		assert.Len(t, counts, 4)
		for _, c := range counts {
			assert.Zero(t, c.Count)
		}
	})

	t.Run("Tally", func(t *testing.T) {
		counts := ConformityCounts([]float64{0.001, 0.002, 0.007, 0.02, 0.013}, bands)
		assert.Equal(t, []domain.ConformityCount{
			{Label: domain.ConformityClose, Count: 2},
			{Label: domain.ConformityAcceptable, Count: 1},
			{Label: domain.ConformityMarginal, Count: 1},
			{Label: domain.ConformityNonconforming, Count: 1},
		}, counts)
	})
}
