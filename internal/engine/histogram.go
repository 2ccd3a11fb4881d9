package engine

import (
	"math"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// DefaultHistogramBins is the anomaly histogram resolution.
const DefaultHistogramBins = 20

// AnomalyHistogram buckets the view's Anomaly_Score into equal-width bins
// over [min, max], counting flagged and unflagged records separately.
// An empty view yields no bins; a view whose scores are all equal yields a
// single bin.
func AnomalyHistogram(v View, bins int) []domain.HistogramBin {
	if v.IsEmpty() || bins <= 0 {
		return []domain.HistogramBin{}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range v.rows {
		s := v.store.At(r).AnomalyScore
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}

	if lo == hi {
		bins = 1
	}
	width := (hi - lo) / float64(bins)

	out := make([]domain.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, r := range v.rows {
		o := v.store.At(r)
		i := 0
		if width > 0 {
			i = int((o.AnomalyScore - lo) / width)
		}
		if i >= bins {
			i = bins - 1
		}
		if o.Flagged() {
			out[i].Flagged++
		} else {
			out[i].NotFlagged++
		}
	}
	return out
}
