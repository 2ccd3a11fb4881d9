package engine

import (
	"sort"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// DefaultTopN is the number of rows returned by TopRisk when no size is given.
const DefaultTopN = 10

// SortByAnomaly returns v ordered ascending by Anomaly_Score. Lower scores
// are riskier. Ties keep store order.
func SortByAnomaly(v View) View {
	rows := make([]int, len(v.rows))
	copy(rows, v.rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return v.store.At(rows[i]).AnomalyScore < v.store.At(rows[j]).AnomalyScore
	})
	return v.sub(rows)
}

// TopRisk returns the n lowest-scoring records, ascending by Anomaly_Score
// with ties in store order. It returns fewer than n when the view is
// smaller and nothing when n <= 0.
func TopRisk(v View, n int) []domain.Observation {
	if n <= 0 {
		return []domain.Observation{}
	}
	sorted := SortByAnomaly(v)
	if n < sorted.Len() {
		sorted = sorted.sub(sorted.rows[:n])
	}
	return sorted.Observations()
}
