package engine

import (
	"sort"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Summarize computes the KPI summary of a view. It returns
// domain.ErrEmptyView when the view has no records, since a mean over
// nothing is undefined.
func Summarize(v View) (domain.KPISummary, error) {
	if v.IsEmpty() {
		return domain.KPISummary{}, domain.ErrEmptyView
	}

	var flags int
	var mad, score float64
	for _, r := range v.rows {
		o := v.store.At(r)
		flags += o.FraudFlag
		mad += o.MAD
		score += o.AnomalyScore
	}

	n := float64(len(v.rows))
	return domain.KPISummary{
		Count:            len(v.rows),
		FlagSum:          flags,
		MeanMAD:          mad / n,
		MeanAnomalyScore: score / n,
	}, nil
}

type meanAcc struct {
	sum   float64
	count int
}

func (a meanAcc) mean() float64 { return a.sum / float64(a.count) }

// GroupByYear returns the mean Anomaly_Score per Year, ascending by Year.
// Years with no records in the view are omitted.
func GroupByYear(v View) []domain.YearMean {
	groups := make(map[int]*meanAcc)
	for _, r := range v.rows {
		o := v.store.At(r)
		acc, ok := groups[o.Year]
		if !ok {
			acc = &meanAcc{}
			groups[o.Year] = acc
		}
		acc.sum += o.AnomalyScore
		acc.count++
	}

	out := make([]domain.YearMean, 0, len(groups))
	for year, acc := range groups {
		out = append(out, domain.YearMean{
			Year:             year,
			MeanAnomalyScore: acc.mean(),
			Count:            acc.count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// GroupByYearAndStatement returns the mean Anomaly_Score per
// (Year, Statement Type) pair present in the view.
func GroupByYearAndStatement(v View) map[domain.YearStatement]float64 {
	groups := groupYearStatement(v)
	out := make(map[domain.YearStatement]float64, len(groups))
	for k, acc := range groups {
		out[k] = acc.mean()
	}
	return out
}

// YearStatementMeans is GroupByYearAndStatement as an ordered sequence:
// ascending by Year, then by the Statement Type's position in the store's
// domain.
func YearStatementMeans(v View) []domain.YearStatementMean {
	groups := groupYearStatement(v)
	out := make([]domain.YearStatementMean, 0, len(groups))
	for k, acc := range groups {
		out = append(out, domain.YearStatementMean{
			YearStatement:    k,
			MeanAnomalyScore: acc.mean(),
			Count:            acc.count,
		})
	}

	var rank map[string]int
	if v.store != nil {
		rank = v.store.StatementRank()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return rank[out[i].StatementType] < rank[out[j].StatementType]
	})
	return out
}

func groupYearStatement(v View) map[domain.YearStatement]*meanAcc {
	groups := make(map[domain.YearStatement]*meanAcc)
	for _, r := range v.rows {
		o := v.store.At(r)
		k := domain.YearStatement{Year: o.Year, StatementType: o.StatementType}
		acc, ok := groups[k]
		if !ok {
			acc = &meanAcc{}
			groups[k] = acc
		}
		acc.sum += o.AnomalyScore
		acc.count++
	}
	return groups
}

// FraudDistribution counts records by Fraud_Flag. Keys 0 and 1 are always
// present.
func FraudDistribution(v View) domain.FraudDistribution {
	dist := domain.FraudDistribution{0: 0, 1: 0}
	for _, r := range v.rows {
		dist[v.store.At(r).FraudFlag]++
	}
	return dist
}

// MADValues returns the MAD column of the view in order.
func MADValues(v View) []float64 {
	out := make([]float64, len(v.rows))
	for i, r := range v.rows {
		out[i] = v.store.At(r).MAD
	}
	return out
}
