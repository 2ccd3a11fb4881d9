package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/store"
)

const (
	balanceSheet    = "Balance Sheet"
	incomeStatement = "Income Statement"
	cashFlow        = "Cash Flow"
)

// scenarioStore is the four-row dataset used throughout the engine tests.
func scenarioStore() *store.Store {
	return store.New("test", []domain.Observation{
		{Year: 2021, StatementType: balanceSheet, MAD: 0.010, ChiSquare: 12.5, AvgZScore: 1.1, AnomalyScore: 0.2, FraudFlag: 1},
		{Year: 2021, StatementType: incomeStatement, MAD: 0.004, ChiSquare: 5.0, AvgZScore: 0.4, AnomalyScore: 0.8, FraudFlag: 0},
		{Year: 2022, StatementType: balanceSheet, MAD: 0.020, ChiSquare: 30.1, AvgZScore: 2.3, AnomalyScore: 0.1, FraudFlag: 1},
		{Year: 2022, StatementType: incomeStatement, MAD: 0.007, ChiSquare: 8.8, AvgZScore: 0.9, AnomalyScore: 0.9, FraudFlag: 0},
	})
}

// tiedStore has repeated scores to exercise ordering of ties.
func tiedStore() *store.Store {
	return store.New("ties", []domain.Observation{
		{Year: 2020, StatementType: cashFlow, AnomalyScore: 0.5},
		{Year: 2021, StatementType: balanceSheet, AnomalyScore: 0.3, FraudFlag: 1},
		{Year: 2019, StatementType: cashFlow, AnomalyScore: 0.5, FraudFlag: 1},
		{Year: 2020, StatementType: balanceSheet, AnomalyScore: 0.3},
		{Year: 2021, StatementType: cashFlow, AnomalyScore: 0.5},
		{Year: 2019, StatementType: balanceSheet, AnomalyScore: 0.7},
	})
}

func seqs(obs []domain.Observation) []int {
	out := make([]int, len(obs))
	for i, o := range obs {
		out[i] = o.Seq
	}
	return out
}

func TestFilter(t *testing.T) {
	st := scenarioStore()

	t.Run("BalanceSheetBothYears", func(t *testing.T) {
		v := Filter(st, domain.Selection{
			Years:          []int{2021, 2022},
			StatementTypes: []string{balanceSheet},
		})
		assert.Equal(t, []int{0, 2}, seqs(v.Observations()))
	})

	t.Run("Idempotent", func(t *testing.T) {
		sel := domain.Selection{Years: []int{2022}, StatementTypes: []string{balanceSheet, incomeStatement}}
		assert.Equal(t, Filter(st, sel).Observations(), Filter(st, sel).Observations())
	})

	t.Run("EmptySelection", func(t *testing.T) {
		assert.Equal(t, 0, Filter(st, domain.Selection{}).Len())
	})

	t.Run("EmptyAxis", func(t *testing.T) {
		assert.True(t, Filter(st, domain.Selection{Years: st.YearDomain()}).IsEmpty())
		assert.True(t, Filter(st, domain.Selection{StatementTypes: st.StatementTypeDomain()}).IsEmpty())
	})

	t.Run("FullSelectionIdentity", func(t *testing.T) {
		v := Filter(st, st.FullSelection())
		assert.Equal(t, st.Observations(), v.Observations())
	})

	t.Run("UnknownValues", func(t *testing.T) {
		v := Filter(st, domain.Selection{Years: []int{1999}, StatementTypes: []string{"balance sheet"}})
		assert.True(t, v.IsEmpty())
	})

	t.Run("SubsetProperty", func(t *testing.T) {
		ts := tiedStore()
		selections := []domain.Selection{
			{Years: []int{2019, 2021}, StatementTypes: []string{cashFlow}},
			{Years: []int{2020}, StatementTypes: []string{cashFlow, balanceSheet}},
			{Years: []int{2019, 2020, 2021}, StatementTypes: []string{balanceSheet}},
		}
		for _, sel := range selections {
			got := Filter(ts, sel).Observations()
			years, types := sel.YearSet(), sel.StatementTypeSet()
			last := -1
			for _, o := range got {
				assert.Greater(t, o.Seq, last, "must be a subsequence in store order")
				last = o.Seq
				assert.Contains(t, years, o.Year)
				assert.Contains(t, types, o.StatementType)
				assert.Equal(t, ts.At(o.Seq), o)
			}
		}
	})

	t.Run("NilStore", func(t *testing.T) {
		assert.True(t, Filter(nil, domain.Selection{Years: []int{1}, StatementTypes: []string{"x"}}).IsEmpty())
	})
}

func TestWhere(t *testing.T) {
	st := scenarioStore()
	all := All(st)

	flagged := Where(all, func(o domain.Observation) bool { return o.Flagged() })
	assert.Equal(t, []int{0, 2}, seqs(flagged.Observations()))

	assert.Equal(t, all.Observations(), Where(all, nil).Observations())
	assert.True(t, Where(all, func(domain.Observation) bool { return false }).IsEmpty())
}

func TestSummarize(t *testing.T) {
	st := scenarioStore()

	t.Run("Scenario", func(t *testing.T) {
		v := Filter(st, domain.Selection{Years: []int{2021, 2022}, StatementTypes: []string{balanceSheet}})
		s, err := Summarize(v)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Count)
		assert.Equal(t, 2, s.FlagSum)
		assert.InDelta(t, (0.010+0.020)/2, s.MeanMAD, 1e-12)
		assert.InDelta(t, 0.15, s.MeanAnomalyScore, 1e-12)
	})

	t.Run("EmptyView", func(t *testing.T) {
		v := Filter(st, domain.Selection{Years: st.YearDomain()})
		_, err := Summarize(v)
		assert.True(t, errors.Is(err, domain.ErrEmptyView))
	})
}

func TestGroupByYear(t *testing.T) {
	st := tiedStore()

	got := GroupByYear(All(st))
	require.Len(t, got, 3)
	assert.Equal(t, []int{2019, 2020, 2021}, []int{got[0].Year, got[1].Year, got[2].Year})
	assert.InDelta(t, 0.6, got[0].MeanAnomalyScore, 1e-12)
	assert.InDelta(t, 0.4, got[1].MeanAnomalyScore, 1e-12)
	assert.Equal(t, 2, got[2].Count)

	t.Run("OmitsEmptyYears", func(t *testing.T) {
		v := Filter(st, domain.Selection{Years: []int{2019, 2020, 2021}, StatementTypes: []string{balanceSheet}})
		v = Where(v, func(o domain.Observation) bool { return o.Year != 2020 })
		got := GroupByYear(v)
		require.Len(t, got, 2)
		assert.Equal(t, 2019, got[0].Year)
		assert.Equal(t, 2021, got[1].Year)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, GroupByYear(Filter(st, domain.Selection{})))
	})
}

func TestGroupByYearAndStatement(t *testing.T) {
	st := tiedStore()

	got := GroupByYearAndStatement(All(st))
	assert.Len(t, got, 6)
	assert.InDelta(t, 0.5, got[domain.YearStatement{Year: 2020, StatementType: cashFlow}], 1e-12)
	assert.InDelta(t, 0.7, got[domain.YearStatement{Year: 2019, StatementType: balanceSheet}], 1e-12)

	ordered := YearStatementMeans(All(st))
	var keys []domain.YearStatement
	for _, m := range ordered {
		keys = append(keys, m.YearStatement)
	}
	assert.Equal(t, []domain.YearStatement{
		{Year: 2019, StatementType: cashFlow},
		{Year: 2019, StatementType: balanceSheet},
		{Year: 2020, StatementType: cashFlow},
		{Year: 2020, StatementType: balanceSheet},
		{Year: 2021, StatementType: cashFlow},
		{Year: 2021, StatementType: balanceSheet},
	}, keys)
}

func TestTopRisk(t *testing.T) {
	t.Run("Scenario", func(t *testing.T) {
		st := scenarioStore()
		v := Filter(st, domain.Selection{Years: []int{2021, 2022}, StatementTypes: []string{balanceSheet}})
		top := TopRisk(v, 1)
		require.Len(t, top, 1)
		assert.Equal(t, 2022, top[0].Year)
		assert.Equal(t, 0.1, top[0].AnomalyScore)
	})

	t.Run("Bound", func(t *testing.T) {
		v := All(tiedStore())
		for _, n := range []int{0, 1, 3, 6, 10} {
			top := TopRisk(v, n)
			assert.Len(t, top, min(n, v.Len()), "n=%d", n)
			for i := 1; i < len(top); i++ {
				assert.LessOrEqual(t, top[i-1].AnomalyScore, top[i].AnomalyScore)
			}
		}
		assert.Empty(t, TopRisk(v, -1))
	})

	t.Run("StableTies", func(t *testing.T) {
		top := TopRisk(All(tiedStore()), DefaultTopN)
		assert.Equal(t, []int{1, 3, 0, 2, 4, 5}, seqs(top))
	})

	t.Run("DoesNotReorderView", func(t *testing.T) {
		v := All(tiedStore())
		_ = TopRisk(v, 3)
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, seqs(v.Observations()))
	})
}

func TestFraudDistribution(t *testing.T) {
	st := scenarioStore()

	t.Run("BothKeysOnEmpty", func(t *testing.T) {
		d := FraudDistribution(Filter(st, domain.Selection{Years: st.YearDomain()}))
		assert.Equal(t, domain.FraudDistribution{0: 0, 1: 0}, d)
	})

	t.Run("OnlyFlagged", func(t *testing.T) {
		v := Filter(st, domain.Selection{Years: st.YearDomain(), StatementTypes: []string{balanceSheet}})
		assert.Equal(t, domain.FraudDistribution{0: 0, 1: 2}, FraudDistribution(v))
	})

	t.Run("SumsToLen", func(t *testing.T) {
		for _, ts := range []*store.Store{st, tiedStore()} {
			v := All(ts)
			assert.Equal(t, v.Len(), FraudDistribution(v).Total())
		}
	})
}

func TestAnomalyHistogram(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, AnomalyHistogram(View{}, DefaultHistogramBins))
	})

	t.Run("SingleValue", func(t *testing.T) {
		st := store.New("one", []domain.Observation{
			{Year: 2020, StatementType: cashFlow, AnomalyScore: 0.4, FraudFlag: 1},
			{Year: 2021, StatementType: cashFlow, AnomalyScore: 0.4},
		})
		bins := AnomalyHistogram(All(st), DefaultHistogramBins)
		require.Len(t, bins, 1)
		assert.Equal(t, 1, bins[0].Flagged)
		assert.Equal(t, 1, bins[0].NotFlagged)
	})

	t.Run("EqualWidth", func(t *testing.T) {
		st := scenarioStore()
		bins := AnomalyHistogram(All(st), 4)
		require.Len(t, bins, 4)
		assert.InDelta(t, 0.1, bins[0].Lower, 1e-12)
		assert.InDelta(t, 0.9, bins[3].Upper, 1e-12)

		total := 0
		for _, b := range bins {
			total += b.Count()
		}
		assert.Equal(t, 4, total)
		// 0.1 and 0.2 fall in the first bin, 0.8 and 0.9 in the last.
		assert.Equal(t, 2, bins[0].Flagged)
		assert.Equal(t, 2, bins[3].NotFlagged)
	})
}

func TestCompose(t *testing.T) {
	st := scenarioStore()
	ctx := context.Background()

	t.Run("Populated", func(t *testing.T) {
		d := Compose(ctx, st, st.FullSelection(), Options{})
		assert.False(t, d.Empty)
		require.NotNil(t, d.Summary)
		assert.Equal(t, 4, d.Summary.Count)
		assert.Equal(t, st.ID(), d.DatasetID)
		assert.Len(t, d.Observations, 4)
		assert.Equal(t, []int{2, 0, 1, 3}, seqs(d.RiskTable))
		assert.Equal(t, []int{2, 0, 1, 3}, seqs(d.TopRisk))
		assert.Len(t, d.Trend, 2)
		assert.Len(t, d.Comparison, 4)
		assert.Len(t, d.Histogram, DefaultHistogramBins)
		assert.Len(t, d.Conformity, 4)
	})

	t.Run("EmptyState", func(t *testing.T) {
		d := Compose(ctx, st, domain.Selection{Years: st.YearDomain()}, Options{})
		assert.True(t, d.Empty)
		assert.Nil(t, d.Summary)
		assert.Empty(t, d.Observations)
		assert.Empty(t, d.TopRisk)
		assert.Empty(t, d.Histogram)
		assert.Equal(t, domain.FraudDistribution{0: 0, 1: 0}, d.Distribution)
	})

	t.Run("Screened", func(t *testing.T) {
		d := Compose(ctx, st, st.FullSelection(), Options{
			TopN:      1,
			Screen:    "flagged",
			Predicate: func(o domain.Observation) bool { return o.Flagged() },
		})
		require.NotNil(t, d.Summary)
		assert.Equal(t, 2, d.Summary.Count)
		assert.Equal(t, "flagged", d.Screen)
		assert.Equal(t, []int{2}, seqs(d.TopRisk))
	})
}
