package present

import (
	"strconv"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Charts builds every dashboard chart in display order: anomaly histogram,
// MAD vs Chi-Square scatter, yearly trend, statement comparison, flag
// proportions and MAD conformity.
func Charts(d *domain.Dashboard) []ChartConfig {
	return []ChartConfig{
		HistogramChart(d.Histogram),
		ScatterChart(d.Observations),
		TrendChart(d.Trend),
		ComparisonChart(d.Comparison),
		DistributionChart(d.Distribution),
		ConformityChart(d.Conformity),
	}
}

// HistogramChart stacks flagged over unflagged counts per score bin.
func HistogramChart(bins []domain.HistogramBin) ChartConfig {
	clean := ChartSeries{Name: flagLabel(0), Data: make([]ChartPoint, 0, len(bins)), Color: flagColors[0]}
	flagged := ChartSeries{Name: flagLabel(1), Data: make([]ChartPoint, 0, len(bins)), Color: flagColors[1]}

	for _, b := range bins {
		label := FormatFloat(b.Lower) + " to " + FormatFloat(b.Upper)
		clean.Data = append(clean.Data, ChartPoint{Label: label, Value: float64(b.NotFlagged), X: Round4(b.Lower)})
		flagged.Data = append(flagged.Data, ChartPoint{Label: label, Value: float64(b.Flagged), X: Round4(b.Lower)})
	}

	return ChartConfig{
		ChartType:  "histogram",
		Title:      "Isolation Forest Anomaly Scores",
		XAxis:      domain.ColumnAnomalyScore,
		YAxis:      "Count",
		Series:     []ChartSeries{clean, flagged},
		Colors:     flagColors,
		ShowLegend: true,
		ShowGrid:   true,
		Stacked:    true,
	}
}

// ScatterChart plots MAD against Chi-Square sized by Avg_Z_Score, one
// series per Fraud_Flag value.
func ScatterChart(obs []domain.Observation) ChartConfig {
	series := []ChartSeries{
		{Name: flagLabel(0), Data: []ChartPoint{}, Color: flagColors[0]},
		{Name: flagLabel(1), Data: []ChartPoint{}, Color: flagColors[1]},
	}
	for _, o := range obs {
		i := 0
		if o.Flagged() {
			i = 1
		}
		series[i].Data = append(series[i].Data, ChartPoint{
			Label: strconv.Itoa(o.Year) + " " + o.StatementType,
			X:     Round4(o.MAD),
			Value: Round4(o.ChiSquare),
			Size:  Round4(o.AvgZScore),
		})
	}

	return ChartConfig{
		ChartType:  "scatter",
		Title:      "Benford Deviation Space",
		XAxis:      domain.ColumnMAD,
		YAxis:      domain.ColumnChiSquare,
		Series:     series,
		Colors:     flagColors,
		ShowLegend: true,
		ShowGrid:   true,
	}
}

// TrendChart is the mean Anomaly_Score per Year.
func TrendChart(trend []domain.YearMean) ChartConfig {
	points := make([]ChartPoint, 0, len(trend))
	for _, t := range trend {
		points = append(points, ChartPoint{
			Label: strconv.Itoa(t.Year),
			Value: Round4(t.MeanAnomalyScore),
		})
	}

	return ChartConfig{
		ChartType:  "line",
		Title:      "Average Anomaly Score by Year",
		XAxis:      domain.ColumnYear,
		YAxis:      "Mean " + domain.ColumnAnomalyScore,
		Series:     []ChartSeries{{Name: "Mean " + domain.ColumnAnomalyScore, Data: points}},
		Colors:     assignColors(1),
		ShowLegend: false,
		ShowGrid:   true,
	}
}

// ComparisonChart groups bars by Statement Type with one series per Year.
// Statement Types and Years keep the order of the comparison slice, and a
// pair with no records is omitted rather than drawn as zero.
func ComparisonChart(cmp []domain.YearStatementMean) ChartConfig {
	var years []int
	byYear := make(map[int][]ChartPoint)
	for _, m := range cmp {
		if _, ok := byYear[m.Year]; !ok {
			years = append(years, m.Year)
		}
		byYear[m.Year] = append(byYear[m.Year], ChartPoint{
			Label: m.StatementType,
			Value: Round4(m.MeanAnomalyScore),
		})
	}

	series := make([]ChartSeries, 0, len(years))
	for i, y := range years {
		series = append(series, ChartSeries{
			Name:  strconv.Itoa(y),
			Data:  byYear[y],
			Color: defaultColors[i%len(defaultColors)],
		})
	}

	return ChartConfig{
		ChartType:  "bar",
		Title:      "Anomaly Scores by Statement Type",
		XAxis:      domain.ColumnStatementType,
		YAxis:      "Mean " + domain.ColumnAnomalyScore,
		Series:     series,
		Colors:     assignColors(len(series)),
		ShowLegend: true,
		ShowGrid:   true,
	}
}

// DistributionChart is the flagged vs not flagged proportion.
func DistributionChart(dist domain.FraudDistribution) ChartConfig {
	points := []ChartPoint{
		{Label: flagLabel(0), Value: float64(dist[0])},
		{Label: flagLabel(1), Value: float64(dist[1])},
	}

	return ChartConfig{
		ChartType:  "pie",
		Title:      "Fraud vs Non-Fraud Distribution",
		Series:     []ChartSeries{{Name: domain.ColumnFraudFlag, Data: points}},
		Colors:     flagColors,
		ShowLegend: true,
		ShowGrid:   false,
	}
}

// ConformityChart counts records per MAD conformity band.
func ConformityChart(counts []domain.ConformityCount) ChartConfig {
	points := make([]ChartPoint, 0, len(counts))
	for _, c := range counts {
		points = append(points, ChartPoint{Label: c.Label, Value: float64(c.Count)})
	}

	return ChartConfig{
		ChartType:  "bar",
		Title:      "Benford Conformity (MAD)",
		XAxis:      "Conformity",
		YAxis:      "Count",
		Series:     []ChartSeries{{Name: "Records", Data: points}},
		Colors:     assignColors(1),
		ShowLegend: false,
		ShowGrid:   true,
	}
}

func flagLabel(flag int) string {
	if flag == 1 {
		return "Flagged"
	}
	return "Not flagged"
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
