package present

import (
	"strconv"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Fixed copy shown on every dashboard.
const (
	Title       = "Benford's Law + Isolation Forest Fraud Detection"
	Subtitle    = "Interactive Dashboard for Forensic Auditing & Financial Analysis"
	EmptyNotice = "No matching records for the current filters."
	Disclaimer  = "Disclaimer: Flags indicate statistical anomalies and do not constitute proof of fraud. " +
		"This dashboard supports risk-based forensic auditing and analytical review."
)

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Flag series colors: not flagged, flagged.
var flagColors = []string{"#4F46E5", "#EF4444"}

// Build renders a dashboard. An empty dashboard yields the notice in place
// of metrics; tables and charts are still present but hold no data, so a
// client never has to special-case missing keys.
func Build(d *domain.Dashboard) *Report {
	r := &Report{
		Title:      Title,
		Subtitle:   Subtitle,
		Empty:      d.Empty || d.Summary == nil,
		Metrics:    Metrics(d.Summary),
		RiskTable:  ObservationTable("Benford Deviation Metrics & Fraud Flags", d.RiskTable),
		TopRisk:    ObservationTable("Top Risk", d.TopRisk),
		Charts:     Charts(d),
		Disclaimer: Disclaimer,
	}
	if r.Empty {
		r.Notice = EmptyNotice
	}
	return r
}

// Metrics returns the four KPI tiles. A nil summary yields no tiles.
func Metrics(s *domain.KPISummary) []Metric {
	if s == nil {
		return []Metric{}
	}
	return []Metric{
		{Key: "count", Label: "Total Observations", Value: FormatInt(s.Count), RawValue: float64(s.Count)},
		{Key: "flagSum", Label: "Fraud Flags", Value: FormatInt(s.FlagSum), RawValue: float64(s.FlagSum)},
		{Key: "meanMad", Label: "Avg MAD", Value: FormatFloat(s.MeanMAD), RawValue: Round4(s.MeanMAD)},
		{Key: "meanAnomalyScore", Label: "Avg Anomaly Score", Value: FormatFloat(s.MeanAnomalyScore), RawValue: Round4(s.MeanAnomalyScore)},
	}
}

var observationColumns = []Column{
	{Key: "year", Label: domain.ColumnYear, Type: "number", Align: "right"},
	{Key: "statementType", Label: domain.ColumnStatementType, Type: "text", Align: "left"},
	{Key: "mad", Label: domain.ColumnMAD, Type: "number", Align: "right"},
	{Key: "chiSquare", Label: domain.ColumnChiSquare, Type: "number", Align: "right"},
	{Key: "avgZScore", Label: domain.ColumnAvgZScore, Type: "number", Align: "right"},
	{Key: "anomalyScore", Label: domain.ColumnAnomalyScore, Type: "number", Align: "right"},
	{Key: "fraudFlag", Label: domain.ColumnFraudFlag, Type: "number", Align: "right"},
}

// ObservationTable renders rows in the given order.
func ObservationTable(title string, obs []domain.Observation) *TableData {
	rows := make([][]string, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, []string{
			strconv.Itoa(o.Year),
			o.StatementType,
			FormatFloat(o.MAD),
			FormatFloat(o.ChiSquare),
			FormatFloat(o.AvgZScore),
			FormatFloat(o.AnomalyScore),
			strconv.Itoa(o.FraudFlag),
		})
	}
	return &TableData{
		Title:   title,
		Columns: observationColumns,
		Rows:    rows,
	}
}
