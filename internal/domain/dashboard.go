package domain

// KPISummary holds the scalar metrics for a non-empty Filtered View.
// Means are returned at full precision; rounding is a display concern.
type KPISummary struct {
	Count            int     `json:"count"`
	FlagSum          int     `json:"flagSum"`
	MeanMAD          float64 `json:"meanMad"`
	MeanAnomalyScore float64 `json:"meanAnomalyScore"`
}

// YearMean is one point of the trend view.
type YearMean struct {
	Year             int     `json:"year"`
	MeanAnomalyScore float64 `json:"meanAnomalyScore"`
	Count            int     `json:"count"`
}

// YearStatement is the two-key grouping used by the comparison view.
type YearStatement struct {
	Year          int    `json:"year"`
	StatementType string `json:"statementType"`
}

// YearStatementMean is one bar of the comparison view.
type YearStatementMean struct {
	YearStatement
	MeanAnomalyScore float64 `json:"meanAnomalyScore"`
	Count            int     `json:"count"`
}

// FraudDistribution counts records by Fraud_Flag. Both keys 0 and 1 are
// always present.
type FraudDistribution map[int]int

// Total returns the number of records counted.
func (d FraudDistribution) Total() int {
	return d[0] + d[1]
}

// HistogramBin is one equal-width bucket of the anomaly score histogram,
// covering [Lower, Upper) except the last bin which also includes Upper.
type HistogramBin struct {
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Flagged    int     `json:"flagged"`
	NotFlagged int     `json:"notFlagged"`
}

// Count returns the number of records in the bin.
func (b HistogramBin) Count() int {
	return b.Flagged + b.NotFlagged
}

// Dashboard is every derived view for one Filter Selection.
type Dashboard struct {
	DatasetID string    `json:"datasetId"`
	Selection Selection `json:"selection"`
	Screen    string    `json:"screen,omitempty"`

	// Empty is true when the selection matched no records. Summary is nil then.
	Empty   bool        `json:"empty"`
	Summary *KPISummary `json:"summary,omitempty"`

	Observations []Observation       `json:"observations"`
	RiskTable    []Observation       `json:"riskTable"`
	Trend        []YearMean          `json:"trend"`
	Comparison   []YearStatementMean `json:"comparison"`
	TopRisk      []Observation       `json:"topRisk"`
	Distribution FraudDistribution   `json:"distribution"`
	Histogram    []HistogramBin      `json:"histogram"`
	Conformity   []ConformityCount   `json:"conformity"`
}
