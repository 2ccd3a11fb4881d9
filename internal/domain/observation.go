package domain

// Column names of the scored dataset. They are a de facto schema contract
// shared by the xlsx/csv readers and the SQL repository.
const (
	ColumnYear          = "Year"
	ColumnStatementType = "Statement Type"
	ColumnMAD           = "MAD"
	ColumnChiSquare     = "Chi_Square"
	ColumnAvgZScore     = "Avg_Z_Score"
	ColumnAnomalyScore  = "Anomaly_Score"
	ColumnFraudFlag     = "Fraud_Flag"
)

// RequiredColumns lists every column a source must provide.
var RequiredColumns = []string{
	ColumnYear,
	ColumnStatementType,
	ColumnMAD,
	ColumnChiSquare,
	ColumnAvgZScore,
	ColumnAnomalyScore,
	ColumnFraudFlag,
}

// Observation is one scored row of the dataset: Benford deviation metrics
// and the Isolation-Forest anomaly score for a (Year, Statement Type) pair.
type Observation struct {
	// Seq is the zero-based position of the row in the Record Store.
	Seq int `json:"seq"`

	// Facet keys
	Year          int    `json:"year"`
	StatementType string `json:"statementType"`

	// Benford deviation metrics (pre-computed upstream)
	MAD       float64 `json:"mad"`
	ChiSquare float64 `json:"chiSquare"`
	AvgZScore float64 `json:"avgZScore"`

	// Isolation-Forest output; lower is more anomalous.
	AnomalyScore float64 `json:"anomalyScore"`

	// FraudFlag is 1 when the row was flagged upstream, 0 otherwise.
	FraudFlag int `json:"fraudFlag"`
}

// Flagged reports whether the upstream model flagged the row.
func (o Observation) Flagged() bool {
	return o.FraudFlag == 1
}

// Fields returns the observation as a CEL activation keyed by snake_case names.
func (o Observation) Fields() map[string]any {
	return map[string]any{
		"year":           int64(o.Year),
		"statement_type": o.StatementType,
		"mad":            o.MAD,
		"chi_square":     o.ChiSquare,
		"avg_z_score":    o.AvgZScore,
		"anomaly_score":  o.AnomalyScore,
		"fraud_flag":     int64(o.FraudFlag),
	}
}
