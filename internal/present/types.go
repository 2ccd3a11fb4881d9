// Package present turns a composed dashboard into render-ready models:
// KPI tiles, tables and chart configurations. All rounding for display
// happens here; the engine always returns full precision.
package present

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"` // histogram, scatter, line, bar, pie
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
	Stacked    bool          `json:"stacked,omitempty"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point. Scatter points also carry an
// X coordinate and a marker Size.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	X     float64 `json:"x,omitempty"`
	Size  float64 `json:"size,omitempty"`
}

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Metric is one KPI tile.
type Metric struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Value    string  `json:"value"`
	RawValue float64 `json:"rawValue"`
}

// Facets are the selectable values for the two filter widgets.
type Facets struct {
	Years          []int    `json:"years"`
	StatementTypes []string `json:"statementTypes"`
}

// Report is everything a client needs to draw the dashboard.
type Report struct {
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle"`
	Empty      bool          `json:"empty"`
	Notice     string        `json:"notice,omitempty"`
	Metrics    []Metric      `json:"metrics"`
	RiskTable  *TableData    `json:"riskTable"`
	TopRisk    *TableData    `json:"topRisk"`
	Charts     []ChartConfig `json:"charts"`
	Disclaimer string        `json:"disclaimer"`
}
