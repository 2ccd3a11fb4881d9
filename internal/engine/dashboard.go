package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/rules"
	"github.com/opensource-finance/kestrel/internal/store"
)

var tracer = otel.Tracer("kestrel-engine")

// Options tune a dashboard composition.
type Options struct {
	// TopN is the size of the top-risk list. Zero means DefaultTopN.
	TopN int

	// HistogramBins is the anomaly histogram resolution. Zero means
	// DefaultHistogramBins.
	HistogramBins int

	// Bands classify MAD values. Nil means the default conformity bands.
	Bands []domain.ConformityBand

	// Screen names the optional screening predicate for the result.
	Screen    string
	Predicate func(domain.Observation) bool
}

func (o Options) withDefaults() Options {
	if o.TopN == 0 {
		o.TopN = DefaultTopN
	}
	if o.HistogramBins == 0 {
		o.HistogramBins = DefaultHistogramBins
	}
	if o.Bands == nil {
		o.Bands = rules.DefaultConformityBands()
	}
	return o
}

// Compose runs the full filter and aggregation pass for one selection.
// An empty result is not an error: the dashboard is marked Empty, carries
// no summary and every other view is empty or zero-valued.
func Compose(ctx context.Context, st *store.Store, sel domain.Selection, opts Options) *domain.Dashboard {
	opts = opts.withDefaults()

	_, span := tracer.Start(ctx, "engine.Compose",
		trace.WithAttributes(
			attribute.Int("selection.years", len(sel.Years)),
			attribute.Int("selection.statement_types", len(sel.StatementTypes)),
			attribute.String("screen", opts.Screen),
		),
	)
	defer span.End()

	view := Where(Filter(st, sel), opts.Predicate)

	d := &domain.Dashboard{
		Selection:    sel,
		Screen:       opts.Screen,
		Observations: view.Observations(),
		RiskTable:    SortByAnomaly(view).Observations(),
		Trend:        GroupByYear(view),
		Comparison:   YearStatementMeans(view),
		TopRisk:      TopRisk(view, opts.TopN),
		Distribution: FraudDistribution(view),
		Histogram:    AnomalyHistogram(view, opts.HistogramBins),
		Conformity:   rules.ConformityCounts(MADValues(view), opts.Bands),
	}
	if st != nil {
		d.DatasetID = st.ID()
	}

	summary, err := Summarize(view)
	if err != nil {
		d.Empty = true
	} else {
		d.Summary = &summary
	}

	span.SetAttributes(
		attribute.Int("view.records", view.Len()),
		attribute.Bool("view.empty", d.Empty),
	)
	return d
}
