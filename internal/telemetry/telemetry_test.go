package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func TestSetup(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		shutdown, err := Setup(domain.TracingConfig{Enabled: false}, "test", nil)
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	})

	t.Run("UnsupportedExporter", func(t *testing.T) {
		_, err := Setup(domain.TracingConfig{Enabled: true, ExporterType: "jaeger"}, "test", nil)
		assert.Error(t, err)
	})

	t.Run("Stdout", func(t *testing.T) {
		var buf bytes.Buffer
		shutdown, err := Setup(domain.TracingConfig{
			Enabled:      true,
			ServiceName:  "kestrel-test",
			ExporterType: "stdout",
		}, "test", &buf)
		require.NoError(t, err)

		_, span := otel.Tracer("telemetry-test").Start(context.Background(), "unit")
		span.End()

		require.NoError(t, shutdown(context.Background()))
		assert.Contains(t, buf.String(), `"Name":"unit"`)
		assert.Contains(t, buf.String(), "kestrel-test")
	})
}
