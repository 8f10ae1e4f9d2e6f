package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/telemetry"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	cfg := telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    60 * time.Second,
		ServiceName:       "test-service",
	}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.False(t, mp.IsEnabled())

	gotCfg := mp.GetConfig()
	assert.Equal(t, cfg.ServiceName, gotCfg.ServiceName)
	assert.False(t, gotCfg.Enabled)

	// Shutdown and flush are no-ops without a provider
	assert.NoError(t, mp.Shutdown(ctx))
	assert.NoError(t, mp.ForceFlush(ctx))
}

func TestMeterProvider_DisabledMeterIsUsable(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{Enabled: false}, logger)
	require.NoError(t, err)

	meter := mp.Meter("test")
	require.NotNil(t, meter)

	counter, err := telemetry.NewCounter(meter, "test_counter", "test", "{items}")
	require.NoError(t, err)
	// Recording against the no-op meter must not panic
	counter.Inc(ctx)
	counter.Add(ctx, 5, telemetry.AttrEntity.String("Broker"))

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "test_duration_seconds",
		Description: "test",
		Unit:        "s",
		Boundaries:  telemetry.SyncCycleDurationBuckets,
	})
	require.NoError(t, err)
	histogram.RecordDuration(ctx, 3*time.Second)
}
