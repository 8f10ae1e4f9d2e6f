package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a metrics component is created without a meter
var ErrMeterNil = errors.New("meter cannot be nil")

// SyncMetrics tracks the data synchronization pipeline: cycle outcomes,
// per-entity sync results, rows written and pages fetched.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	cyclesTotal     *Counter
	entitySyncTotal *Counter
	syncRowsTotal   *Counter
	fetchPagesTotal *Counter
	cycleDuration   *Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(meter metric.Meter, logger *zap.Logger) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:  meter,
		logger: logger,
	}

	var err error

	sm.cyclesTotal, err = NewCounter(
		meter,
		"spotdata_sync_cycles_total",
		"Total number of completed sync cycles by outcome",
		"{cycles}",
	)
	if err != nil {
		return nil, err
	}

	sm.entitySyncTotal, err = NewCounter(
		meter,
		"spotdata_entity_sync_total",
		"Total number of per-entity sync attempts by outcome",
		"{syncs}",
	)
	if err != nil {
		return nil, err
	}

	sm.syncRowsTotal, err = NewCounter(
		meter,
		"spotdata_sync_rows_total",
		"Total number of rows written to the local store",
		"{rows}",
	)
	if err != nil {
		return nil, err
	}

	sm.fetchPagesTotal, err = NewCounter(
		meter,
		"spotdata_fetch_pages_total",
		"Total number of remote pages fetched",
		"{pages}",
	)
	if err != nil {
		return nil, err
	}

	sm.cycleDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "spotdata_sync_cycle_duration_seconds",
		Description: "Duration of full sync cycles",
		Unit:        "s",
		Boundaries:  SyncCycleDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordCycle records a completed sync cycle with its outcome and duration.
func (sm *SyncMetrics) RecordCycle(ctx context.Context, status string, duration time.Duration) {
	sm.cyclesTotal.Inc(ctx, AttrStatus.String(status))
	sm.cycleDuration.RecordDuration(ctx, duration, AttrStatus.String(status))
}

// RecordEntitySync records one per-entity sync attempt with its outcome.
func (sm *SyncMetrics) RecordEntitySync(ctx context.Context, entity, status string) {
	sm.entitySyncTotal.Inc(ctx, AttrEntity.String(entity), AttrStatus.String(status))
}

// AddRows records rows written for an entity.
func (sm *SyncMetrics) AddRows(ctx context.Context, entity string, rows int) {
	if rows <= 0 {
		return
	}
	sm.syncRowsTotal.Add(ctx, int64(rows), AttrEntity.String(entity))
}

// AddPage records one fetched remote page for an entity endpoint.
func (sm *SyncMetrics) AddPage(ctx context.Context, entity string) {
	sm.fetchPagesTotal.Inc(ctx, AttrEntity.String(entity))
}
