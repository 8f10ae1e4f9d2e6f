package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/cache"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/exchange"
)

func exchangeTestConfig() exchange.Config {
	return exchange.Config{
		BaseURL:             "https://spot.example.test",
		NotificationBaseURL: "https://notify.example.test",
		PageSize:            1000,
		Language:            "fa",
	}
}

type nopSessions struct{}

func (nopSessions) Session() *gorm.DB { return nil }

// countingStep records execution order into calls and returns rows or err
func countingStep(entity string, calls *[]string, rows int, err error) SyncStep {
	return SyncStep{
		Entity: entity,
		Run: func(ctx context.Context, _ *gorm.DB) (int, error) {
			*calls = append(*calls, entity)
			return rows, err
		},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CycleInterval = 10 * time.Millisecond
	return cfg
}

func TestNewSpotSyncScheduler(t *testing.T) {
	steps := []SyncStep{countingStep("Broker", &[]string{}, 0, nil)}

	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.CycleInterval = 0
		_, err := NewSpotSyncScheduler(cfg, nopSessions{}, steps, nil, nil, zap.NewNop())
		assert.ErrorIs(t, err, ErrInvalidConfig)

		cfg = testConfig()
		cfg.HistorySize = 0
		_, err = NewSpotSyncScheduler(cfg, nopSessions{}, steps, nil, nil, zap.NewNop())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("rejects empty step table", func(t *testing.T) {
		_, err := NewSpotSyncScheduler(testConfig(), nopSessions{}, nil, nil, nil, zap.NewNop())
		assert.ErrorIs(t, err, ErrNoSteps)
	})
}

func TestRunCycleSequentialOrder(t *testing.T) {
	var calls []string
	steps := []SyncStep{
		countingStep("Broker", &calls, 3, nil),
		countingStep("Commodity", &calls, 5, nil),
		countingStep("Offer", &calls, 7, nil),
	}

	store := cache.NewInMemoryCheckpointStore()
	s, err := NewSpotSyncScheduler(testConfig(), nopSessions{}, steps, store, nil, zap.NewNop())
	require.NoError(t, err)

	s.runCycle(context.Background())

	assert.Equal(t, []string{"Broker", "Commodity", "Offer"}, calls)

	history := s.History(0)
	require.Len(t, history, 1)
	record := history[0]
	assert.Equal(t, CycleStatusSuccess, record.Status)
	require.NotNil(t, record.CompletedAt)
	require.Len(t, record.Steps, 3)
	assert.Equal(t, StepStatusSuccess, record.Steps[0].Status)
	assert.Equal(t, 5, record.Steps[1].Rows)

	checkpoints, err := store.EntityCheckpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, checkpoints, 3)

	summary, err := store.LastCycleSummary(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, record.ID.String(), summary.CycleID)
	assert.Equal(t, string(CycleStatusSuccess), summary.Status)
	require.Len(t, summary.Steps, 3)
}

func TestRunCycleStepFailureAbortsRemainder(t *testing.T) {
	var calls []string
	bad := errors.New("upstream down")
	steps := []SyncStep{
		countingStep("Broker", &calls, 3, nil),
		countingStep("Commodity", &calls, 5, nil),
		countingStep("Group", &calls, 0, bad),
		countingStep("SubGroup", &calls, 9, nil),
		countingStep("Offer", &calls, 7, nil),
	}

	store := cache.NewInMemoryCheckpointStore()
	s, err := NewSpotSyncScheduler(testConfig(), nopSessions{}, steps, store, nil, zap.NewNop())
	require.NoError(t, err)

	s.runCycle(context.Background())

	// Entities after the failed one are never attempted
	assert.Equal(t, []string{"Broker", "Commodity", "Group"}, calls)

	history := s.History(0)
	require.Len(t, history, 1)
	record := history[0]
	assert.Equal(t, CycleStatusFailed, record.Status)
	require.Len(t, record.Steps, 3)
	assert.Equal(t, StepStatusFailed, record.Steps[2].Status)
	assert.Contains(t, record.Steps[2].Error, "upstream down")

	// Successful steps before the failure keep their checkpoints
	checkpoints, err := store.EntityCheckpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, "Broker", checkpoints[0].Entity)
	assert.Equal(t, "Commodity", checkpoints[1].Entity)

	summary, err := store.LastCycleSummary(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, string(CycleStatusFailed), summary.Status)
}

func TestRunCycleNextCycleRetriesAfterFailure(t *testing.T) {
	var attempts int32
	steps := []SyncStep{
		{
			Entity: "Broker",
			Run: func(ctx context.Context, _ *gorm.DB) (int, error) {
				if atomic.AddInt32(&attempts, 1) == 1 {
					return 0, errors.New("transient")
				}
				return 4, nil
			},
		},
	}

	s, err := NewSpotSyncScheduler(testConfig(), nopSessions{}, steps, nil, nil, zap.NewNop())
	require.NoError(t, err)

	s.runCycle(context.Background())
	s.runCycle(context.Background())

	history := s.History(0)
	require.Len(t, history, 2)
	// Newest first
	assert.Equal(t, CycleStatusSuccess, history[0].Status)
	assert.Equal(t, CycleStatusFailed, history[1].Status)
}

func TestRunCycleCancellation(t *testing.T) {
	var calls []string
	ctx, cancel := context.WithCancel(context.Background())
	steps := []SyncStep{
		countingStep("Broker", &calls, 3, nil),
		{
			Entity: "Commodity",
			Run: func(ctx context.Context, _ *gorm.DB) (int, error) {
				cancel()
				return 0, ctx.Err()
			},
		},
		countingStep("Offer", &calls, 7, nil),
	}

	s, err := NewSpotSyncScheduler(testConfig(), nopSessions{}, steps, nil, nil, zap.NewNop())
	require.NoError(t, err)

	s.runCycle(ctx)

	assert.Equal(t, []string{"Broker"}, calls)

	history := s.History(0)
	require.Len(t, history, 1)
	assert.Equal(t, CycleStatusCancelled, history[0].Status)
	require.Len(t, history[0].Steps, 2)
	assert.Equal(t, StepStatusCancelled, history[0].Steps[1].Status)
}

func TestHistoryIsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.HistorySize = 2

	steps := []SyncStep{countingStep("Broker", &[]string{}, 1, nil)}
	s, err := NewSpotSyncScheduler(cfg, nopSessions{}, steps, nil, nil, zap.NewNop())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		s.runCycle(context.Background())
	}

	history := s.History(0)
	assert.Len(t, history, 2)

	limited := s.History(1)
	require.Len(t, limited, 1)
	assert.Equal(t, history[0].ID, limited[0].ID)
}

func TestStartStop(t *testing.T) {
	cycles := make(chan struct{}, 16)
	steps := []SyncStep{
		{
			Entity: "Broker",
			Run: func(ctx context.Context, _ *gorm.DB) (int, error) {
				select {
				case cycles <- struct{}{}:
				default:
				}
				return 1, nil
			},
		},
	}

	s, err := NewSpotSyncScheduler(testConfig(), nopSessions{}, steps, nil, nil, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	// First cycle starts immediately, a second follows after the interval
	for i := 0; i < 2; i++ {
		select {
		case <-cycles:
		case <-time.After(2 * time.Second):
			t.Fatalf("cycle %d did not run", i+1)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.IsRunning())

	status := s.GetStatus()
	assert.Equal(t, false, status["is_running"])
	assert.Equal(t, 1, status["steps"])
	assert.NotNil(t, status["last_cycle_at"])

	// Stopping twice reports the scheduler is no longer running
	assert.ErrorIs(t, s.Stop(context.Background()), ErrSchedulerNotRunning)
}

func TestStartIsIdempotent(t *testing.T) {
	block := make(chan struct{})
	steps := []SyncStep{
		{
			Entity: "Broker",
			Run: func(ctx context.Context, _ *gorm.DB) (int, error) {
				select {
				case <-ctx.Done():
					return 0, ctx.Err()
				case <-block:
					return 0, nil
				}
			},
		},
	}

	s, err := NewSpotSyncScheduler(testConfig(), nopSessions{}, steps, nil, nil, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	close(block)
}

func TestBuildStepsOrder(t *testing.T) {
	steps := BuildSteps(exchangeTestConfig(), DefaultConfig(), nil, zap.NewNop())

	require.Len(t, steps, 23)

	want := []string{
		"Broker", "Commodity", "MainGroup", "Group", "SubGroup",
		"Manufacturer", "Supplier", "MeasurementUnit", "CurrencyUnit",
		"ContractType", "DeliveryPlace", "TradingHall", "BuyMethod",
		"OfferMode", "PackagingType", "SettlementType", "SecurityType",
		"OfferType", "Tender",
		"Offer", "TradeReport",
		"NewsNotification", "SpotNotification",
	}
	got := make([]string, 0, len(steps))
	for _, step := range steps {
		got = append(got, step.Entity)
	}
	assert.Equal(t, want, got)

	for i, step := range steps {
		assert.NotNil(t, step.Run, fmt.Sprintf("step %d has no run func", i))
	}
}
