package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/cache"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/telemetry"
)

// ---------------------------------------------------------------------------
// Cycle and Step Types
// ---------------------------------------------------------------------------

// CycleStatus represents the outcome of one sync cycle
type CycleStatus string

const (
	CycleStatusRunning   CycleStatus = "RUNNING"
	CycleStatusSuccess   CycleStatus = "SUCCESS"
	CycleStatusFailed    CycleStatus = "FAILED"
	CycleStatusCancelled CycleStatus = "CANCELLED"
)

// StepStatus represents the outcome of one entity sync within a cycle
type StepStatus string

const (
	StepStatusSuccess   StepStatus = "SUCCESS"
	StepStatusFailed    StepStatus = "FAILED"
	StepStatusCancelled StepStatus = "CANCELLED"
)

// SyncStep is one entity synchronization: fetch from the exchange API and
// write to the local store. Run receives a fresh database session scoped to
// this step only and returns the number of rows written.
type SyncStep struct {
	Entity string
	Run    func(ctx context.Context, db *gorm.DB) (int, error)
}

// StepResult records the outcome of one step within a cycle
type StepResult struct {
	Entity    string
	Status    StepStatus
	Rows      int
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// CycleRecord records one full pass over the step table
type CycleRecord struct {
	ID          uuid.UUID
	Status      CycleStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Steps       []StepResult
}

// SessionProvider hands out fresh database sessions, one per sync step
type SessionProvider interface {
	Session() *gorm.DB
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config holds configuration for the spot sync scheduler
type Config struct {
	// CycleInterval is the wait between the end of one cycle and the start
	// of the next
	CycleInterval time.Duration
	// OfferLookback is how far back offers are re-pulled each cycle
	OfferLookback time.Duration
	// TradeReportLookback is how far back trade reports are pulled each cycle
	TradeReportLookback time.Duration
	// NotificationLookback is how far back notifications are pulled each cycle
	NotificationLookback time.Duration
	// HistorySize bounds the in-memory cycle history
	HistorySize int
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		CycleInterval:        1 * time.Hour,
		OfferLookback:        19 * 24 * time.Hour,
		TradeReportLookback:  5 * 24 * time.Hour,
		NotificationLookback: 365 * 24 * time.Hour,
		HistorySize:          50,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CycleInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.OfferLookback < 0 || c.TradeReportLookback < 0 || c.NotificationLookback < 0 {
		return ErrInvalidConfig
	}
	if c.HistorySize <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SpotSyncScheduler
// ---------------------------------------------------------------------------

// SpotSyncScheduler runs the full entity sync sequence on a fixed interval.
// Steps execute strictly in table order; a failed step aborts the remainder
// of its cycle, and the scheduler proceeds to the next interval regardless of
// the outcome. The first cycle starts immediately on Start.
type SpotSyncScheduler struct {
	config      Config
	db          SessionProvider
	steps       []SyncStep
	checkpoints cache.CheckpointStore
	metrics     *telemetry.SyncMetrics
	logger      *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastCycleAt *time.Time
	nextCycleAt *time.Time

	historyMu sync.RWMutex
	history   []*CycleRecord
}

// NewSpotSyncScheduler creates a scheduler over an ordered step table.
// The checkpoint store and metrics are optional.
func NewSpotSyncScheduler(
	config Config,
	db SessionProvider,
	steps []SyncStep,
	checkpoints cache.CheckpointStore,
	metrics *telemetry.SyncMetrics,
	logger *zap.Logger,
) (*SpotSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	return &SpotSyncScheduler{
		config:      config,
		db:          db,
		steps:       steps,
		checkpoints: checkpoints,
		metrics:     metrics,
		logger:      logger.Named("scheduler"),
		history:     make([]*CycleRecord, 0, config.HistorySize),
	}, nil
}

// Start starts the sync loop. The first cycle begins immediately.
func (s *SpotSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Spot sync scheduler started",
		zap.Int("steps", len(s.steps)),
		zap.Duration("cycle_interval", s.config.CycleInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight cycle to
// observe cancellation. Returns ErrSchedulerNotRunning if it was not started.
func (s *SpotSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Spot sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Spot sync scheduler stop timed out")
		return ctx.Err()
	}
}

// runLoop alternates cycles with cancellable waits until the context ends
func (s *SpotSyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		s.runCycle(ctx)

		if ctx.Err() != nil {
			return
		}

		next := time.Now().Add(s.config.CycleInterval)
		s.mu.Lock()
		s.nextCycleAt = &next
		s.mu.Unlock()

		timer := time.NewTimer(s.config.CycleInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runCycle executes the step table in order against fresh sessions
func (s *SpotSyncScheduler) runCycle(ctx context.Context) {
	record := &CycleRecord{
		ID:        uuid.New(),
		Status:    CycleStatusRunning,
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	s.lastCycleAt = &record.StartedAt
	s.mu.Unlock()

	s.logger.Info("Sync cycle started",
		zap.String("cycle_id", record.ID.String()),
		zap.Int("steps", len(s.steps)),
	)

	status := CycleStatusSuccess
	for _, step := range s.steps {
		if ctx.Err() != nil {
			status = CycleStatusCancelled
			break
		}

		result := s.runStep(ctx, step)
		record.Steps = append(record.Steps, result)

		if result.Status == StepStatusCancelled {
			status = CycleStatusCancelled
			break
		}
		if result.Status == StepStatusFailed {
			// Remaining entities are skipped; the next cycle retries the
			// whole sequence
			status = CycleStatusFailed
			s.logger.Error("Sync cycle aborted after step failure",
				zap.String("cycle_id", record.ID.String()),
				zap.String("entity", step.Entity),
				zap.Int("completed_steps", len(record.Steps)-1),
				zap.Int("skipped_steps", len(s.steps)-len(record.Steps)),
			)
			break
		}
	}

	now := time.Now()
	record.Status = status
	record.CompletedAt = &now
	duration := now.Sub(record.StartedAt)

	if s.metrics != nil {
		s.metrics.RecordCycle(ctx, string(status), duration)
	}

	s.addToHistory(record)
	s.saveCycleSummary(record)

	s.logger.Info("Sync cycle finished",
		zap.String("cycle_id", record.ID.String()),
		zap.String("status", string(status)),
		zap.Int("completed_steps", len(record.Steps)),
		zap.Duration("duration", duration),
	)
}

// runStep executes one entity sync against a fresh session
func (s *SpotSyncScheduler) runStep(ctx context.Context, step SyncStep) StepResult {
	started := time.Now()
	result := StepResult{
		Entity:    step.Entity,
		StartedAt: started,
	}

	rows, err := step.Run(ctx, s.db.Session())
	result.Duration = time.Since(started)
	result.Rows = rows

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		result.Status = StepStatusCancelled
		result.Error = err.Error()
	case err != nil:
		result.Status = StepStatusFailed
		result.Error = err.Error()
		s.logger.Error("Entity sync failed",
			zap.String("entity", step.Entity),
			zap.Duration("duration", result.Duration),
			zap.Error(err),
		)
	default:
		result.Status = StepStatusSuccess
		s.logger.Info("Entity synced",
			zap.String("entity", step.Entity),
			zap.Int("rows", rows),
			zap.Duration("duration", result.Duration),
		)
		s.saveEntityCheckpoint(ctx, step.Entity, rows)
	}

	if s.metrics != nil {
		s.metrics.RecordEntitySync(ctx, step.Entity, string(result.Status))
		s.metrics.AddRows(ctx, step.Entity, rows)
	}

	return result
}

// saveEntityCheckpoint persists a successful entity sync, best effort
func (s *SpotSyncScheduler) saveEntityCheckpoint(ctx context.Context, entity string, rows int) {
	if s.checkpoints == nil {
		return
	}
	cp := cache.EntityCheckpoint{
		Entity:   entity,
		SyncedAt: time.Now(),
		Rows:     rows,
	}
	if err := s.checkpoints.SaveEntityCheckpoint(ctx, cp); err != nil {
		s.logger.Warn("Failed to save entity checkpoint",
			zap.String("entity", entity),
			zap.Error(err),
		)
	}
}

// saveCycleSummary persists the cycle outcome, best effort. A fresh context
// is used because the scheduler context may already be cancelled.
func (s *SpotSyncScheduler) saveCycleSummary(record *CycleRecord) {
	if s.checkpoints == nil {
		return
	}

	summary := cache.CycleSummary{
		CycleID:   record.ID.String(),
		Status:    string(record.Status),
		StartedAt: record.StartedAt,
		Steps:     make([]cache.StepCheckpoint, 0, len(record.Steps)),
	}
	if record.CompletedAt != nil {
		summary.FinishedAt = *record.CompletedAt
	}
	for _, step := range record.Steps {
		summary.Steps = append(summary.Steps, cache.StepCheckpoint{
			Entity:   step.Entity,
			Status:   string(step.Status),
			Rows:     step.Rows,
			Error:    step.Error,
			Duration: step.Duration,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.checkpoints.SaveCycleSummary(ctx, summary); err != nil {
		s.logger.Warn("Failed to save cycle summary",
			zap.String("cycle_id", summary.CycleID),
			zap.Error(err),
		)
	}
}

// addToHistory adds a completed cycle to the bounded in-memory history
func (s *SpotSyncScheduler) addToHistory(record *CycleRecord) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*CycleRecord{record}, s.history...)
	if len(s.history) > s.config.HistorySize {
		s.history = s.history[:s.config.HistorySize]
	}
}

// History returns recent cycle records, newest first
func (s *SpotSyncScheduler) History(limit int) []*CycleRecord {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*CycleRecord, limit)
	copy(result, s.history[:limit])
	return result
}

// IsRunning reports whether the sync loop is active
func (s *SpotSyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// GetStatus returns the current status of the scheduler
func (s *SpotSyncScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"is_running":     s.isRunning,
		"steps":          len(s.steps),
		"cycle_interval": s.config.CycleInterval.String(),
		"last_cycle_at":  s.lastCycleAt,
		"next_cycle_at":  s.nextCycleAt,
	}
}
