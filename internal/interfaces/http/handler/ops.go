package handler

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/cache"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/persistence"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/scheduler"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/interfaces/http/dto"
)

// SyncMonitor exposes the running state of the sync scheduler
type SyncMonitor interface {
	IsRunning() bool
	GetStatus() map[string]any
	History(limit int) []*scheduler.CycleRecord
}

// DatabaseMonitor exposes database liveness and pool statistics
type DatabaseMonitor interface {
	Ping() error
	Stats() (persistence.ConnectionStats, error)
}

// OpsHandler serves the operational surface: liveness and sync progress.
// The dataset itself is read by downstream reporting services, not here.
type OpsHandler struct {
	db          DatabaseMonitor
	redis       *redis.Client
	sync        SyncMonitor
	checkpoints cache.CheckpointStore
	startTime   time.Time
}

// NewOpsHandler creates a new OpsHandler. The redis client and checkpoint
// store are optional.
func NewOpsHandler(db DatabaseMonitor, redisClient *redis.Client, sync SyncMonitor, checkpoints cache.CheckpointStore) *OpsHandler {
	return &OpsHandler{
		db:          db,
		redis:       redisClient,
		sync:        sync,
		checkpoints: checkpoints,
		startTime:   time.Now(),
	}
}

// RegisterRoutes registers the sync monitoring routes
func (h *OpsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	sync.GET("/status", h.SyncStatus)
	sync.GET("/history", h.SyncHistory)
	sync.GET("/checkpoints", h.SyncCheckpoints)
}

// Health reports liveness of the process and its backing stores
func (h *OpsHandler) Health(c *gin.Context) {
	status := http.StatusOK
	health := gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	}

	if err := h.db.Ping(); err != nil {
		health["status"] = "unhealthy"
		health["database"] = "error"
		status = http.StatusServiceUnavailable
	} else {
		health["database"] = "ok"
	}

	switch {
	case h.redis == nil:
		health["redis"] = "disabled"
	case h.redis.Ping(c.Request.Context()).Err() != nil:
		// Redis only carries checkpoints, its loss degrades but does not
		// stop the service
		health["redis"] = "error"
	default:
		health["redis"] = "ok"
	}

	c.JSON(status, health)
}

// SyncStatusResponse describes the scheduler and connection pool state
type SyncStatusResponse struct {
	Scheduler map[string]any              `json:"scheduler"`
	Database  persistence.ConnectionStats `json:"database"`
	GoVersion string                      `json:"go_version"`
	Uptime    string                      `json:"uptime"`
}

// SyncStatus returns the scheduler state and pool statistics
func (h *OpsHandler) SyncStatus(c *gin.Context) {
	stats, err := h.db.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("STATS_UNAVAILABLE", err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(SyncStatusResponse{
		Scheduler: h.sync.GetStatus(),
		Database:  stats,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}

// SyncHistory returns recent sync cycles, newest first. The optional limit
// query parameter bounds the result.
func (h *OpsHandler) SyncHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_LIMIT", "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"cycles": h.sync.History(limit),
	}))
}

// SyncCheckpoints returns the per-entity checkpoints and last cycle summary
func (h *OpsHandler) SyncCheckpoints(c *gin.Context) {
	if h.checkpoints == nil {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
			"entities":   []cache.EntityCheckpoint{},
			"last_cycle": nil,
		}))
		return
	}

	ctx := c.Request.Context()
	entities, err := h.checkpoints.EntityCheckpoints(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("CHECKPOINTS_UNAVAILABLE", err.Error()))
		return
	}

	lastCycle, err := h.checkpoints.LastCycleSummary(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("CHECKPOINTS_UNAVAILABLE", err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"entities":   entities,
		"last_cycle": lastCycle,
	}))
}
