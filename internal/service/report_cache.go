package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edutools/timetable-optimizer/internal/engine"
)

const reportKeyPrefix = "timetable:report:"

// ReportCache stores the quality-metrics report of each schedule in Redis
// with a bounded TTL. The cache is best-effort; every method is safe on a
// nil receiver so callers can run without Redis.
type ReportCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReportCache constructs a ReportCache.
func NewReportCache(client *redis.Client, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCache{client: client, ttl: ttl, metrics: metrics, logger: logger}
}

// Get returns the cached report for a schedule, if present.
func (c *ReportCache) Get(ctx context.Context, scheduleID string) (*engine.ScheduleMetrics, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, reportKeyPrefix+scheduleID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Sugar().Warnw("report cache read failed", "schedule_id", scheduleID, "error", err)
		}
		c.metrics.RecordCacheOperation(false)
		return nil, false
	}

	var report engine.ScheduleMetrics
	if err := json.Unmarshal(raw, &report); err != nil {
		c.logger.Sugar().Warnw("report cache payload corrupt", "schedule_id", scheduleID, "error", err)
		c.metrics.RecordCacheOperation(false)
		return nil, false
	}

	c.metrics.RecordCacheOperation(true)
	return &report, true
}

// Set stores the report for a schedule. Failures are logged, never
// propagated.
func (c *ReportCache) Set(ctx context.Context, scheduleID string, report engine.ScheduleMetrics) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(report)
	if err != nil {
		c.logger.Sugar().Warnw("report cache encode failed", "schedule_id", scheduleID, "error", err)
		return
	}

	started := time.Now()
	if err := c.client.Set(ctx, reportKeyPrefix+scheduleID, raw, c.ttl).Err(); err != nil {
		c.logger.Sugar().Warnw("report cache write failed", "schedule_id", scheduleID, "error", err)
		return
	}
	c.metrics.ObserveCacheWrite(time.Since(started))
}

// Invalidate drops the cached report after a manual edit.
func (c *ReportCache) Invalidate(ctx context.Context, scheduleID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, reportKeyPrefix+scheduleID).Err(); err != nil {
		c.logger.Sugar().Warnw("report cache invalidation failed", "schedule_id", scheduleID, "error", err)
	}
}
