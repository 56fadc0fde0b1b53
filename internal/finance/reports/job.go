package reports

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/campusledger/campusledger/internal/jobs"
	"github.com/campusledger/campusledger/jobs"
)

// CacheWarmJob rebuilds the cached reports for a tenant so the first
// dashboard hit after a posting burst does not pay the query cost.
type CacheWarmJob struct {
	service *Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewCacheWarmJob constructs a job handler.
func NewCacheWarmJob(service *Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheWarmJob {
	return &CacheWarmJob{service: service, logger: logger, metrics: metrics}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *CacheWarmJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload jobs.CacheWarmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track(jobs.TaskTypeReportsCacheWarm)
	asOf := time.Now()
	if _, err := j.service.TrialBalance(ctx, tenantID, asOf); err != nil {
		j.warnf(payload.TenantID, "trial balance", err)
		return tracker.End(err)
	}
	if _, err := j.service.BalanceSheet(ctx, tenantID, asOf); err != nil {
		j.warnf(payload.TenantID, "balance sheet", err)
		return tracker.End(err)
	}
	return tracker.End(nil)
}

func (j *CacheWarmJob) warnf(tenantID, report string, err error) {
	if j.logger == nil {
		return
	}
	j.logger.Warn("report cache warm",
		slog.String("tenant_id", tenantID),
		slog.String("report", report),
		slog.Any("error", err))
}
