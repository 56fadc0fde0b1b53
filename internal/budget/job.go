package budget

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/campusledger/campusledger/internal/jobs"
	"github.com/campusledger/campusledger/jobs"
)

// SnapshotJob processes variance snapshot tasks on the worker.
type SnapshotJob struct {
	service *Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewSnapshotJob constructs a job handler.
func NewSnapshotJob(service *Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotJob {
	return &SnapshotJob{service: service, logger: logger, metrics: metrics}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *SnapshotJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload jobs.VarianceSnapshotPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return asynq.SkipRetry
	}
	snapshotID, err := uuid.Parse(payload.SnapshotID)
	if err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track(jobs.TaskTypeVarianceSnapshot)
	if err := j.service.ProcessSnapshot(ctx, tenantID, snapshotID); err != nil {
		if j.logger != nil {
			j.logger.Error("variance snapshot",
				slog.String("snapshot_id", payload.SnapshotID),
				slog.Any("error", err))
		}
		return tracker.End(err)
	}
	return tracker.End(nil)
}

// AlertScanJob flags overspent budget lines for a tenant on a schedule.
type AlertScanJob struct {
	service *Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewAlertScanJob constructs the scheduled alert scan handler.
func NewAlertScanJob(service *Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AlertScanJob {
	return &AlertScanJob{service: service, logger: logger, metrics: metrics}
}

// Handle fulfils the asynq.HandlerFunc contract. An empty tenant in the
// payload scans every tenant with an Active budget, which is how the
// scheduled run operates.
func (j *AlertScanJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload jobs.AlertScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track(jobs.TaskTypeAlertScan)

	var tenants []uuid.UUID
	if payload.TenantID == "" {
		all, err := j.service.ActiveTenants(ctx)
		if err != nil {
			return tracker.End(err)
		}
		tenants = all
	} else {
		tenantID, err := uuid.Parse(payload.TenantID)
		if err != nil {
			return asynq.SkipRetry
		}
		tenants = []uuid.UUID{tenantID}
	}

	logger := j.logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, tenantID := range tenants {
		flagged, err := j.service.OverSpentRows(ctx, tenantID)
		if err != nil {
			return tracker.End(err)
		}
		for budgetID, rows := range flagged {
			j.metrics.AddOverspent(tenantID.String(), len(rows))
			for _, row := range rows {
				logger.Warn("budget line overspent",
					slog.String("tenant_id", tenantID.String()),
					slog.String("budget_id", budgetID.String()),
					slog.String("account_code", row.AccountCode),
					slog.Float64("budgeted", row.Budgeted),
					slog.Float64("actual", row.Actual),
					slog.Float64("variance", row.Variance),
				)
			}
		}
	}
	return tracker.End(nil)
}
