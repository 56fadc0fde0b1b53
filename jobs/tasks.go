package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeVarianceSnapshot computes one budget variance snapshot.
	TaskTypeVarianceSnapshot = "budget:variance_snapshot"
	// TaskTypeAlertScan flags overspent budget lines on a schedule.
	TaskTypeAlertScan = "budget:alert_scan"
	// TaskTypeReportsCacheWarm pre-builds the cached financial reports.
	TaskTypeReportsCacheWarm = "reports:cache_warm"
)

// VarianceSnapshotPayload identifies the snapshot to compute.
type VarianceSnapshotPayload struct {
	TenantID   string `json:"tenantId"`
	SnapshotID string `json:"snapshotId"`
}

// AlertScanPayload scopes the overspend scan to one tenant.
type AlertScanPayload struct {
	TenantID string `json:"tenantId"`
}

// CacheWarmPayload scopes the report warm-up to one tenant.
type CacheWarmPayload struct {
	TenantID string `json:"tenantId"`
}

// NewVarianceSnapshotTask constructs an Asynq task.
func NewVarianceSnapshotTask(payload VarianceSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeVarianceSnapshot, data), nil
}

// NewAlertScanTask constructs an Asynq task.
func NewAlertScanTask(payload AlertScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAlertScan, data), nil
}

// NewCacheWarmTask constructs an Asynq task.
func NewCacheWarmTask(payload CacheWarmPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReportsCacheWarm, data), nil
}
