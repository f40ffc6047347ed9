// Package jobs holds the background task definitions and the Asynq
// worker that runs them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRetention trims old rows from the decision trail.
	TaskAuditRetention = "audit:retention"
	// TaskPolicyCacheFlush drops cached candidate sets for a resource kind.
	TaskPolicyCacheFlush = "policy:cache_flush"
)

// AuditRetentionPayload bounds the retention sweep.
type AuditRetentionPayload struct {
	OlderThanDays int `json:"older_than_days"`
}

// NewAuditRetentionTask constructs an Asynq task.
func NewAuditRetentionTask(payload AuditRetentionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}

// CacheFlushPayload names the resource kind whose candidate sets are dropped.
type CacheFlushPayload struct {
	ResourceKind string `json:"resource_kind"`
}

// NewCacheFlushTask constructs an Asynq task.
func NewCacheFlushTask(payload CacheFlushPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPolicyCacheFlush, data), nil
}

func decodePayload(t *asynq.Task, out any) error {
	if err := json.Unmarshal(t.Payload(), out); err != nil {
		return asynq.SkipRetry
	}
	return nil
}
