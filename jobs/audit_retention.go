package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/docstack/docstack/internal/audit"
	jobmetrics "github.com/docstack/docstack/internal/jobs"
)

const defaultRetentionDays = 90

// AuditRetentionJob trims the decision trail to its retention window.
type AuditRetentionJob struct {
	Audit   *audit.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAuditRetentionJob initialises the retention handler.
func NewAuditRetentionJob(svc *audit.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditRetentionJob {
	return &AuditRetentionJob{Audit: svc, Logger: logger, Metrics: metrics}
}

// Handle executes the retention sweep.
func (j *AuditRetentionJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Audit == nil {
		return errors.New("audit retention: handler not configured")
	}
	var payload AuditRetentionPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}
	if payload.OlderThanDays <= 0 {
		payload.OlderThanDays = defaultRetentionDays
	}

	tracker := j.Metrics.Track(TaskAuditRetention)
	dropped, err := j.Audit.Purge(ctx, time.Duration(payload.OlderThanDays)*24*time.Hour)
	if err != nil {
		j.logger().Error("audit retention", slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("audit retention complete",
		slog.Int("older_than_days", payload.OlderThanDays),
		slog.Int64("dropped", dropped),
	)
	return tracker.End(nil)
}

func (j *AuditRetentionJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
