package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/docstack/docstack/internal/jobs"
	"github.com/docstack/docstack/internal/policy"
)

// CacheFlushJob drops cached candidate sets for one resource kind,
// forcing the next evaluation to reload from the store.
type CacheFlushJob struct {
	Cache   *policy.CandidateCache
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCacheFlushJob initialises the cache flush handler.
func NewCacheFlushJob(cache *policy.CandidateCache, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheFlushJob {
	return &CacheFlushJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle executes the flush.
func (j *CacheFlushJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("cache flush: handler not configured")
	}
	var payload CacheFlushPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}
	kind, err := policy.ParseResourceKind(payload.ResourceKind)
	if err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskPolicyCacheFlush)
	if err := j.Cache.InvalidateKind(ctx, kind); err != nil {
		j.logger().Error("cache flush", slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("flushed candidate cache", slog.String("resource_kind", string(kind)))
	return tracker.End(nil)
}

func (j *CacheFlushJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
