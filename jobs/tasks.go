// Package jobs defines background tasks processed by the Asynq worker.
package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCredentialPurge removes API keys past their expiry.
	TaskCredentialPurge = "credential:purge"
)

// CredentialPurger is the slice of the identity service the purge task needs.
type CredentialPurger interface {
	PurgeExpiredAPIKeys(ctx context.Context) (int64, error)
}

// NewCredentialPurgeTask constructs the purge task.
func NewCredentialPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskCredentialPurge, nil)
}

// CredentialPurgeHandler processes TaskCredentialPurge tasks.
func CredentialPurgeHandler(purger CredentialPurger, logger *slog.Logger, metrics *Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskCredentialPurge)
		removed, err := purger.PurgeExpiredAPIKeys(ctx)
		if err != nil {
			return tracker.End(err)
		}
		if removed > 0 {
			logger.Info("purged expired api keys", slog.Int64("count", removed))
		}
		return tracker.End(nil)
	}
}
