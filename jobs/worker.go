package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// Worker wraps the Asynq server and scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    *slog.Logger
	Purger    CredentialPurger
	Metrics   *Metrics
	// PurgeSpec is the cron expression for the credential purge, hourly by
	// default.
	PurgeSpec string
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskCredentialPurge, CredentialPurgeHandler(cfg.Purger, cfg.Logger, cfg.Metrics))

	spec := cfg.PurgeSpec
	if spec == "" {
		spec = "@hourly"
	}
	scheduler := asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register(spec, NewCredentialPurgeTask(), asynq.Queue(QueueDefault)); err != nil {
		return nil, err
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.scheduler.Start(); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.server.Run(w.mux)
	})
	g.Go(func() error {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
		return ctx.Err()
	})
	return g.Wait()
}
