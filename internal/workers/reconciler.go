package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"tweet-giveaway-backend/internal/common/logger"
	"tweet-giveaway-backend/internal/features/giveaway/service"
)

// CompletionReconciler periodically completes giveaways whose claimed sum
// reached the total but whose status update was lost.
type CompletionReconciler struct {
	cron       *cron.Cron
	reconciler service.Reconciler
	schedule   string
	timeout    time.Duration
	log        zerolog.Logger
}

func NewCompletionReconciler(reconciler service.Reconciler, schedule string) *CompletionReconciler {
	log := logger.Component("reconciler")
	cronLogger := cron.PrintfLogger(&log)

	return &CompletionReconciler{
		cron:       cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		reconciler: reconciler,
		schedule:   schedule,
		timeout:    30 * time.Second,
		log:        log,
	}
}

// Start registers the job and starts the scheduler.
func (r *CompletionReconciler) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.RunOnce); err != nil {
		return err
	}
	r.log.Info().Str("schedule", r.schedule).Msg("Scheduled completion reconciler")
	r.cron.Start()
	return nil
}

// RunOnce performs a single reconciliation pass.
func (r *CompletionReconciler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	n, err := r.reconciler.Reconcile(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Reconciliation failed")
		return
	}
	if n > 0 {
		r.log.Info().Int("completed", n).Msg("Reconciliation completed giveaways")
	}
}

// Stop waits for a running pass to finish.
func (r *CompletionReconciler) Stop() context.Context {
	return r.cron.Stop()
}
