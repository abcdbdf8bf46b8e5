package workflow

import (
	"context"
	"fmt"
	"time"

	"go-paygate/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reconciler periodically surfaces requests stuck in a non-terminal
// state after a failed replay. It never retries or mutates them — the
// fail-closed design leaves resolution to an operator.
type Reconciler struct {
	requests   RequestStore
	notify     NotificationSink
	log        *zap.Logger
	schedule   string
	staleAfter time.Duration

	scheduler *cron.Cron
}

func NewReconciler(requests RequestStore, notify NotificationSink, cfg *config.Config, log *zap.Logger) *Reconciler {
	return &Reconciler{
		requests:   requests,
		notify:     notify,
		log:        log,
		schedule:   cfg.ReconcileSchedule,
		staleAfter: time.Duration(cfg.StaleAfterMinutes) * time.Minute,
	}
}

// Start registers the sweep with a cron scheduler
func (r *Reconciler) Start() error {
	r.scheduler = cron.New()
	if _, err := r.scheduler.AddFunc(r.schedule, r.Sweep); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", r.schedule, err)
	}
	r.scheduler.Start()
	r.log.Info("reconciler started", zap.String("schedule", r.schedule))
	return nil
}

func (r *Reconciler) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}

// Sweep logs every stale PROCESSING request and pings its requester
func (r *Reconciler) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stale, err := r.requests.ListStale(ctx, []Status{StatusProcessing}, r.staleAfter)
	if err != nil {
		r.log.Error("reconcile sweep failed", zap.Error(err))
		return
	}

	for _, req := range stale {
		r.log.Warn("approval request stuck in PROCESSING",
			zap.String("request_id", req.ID.Hex()),
			zap.String("operation", req.RequestType),
			zap.Time("updated_at", req.UpdatedAt))

		if r.notify != nil {
			r.notify.Notify(ctx, req.RequestType, req.RequesterUsername,
				fmt.Sprintf("request %s is stuck after a failed execution and needs manual attention", req.ID.Hex()))
		}
	}
}
