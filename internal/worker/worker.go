package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/velamart/velamart-backend/pkg/config"
	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/logger"
	"github.com/velamart/velamart-backend/pkg/metrics"
	"github.com/velamart/velamart-backend/pkg/outbox"
)

// Dispatcher consumes one outbox event.
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.OutboxEvent) error
}

// Worker drains the outbox into the dispatcher. Delivery is at-least-once:
// rows stay unpublished until Dispatch succeeds, and a crash between dispatch
// and MarkPublished re-delivers on the next pass.
type Worker struct {
	repo       *outbox.Repository
	dispatcher Dispatcher
	cfg        config.OutboxConfig
	metrics    *metrics.NotificationMetrics
	logg       *logger.Logger
}

// New constructs the outbox worker.
func New(repo *outbox.Repository, dispatcher Dispatcher, cfg config.OutboxConfig, m *metrics.NotificationMetrics, logg *logger.Logger) (*Worker, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = 500
	}
	return &Worker{
		repo:       repo,
		dispatcher: dispatcher,
		cfg:        cfg,
		metrics:    m,
		logg:       logg,
	}, nil
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(w.cfg.PollIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	if w.logg != nil {
		w.logg.Info(ctx, "outbox worker started")
	}
	for {
		select {
		case <-ctx.Done():
			if w.logg != nil {
				w.logg.Info(ctx, "outbox worker stopping")
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.DispatchPending(ctx); err != nil && w.logg != nil {
				w.logg.Error(ctx, "outbox pass failed", err)
			}
		}
	}
}

// DispatchPending processes one batch of unpublished events and returns how
// many were delivered. The API process calls this directly in dev and tests
// to drain synchronously.
func (w *Worker) DispatchPending(ctx context.Context) (int, error) {
	events, err := w.repo.FetchUnpublished(w.cfg.BatchSize, w.cfg.MaxAttempts)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished events: %w", err)
	}

	var delivered int
	var errs error
	for _, event := range events {
		if ctx.Err() != nil {
			return delivered, multierr.Append(errs, ctx.Err())
		}
		if err := w.dispatcher.Dispatch(ctx, event); err != nil {
			w.metrics.IncFailed(string(event.EventType))
			if w.logg != nil {
				logCtx := w.logg.WithFields(ctx, map[string]any{
					"event_id":   event.ID.String(),
					"event_type": event.EventType,
				})
				w.logg.Error(logCtx, "outbox dispatch failed", err)
			}
			if markErr := w.repo.MarkFailed(event.ID, err); markErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("mark event %s failed: %w", event.ID, markErr))
			}
			errs = multierr.Append(errs, err)
			continue
		}
		if err := w.repo.MarkPublished(event.ID); err != nil {
			// The notification exists but the row stays unpublished; the next
			// pass re-delivers, which the dispatcher tolerates.
			errs = multierr.Append(errs, fmt.Errorf("mark event %s published: %w", event.ID, err))
			continue
		}
		w.metrics.IncDispatched(string(event.EventType))
		delivered++
	}
	return delivered, errs
}
