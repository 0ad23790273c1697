package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/storefront/internal/adapter/bankfeed"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// ReconcileFacade exposes the subset of application functionality required by the worker.
type ReconcileFacade interface {
	ImportBankFeed(ctx context.Context) (int, error)
	ScanAndAutoConfirm(ctx context.Context) (*model.SweepReport, error)
}

// Reconciler periodically pulls the bank feed and sweeps pending bank-transfer orders.
type Reconciler struct {
	facade   ReconcileFacade
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	// feedResumeAt postpones feed pulls after the bank answered 429.
	feedResumeAt time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReconciler constructs the reconciliation worker.
func NewReconciler(facade ReconcileFacade, interval time.Duration, logger *slog.Logger) *Reconciler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Reconciler{
		facade:   facade,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Interval returns the pause between passes.
func (r *Reconciler) Interval() time.Duration {
	return r.interval
}

// Start launches background processing. The worker outlives ctx and stops on Stop.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(runCtx)
}

// Stop waits for the running pass to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) loop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reconciler) tick(ctx context.Context) {
	r.pullFeed(ctx)

	report, err := r.facade.ScanAndAutoConfirm(ctx)
	switch {
	case errors.Is(err, domainErrors.ErrSweepInProgress):
		r.logger.Debug("sweep already running elsewhere")
	case err != nil:
		r.logger.Error("bank sweep failed", slog.String("error", err.Error()))
	case report.Updated > 0:
		r.logger.Info("bank transfers confirmed", slog.Int("updated", report.Updated))
	}
}

func (r *Reconciler) pullFeed(ctx context.Context) {
	now := r.now()
	if now.Before(r.feedResumeAt) {
		return
	}

	imported, err := r.facade.ImportBankFeed(ctx)
	if err != nil {
		var limited bankfeed.TooManyRequestsError
		if errors.As(err, &limited) {
			r.feedResumeAt = now.Add(limited.RetryAfter)
			r.logger.Warn("bank feed rate limited", slog.Duration("retry_after", limited.RetryAfter))
			return
		}
		r.logger.Error("bank feed import failed", slog.String("error", err.Error()))
		return
	}
	if imported > 0 {
		r.logger.Info("bank transactions imported", slog.Int("count", imported))
	}
}
