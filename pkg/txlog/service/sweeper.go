package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/superdao/reconciler/internal/metrics"
	"github.com/superdao/reconciler/pkg/txlog"
)

// Sweeper periodically inspects pending transaction logs. It only observes:
// stale transactions are surfaced through the gauge and warning logs, never
// failed by timeout. Only the chain watcher decides outcomes.
type Sweeper struct {
	store    txlog.Store
	logger   *zap.Logger
	interval time.Duration
	warnAge  time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSweeper creates a pending-transaction sweeper
func NewSweeper(store txlog.Store, logger *zap.Logger, interval, warnAge time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		logger:   logger,
		interval: interval,
		warnAge:  warnAge,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the periodic sweep in a background goroutine
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("Started pending transaction sweep", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if err := s.Sweep(ctx); err != nil {
					s.logger.Error("Pending transaction sweep failed", zap.Error(err))
				}
				cancel()
			case <-s.stopCh:
				s.logger.Info("Stopping pending transaction sweep")
				return
			}
		}
	}()
}

// Stop stops the periodic sweep. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// Sweep refreshes the pending gauge and warns about transactions that have
// waited for an outcome longer than warnAge.
func (s *Sweeper) Sweep(ctx context.Context) error {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return err
	}

	metrics.PendingTransactions.Set(float64(len(pending)))

	now := time.Now()
	for _, l := range pending {
		age := now.Sub(l.CreatedAt)
		if age < s.warnAge {
			continue
		}
		s.logger.Warn("transaction pending for too long",
			zap.String("hash", l.TransactionHash),
			zap.String("type", string(l.Type)),
			zap.Duration("age", age))
	}
	return nil
}
