package health

import (
	"context"
	"time"

	"github.com/TorkeTejas/bus-management-cc/internal/model"
	"go.uber.org/zap"
)

// DefaultInterval is the pause between two background probe rounds.
const DefaultInterval = 30 * time.Second

// Prober runs one full probe round.
type Prober interface {
	ProbeAll(ctx context.Context) map[string]model.ServiceStatus
}

// Loop re-probes every registered service on a fixed interval.
type Loop struct {
	prober   Prober
	interval time.Duration
	logger   *zap.Logger
}

// NewLoop creates a background loop.
func NewLoop(prober Prober, interval time.Duration, logger *zap.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		prober:   prober,
		interval: interval,
		logger:   logger,
	}
}

// Run probes immediately, then waits interval after each round, until ctx
// is cancelled. A round that is in flight when ctx is cancelled completes.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("periodic health check started", zap.Duration("interval", l.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("periodic health check stopped")
			return
		case <-timer.C:
			l.prober.ProbeAll(ctx)
			timer.Reset(l.interval)
		}
	}
}
