package cleanup

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper is implemented by the auth service: drop expired token rows, then
// sessions left without any live token.
type Sweeper interface {
	Cleanup(ctx context.Context) error
}

// Job periodically sweeps expired tokens and orphan sessions. A failed sweep
// is logged and retried on the next tick.
type Job struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewJob(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run performs a single sweep.
func (j *Job) Run(ctx context.Context) error {
	if j.sweeper == nil {
		return nil
	}
	return j.sweeper.Cleanup(ctx)
}

func (j *Job) Start(ctx context.Context) {
	j.started = true
	go func() {
		defer close(j.done)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-j.stop:
				return
			case <-ticker.C:
				if err := j.Run(ctx); err != nil {
					j.logger.Warn("token cleanup sweep failed", zap.Error(err))
					continue
				}
				j.logger.Debug("token cleanup sweep completed")
			}
		}
	}()
}

func (j *Job) Stop() {
	j.stopOnce.Do(func() {
		close(j.stop)
		if j.started {
			<-j.done
		}
	})
}
