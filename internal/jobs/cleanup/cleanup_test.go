package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSweeper struct {
	calls atomic.Int64
	err   error
}

func (s *fakeSweeper) Cleanup(_ context.Context) error {
	s.calls.Add(1)
	return s.err
}

func TestRunSweepsOnce(t *testing.T) {
	sweeper := &fakeSweeper{}
	job := NewJob(sweeper, time.Hour, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := sweeper.calls.Load(); got != 1 {
		t.Fatalf("calls: got %d want 1", got)
	}
}

func TestRunPropagatesSweepError(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("boom")}
	job := NewJob(sweeper, time.Hour, nil)

	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunWithoutSweeperIsNoop(t *testing.T) {
	job := NewJob(nil, time.Hour, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestStartSweepsOnTicks(t *testing.T) {
	sweeper := &fakeSweeper{}
	job := NewJob(sweeper, 10*time.Millisecond, nil)

	job.Start(context.Background())
	defer job.Stop()

	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweeps did not happen: %d", sweeper.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStartKeepsTickingAfterFailure(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("boom")}
	job := NewJob(sweeper, 10*time.Millisecond, nil)

	job.Start(context.Background())
	defer job.Stop()

	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("failing sweeps were not retried: %d", sweeper.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStopIsSafeWithoutStart(t *testing.T) {
	job := NewJob(&fakeSweeper{}, time.Hour, nil)
	job.Stop()
	job.Stop()
}
