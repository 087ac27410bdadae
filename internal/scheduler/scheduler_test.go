package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestJob_RunTickUpdatesStats(t *testing.T) {
	ctx := context.Background()

	job := NewJob("test", time.Minute, func(ctx context.Context) (int, error) {
		return 3, nil
	})

	job.runTick(ctx)

	status := job.Status()
	if status.RunsCount != 1 {
		t.Errorf("expected RunsCount=1, got %d", status.RunsCount)
	}
	if status.RecordsProcessed != 3 {
		t.Errorf("expected RecordsProcessed=3, got %d", status.RecordsProcessed)
	}
	if status.LastRunAt.IsZero() {
		t.Errorf("expected LastRunAt to be set")
	}
}

func TestJob_TickErrorDoesNotStopCounting(t *testing.T) {
	ctx := context.Background()

	calls := 0
	job := NewJob("test", time.Minute, func(ctx context.Context) (int, error) {
		calls++
		return 0, context.DeadlineExceeded
	})

	job.runTick(ctx)
	job.runTick(ctx)

	if calls != 2 {
		t.Fatalf("expected tick to run twice despite errors, got %d", calls)
	}

	status := job.Status()
	if status.RunsCount != 2 {
		t.Errorf("expected RunsCount=2, got %d", status.RunsCount)
	}
	if status.RecordsProcessed != 0 {
		t.Errorf("expected RecordsProcessed=0, got %d", status.RecordsProcessed)
	}
}

func TestJob_StartAndStopToggleRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks atomic.Int64
	job := NewJob("test", 10*time.Millisecond, func(ctx context.Context) (int, error) {
		ticks.Add(1)
		return 0, nil
	})

	if job.IsRunning() {
		t.Fatalf("expected job to be not running initially")
	}

	if err := job.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	if !job.IsRunning() {
		t.Fatalf("expected job to be running after Start")
	}

	if err := job.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	if job.IsRunning() {
		t.Fatalf("expected job to be not running after Stop")
	}

	// The first tick runs immediately on Start.
	if ticks.Load() == 0 {
		t.Fatalf("expected at least one tick before Stop")
	}
}

func TestJob_DoubleStartIsNoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := NewJob("test", time.Minute, func(ctx context.Context) (int, error) {
		return 0, nil
	})

	if err := job.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := job.Start(ctx); err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}

	if err := job.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}

func TestRuntime_StartStopBothJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := NewJob("dispatcher", time.Minute, func(ctx context.Context) (int, error) {
		return 0, nil
	})
	poller := NewJob("poller", time.Minute, func(ctx context.Context) (int, error) {
		return 0, nil
	})

	runtime := NewRuntime(dispatcher, poller)

	if runtime.IsRunning() {
		t.Fatalf("expected runtime to be not running initially")
	}

	if err := runtime.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	if !dispatcher.IsRunning() || !poller.IsRunning() {
		t.Fatalf("expected both jobs to be running after Start")
	}

	status := runtime.Status()
	if !status.Running {
		t.Errorf("expected Running=true in status")
	}
	if status.Dispatcher.Name != "dispatcher" || status.Poller.Name != "poller" {
		t.Errorf("unexpected job names in status: %q, %q", status.Dispatcher.Name, status.Poller.Name)
	}

	if err := runtime.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	if runtime.IsRunning() {
		t.Fatalf("expected runtime to be not running after Stop")
	}
}
