package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/onurcolak/call-scheduler/pkg/logger"
)

// TickFunc runs one iteration of a periodic job and reports how many records
// it touched. Errors are absorbed here; a failed tick never stops the job.
type TickFunc func(ctx context.Context) (processed int, err error)

// Job is a single periodic task. The first tick runs immediately on Start.
type Job struct {
	name     string
	interval time.Duration
	tick     TickFunc

	// Internal state
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	// Statistics
	lastRunAt        time.Time
	runsCount        int64
	recordsProcessed int64
}

func NewJob(name string, interval time.Duration, tick TickFunc) *Job {
	return &Job{
		name:     name,
		interval: interval,
		tick:     tick,
		running:  false,
	}
}

func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()

	if j.running {
		j.mu.Unlock()
		logger.Warnf("Job %s is already running", j.name)
		return nil
	}

	j.running = true
	j.stopChan = make(chan struct{})
	j.doneChan = make(chan struct{})
	j.mu.Unlock()

	logger.Infof("Starting job %s with interval: %v", j.name, j.interval)

	go j.run(ctx)

	return nil
}

func (j *Job) run(ctx context.Context) {
	defer close(j.doneChan)

	j.runTick(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.runTick(ctx)

		case <-j.stopChan:
			logger.Warnf("Job %s received stop signal", j.name)
			return

		case <-ctx.Done():
			logger.Warnf("Job %s context cancelled", j.name)
			return
		}
	}
}

func (j *Job) runTick(ctx context.Context) {
	j.mu.Lock()
	j.lastRunAt = time.Now()
	j.runsCount++
	runNumber := j.runsCount
	j.mu.Unlock()

	processed, err := j.tick(ctx)
	if err != nil {
		logger.Errorf("[%s run #%d] tick failed: %v", j.name, runNumber, err)
		return
	}

	if processed > 0 {
		j.mu.Lock()
		j.recordsProcessed += int64(processed)
		j.mu.Unlock()

		logger.Infof("[%s run #%d] processed %d records", j.name, runNumber, processed)
	}
}

// Stop signals the job loop and waits for the in-flight tick to finish.
func (j *Job) Stop() error {
	j.mu.Lock()

	if !j.running {
		j.mu.Unlock()
		logger.Warnf("Job %s is not running", j.name)
		return nil
	}

	j.running = false
	stopChan := j.stopChan
	doneChan := j.doneChan
	j.mu.Unlock()

	close(stopChan)
	<-doneChan

	logger.Infof("Job %s stopped", j.name)
	return nil
}

func (j *Job) IsRunning() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.running
}

func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()

	status := JobStatus{
		Name:             j.name,
		Running:          j.running,
		LastRunAt:        j.lastRunAt,
		RunsCount:        j.runsCount,
		RecordsProcessed: j.recordsProcessed,
		Interval:         j.interval,
	}

	if j.running && !j.lastRunAt.IsZero() {
		status.NextRunAt = j.lastRunAt.Add(j.interval)
	}

	return status
}

type JobStatus struct {
	Name             string        `json:"name"`
	Running          bool          `json:"running"`
	LastRunAt        time.Time     `json:"lastRunAt,omitempty"`
	NextRunAt        time.Time     `json:"nextRunAt,omitempty"`
	RunsCount        int64         `json:"runsCount"`
	RecordsProcessed int64         `json:"recordsProcessed"`
	Interval         time.Duration `json:"interval"`
}

// Runtime owns the dispatcher and poller jobs. They run concurrently at
// independent cadences; the dispatcher moves pending records forward while
// the poller only ever sees in-progress ones, so they never contend for the
// same transition.
type Runtime struct {
	dispatcher *Job
	poller     *Job
}

func NewRuntime(dispatcher, poller *Job) *Runtime {
	return &Runtime{
		dispatcher: dispatcher,
		poller:     poller,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	if err := r.dispatcher.Start(ctx); err != nil {
		return err
	}
	if err := r.poller.Start(ctx); err != nil {
		// Roll back so the runtime is either fully running or fully stopped.
		if stopErr := r.dispatcher.Stop(); stopErr != nil {
			logger.Errorf("Failed to stop dispatcher after poller start failure: %v", stopErr)
		}
		return err
	}
	return nil
}

func (r *Runtime) Stop() error {
	if err := r.dispatcher.Stop(); err != nil {
		return err
	}
	return r.poller.Stop()
}

func (r *Runtime) IsRunning() bool {
	return r.dispatcher.IsRunning() || r.poller.IsRunning()
}

func (r *Runtime) Status() RuntimeStatus {
	return RuntimeStatus{
		Running:    r.IsRunning(),
		Dispatcher: r.dispatcher.Status(),
		Poller:     r.poller.Status(),
	}
}

type RuntimeStatus struct {
	Running    bool      `json:"running"`
	Dispatcher JobStatus `json:"dispatcher"`
	Poller     JobStatus `json:"poller"`
}
