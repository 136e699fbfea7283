package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Run represents a queued optimization request.
type Run struct {
	ID       string
	Payload  interface{}
	Enqueued time.Time
}

// Handler executes a run. The context is cancelled when the run is aborted.
type Handler func(context.Context, Run) error

// Config configures runner behaviour.
type Config struct {
	BufferSize int
	Logger     *zap.Logger
}

// Runner executes runs strictly one at a time on a single goroutine, so
// each run owns its mutable state without synchronization.
type Runner struct {
	name    string
	handler Handler

	bufferSize int
	logger     *zap.Logger

	runs   chan Run
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	started     bool
	activeID    string
	abortActive context.CancelFunc
}

// New builds a runner with the provided handler.
func New(name string, handler Handler, cfg Config) *Runner {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 8
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Runner{
		name:       name,
		handler:    handler,
		bufferSize: cfg.BufferSize,
		logger:     cfg.Logger,
		runs:       make(chan Run, cfg.BufferSize),
	}
}

// Start begins consumption. Safe to call once.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop()
	r.started = true
	r.logger.Sugar().Infow("runner started", "runner", r.name)
}

// Stop cancels the active run, drains the loop and waits for it to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	r.logger.Sugar().Infow("runner stopped", "runner", r.name)
}

// Enqueue pushes a run onto the queue.
func (r *Runner) Enqueue(run Run) error {
	r.mu.Lock()
	ctx := r.ctx
	started := r.started
	r.mu.Unlock()

	if !started {
		return fmt.Errorf("runner %s not started", r.name)
	}
	if run.Enqueued.IsZero() {
		run.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("runner %s stopped: %w", r.name, ctx.Err())
	case r.runs <- run:
		return nil
	}
}

// Cancel aborts the run with the given id if it is currently executing.
// Pipeline stages observe the cancellation at their next checkpoint.
func (r *Runner) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeID != id || r.abortActive == nil {
		return false
	}
	r.abortActive()
	return true
}

func (r *Runner) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case run := <-r.runs:
			r.execute(run)
		}
	}
}

func (r *Runner) execute(run Run) {
	runCtx, abort := context.WithCancel(r.ctx)
	defer abort()

	r.mu.Lock()
	r.activeID = run.ID
	r.abortActive = abort
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.activeID = ""
		r.abortActive = nil
		r.mu.Unlock()
	}()

	started := time.Now()
	if err := r.handler(runCtx, run); err != nil {
		r.logger.Sugar().Errorw("run failed", "runner", r.name, "run_id", run.ID, "duration", time.Since(started), "error", err)
		return
	}
	r.logger.Sugar().Infow("run completed", "runner", r.name, "run_id", run.ID, "duration", time.Since(started))
}
