package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bibliotheca/gateway/domain/upload"
)

// UploadRunner executes a single upload.
type UploadRunner interface {
	Run(ctx context.Context, projectID, branch, stagedPath string) upload.Result
}

// Worker processes pending upload jobs.
type Worker struct {
	store      upload.JobStore
	runner     UploadRunner
	logger     *slog.Logger
	pollPeriod time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWorker creates a new upload worker.
func NewWorker(store upload.JobStore, runner UploadRunner, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:      store,
		runner:     runner,
		logger:     logger,
		pollPeriod: time.Second,
	}
}

// WithPollPeriod sets the poll period for checking new jobs.
func (w *Worker) WithPollPeriod(d time.Duration) *Worker {
	if d > 0 {
		w.pollPeriod = d
	}
	return w
}

// ErrInterrupted is the failure reason recorded for jobs that were running
// when a previous worker stopped. Their staged archive may already be gone,
// so they are failed rather than retried.
var ErrInterrupted = errors.New("upload interrupted before completion")

// Start fails jobs left running by a previous worker, then processes jobs
// in a goroutine until Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		if _, err := w.FailInterrupted(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("failed to recover interrupted uploads", slog.String("error", err.Error()))
		}
		w.run(ctx)
	}()

	w.logger.Info("upload worker started")
}

// Stop shuts down the worker, waiting for the current job to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.logger.Info("upload worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessOne(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("error processing upload",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// ProcessOne claims and runs a single pending job.
// It reports whether a job was found.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	job, found, err := w.store.Claim(ctx)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return true, w.process(ctx, job)
}

func (w *Worker) process(ctx context.Context, job upload.Job) error {
	start := time.Now()
	w.logger.Info("processing upload",
		slog.Int64("job_id", job.ID()),
		slog.String("project_id", job.ProjectID()),
		slog.String("branch", job.Branch()),
	)

	result := w.executeWithRecovery(ctx, job)

	// Record the result even when stopping.
	if _, err := w.store.Save(context.WithoutCancel(ctx), job.WithResult(result)); err != nil {
		return fmt.Errorf("save upload job %d: %w", job.ID(), err)
	}

	w.logger.Info("upload job finished",
		slog.Int64("job_id", job.ID()),
		slog.String("result", result.String()),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// FailInterrupted marks every running job as failed with ErrInterrupted and
// returns how many were updated. Only one worker may use a store at a time.
func (w *Worker) FailInterrupted(ctx context.Context) (int, error) {
	jobs, err := w.store.Find(ctx, upload.WithStatus(upload.StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("find running upload jobs: %w", err)
	}

	failed := 0
	for _, job := range jobs {
		if job.Status() != upload.StatusRunning {
			continue
		}
		result := upload.Failed(upload.StepUpload, ErrInterrupted)
		if _, err := w.store.Save(ctx, job.WithResult(result)); err != nil {
			return failed, fmt.Errorf("save upload job %d: %w", job.ID(), err)
		}
		w.logger.Warn("failed interrupted upload",
			slog.Int64("job_id", job.ID()),
			slog.String("project_id", job.ProjectID()),
			slog.String("branch", job.Branch()),
		)
		failed++
	}
	return failed, nil
}

func (w *Worker) executeWithRecovery(ctx context.Context, job upload.Job) (result upload.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = upload.Failed(upload.StepUpload, fmt.Errorf("upload panicked: %v", r))
		}
	}()
	return w.runner.Run(ctx, job.ProjectID(), job.Branch(), job.StagedPath())
}
