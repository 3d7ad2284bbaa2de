package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bibliotheca/gateway/domain/repository"
	"github.com/bibliotheca/gateway/domain/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryJobStore is an in-memory upload.JobStore.
type memoryJobStore struct {
	mu     sync.Mutex
	jobs   []upload.Job
	nextID int64
}

func (s *memoryJobStore) Save(ctx context.Context, job upload.Job) (upload.Job, error) {
	if err := ctx.Err(); err != nil {
		return upload.Job{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID() == 0 {
		s.nextID++
		job = job.WithID(s.nextID)
		s.jobs = append(s.jobs, job)
		return job, nil
	}
	for i, j := range s.jobs {
		if j.ID() == job.ID() {
			s.jobs[i] = job
		}
	}
	return job, nil
}

func (s *memoryJobStore) FindOne(_ context.Context, options ...repository.Option) (upload.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := repository.Build(options...)
	for _, c := range q.Conditions() {
		if c.Field() != "id" {
			continue
		}
		for _, j := range s.jobs {
			if j.ID() == c.Value() {
				return j, nil
			}
		}
	}
	return upload.Job{}, errors.New("not found")
}

func (s *memoryJobStore) Find(_ context.Context, _ ...repository.Option) ([]upload.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]upload.Job(nil), s.jobs...), nil
}

func (s *memoryJobStore) Count(_ context.Context, _ ...repository.Option) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.jobs)), nil
}

func (s *memoryJobStore) Claim(_ context.Context) (upload.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, j := range s.jobs {
		if j.Status() == upload.StatusPending {
			s.jobs[i] = j.Running()
			return s.jobs[i], true, nil
		}
	}
	return upload.Job{}, false, nil
}

// blockingRunner waits for cancellation and fails like an upload whose
// transport was cut.
type blockingRunner struct {
	started chan struct{}
}

func (b *blockingRunner) Run(ctx context.Context, _, _, _ string) upload.Result {
	close(b.started)
	<-ctx.Done()
	return upload.Failed(upload.StepUpload, ctx.Err())
}

type fakeRunner struct {
	mu     sync.Mutex
	result upload.Result
	panic  bool
	runs   []string
}

func (f *fakeRunner) Run(_ context.Context, projectID, branch, _ string) upload.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, projectID+"/"+branch)
	if f.panic {
		panic("boom")
	}
	return f.result
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

func TestWorker_ProcessOne_Empty(t *testing.T) {
	w := NewWorker(&memoryJobStore{}, &fakeRunner{}, nil)

	found, err := w.ProcessOne(context.Background())

	require.NoError(t, err)
	assert.False(t, found)
}

func TestWorker_ProcessOne_RecordsResult(t *testing.T) {
	ctx := context.Background()
	store := &memoryJobStore{}
	runner := &fakeRunner{result: upload.Failed(upload.StepRefreshIndex, errors.New("index busy"))}
	queue := NewQueue(store, nil)

	job, err := queue.Enqueue(ctx, "Docs", "v1", "/tmp/x.zip")
	require.NoError(t, err)

	found, err := NewWorker(store, runner, nil).ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, found)

	got, err := queue.Get(ctx, job.ID())
	require.NoError(t, err)
	assert.Equal(t, upload.StatusFailed, got.Status())
	assert.Equal(t, upload.StepRefreshIndex, got.FailedStep())
	assert.Equal(t, "index busy", got.Reason())
	assert.Equal(t, []string{"Docs/v1"}, runner.runs)
}

func TestWorker_RecoversFromPanic(t *testing.T) {
	ctx := context.Background()
	store := &memoryJobStore{}
	queue := NewQueue(store, nil)
	job, err := queue.Enqueue(ctx, "Docs", "v1", "/tmp/x.zip")
	require.NoError(t, err)

	_, err = NewWorker(store, &fakeRunner{panic: true}, nil).ProcessOne(ctx)
	require.NoError(t, err)

	got, err := queue.Get(ctx, job.ID())
	require.NoError(t, err)
	assert.Equal(t, upload.StatusFailed, got.Status())
	assert.Contains(t, got.Reason(), "panicked")
}

func TestWorker_StartStop(t *testing.T) {
	ctx := context.Background()
	store := &memoryJobStore{}
	runner := &fakeRunner{result: upload.Succeeded(false, true)}
	_, err := NewQueue(store, nil).Enqueue(ctx, "Docs", "v1", "/tmp/x.zip")
	require.NoError(t, err)

	w := NewWorker(store, runner, nil).WithPollPeriod(10 * time.Millisecond)
	w.Start(ctx)
	assert.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 10*time.Millisecond)
	w.Stop()

	jobs, err := store.Find(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, upload.StatusSucceeded, jobs[0].Status())
}

func TestWorker_StopRecordsResultOfCancelledRun(t *testing.T) {
	ctx := context.Background()
	store := &memoryJobStore{}
	queue := NewQueue(store, nil)
	job, err := queue.Enqueue(ctx, "Docs", "v1", "/tmp/x.zip")
	require.NoError(t, err)

	runner := &blockingRunner{started: make(chan struct{})}
	w := NewWorker(store, runner, nil).WithPollPeriod(10 * time.Millisecond)
	w.Start(ctx)

	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatal("upload never started")
	}
	w.Stop()

	got, err := queue.Get(ctx, job.ID())
	require.NoError(t, err)
	assert.Equal(t, upload.StatusFailed, got.Status())
	assert.Equal(t, upload.StepUpload, got.FailedStep())
	assert.Contains(t, got.Reason(), "context canceled")
}

func TestWorker_FailInterrupted(t *testing.T) {
	ctx := context.Background()
	store := &memoryJobStore{}
	queue := NewQueue(store, nil)

	stale, err := queue.Enqueue(ctx, "Docs", "v1", "/tmp/a.zip")
	require.NoError(t, err)
	_, _, err = store.Claim(ctx)
	require.NoError(t, err)
	pending, err := queue.Enqueue(ctx, "Docs", "v2", "/tmp/b.zip")
	require.NoError(t, err)

	n, err := NewWorker(store, &fakeRunner{}, nil).FailInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := queue.Get(ctx, stale.ID())
	require.NoError(t, err)
	assert.Equal(t, upload.StatusFailed, got.Status())
	assert.Equal(t, ErrInterrupted.Error(), got.Reason())

	got, err = queue.Get(ctx, pending.ID())
	require.NoError(t, err)
	assert.Equal(t, upload.StatusPending, got.Status())
}

func TestWorker_StartFailsInterruptedBeforeClaiming(t *testing.T) {
	ctx := context.Background()
	store := &memoryJobStore{}
	queue := NewQueue(store, nil)

	stale, err := queue.Enqueue(ctx, "Docs", "v1", "/tmp/a.zip")
	require.NoError(t, err)
	_, _, err = store.Claim(ctx)
	require.NoError(t, err)

	runner := &fakeRunner{result: upload.Succeeded(false, true)}
	w := NewWorker(store, runner, nil).WithPollPeriod(10 * time.Millisecond)
	w.Start(ctx)
	assert.Eventually(t, func() bool {
		got, err := queue.Get(ctx, stale.ID())
		return err == nil && got.Status() == upload.StatusFailed
	}, time.Second, 10*time.Millisecond)
	w.Stop()

	assert.Zero(t, runner.count())
}
