package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bibliotheca/gateway/application/service"
	"github.com/bibliotheca/gateway/domain/repository"
	"github.com/bibliotheca/gateway/domain/upload"
	"github.com/bibliotheca/gateway/infrastructure/persistence"
	"github.com/bibliotheca/gateway/internal/database"
	"github.com/bibliotheca/gateway/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadStore_SaveAndFindOne(t *testing.T) {
	store := persistence.NewUploadStore(testdb.New(t))
	ctx := context.Background()

	saved, err := store.Save(ctx, upload.NewJob("docs", "v1", "/tmp/staged.zip"))
	require.NoError(t, err)
	require.NotZero(t, saved.ID())

	found, err := store.FindOne(ctx, repository.WithID(saved.ID()))
	require.NoError(t, err)
	assert.Equal(t, "docs", found.ProjectID())
	assert.Equal(t, "v1", found.Branch())
	assert.Equal(t, "/tmp/staged.zip", found.StagedPath())
	assert.Equal(t, upload.StatusPending, found.Status())
	assert.WithinDuration(t, saved.CreatedAt(), found.CreatedAt(), time.Second)
}

func TestUploadStore_FindOne_NotFound(t *testing.T) {
	store := persistence.NewUploadStore(testdb.New(t))

	_, err := store.FindOne(context.Background(), repository.WithID(42))

	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestUploadStore_SavesResult(t *testing.T) {
	store := persistence.NewUploadStore(testdb.New(t))
	ctx := context.Background()

	job, err := store.Save(ctx, upload.NewJob("docs", "v1", "/tmp/a.zip"))
	require.NoError(t, err)

	_, err = store.Save(ctx, job.WithResult(upload.Failed(upload.StepUpload, errors.New("storage unavailable"))))
	require.NoError(t, err)

	found, err := store.FindOne(ctx, repository.WithID(job.ID()))
	require.NoError(t, err)
	assert.Equal(t, upload.StatusFailed, found.Status())
	assert.Equal(t, upload.StepUpload, found.FailedStep())
	assert.Equal(t, "storage unavailable", found.Reason())
}

func TestUploadStore_Find_Filters(t *testing.T) {
	store := persistence.NewUploadStore(testdb.New(t))
	ctx := context.Background()

	a, err := store.Save(ctx, upload.NewJob("docs", "v1", "/tmp/a.zip"))
	require.NoError(t, err)
	_, err = store.Save(ctx, upload.NewJob("api", "v1", "/tmp/b.zip"))
	require.NoError(t, err)
	_, err = store.Save(ctx, a.WithResult(upload.Succeeded(false, true)))
	require.NoError(t, err)

	docs, err := store.Find(ctx, upload.WithProjectID("docs"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, upload.StatusSucceeded, docs[0].Status())

	pending, err := store.Find(ctx, upload.WithStatus(upload.StatusPending))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "api", pending[0].ProjectID())
}

func TestUploadStore_Claim(t *testing.T) {
	store := persistence.NewUploadStore(testdb.New(t))
	ctx := context.Background()

	first, err := store.Save(ctx, upload.NewJob("docs", "v1", "/tmp/a.zip"))
	require.NoError(t, err)
	second, err := store.Save(ctx, upload.NewJob("docs", "v2", "/tmp/b.zip"))
	require.NoError(t, err)

	claimed, found, err := store.Claim(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID(), claimed.ID())
	assert.Equal(t, upload.StatusRunning, claimed.Status())

	stored, err := store.FindOne(ctx, repository.WithID(first.ID()))
	require.NoError(t, err)
	assert.Equal(t, upload.StatusRunning, stored.Status())

	claimed, found, err = store.Claim(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.ID(), claimed.ID())

	_, found, err = store.Claim(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

// cancelledUpload blocks until its context ends, then fails the upload.
type cancelledUpload struct {
	started chan struct{}
}

func (c *cancelledUpload) Run(ctx context.Context, _, _, _ string) upload.Result {
	close(c.started)
	<-ctx.Done()
	return upload.Failed(upload.StepUpload, ctx.Err())
}

func TestUploadStore_WorkerStopLeavesNoRunningJob(t *testing.T) {
	store := persistence.NewUploadStore(testdb.New(t))
	ctx := context.Background()

	job, err := store.Save(ctx, upload.NewJob("docs", "v1", "/tmp/a.zip"))
	require.NoError(t, err)

	runner := &cancelledUpload{started: make(chan struct{})}
	w := service.NewWorker(store, runner, nil).WithPollPeriod(10 * time.Millisecond)
	w.Start(ctx)
	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("upload never started")
	}
	w.Stop()

	found, err := store.FindOne(ctx, repository.WithID(job.ID()))
	require.NoError(t, err)
	assert.Equal(t, upload.StatusFailed, found.Status())
}

func TestUploadStore_WorkerFailsStaleRunningJobs(t *testing.T) {
	store := persistence.NewUploadStore(testdb.New(t))
	ctx := context.Background()

	_, err := store.Save(ctx, upload.NewJob("docs", "v1", "/tmp/a.zip"))
	require.NoError(t, err)
	stale, found, err := store.Claim(ctx)
	require.NoError(t, err)
	require.True(t, found)

	n, err := service.NewWorker(store, &cancelledUpload{started: make(chan struct{})}, nil).FailInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.FindOne(ctx, repository.WithID(stale.ID()))
	require.NoError(t, err)
	assert.Equal(t, upload.StatusFailed, got.Status())
	assert.Equal(t, service.ErrInterrupted.Error(), got.Reason())
}
