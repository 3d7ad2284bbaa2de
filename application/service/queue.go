package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibliotheca/gateway/domain/repository"
	"github.com/bibliotheca/gateway/domain/upload"
)

// UploadListParams configures upload job listing.
type UploadListParams struct {
	ProjectID string
	Status    upload.Status
	Limit     int
	Offset    int
}

// Queue records upload jobs for the worker and answers status queries.
type Queue struct {
	store  upload.JobStore
	logger *slog.Logger
}

// NewQueue creates a new queue service.
func NewQueue(store upload.JobStore, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		store:  store,
		logger: logger,
	}
}

// Enqueue records a pending upload of a staged archive.
func (s *Queue) Enqueue(ctx context.Context, projectID, branch, stagedPath string) (upload.Job, error) {
	job, err := s.store.Save(ctx, upload.NewJob(projectID, branch, stagedPath))
	if err != nil {
		return upload.Job{}, fmt.Errorf("enqueue upload: %w", err)
	}

	s.logger.Debug("upload enqueued",
		slog.Int64("job_id", job.ID()),
		slog.String("project_id", projectID),
		slog.String("branch", branch),
	)
	return job, nil
}

// Get returns an upload job by ID.
func (s *Queue) Get(ctx context.Context, id int64) (upload.Job, error) {
	return s.store.FindOne(ctx, repository.WithID(id))
}

// List returns upload jobs, newest first.
func (s *Queue) List(ctx context.Context, params *UploadListParams) ([]upload.Job, error) {
	options := append(filterOptions(params), repository.WithOrderDesc("id"))
	if params != nil && params.Limit > 0 {
		options = append(options, repository.WithLimit(params.Limit), repository.WithOffset(params.Offset))
	}
	return s.store.Find(ctx, options...)
}

// Count returns the number of upload jobs matching the filters.
func (s *Queue) Count(ctx context.Context, params *UploadListParams) (int64, error) {
	return s.store.Count(ctx, filterOptions(params)...)
}

func filterOptions(params *UploadListParams) []repository.Option {
	var options []repository.Option
	if params == nil {
		return options
	}
	if params.ProjectID != "" {
		options = append(options, upload.WithProjectID(params.ProjectID))
	}
	if params.Status != "" {
		options = append(options, upload.WithStatus(params.Status))
	}
	return options
}
