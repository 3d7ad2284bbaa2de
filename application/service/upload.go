package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/bibliotheca/gateway/domain/branch"
	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/project"
	"github.com/bibliotheca/gateway/domain/search"
	"github.com/bibliotheca/gateway/domain/upload"
	"github.com/bibliotheca/gateway/infrastructure/metrics"
)

// Upload replaces a published branch with a staged archive.
type Upload struct {
	branches  branch.Registry
	documents document.Store
	projects  project.Directory
	index     search.Index
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// NewUpload creates a new Upload service.
func NewUpload(
	branches branch.Registry,
	documents document.Store,
	projects project.Directory,
	index search.Index,
	logger *slog.Logger,
) *Upload {
	if logger == nil {
		logger = slog.Default()
	}
	return &Upload{
		branches:  branches,
		documents: documents,
		projects:  projects,
		index:     index,
		recorder:  metrics.NoopRecorder{},
		logger:    logger,
	}
}

// WithRecorder sets the metrics recorder.
func (s *Upload) WithRecorder(r metrics.Recorder) *Upload {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Run uploads the staged archive at stagedPath as projectID/branchName.
//
// An existing branch of the same name is deleted first. The search index
// is refreshed unless the project is access-limited. The staged file is
// always removed. The outcome is returned, never swallowed.
func (s *Upload) Run(ctx context.Context, projectID, branchName, stagedPath string) upload.Result {
	logger := s.logger.With(
		slog.String("project_id", projectID),
		slog.String("branch", branchName),
	)

	result := s.run(ctx, logger, projectID, branchName, stagedPath)

	if err := os.Remove(stagedPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove staged file",
			slog.String("path", stagedPath),
			slog.String("error", err.Error()),
		)
		if result.OK() {
			result = upload.Failed(upload.StepCleanup, err)
		}
	}

	s.recorder.IncUploadResult(result.OK())
	if result.OK() {
		logger.Info("upload completed",
			slog.Bool("branch_replaced", result.BranchReplaced()),
			slog.Bool("index_refreshed", result.IndexRefreshed()),
		)
	} else {
		logger.Error("upload failed",
			slog.String("step", string(result.FailedStep())),
			slog.String("reason", result.Reason()),
		)
	}
	return result
}

func (s *Upload) run(ctx context.Context, logger *slog.Logger, projectID, branchName, stagedPath string) upload.Result {
	logger.Info("listing branches")
	branches, err := s.branches.List(ctx, projectID)
	if err != nil {
		return upload.Failed(upload.StepListBranches, err)
	}

	replaced := false
	if branch.Contains(branches, branchName) {
		logger.Info("deleting existing branch")
		if err := s.branches.Delete(ctx, projectID, branchName); err != nil {
			return upload.Failed(upload.StepDeleteBranch, err)
		}
		replaced = true
	}

	logger.Info("uploading archive", slog.String("path", stagedPath))
	if err := s.uploadFile(ctx, projectID, branchName, stagedPath); err != nil {
		return upload.Failed(upload.StepUpload, err)
	}

	logger.Info("fetching project")
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return upload.Failed(upload.StepGetProject, err)
	}

	if p.AccessLimited() {
		logger.Info("project is access-limited, skipping search index refresh")
		return upload.Succeeded(replaced, false)
	}

	logger.Info("refreshing search index")
	if err := s.index.Refresh(ctx, projectID, branchName); err != nil {
		return upload.Failed(upload.StepRefreshIndex, err)
	}

	return upload.Succeeded(replaced, true)
}

func (s *Upload) uploadFile(ctx context.Context, projectID, branchName, stagedPath string) error {
	f, err := os.Open(stagedPath)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return s.documents.Upload(ctx, projectID, branchName, f)
}
