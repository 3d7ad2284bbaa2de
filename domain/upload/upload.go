// Package upload models branch uploads: replacing a published branch with a
// staged archive and refreshing the search index.
package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/bibliotheca/gateway/domain/repository"
)

// Status is the lifecycle state of an upload job.
type Status string

// Status values.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Step names the stage of an upload.
type Step string

// Step values, in execution order.
const (
	StepListBranches Step = "list_branches"
	StepDeleteBranch Step = "delete_branch"
	StepUpload       Step = "upload"
	StepGetProject   Step = "get_project"
	StepRefreshIndex Step = "refresh_index"
	StepCleanup      Step = "cleanup"
)

// Result is the explicit outcome of running an upload.
type Result struct {
	status         Status
	failedStep     Step
	reason         string
	branchReplaced bool
	indexRefreshed bool
}

// Succeeded creates a successful Result.
func Succeeded(branchReplaced, indexRefreshed bool) Result {
	return Result{
		status:         StatusSucceeded,
		branchReplaced: branchReplaced,
		indexRefreshed: indexRefreshed,
	}
}

// Failed creates a failed Result for the given step.
func Failed(step Step, err error) Result {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return Result{status: StatusFailed, failedStep: step, reason: reason}
}

// Status returns the final status.
func (r Result) Status() Status { return r.status }

// OK reports whether the upload succeeded.
func (r Result) OK() bool { return r.status == StatusSucceeded }

// FailedStep returns the step that failed, empty on success.
func (r Result) FailedStep() Step { return r.failedStep }

// Reason returns the failure reason, empty on success.
func (r Result) Reason() string { return r.reason }

// BranchReplaced reports whether an existing branch was deleted first.
func (r Result) BranchReplaced() bool { return r.branchReplaced }

// IndexRefreshed reports whether the search index was refreshed.
func (r Result) IndexRefreshed() bool { return r.indexRefreshed }

// String returns a readable representation.
func (r Result) String() string {
	if r.OK() {
		return "succeeded"
	}
	return fmt.Sprintf("failed at %s: %s", r.failedStep, r.reason)
}

// Job is a persisted upload request.
type Job struct {
	id         int64
	projectID  string
	branch     string
	stagedPath string
	status     Status
	failedStep Step
	reason     string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewJob creates a pending Job for a staged archive.
func NewJob(projectID, branch, stagedPath string) Job {
	now := time.Now()
	return Job{
		projectID:  projectID,
		branch:     branch,
		stagedPath: stagedPath,
		status:     StatusPending,
		createdAt:  now,
		updatedAt:  now,
	}
}

// ReconstructJob recreates a Job from persistence.
func ReconstructJob(
	id int64,
	projectID, branch, stagedPath string,
	status Status,
	failedStep Step,
	reason string,
	createdAt, updatedAt time.Time,
) Job {
	return Job{
		id:         id,
		projectID:  projectID,
		branch:     branch,
		stagedPath: stagedPath,
		status:     status,
		failedStep: failedStep,
		reason:     reason,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ID returns the job identifier.
func (j Job) ID() int64 { return j.id }

// ProjectID returns the target project.
func (j Job) ProjectID() string { return j.projectID }

// Branch returns the target branch.
func (j Job) Branch() string { return j.branch }

// StagedPath returns the path of the staged archive.
func (j Job) StagedPath() string { return j.stagedPath }

// Status returns the job status.
func (j Job) Status() Status { return j.status }

// FailedStep returns the step that failed, if any.
func (j Job) FailedStep() Step { return j.failedStep }

// Reason returns the failure reason, if any.
func (j Job) Reason() string { return j.reason }

// CreatedAt returns the creation time.
func (j Job) CreatedAt() time.Time { return j.createdAt }

// UpdatedAt returns the last update time.
func (j Job) UpdatedAt() time.Time { return j.updatedAt }

// Running returns a copy of the job marked as running.
func (j Job) Running() Job {
	j.status = StatusRunning
	j.updatedAt = time.Now()
	return j
}

// WithResult returns a copy of the job carrying the outcome of a run.
func (j Job) WithResult(r Result) Job {
	j.status = r.status
	j.failedStep = r.failedStep
	j.reason = r.reason
	j.updatedAt = time.Now()
	return j
}

// WithID returns a copy of the job with the given identifier.
func (j Job) WithID(id int64) Job {
	j.id = id
	return j
}

// JobStore persists upload jobs.
type JobStore interface {
	Save(ctx context.Context, job Job) (Job, error)
	FindOne(ctx context.Context, options ...repository.Option) (Job, error)
	Find(ctx context.Context, options ...repository.Option) ([]Job, error)
	Count(ctx context.Context, options ...repository.Option) (int64, error)
	// Claim atomically marks the oldest pending job as running.
	Claim(ctx context.Context) (Job, bool, error)
}

// WithStatus filters by the "status" column.
func WithStatus(s Status) repository.Option {
	return repository.WithCondition("status", string(s))
}

// WithProjectID filters by the "project_id" column.
func WithProjectID(id string) repository.Option {
	return repository.WithCondition("project_id", id)
}
