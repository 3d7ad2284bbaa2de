package persistence

import (
	"github.com/bibliotheca/gateway/domain/upload"
)

// UploadJobMapper maps between domain upload.Job and UploadJobModel.
type UploadJobMapper struct{}

// ToDomain converts an UploadJobModel to a domain Job.
func (m UploadJobMapper) ToDomain(e UploadJobModel) upload.Job {
	return upload.ReconstructJob(
		e.ID,
		e.ProjectID,
		e.Branch,
		e.StagedPath,
		upload.Status(e.Status),
		upload.Step(e.FailedStep),
		e.Reason,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain Job to an UploadJobModel.
func (m UploadJobMapper) ToModel(j upload.Job) UploadJobModel {
	return UploadJobModel{
		ID:         j.ID(),
		ProjectID:  j.ProjectID(),
		Branch:     j.Branch(),
		StagedPath: j.StagedPath(),
		Status:     string(j.Status()),
		FailedStep: string(j.FailedStep()),
		Reason:     j.Reason(),
		CreatedAt:  j.CreatedAt(),
		UpdatedAt:  j.UpdatedAt(),
	}
}
