package persistence

import "time"

// UploadJobModel represents an upload job in the database.
type UploadJobModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID  string    `gorm:"column:project_id;size:255;not null;index"`
	Branch     string    `gorm:"column:branch;size:255;not null"`
	StagedPath string    `gorm:"column:staged_path;not null"`
	Status     string    `gorm:"column:status;size:32;not null;index"`
	FailedStep string    `gorm:"column:failed_step;size:32"`
	Reason     string    `gorm:"column:reason;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (UploadJobModel) TableName() string { return "upload_jobs" }
