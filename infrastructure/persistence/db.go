// Package persistence provides database storage implementations.
package persistence

import (
	"context"
	"fmt"

	"github.com/bibliotheca/gateway/internal/database"
)

// AutoMigrate runs GORM auto migration for all models.
func AutoMigrate(ctx context.Context, db database.Database) error {
	if err := db.AutoMigrate(&UploadJobModel{}); err != nil {
		return err
	}
	return postMigrate(ctx, db)
}

// postMigrate creates indexes GORM tags cannot express.
func postMigrate(ctx context.Context, db database.Database) error {
	// Claim scans pending jobs oldest first.
	stmt := `CREATE INDEX IF NOT EXISTS idx_upload_jobs_pending ON upload_jobs (id) WHERE status = 'pending'`
	if err := db.Session(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("create pending upload index: %w", err)
	}
	return nil
}
