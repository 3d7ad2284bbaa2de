package persistence

import (
	"context"
	"fmt"

	"github.com/bibliotheca/gateway/domain/repository"
	"github.com/bibliotheca/gateway/domain/upload"
	"github.com/bibliotheca/gateway/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UploadStore implements upload.JobStore using GORM.
type UploadStore struct {
	database.Repository[upload.Job, UploadJobModel]
}

// NewUploadStore creates a new UploadStore.
func NewUploadStore(db database.Database) UploadStore {
	return UploadStore{
		Repository: database.NewRepository[upload.Job, UploadJobModel](db, UploadJobMapper{}, "upload job"),
	}
}

// Claim marks the oldest pending job as running and returns it. The select
// and update share a transaction; on PostgreSQL the row is locked so that
// concurrent workers skip it.
func (s UploadStore) Claim(ctx context.Context) (upload.Job, bool, error) {
	db := s.Database()

	type claim struct {
		job   upload.Job
		found bool
	}

	c, err := database.WithTransactionResult(ctx, db, func(tx *gorm.DB) (claim, error) {
		query := tx
		if db.IsPostgres() {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		pending, err := s.FindIn(query,
			upload.WithStatus(upload.StatusPending),
			repository.WithOrderAsc("id"),
			repository.WithLimit(1),
		)
		if err != nil {
			return claim{}, err
		}
		if len(pending) == 0 {
			return claim{}, nil
		}

		running, err := s.SaveIn(tx, pending[0].Running())
		if err != nil {
			return claim{}, err
		}
		return claim{job: running, found: true}, nil
	})
	if err != nil {
		return upload.Job{}, false, fmt.Errorf("claim upload job: %w", err)
	}
	return c.job, c.found, nil
}
