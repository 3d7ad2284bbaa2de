package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibliotheca/gateway/domain/repository"
	"gorm.io/gorm"
)

// ErrNotFound indicates the requested entity was not found.
var ErrNotFound = errors.New("entity not found")

// EntityMapper maps between domain values and database models.
type EntityMapper[D any, E any] interface {
	ToDomain(entity E) D
	ToModel(domain D) E
}

// Repository provides generic persistence operations using
// repository.Option-based queries.
type Repository[D any, E any] struct {
	db     Database
	mapper EntityMapper[D, E]
	label  string
}

// NewRepository creates a new Repository.
func NewRepository[D any, E any](db Database, mapper EntityMapper[D, E], label string) Repository[D, E] {
	return Repository[D, E]{
		db:     db,
		mapper: mapper,
		label:  label,
	}
}

// Find retrieves entities matching the given options.
func (r Repository[D, E]) Find(ctx context.Context, options ...repository.Option) ([]D, error) {
	return r.FindIn(r.db.Session(ctx), options...)
}

// FindIn is Find on an existing session, such as a transaction.
func (r Repository[D, E]) FindIn(db *gorm.DB, options ...repository.Option) ([]D, error) {
	var entities []E
	if err := ApplyOptions(db.Model(new(E)), options...).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", r.label, err)
	}

	domains := make([]D, len(entities))
	for i, entity := range entities {
		domains[i] = r.mapper.ToDomain(entity)
	}
	return domains, nil
}

// FindOne retrieves a single entity matching the given options.
func (r Repository[D, E]) FindOne(ctx context.Context, options ...repository.Option) (D, error) {
	var (
		entity E
		zero   D
	)
	err := ApplyOptions(r.db.Session(ctx), options...).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, r.label)
	}
	if err != nil {
		return zero, fmt.Errorf("find one %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(entity), nil
}

// Count returns the number of entities matching the given options.
func (r Repository[D, E]) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	var count int64
	if err := ApplyConditions(r.db.Session(ctx).Model(new(E)), options...).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", r.label, err)
	}
	return count, nil
}

// Save inserts or updates an entity and returns it as stored.
func (r Repository[D, E]) Save(ctx context.Context, domain D) (D, error) {
	return r.SaveIn(r.db.Session(ctx), domain)
}

// SaveIn is Save on an existing session, such as a transaction.
func (r Repository[D, E]) SaveIn(db *gorm.DB, domain D) (D, error) {
	entity := r.mapper.ToModel(domain)
	if err := db.Save(&entity).Error; err != nil {
		var zero D
		return zero, fmt.Errorf("save %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(entity), nil
}

// DeleteBy removes entities matching the given options.
func (r Repository[D, E]) DeleteBy(ctx context.Context, options ...repository.Option) error {
	if err := ApplyConditions(r.db.Session(ctx), options...).Delete(new(E)).Error; err != nil {
		return fmt.Errorf("delete %s: %w", r.label, err)
	}
	return nil
}

// Database returns the underlying database.
func (r Repository[D, E]) Database() Database {
	return r.db
}
