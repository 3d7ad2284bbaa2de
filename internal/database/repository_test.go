package database

import (
	"context"
	"errors"
	"testing"

	"github.com/bibliotheca/gateway/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	id    int64
	name  string
	state string
}

type testItemModel struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`
	Name  string `gorm:"not null"`
	State string `gorm:"index"`
}

func (testItemModel) TableName() string { return "test_items" }

type testItemMapper struct{}

func (testItemMapper) ToDomain(e testItemModel) testItem {
	return testItem{id: e.ID, name: e.Name, state: e.State}
}

func (testItemMapper) ToModel(d testItem) testItemModel {
	return testItemModel{ID: d.id, Name: d.name, State: d.state}
}

func newItemRepository(t *testing.T) Repository[testItem, testItemModel] {
	t.Helper()
	db := newTestDatabase(t)
	require.NoError(t, db.AutoMigrate(&testItemModel{}))
	return NewRepository[testItem, testItemModel](db, testItemMapper{}, "test item")
}

func TestRepository_SaveAssignsID(t *testing.T) {
	repo := newItemRepository(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, testItem{name: "a", state: "pending"})
	require.NoError(t, err)
	assert.NotZero(t, saved.id)

	saved.state = "done"
	updated, err := repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.id, updated.id)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_FindWithOptions(t *testing.T) {
	repo := newItemRepository(t)
	ctx := context.Background()

	for _, item := range []testItem{
		{name: "a", state: "pending"},
		{name: "b", state: "done"},
		{name: "c", state: "pending"},
	} {
		_, err := repo.Save(ctx, item)
		require.NoError(t, err)
	}

	pending, err := repo.Find(ctx,
		repository.WithCondition("state", "pending"),
		repository.WithOrderDesc("id"),
	)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "c", pending[0].name)
	assert.Equal(t, "a", pending[1].name)

	page, err := repo.Find(ctx, repository.WithOrderAsc("id"), repository.WithLimit(1), repository.WithOffset(1))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].name)

	some, err := repo.Find(ctx, repository.WithConditionIn("name", []string{"a", "b"}))
	require.NoError(t, err)
	assert.Len(t, some, 2)

	count, err := repo.Count(ctx, repository.WithCondition("state", "done"), repository.WithLimit(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_FindOne(t *testing.T) {
	repo := newItemRepository(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, testItem{name: "a", state: "pending"})
	require.NoError(t, err)

	found, err := repo.FindOne(ctx, repository.WithID(saved.id))
	require.NoError(t, err)
	assert.Equal(t, "a", found.name)

	_, err = repo.FindOne(ctx, repository.WithID(saved.id+100))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRepository_DeleteBy(t *testing.T) {
	repo := newItemRepository(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, testItem{name: "a", state: "pending"})
	require.NoError(t, err)
	_, err = repo.Save(ctx, testItem{name: "b", state: "done"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBy(ctx, repository.WithCondition("state", "done")))

	remaining, err := repo.Find(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "a", remaining[0].name)
}
