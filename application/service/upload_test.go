package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bibliotheca/gateway/domain/branch"
	"github.com/bibliotheca/gateway/domain/project"
	"github.com/bibliotheca/gateway/domain/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	branches  []branch.Branch
	listErr   error
	deleteErr error
	deleted   []string
}

func (f *fakeRegistry) List(_ context.Context, _ string) ([]branch.Branch, error) {
	return f.branches, f.listErr
}

func (f *fakeRegistry) Delete(_ context.Context, _, name string) error {
	f.deleted = append(f.deleted, name)
	return f.deleteErr
}

type fakeStore struct {
	uploaded  map[string][]byte
	uploadErr error
}

func (f *fakeStore) Get(_ context.Context, _, _, _ string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Upload(_ context.Context, projectID, branchName string, archive io.Reader) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(archive)
	if err != nil {
		return err
	}
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	f.uploaded[projectID+"/"+branchName] = data
	return nil
}

type fakeIndex struct {
	refreshed []string
	err       error
}

func (f *fakeIndex) Refresh(_ context.Context, projectID, branchName string) error {
	f.refreshed = append(f.refreshed, projectID+"/"+branchName)
	return f.err
}

type uploadFixture struct {
	registry  *fakeRegistry
	store     *fakeStore
	directory *fakeDirectory
	index     *fakeIndex
	service   *Upload
	staged    string
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()

	staged := filepath.Join(t.TempDir(), "docs.zip")
	require.NoError(t, os.WriteFile(staged, []byte("PK archive"), 0o600))

	f := &uploadFixture{
		registry: &fakeRegistry{branches: []branch.Branch{branch.New("main")}},
		store:    &fakeStore{},
		directory: &fakeDirectory{projects: map[string]project.Project{
			"Docs":   project.New("Docs", "Docs", "", false),
			"Secret": project.New("Secret", "Secret", "", true),
		}},
		index:  &fakeIndex{},
		staged: staged,
	}
	f.service = NewUpload(f.registry, f.store, f.directory, f.index, nil)
	return f
}

func TestUpload_NewBranch(t *testing.T) {
	f := newUploadFixture(t)

	result := f.service.Run(context.Background(), "Docs", "v1", f.staged)

	assert.True(t, result.OK())
	assert.False(t, result.BranchReplaced())
	assert.True(t, result.IndexRefreshed())
	assert.Empty(t, f.registry.deleted)
	assert.Equal(t, []byte("PK archive"), f.store.uploaded["Docs/v1"])
	assert.Equal(t, []string{"Docs/v1"}, f.index.refreshed)
	assert.NoFileExists(t, f.staged)
}

func TestUpload_ReplacesExistingBranch(t *testing.T) {
	f := newUploadFixture(t)

	result := f.service.Run(context.Background(), "Docs", "main", f.staged)

	assert.True(t, result.OK())
	assert.True(t, result.BranchReplaced())
	assert.Equal(t, []string{"main"}, f.registry.deleted)
}

func TestUpload_AccessLimitedSkipsIndex(t *testing.T) {
	f := newUploadFixture(t)

	result := f.service.Run(context.Background(), "Secret", "v1", f.staged)

	assert.True(t, result.OK())
	assert.False(t, result.IndexRefreshed())
	assert.Empty(t, f.index.refreshed)
	assert.NoFileExists(t, f.staged)
}

func TestUpload_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *uploadFixture)
		step  upload.Step
	}{
		{
			name:  "list branches",
			setup: func(f *uploadFixture) { f.registry.listErr = errors.New("registry down") },
			step:  upload.StepListBranches,
		},
		{
			name: "delete branch",
			setup: func(f *uploadFixture) {
				f.registry.branches = []branch.Branch{branch.New("v1")}
				f.registry.deleteErr = errors.New("locked")
			},
			step: upload.StepDeleteBranch,
		},
		{
			name:  "upload",
			setup: func(f *uploadFixture) { f.store.uploadErr = errors.New("storage full") },
			step:  upload.StepUpload,
		},
		{
			name:  "get project",
			setup: func(f *uploadFixture) { f.directory.err = errors.New("directory down") },
			step:  upload.StepGetProject,
		},
		{
			name:  "refresh index",
			setup: func(f *uploadFixture) { f.index.err = errors.New("index busy") },
			step:  upload.StepRefreshIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUploadFixture(t)
			tt.setup(f)

			result := f.service.Run(context.Background(), "Docs", "v1", f.staged)

			assert.False(t, result.OK())
			assert.Equal(t, tt.step, result.FailedStep())
			assert.NotEmpty(t, result.Reason())
			assert.NoFileExists(t, f.staged)
		})
	}
}

func TestUpload_MissingStagedFile(t *testing.T) {
	f := newUploadFixture(t)
	missing := filepath.Join(t.TempDir(), "gone.zip")

	result := f.service.Run(context.Background(), "Docs", "v1", missing)

	assert.False(t, result.OK())
	assert.Equal(t, upload.StepUpload, result.FailedStep())
	assert.Empty(t, f.index.refreshed)
}
