package api_test

import (
	"context"
	"io"
	"testing"

	"github.com/bibliotheca/gateway"
	"github.com/bibliotheca/gateway/domain/branch"
	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/project"
	"github.com/bibliotheca/gateway/domain/render"
	"github.com/bibliotheca/gateway/domain/toc"
)

type stubProjects struct{}

func (stubProjects) Get(_ context.Context, id string) (project.Project, error) {
	if id != "Docs" {
		return project.Project{}, project.ErrNotFound
	}
	return project.New("Docs", "Documentation", "Guides", false), nil
}

type stubChapters struct{}

func (stubChapters) Tree(context.Context, string, string) ([]toc.Chapter, error) {
	return []toc.Chapter{toc.NewChapter("Setup", "guide/setup", nil)}, nil
}

type stubDocuments struct{}

func (stubDocuments) Get(_ context.Context, _, _, key string) ([]byte, error) {
	if key != "guide:setup" {
		return nil, document.ErrNotFound
	}
	return []byte("# Setup"), nil
}

func (stubDocuments) Upload(_ context.Context, _, _ string, archive io.Reader) error {
	_, err := io.Copy(io.Discard, archive)
	return err
}

type stubRenderer struct{}

func (stubRenderer) Render(context.Context, string) (render.Result, error) {
	return render.Success([]byte("%PDF-1.7")), nil
}

type stubBranches struct{}

func (stubBranches) List(context.Context, string) ([]branch.Branch, error) { return nil, nil }
func (stubBranches) Delete(context.Context, string, string) error          { return nil }

type stubIndex struct{}

func (stubIndex) Refresh(context.Context, string, string) error { return nil }

// newTestClient builds a client over in-memory collaborators with uploads
// enabled and the worker off.
func newTestClient(t *testing.T, extra ...gateway.Option) *gateway.Client {
	t.Helper()
	opts := []gateway.Option{
		gateway.WithProjectDirectory(stubProjects{}),
		gateway.WithTableOfContents(stubChapters{}),
		gateway.WithDocumentStore(stubDocuments{}),
		gateway.WithRenderer(stubRenderer{}),
		gateway.WithBranchRegistry(stubBranches{}),
		gateway.WithSearchIndex(stubIndex{}),
		gateway.WithDatabaseURL("sqlite:///:memory:"),
		gateway.WithDataDir(t.TempDir()),
		gateway.WithoutWorker(),
	}
	client, err := gateway.New(append(opts, extra...)...)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
