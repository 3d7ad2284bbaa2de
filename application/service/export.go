package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/export"
	"github.com/bibliotheca/gateway/domain/project"
	"github.com/bibliotheca/gateway/domain/render"
	"github.com/bibliotheca/gateway/domain/toc"
	"github.com/bibliotheca/gateway/infrastructure/metrics"
)

// StateObserver is notified of every export state transition.
type StateObserver func(request export.Request, state export.State)

// Export turns a project branch into a rendered artifact.
// Each call runs one linear pipeline: project, chapter tree, assembly,
// rendering. Nothing is cached or retried.
type Export struct {
	projects  project.Directory
	chapters  toc.Provider
	documents document.Reader
	renderer  render.Client
	assembler *Assembler
	recorder  metrics.Recorder
	observer  StateObserver
	logger    *slog.Logger
}

// NewExport creates a new Export service.
func NewExport(
	projects project.Directory,
	chapters toc.Provider,
	documents document.Reader,
	renderer render.Client,
	logger *slog.Logger,
) *Export {
	if logger == nil {
		logger = slog.Default()
	}
	return &Export{
		projects:  projects,
		chapters:  chapters,
		documents: documents,
		renderer:  renderer,
		assembler: NewAssembler(),
		recorder:  metrics.NoopRecorder{},
		logger:    logger,
	}
}

// WithAssembler replaces the markup assembler.
func (s *Export) WithAssembler(a *Assembler) *Export {
	s.assembler = a
	return s
}

// WithRecorder sets the metrics recorder.
func (s *Export) WithRecorder(r metrics.Recorder) *Export {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithObserver sets a hook receiving state transitions.
func (s *Export) WithObserver(o StateObserver) *Export {
	s.observer = o
	return s
}

// run tracks the state of a single export call.
type run struct {
	request  export.Request
	state    export.State
	observer StateObserver
	logger   *slog.Logger
}

func (r *run) enter(state export.State) {
	r.state = state
	r.logger.Debug("export state", slog.String("state", state.String()))
	if r.observer != nil {
		r.observer(r.request, state)
	}
}

// Export produces the rendered bytes for a project branch.
//
// Errors are ErrProjectNotFound, *TocFetchError, *DocumentFetchError,
// *RenderFailure, or a wrapped transport error.
func (s *Export) Export(ctx context.Context, request export.Request) ([]byte, error) {
	start := time.Now()
	r := s.newRun(request)

	payload, err := s.export(ctx, r)
	s.recorder.ObserveExportDuration(time.Since(start))
	s.recorder.IncExportOutcome(outcome(err))

	if err != nil {
		r.enter(export.StateFailed)
		r.logger.Error("export failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return nil, err
	}

	r.enter(export.StateDone)
	r.logger.Info("export completed",
		slog.Int("bytes", len(payload)),
		slog.Duration("duration", time.Since(start)),
	)
	return payload, nil
}

// Markup runs the pipeline up to assembly and returns the intermediate
// text without rendering it.
func (s *Export) Markup(ctx context.Context, request export.Request) (string, error) {
	r := s.newRun(request)
	text, err := s.assemble(ctx, r)
	if err != nil {
		r.enter(export.StateFailed)
		return "", err
	}
	r.enter(export.StateDone)
	return text, nil
}

func (s *Export) newRun(request export.Request) *run {
	r := &run{
		request:  request,
		observer: s.observer,
		logger: s.logger.With(
			slog.String("project_id", request.ProjectID()),
			slog.String("branch", request.Branch()),
		),
	}
	r.enter(export.StateIdle)
	return r
}

func (s *Export) export(ctx context.Context, r *run) ([]byte, error) {
	text, err := s.assemble(ctx, r)
	if err != nil {
		return nil, err
	}

	r.enter(export.StateRendering)
	renderStart := time.Now()
	result, err := s.renderer.Render(ctx, text)
	s.recorder.ObserveRenderDuration(time.Since(renderStart))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if !result.OK() {
		return nil, &RenderFailure{StatusCode: result.StatusCode(), Message: result.Message()}
	}
	return result.Payload(), nil
}

func (s *Export) assemble(ctx context.Context, r *run) (string, error) {
	if err := r.request.Validate(); err != nil {
		return "", err
	}

	projectID := r.request.ProjectID()
	branch := r.request.Branch()

	r.enter(export.StateFetchingProject)
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return "", fmt.Errorf("get project %s: %w", projectID, err)
	}

	r.enter(export.StateFetchingToc)
	chapters, err := s.chapters.Tree(ctx, projectID, branch)
	if err != nil {
		return "", &TocFetchError{ProjectID: projectID, Branch: branch, Err: err}
	}

	r.enter(export.StateAssembling)
	fetch := func(ctx context.Context, key string) ([]byte, error) {
		content, err := s.documents.Get(ctx, projectID, branch, key)
		s.recorder.IncDocumentFetch(err == nil)
		return content, err
	}
	text, err := s.assembler.Document(ctx, p, branch, chapters, fetch)
	if err != nil {
		return "", err
	}

	r.logger.Debug("markup assembled",
		slog.Int("chapters", toc.Count(chapters)),
		slog.Int("length", len(text)),
	)
	return text, nil
}

func outcome(err error) metrics.Outcome {
	var (
		tocErr    *TocFetchError
		docErr    *DocumentFetchError
		renderErr *RenderFailure
	)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrProjectNotFound):
		return metrics.OutcomeProjectNotFound
	case errors.As(err, &tocErr):
		return metrics.OutcomeTocFetch
	case errors.As(err, &docErr):
		return metrics.OutcomeDocumentFetch
	case errors.As(err, &renderErr):
		return metrics.OutcomeRenderFailure
	default:
		return metrics.OutcomeError
	}
}
