// Package v1 provides the v1 API routes.
package v1

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/bibliotheca/gateway"
	"github.com/bibliotheca/gateway/domain/export"
	"github.com/bibliotheca/gateway/domain/upload"
	"github.com/bibliotheca/gateway/infrastructure/api/jsonapi"
	"github.com/bibliotheca/gateway/infrastructure/api/middleware"
	"github.com/go-chi/chi/v5"
)

// MaxUploadSize bounds the body of an upload request.
const MaxUploadSize int64 = 512 << 20

// ProjectsRouter handles project-scoped endpoints: metadata, chapter trees,
// documents, exports and uploads.
type ProjectsRouter struct {
	client     *gateway.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewProjectsRouter creates a new ProjectsRouter.
func NewProjectsRouter(client *gateway.Client) *ProjectsRouter {
	return &ProjectsRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for project endpoints.
func (r *ProjectsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{projectID}", r.Get)
	router.Route("/{projectID}/branches/{branch}", func(br chi.Router) {
		br.Get("/toc", r.TableOfContents)
		br.Get("/documents/*", r.Document)
		br.Get("/export/pdf", r.ExportPDF)
		br.Get("/export/markdown", r.ExportMarkup)
		br.Post("/upload", r.Upload)
	})

	return router
}

// Get handles GET /api/v1/projects/{projectID}.
func (r *ProjectsRouter) Get(w http.ResponseWriter, req *http.Request) {
	p, err := r.client.Catalog.Project(req.Context(), pathParam(req, "projectID"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.ProjectResource(p)))
}

// TableOfContents handles GET /api/v1/projects/{projectID}/branches/{branch}/toc.
func (r *ProjectsRouter) TableOfContents(w http.ResponseWriter, req *http.Request) {
	projectID := pathParam(req, "projectID")
	branch := pathParam(req, "branch")

	chapters, err := r.client.Catalog.TableOfContents(req.Context(), projectID, branch)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resource := r.serializer.TableOfContentsResource(projectID, branch, chapters)
	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(resource))
}

// Document handles GET /api/v1/projects/{projectID}/branches/{branch}/documents/*.
// The wildcard is the chapter URL, slashes included.
func (r *ProjectsRouter) Document(w http.ResponseWriter, req *http.Request) {
	url := pathParam(req, "*")
	if url == "" {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "document url is required", nil), r.logger)
		return
	}

	content, err := r.client.Catalog.Document(req.Context(), pathParam(req, "projectID"), pathParam(req, "branch"), url)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// ExportPDF handles GET /api/v1/projects/{projectID}/branches/{branch}/export/pdf.
// The renderer's payload is returned verbatim as an attachment.
func (r *ProjectsRouter) ExportPDF(w http.ResponseWriter, req *http.Request) {
	request := export.NewRequest(pathParam(req, "projectID"), pathParam(req, "branch"))

	pdf, err := r.client.Exports.Export(req.Context(), request)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	filename := request.ProjectID() + "-" + strings.ReplaceAll(request.Branch(), "/", "-") + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// ExportMarkup handles GET /api/v1/projects/{projectID}/branches/{branch}/export/markdown.
// It returns the assembled text that would be sent to the renderer.
func (r *ProjectsRouter) ExportMarkup(w http.ResponseWriter, req *http.Request) {
	request := export.NewRequest(pathParam(req, "projectID"), pathParam(req, "branch"))

	text, err := r.client.Exports.Markup(req.Context(), request)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

// UploadResultAttributes describes a synchronous upload outcome.
type UploadResultAttributes struct {
	ProjectID      string `json:"project_id"`
	Branch         string `json:"branch"`
	Status         string `json:"status"`
	FailedStep     string `json:"failed_step,omitempty"`
	Reason         string `json:"reason,omitempty"`
	BranchReplaced bool   `json:"branch_replaced"`
	IndexRefreshed bool   `json:"index_refreshed"`
}

// Upload handles POST /api/v1/projects/{projectID}/branches/{branch}/upload.
//
// The body is the branch archive, either raw or as the "file" part of a
// multipart form. By default the archive is staged and queued (202);
// with ?wait=true the upload runs before the response is written.
func (r *ProjectsRouter) Upload(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	projectID := pathParam(req, "projectID")
	branch := pathParam(req, "branch")

	if !r.client.UploadsEnabled() {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusServiceUnavailable, "uploads are not configured", gateway.ErrUploadsNotAvailable), r.logger)
		return
	}

	body, err := archiveBody(w, req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	staged, err := r.client.Stage(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = middleware.NewAPIError(http.StatusRequestEntityTooLarge, "archive exceeds the upload size limit", err)
		}
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	if req.URL.Query().Get("wait") == "true" {
		result := r.client.Uploads.Run(ctx, projectID, branch, staged)
		status := http.StatusOK
		if !result.OK() {
			status = http.StatusBadGateway
		}
		middleware.WriteJSON(w, status, jsonapi.NewSingleResponse(jsonapi.NewResource("upload_result", projectID+"/"+branch, resultAttributes(projectID, branch, result))))
		return
	}

	job, err := r.client.Queue.Enqueue(ctx, projectID, branch, staged)
	if err != nil {
		if rmErr := os.Remove(staged); rmErr != nil {
			r.logger.Warn("failed to remove staged archive", slog.String("path", staged), slog.String("error", rmErr.Error()))
		}
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, jsonapi.NewSingleResponse(r.serializer.UploadResource(job)))
}

func archiveBody(w http.ResponseWriter, req *http.Request) (io.Reader, error) {
	req.Body = http.MaxBytesReader(w, req.Body, MaxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return req.Body, nil
	}

	reader, err := req.MultipartReader()
	if err != nil {
		return nil, middleware.NewAPIError(http.StatusBadRequest, "invalid multipart body", err)
	}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil, middleware.NewAPIError(http.StatusBadRequest, `multipart body has no "file" part`, nil)
		}
		if err != nil {
			return nil, middleware.NewAPIError(http.StatusBadRequest, "invalid multipart body", err)
		}
		if part.FormName() == "file" {
			return part, nil
		}
	}
}

func resultAttributes(projectID, branch string, result upload.Result) *UploadResultAttributes {
	return &UploadResultAttributes{
		ProjectID:      projectID,
		Branch:         branch,
		Status:         string(result.Status()),
		FailedStep:     string(result.FailedStep()),
		Reason:         result.Reason(),
		BranchReplaced: result.BranchReplaced(),
		IndexRefreshed: result.IndexRefreshed(),
	}
}
