package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bibliotheca/gateway"
	"github.com/bibliotheca/gateway/application/service"
	"github.com/bibliotheca/gateway/domain/upload"
	"github.com/bibliotheca/gateway/infrastructure/api/jsonapi"
	"github.com/bibliotheca/gateway/infrastructure/api/middleware"
	"github.com/go-chi/chi/v5"
)

// UploadsRouter exposes upload job status.
type UploadsRouter struct {
	client     *gateway.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewUploadsRouter creates a new UploadsRouter.
func NewUploadsRouter(client *gateway.Client) *UploadsRouter {
	return &UploadsRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for upload endpoints.
func (r *UploadsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Get("/{id}", r.Get)

	return router
}

// List handles GET /api/v1/uploads.
// Optional filters: project_id, status.
func (r *UploadsRouter) List(w http.ResponseWriter, req *http.Request) {
	if !r.enabled(w, req) {
		return
	}

	ctx := req.Context()
	pagination := ParsePagination(req)
	params := &service.UploadListParams{
		ProjectID: req.URL.Query().Get("project_id"),
		Status:    upload.Status(req.URL.Query().Get("status")),
		Limit:     pagination.Limit(),
		Offset:    pagination.Offset(),
	}

	jobs, err := r.client.Queue.List(ctx, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	total, err := r.client.Queue.Count(ctx, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	response := jsonapi.NewListResponse(r.serializer.UploadResources(jobs))
	response.Meta = PaginationMeta(pagination, total)
	response.Links = PaginationLinks(req, pagination, total)
	middleware.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/v1/uploads/{id}.
func (r *UploadsRouter) Get(w http.ResponseWriter, req *http.Request) {
	if !r.enabled(w, req) {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid upload id", err), r.logger)
		return
	}

	job, err := r.client.Queue.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.UploadResource(job)))
}

func (r *UploadsRouter) enabled(w http.ResponseWriter, req *http.Request) bool {
	if r.client.UploadsEnabled() {
		return true
	}
	middleware.WriteError(w, req, middleware.NewAPIError(http.StatusServiceUnavailable, "uploads are not configured", gateway.ErrUploadsNotAvailable), r.logger)
	return false
}
