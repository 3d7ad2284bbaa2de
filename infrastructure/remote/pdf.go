package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/bibliotheca/gateway/domain/render"
)

type pdfRequest struct {
	Content string `json:"content"`
}

// PdfExportClient submits assembled markup to the PDF export service.
type PdfExportClient struct {
	client
}

// NewPdfExportClient creates a new PdfExportClient.
func NewPdfExportClient(cfg Config) *PdfExportClient {
	return &PdfExportClient{client: newClient("pdf", cfg)}
}

// Render posts the text once. A 2xx answer yields its body as the payload;
// any other status yields a failure carrying the body verbatim.
func (c *PdfExportClient) Render(ctx context.Context, text string) (render.Result, error) {
	body, err := json.Marshal(pdfRequest{Content: text})
	if err != nil {
		return render.Result{}, NewServiceError(c.service, "render", 0, "failed to marshal request", err)
	}

	status, respBody, err := c.do(ctx, "render", http.MethodPost, c.endpoint("api", "pdf"), bytes.NewReader(body), "application/json")
	if err != nil {
		return render.Result{}, err
	}
	if !successful(status) {
		return render.Failure(status, string(respBody)), nil
	}
	return render.Success(respBody), nil
}
