package remote

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/bibliotheca/gateway/domain/document"
)

type documentDTO struct {
	Content []byte `json:"content"`
}

// DocumentsClient reads and uploads documents through the storage service.
type DocumentsClient struct {
	client
}

// NewDocumentsClient creates a new DocumentsClient.
func NewDocumentsClient(cfg Config) *DocumentsClient {
	return &DocumentsClient{client: newClient("storage", cfg)}
}

// Get returns the raw bytes stored under key, or document.ErrNotFound.
// The storage service answers with base64-encoded content.
func (c *DocumentsClient) Get(ctx context.Context, projectID, branch, key string) ([]byte, error) {
	var dto documentDTO
	target := c.endpoint("api", "projects", projectID, "branches", branch, "documents", key)
	if err := c.doJSON(ctx, "get document", http.MethodGet, target, nil, "", &dto); err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", document.ErrNotFound, key)
		}
		return nil, err
	}
	return dto.Content, nil
}

// Upload streams an archive as the content of a branch.
func (c *DocumentsClient) Upload(ctx context.Context, projectID, branch string, archive io.Reader) error {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		part, err := form.CreateFormFile("file", branch+".zip")
		if err == nil {
			_, err = io.Copy(part, archive)
		}
		if err == nil {
			err = form.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	target := c.endpoint("api", "projects", projectID, "branches", branch)
	err := c.doJSON(ctx, "upload branch", http.MethodPost, target, pr, form.FormDataContentType(), nil)
	_ = pr.Close()
	return err
}
