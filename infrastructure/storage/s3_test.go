package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves path-style object requests from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		data, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		_, _ = w.Write(data)
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = data
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, prefix string) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.NewS3ConfigWithOptions(
		config.WithBucket("docs"),
		config.WithRegion("us-east-1"),
		config.WithS3Endpoint(srv.URL),
		config.WithStaticCredentials("test", "test"),
		config.WithUsePathStyle(true),
		config.WithPrefix(prefix),
	)
	store, err := NewS3Store(context.Background(), cfg, nil)
	require.NoError(t, err)
	return store, fake
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.NewS3Config(), nil)
	assert.Error(t, err)
}

func TestS3Store_Keys(t *testing.T) {
	store, _ := newTestStore(t, "published/")

	assert.Equal(t, "published/Docs/v1/guide:setup", store.DocumentKey("Docs", "v1", "guide:setup"))
	assert.Equal(t, "published/Docs/v1.zip", store.ArchiveKey("Docs", "v1"))
}

func TestS3Store_Get(t *testing.T) {
	store, fake := newTestStore(t, "")
	fake.objects["/docs/Docs/v1/guide:setup"] = []byte("# Setup\n")

	data, err := store.Get(context.Background(), "Docs", "v1", "guide:setup")

	require.NoError(t, err)
	assert.Equal(t, "# Setup\n", string(data))
}

func TestS3Store_Get_NotFound(t *testing.T) {
	store, _ := newTestStore(t, "")

	_, err := store.Get(context.Background(), "Docs", "v1", "missing")

	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestS3Store_Upload(t *testing.T) {
	store, fake := newTestStore(t, "")

	err := store.Upload(context.Background(), "Docs", "v1", strings.NewReader("PK archive"))
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "PK archive", string(fake.objects["/docs/Docs/v1.zip"]))
}
