package v1

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// pathParam returns a decoded URL parameter. Branch names may carry an
// escaped "/" which chi leaves encoded when routing on the raw path.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
