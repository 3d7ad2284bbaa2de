package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	apiKeys [][]byte
	enabled bool
}

// NewAuthConfigWithKeys creates a new AuthConfig with multiple API keys.
// Empty keys are ignored; no keys disables authentication.
func NewAuthConfigWithKeys(apiKeys []string) AuthConfig {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	if len(keys) == 0 {
		return AuthConfig{enabled: false}
	}
	return AuthConfig{
		apiKeys: keys,
		enabled: true,
	}
}

// Enabled returns true if authentication is enabled.
func (c AuthConfig) Enabled() bool { return c.enabled }

func (c AuthConfig) accepts(key string) bool {
	given := []byte(key)
	for _, k := range c.apiKeys {
		if subtle.ConstantTimeCompare(given, k) == 1 {
			return true
		}
	}
	return false
}

// WriteProtect returns a middleware that requires an X-API-KEY header on
// mutating requests (POST, PUT, PATCH, DELETE). Safe methods pass through.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.enabled || safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-KEY")
			if apiKey == "" {
				WriteError(w, r, NewAuthenticationError("X-API-KEY header is required"), nil)
				return
			}
			if !config.accepts(apiKey) {
				WriteError(w, r, NewAuthenticationError("invalid API key"), nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WriteProtectAuth creates write-protect middleware from a slice of API keys.
func WriteProtectAuth(apiKeys []string) func(http.Handler) http.Handler {
	return WriteProtect(NewAuthConfigWithKeys(apiKeys))
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
