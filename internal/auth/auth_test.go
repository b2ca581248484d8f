package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Config{Enabled: true, Token: "s3cret"})(ok)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"health is public", http.MethodGet, "/healthz", "", http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", http.StatusOK},
		{"scene read is public", http.MethodGet, "/api/v1/scene/frame", "", http.StatusOK},
		{"sse stream is public", http.MethodGet, "/api/v1/stream/frames", "", http.StatusOK},
		{"state read needs token", http.MethodGet, "/api/v1/state", "", http.StatusUnauthorized},
		{"select needs token", http.MethodPost, "/api/v1/state/select", "", http.StatusUnauthorized},
		{"non-GET under scene needs token", http.MethodPost, "/api/v1/scene/frame", "", http.StatusUnauthorized},
		{"wrong token", http.MethodPost, "/api/v1/missions", "Bearer nope", http.StatusUnauthorized},
		{"missing scheme", http.MethodPost, "/api/v1/missions", "s3cret", http.StatusUnauthorized},
		{"empty bearer", http.MethodPost, "/api/v1/missions", "Bearer ", http.StatusUnauthorized},
		{"valid token", http.MethodPost, "/api/v1/missions", "Bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMiddlewareDisabled(t *testing.T) {
	h := Middleware(Config{Enabled: false, Token: "s3cret"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/state/select", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 with auth disabled", rec.Code)
	}
}
