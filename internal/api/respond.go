package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/star/orbitview/internal/backend"
)

const maxRequestBody = 64 << 10

// writeJSON encodes v before writing the header, so a value that cannot be
// encoded becomes a 500 instead of an empty success.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding response failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// decodeBody reads a JSON request body into v. Unknown fields are rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeUpstreamError answers a failed backend call. Backend 404s stay 404;
// every other failure is 502. Aborted requests get no body since the client
// has already gone away.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if backend.IsAbort(err) {
		s.logger.Debug("client went away during backend call", "path", r.URL.Path)
		return
	}

	var httpErr *backend.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	s.logger.Warn("backend request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusBadGateway, "mission backend unavailable")
}
