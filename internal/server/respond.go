package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opencode-ai/socdemo/internal/db"
)

const maxBodyBytes int64 = 64 << 10

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	response := errorResponse{
		Status:    status,
		Message:   http.StatusText(status),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		response.Error = err.Error()
	}
	respondJSON(w, status, response)
}

// statusForLookup maps journal lookups to 404 or 500.
func statusForLookup(err error) int {
	if errors.Is(err, db.ErrRunNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// decodeJSONBody decodes a bounded request body into dst. An empty body is
// an error.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) (int, error) {
	if r.Body == nil {
		return http.StatusBadRequest, errors.New("request body required")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body too large (max %d bytes)", maxBytes)
		case errors.Is(err, io.EOF):
			return http.StatusBadRequest, errors.New("request body required")
		default:
			return http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err)
		}
	}
	return 0, nil
}
