package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/search"
)

// errBadRequest marks client input errors.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to its HTTP status and the message shown to clients.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrRecipeNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, errBadRequest), errors.Is(err, core.ErrInvalidFeedback):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, search.ErrEmbedding) && errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "embedding service timed out"
	case errors.Is(err, search.ErrEmbedding):
		return http.StatusBadGateway, "embedding service unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"err", err,
		)
	}
	writeJSON(w, status, ErrorResponse{Error: message})
}
