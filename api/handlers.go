package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/recipefind/core"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	service Service
	logger  *slog.Logger
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", errBadRequest)
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// search handles POST /search.
func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	query := strings.TrimSpace(body.Query)
	if query == "" {
		writeJSON(w, http.StatusOK, map[string][]ResultItem{"results": {}})
		return
	}

	results, err := h.service.Search(r.Context(), query, bool(body.Healthy))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	items := make([]ResultItem, len(results))
	for i, result := range results {
		items[i] = newResultItem(result)
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: items, Query: query, Healthy: bool(body.Healthy)})
}

// recipe handles GET /recipe/{id}.
func (h *handlers) recipe(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: recipe id %q is not an integer", errBadRequest, raw), h.logger)
		return
	}

	recipe, err := h.service.Recipe(core.RecipeID(id))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, RecipeResponse{Recipe: newFullRecipe(recipe)})
}

// feedback handles POST /feedback.
func (h *handlers) feedback(w http.ResponseWriter, r *http.Request) {
	var body feedbackRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if body.RecipeID == nil {
		writeError(w, r, fmt.Errorf("%w: recipe_id is required", errBadRequest), h.logger)
		return
	}

	err := h.service.SubmitFeedback(r.Context(), core.RecipeID(*body.RecipeID), body.Query, bool(body.Helpful))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// topFeedback handles GET /top-feedback.
func (h *handlers) topFeedback(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", errBadRequest), h.logger)
			return
		}
		limit = n
	}

	rankings, err := h.service.TopFeedback(r.Context(), limit)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	items := make([]FeedbackRankedItem, len(rankings))
	for i, ranking := range rankings {
		items[i] = newFeedbackRankedItem(ranking)
	}
	writeJSON(w, http.StatusOK, TopFeedbackResponse{Recipes: items})
}

// health handles GET /healthz.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	stats := h.service.Stats()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Recipes:    stats.Recipes,
		Dimensions: stats.Dimensions,
		Generation: stats.Generation,
	})
}
