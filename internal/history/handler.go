package history

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/ayush/legal-search/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SearchStore lists recorded searches.
type SearchStore interface {
	RecentSearches(ctx context.Context, limit int) ([]models.SearchEvent, error)
}

// ViewStore lists recorded document views.
type ViewStore interface {
	RecentViews(ctx context.Context, documentID string, limit int) ([]models.DocumentView, error)
}

// Handler exposes the audit logs read-only. Either store may be nil.
type Handler struct {
	searches SearchStore
	views    ViewStore
}

func NewHandler(searches SearchStore, views ViewStore) *Handler {
	return &Handler{searches: searches, views: views}
}

// Searches returns recent search events.
func (h *Handler) Searches(w http.ResponseWriter, r *http.Request) {
	if h.searches == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "search history is not enabled"})
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	events, err := h.searches.RecentSearches(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list search history")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
		return
	}
	if events == nil {
		events = []models.SearchEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Views returns recent document views, filtered by ?tid= when given.
func (h *Handler) Views(w http.ResponseWriter, r *http.Request) {
	if h.views == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "view history is not enabled"})
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	views, err := h.views.RecentViews(r.Context(), r.URL.Query().Get("tid"), limit)
	if err != nil {
		log.Error().Err(err).Msg("list view history")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
		return
	}
	if views == nil {
		views = []models.DocumentView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		return 0, false
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, true
}
