package search

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ayush/legal-search/internal/metrics"
	"github.com/ayush/legal-search/internal/middleware"
	"github.com/ayush/legal-search/internal/render"
)

// PageRenderer draws a resolved page.
type PageRenderer interface {
	Page(w io.Writer, p *render.Page) error
}

// Handler serves the search and document views over HTTP.
type Handler struct {
	router   *Router
	renderer PageRenderer
}

func NewHandler(router *Router, renderer PageRenderer) *Handler {
	return &Handler{router: router, renderer: renderer}
}

// View handles GET and POST on the root path. tid is read from the URL;
// q, sort and search may come from the URL or a form body.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	in := ParseInput(r.URL.Query(), r.Form)
	in.RequestID = middleware.RequestIDFromContext(r.Context())

	page := h.router.Resolve(r.Context(), in)
	metrics.SetView(r.Context(), page.Mode.String())

	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, page); err != nil {
		log.Error().Err(err).Str("request_id", in.RequestID).Msg("render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	status := page.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
