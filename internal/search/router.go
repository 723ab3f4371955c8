package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ayush/legal-search/internal/kanoon"
	"github.com/ayush/legal-search/internal/models"
	"github.com/ayush/legal-search/internal/render"
)

// ResultLimit is the number of hits shown. There is no pagination.
const ResultLimit = 10

// SortOrders are the choices of the sort selector. The selection is kept
// on the form but is not sent upstream.
var SortOrders = []string{"Relevance", "Date"}

const (
	msgEmptyQuery    = "Please enter a valid search query."
	msgDocumentEmpty = "Failed to fetch the document content."
)

// Dispatcher runs a search against the upstream API.
type Dispatcher interface {
	Search(ctx context.Context, query string) (*models.SearchResultSet, error)
}

// Fetcher loads a single document from the upstream API.
type Fetcher interface {
	FetchDocument(ctx context.Context, id string) (models.DocumentBody, error)
}

// SearchLog records dispatched searches.
type SearchLog interface {
	RecordSearch(ctx context.Context, ev *models.SearchEvent) error
}

// ViewLog records served document views.
type ViewLog interface {
	RecordView(ctx context.Context, v *models.DocumentView) error
}

// Input is the navigation context plus submitted form values of one request.
type Input struct {
	DocumentID    string
	HasDocumentID bool
	Query         string
	Sort          string
	Submitted     bool
	RequestID     string
}

// ParseInput reads tid from the navigation parameters and q, sort and
// search from the form values.
func ParseInput(nav, form url.Values) Input {
	in := Input{
		Query:     form.Get("q"),
		Sort:      form.Get("sort"),
		Submitted: form.Has("search"),
	}
	if nav.Has("tid") {
		in.HasDocumentID = true
		in.DocumentID = nav.Get("tid")
	}
	return in
}

// Router picks the view for a request and produces the page to render.
type Router struct {
	dispatcher Dispatcher
	fetcher    Fetcher
	searches   SearchLog
	views      ViewLog
}

type RouterOption func(*Router)

func WithSearchLog(l SearchLog) RouterOption {
	return func(rt *Router) { rt.searches = l }
}

func WithViewLog(l ViewLog) RouterOption {
	return func(rt *Router) { rt.views = l }
}

func NewRouter(dispatcher Dispatcher, fetcher Fetcher, opts ...RouterOption) *Router {
	rt := &Router{dispatcher: dispatcher, fetcher: fetcher}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Resolve selects DocumentView when a document id is present and
// SearchView otherwise. Upstream failures end up as banners on the page.
func (rt *Router) Resolve(ctx context.Context, in Input) *render.Page {
	if in.HasDocumentID {
		return rt.documentView(ctx, in)
	}
	return rt.searchView(ctx, in)
}

func (rt *Router) documentView(ctx context.Context, in Input) *render.Page {
	page := &render.Page{Mode: render.DocumentView, StatusCode: http.StatusOK}

	body, err := rt.fetcher.FetchDocument(ctx, in.DocumentID)
	if err != nil {
		log.Error().Err(err).
			Str("request_id", in.RequestID).
			Str("tid", in.DocumentID).
			Msg("document fetch failed")
		page.Errors = append(page.Errors,
			fmt.Sprintf("An error occurred while fetching the document: %v", err),
			msgDocumentEmpty,
		)
		page.StatusCode = http.StatusBadGateway
		rt.recordView(ctx, in, false, true)
		return page
	}

	if body == "" {
		page.Errors = append(page.Errors, msgDocumentEmpty)
	}
	page.Document = body
	rt.recordView(ctx, in, body != "" && body != models.DocumentUnavailable, false)
	return page
}

func (rt *Router) searchView(ctx context.Context, in Input) *render.Page {
	page := &render.Page{
		Mode:        render.SearchView,
		Query:       in.Query,
		SortOptions: sortOptions(in.Sort),
		Limit:       ResultLimit,
		StatusCode:  http.StatusOK,
	}
	if !in.Submitted {
		return page
	}
	if strings.TrimSpace(in.Query) == "" {
		page.Warnings = append(page.Warnings, msgEmptyQuery)
		return page
	}

	set, err := rt.dispatcher.Search(ctx, in.Query)
	if errors.Is(err, kanoon.ErrEmptyQuery) {
		page.Warnings = append(page.Warnings, msgEmptyQuery)
		return page
	}
	if err != nil {
		log.Error().Err(err).
			Str("request_id", in.RequestID).
			Int("query_len", len(in.Query)).
			Msg("search failed")
		page.Errors = append(page.Errors, fmt.Sprintf("An error occurred: %v", err))
		page.StatusCode = http.StatusBadGateway
		return page
	}

	page.Results = set
	rt.recordSearch(ctx, in, set)
	return page
}

func (rt *Router) recordSearch(ctx context.Context, in Input, set *models.SearchResultSet) {
	if rt.searches == nil {
		return
	}
	ev := &models.SearchEvent{
		ID:             uuid.New().String(),
		RequestID:      in.RequestID,
		Query:          in.Query,
		SortOrder:      normalizeSort(in.Sort),
		Total:          set.Total,
		Shown:          len(set.Head(ResultLimit)),
		ElapsedSeconds: set.ElapsedSeconds,
		CreatedAt:      time.Now().UTC(),
	}
	if err := rt.searches.RecordSearch(ctx, ev); err != nil {
		log.Warn().Err(err).Str("request_id", in.RequestID).Msg("record search")
	}
}

func (rt *Router) recordView(ctx context.Context, in Input, available, failed bool) {
	if rt.views == nil {
		return
	}
	v := &models.DocumentView{
		RequestID:  in.RequestID,
		DocumentID: in.DocumentID,
		Available:  available,
		Failed:     failed,
		CreatedAt:  time.Now().UTC(),
	}
	if err := rt.views.RecordView(ctx, v); err != nil {
		log.Warn().Err(err).Str("request_id", in.RequestID).Msg("record document view")
	}
}

func normalizeSort(s string) string {
	for _, o := range SortOrders {
		if s == o {
			return s
		}
	}
	return SortOrders[0]
}

func sortOptions(selected string) []render.SortOption {
	selected = normalizeSort(selected)
	opts := make([]render.SortOption, 0, len(SortOrders))
	for _, o := range SortOrders {
		opts = append(opts, render.SortOption{Value: o, Selected: o == selected})
	}
	return opts
}
