package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ayush/legal-search/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mode is the view selected for one request.
type Mode int

const (
	SearchView Mode = iota
	DocumentView
)

func (m Mode) String() string {
	if m == DocumentView {
		return "document"
	}
	return "search"
}

// SortOption is one choice of the sort selector.
type SortOption struct {
	Value    string
	Selected bool
}

// Page is everything needed to draw one response.
type Page struct {
	Mode        Mode
	Query       string
	SortOptions []SortOption
	Errors      []string
	Warnings    []string
	Results     *models.SearchResultSet
	Limit       int
	Document    models.DocumentBody
	// StatusCode is the HTTP status the page should be served with.
	StatusCode int
}

// Renderer turns result sets and documents into HTML.
//
// Titles, source names and ids are plain text and are escaped. Snippets and
// document bodies arrive from the upstream service as markup and are emitted
// as-is, unless a sanitizer is configured.
type Renderer struct {
	tmpl   *template.Template
	policy *bluemonday.Policy
}

type Option func(*Renderer)

// WithSanitizer runs snippets and document bodies through a bluemonday UGC
// policy before they are embedded.
func WithSanitizer() Option {
	return func(r *Renderer) {
		r.policy = bluemonday.UGCPolicy()
	}
}

func New(opts ...Option) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r := &Renderer{tmpl: tmpl}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// DocumentLink returns the relative link that reopens the view on document id.
func DocumentLink(id string) string {
	return "?" + url.Values{"tid": {id}}.Encode()
}

type itemView struct {
	Link         template.URL
	Title        string
	Snippet      template.HTML
	SourceName   string
	CiteCount    int
	CitedByCount int
}

type resultsView struct {
	Limit   int
	Total   int
	Elapsed float64
	Items   []itemView
}

type pageView struct {
	Title        string
	Query        string
	SortOptions  []SortOption
	Errors       []string
	Warnings     []string
	ShowForm     bool
	ShowDocument bool
	Document     template.HTML
	Results      *resultsView
}

// ResultList writes at most limit items from the head of set.
func (r *Renderer) ResultList(w io.Writer, set *models.SearchResultSet, limit int) error {
	return r.tmpl.ExecuteTemplate(w, "results", r.results(set, limit))
}

// Document writes body verbatim.
func (r *Renderer) Document(w io.Writer, body models.DocumentBody) error {
	return r.tmpl.ExecuteTemplate(w, "document", r.trusted(string(body)))
}

// Page writes a complete HTML page for p.
func (r *Renderer) Page(w io.Writer, p *Page) error {
	v := pageView{
		Title:    "Legal Search Engine",
		Query:    p.Query,
		Errors:   p.Errors,
		Warnings: p.Warnings,
	}
	switch p.Mode {
	case DocumentView:
		v.Title = "Document"
		if p.Document != "" {
			v.ShowDocument = true
			v.Document = r.trusted(string(p.Document))
		}
	default:
		v.ShowForm = true
		v.SortOptions = p.SortOptions
		if p.Results != nil {
			v.Results = r.results(p.Results, p.Limit)
		}
	}
	return r.tmpl.ExecuteTemplate(w, "page", v)
}

func (r *Renderer) results(set *models.SearchResultSet, limit int) *resultsView {
	head := set.Head(limit)
	view := &resultsView{
		Limit: limit,
		Items: make([]itemView, 0, len(head)),
	}
	if set != nil {
		view.Total = set.Total
		view.Elapsed = set.ElapsedSeconds
	}
	for _, item := range head {
		view.Items = append(view.Items, itemView{
			Link:         template.URL(DocumentLink(item.ID)),
			Title:        item.Title,
			Snippet:      r.trusted(item.Snippet),
			SourceName:   item.SourceName,
			CiteCount:    item.CiteCount,
			CitedByCount: item.CitedByCount,
		})
	}
	return view
}

func (r *Renderer) trusted(s string) template.HTML {
	if r.policy != nil {
		s = r.policy.Sanitize(s)
	}
	return template.HTML(s) //nolint:gosec // upstream markup is trusted unless a sanitizer is set
}
