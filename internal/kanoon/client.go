package kanoon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/ayush/legal-search/internal/metrics"
	"github.com/ayush/legal-search/internal/models"
)

// ErrEmptyQuery is returned by Search for a blank query. No request is sent.
var ErrEmptyQuery = errors.New("empty search query")

// RemoteRequestError reports a failed call to the legal search API:
// a transport error, a non-2xx status, or an unreadable body.
type RemoteRequestError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteRequestError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s returned %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s failed", e.Op, e.URL)
	}
}

func (e *RemoteRequestError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	SearchURL string
	DocURL    string
	Token     string
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration
}

// Client calls the legal search API over HTTP.
type Client struct {
	searchURL  string
	docBase    string
	httpClient *resty.Client
}

func NewClient(opts Options) *Client {
	httpClient := resty.New().
		SetHeader("Authorization", "Token "+opts.Token).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "legal-search/1.0")
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	return &Client{
		searchURL:  opts.SearchURL,
		docBase:    strings.TrimRight(opts.DocURL, "/"),
		httpClient: httpClient,
	}
}

// Search posts formInput=<query> to the search endpoint.
func (c *Client) Search(ctx context.Context, query string) (*models.SearchResultSet, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	body, err := c.post(ctx, "search", c.searchURL, map[string]string{"formInput": query})
	if err != nil {
		return nil, err
	}

	var result models.SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &RemoteRequestError{Op: "search", URL: c.searchURL, Err: fmt.Errorf("decode: %w", err)}
	}
	return result.ToResultSet(), nil
}

// FetchDocument posts include_doc=true to {doc_base}/{id}/. A response
// without a doc field yields models.DocumentUnavailable and a null doc an
// empty body.
func (c *Client) FetchDocument(ctx context.Context, id string) (models.DocumentBody, error) {
	endpoint := c.DocumentURL(id)
	if strings.TrimSpace(id) == "" {
		return "", &RemoteRequestError{Op: "document", URL: endpoint, Err: errors.New("document id is required")}
	}

	body, err := c.post(ctx, "document", endpoint, map[string]string{"include_doc": "true"})
	if err != nil {
		return "", err
	}

	var result models.DocumentResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &RemoteRequestError{Op: "document", URL: endpoint, Err: fmt.Errorf("decode: %w", err)}
	}
	doc, err := result.Body()
	if err != nil {
		return "", &RemoteRequestError{Op: "document", URL: endpoint, Err: fmt.Errorf("decode: %w", err)}
	}
	return doc, nil
}

// DocumentURL returns the document endpoint for id.
func (c *Client) DocumentURL(id string) string {
	return c.docBase + "/" + url.PathEscape(id) + "/"
}

func (c *Client) post(ctx context.Context, op, endpoint string, form map[string]string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(form).
		Post(endpoint)
	if err != nil {
		metrics.RecordUpstreamCall(op, "transport_error", time.Since(start))
		return nil, &RemoteRequestError{Op: op, URL: endpoint, Err: err}
	}

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		metrics.RecordUpstreamCall(op, "http_error", time.Since(start))
		return nil, &RemoteRequestError{
			Op:         op,
			URL:        endpoint,
			StatusCode: resp.StatusCode(),
			Body:       truncate(resp.String(), 512),
		}
	}

	metrics.RecordUpstreamCall(op, "ok", time.Since(start))
	return resp.Body(), nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
