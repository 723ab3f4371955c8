package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DocumentUnavailable is substituted when the document endpoint answers
// successfully but carries no doc field.
const DocumentUnavailable = "Document content not available."

// SearchResultItem is one hit in a result set.
type SearchResultItem struct {
	Title        string
	Snippet      string // upstream markup, trusted
	SourceName   string
	CiteCount    int
	CitedByCount int
	ID           string
}

// SearchResultSet is the parsed answer of the search endpoint.
type SearchResultSet struct {
	Total          int
	ElapsedSeconds float64
	Documents      []SearchResultItem
}

// Head returns at most n items from the front, in upstream order.
func (s *SearchResultSet) Head(n int) []SearchResultItem {
	if s == nil || n <= 0 {
		return nil
	}
	if len(s.Documents) <= n {
		return s.Documents
	}
	return s.Documents[:n]
}

// DocumentBody is the full text of a single document as markup.
type DocumentBody string

// ---------------------------------------------------------------------------
// Wire shapes of the upstream API
// ---------------------------------------------------------------------------

// SearchResponse is the JSON body returned by the search endpoint.
type SearchResponse struct {
	Total int         `json:"total"`
	Time  float64     `json:"time"`
	Docs  []SearchDoc `json:"docs"`
}

// SearchDoc is one element of SearchResponse.Docs. Pointer fields
// distinguish a missing key from an empty value.
type SearchDoc struct {
	Title      *string `json:"title"`
	Headline   *string `json:"headline"`
	DocSource  *string `json:"docsource"`
	NumCites   int     `json:"numcites"`
	NumCitedBy int     `json:"numcitedby"`
	TID        DocID   `json:"tid"`
}

// DocumentResponse is the JSON body returned by the document endpoint. Fields
// stay raw so a missing doc key and a null one can be told apart.
type DocumentResponse map[string]json.RawMessage

// Body returns the doc field. A missing key yields DocumentUnavailable; a
// null value yields an empty body.
func (r DocumentResponse) Body() (DocumentBody, error) {
	raw, ok := r["doc"]
	if !ok {
		return DocumentUnavailable, nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var doc string
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("doc field: %w", err)
	}
	return DocumentBody(doc), nil
}

// DocID accepts the document id as either a JSON number or a JSON string.
type DocID string

func (d *DocID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = DocID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("tid: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*d = DocID(strconv.FormatInt(i, 10))
		return nil
	}
	*d = DocID(n.String())
	return nil
}

// ToResultSet converts the wire response, filling in defaults for missing fields.
func (r *SearchResponse) ToResultSet() *SearchResultSet {
	set := &SearchResultSet{
		Total:          r.Total,
		ElapsedSeconds: r.Time,
		Documents:      make([]SearchResultItem, 0, len(r.Docs)),
	}
	for _, d := range r.Docs {
		set.Documents = append(set.Documents, SearchResultItem{
			Title:        valueOr(d.Title, "No Title"),
			Snippet:      valueOr(d.Headline, "No snippet available"),
			SourceName:   valueOr(d.DocSource, "Unknown Source"),
			CiteCount:    d.NumCites,
			CitedByCount: d.NumCitedBy,
			ID:           string(d.TID),
		})
	}
	return set
}

func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
