package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/legal-search/internal/models"
)

func newRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(opts...)
	require.NoError(t, err)
	return r
}

func resultSet(n int) *models.SearchResultSet {
	set := &models.SearchResultSet{Total: 23, ElapsedSeconds: 0.15}
	for i := 0; i < n; i++ {
		set.Documents = append(set.Documents, models.SearchResultItem{
			Title:      fmt.Sprintf("Case %02d", i),
			Snippet:    fmt.Sprintf("snippet <b>%d</b>", i),
			SourceName: "Supreme Court",
			ID:         fmt.Sprintf("%d", 1000+i),
		})
	}
	return set
}

func TestResultList_LimitsAndKeepsOrder(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.ResultList(&buf, resultSet(25), 10))
	out := buf.String()

	assert.Equal(t, 10, strings.Count(out, `class="result"`))

	last := -1
	for i := 0; i < 10; i++ {
		idx := strings.Index(out, fmt.Sprintf("Case %02d", i))
		require.GreaterOrEqual(t, idx, 0, "item %d missing", i)
		assert.Greater(t, idx, last, "item %d out of order", i)
		last = idx
	}
	assert.NotContains(t, out, "Case 10")
}

func TestResultList_FewerThanLimit(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.ResultList(&buf, resultSet(3), 10))
	assert.Equal(t, 3, strings.Count(buf.String(), `class="result"`))
}

func TestResultList_EscapesTitleAndSource(t *testing.T) {
	r := newRenderer(t)
	set := &models.SearchResultSet{Documents: []models.SearchResultItem{{
		Title:        `<script>alert("x")</script>`,
		Snippet:      `held <b>guilty</b>`,
		SourceName:   `<i>Court</i>`,
		CiteCount:    4,
		CitedByCount: 9,
		ID:           "42",
	}}}

	var buf bytes.Buffer
	require.NoError(t, r.ResultList(&buf, set, 10))
	out := buf.String()

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "&lt;i&gt;Court&lt;/i&gt;")
	assert.Contains(t, out, `held <b>guilty</b>`)
	assert.Contains(t, out, "Cites 4 - Cited by 9")
	assert.Equal(t, 2, strings.Count(out, `href="?tid=42"`))
	assert.Contains(t, out, "Full Document")
}

func TestResultList_EscapesIDInLink(t *testing.T) {
	r := newRenderer(t)
	set := &models.SearchResultSet{Documents: []models.SearchResultItem{{Title: "t", ID: `1"&x=<y>`}}}

	var buf bytes.Buffer
	require.NoError(t, r.ResultList(&buf, set, 10))
	assert.NotContains(t, buf.String(), `<y>`)
}

func TestDocument_Verbatim(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Document(&buf, "<p>Judgment text</p>"))
	assert.Contains(t, buf.String(), "<p>Judgment text</p>")
}

func TestDocument_Sanitized(t *testing.T) {
	r := newRenderer(t, WithSanitizer())

	var buf bytes.Buffer
	require.NoError(t, r.Document(&buf, `<p>Judgment text</p><script>alert(1)</script>`))
	out := buf.String()
	assert.Contains(t, out, "<p>Judgment text</p>")
	assert.NotContains(t, out, "<script>")
}

func TestPage_SearchViewWithResults(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, &Page{
		Mode:  SearchView,
		Query: "murder",
		SortOptions: []SortOption{
			{Value: "Relevance"},
			{Value: "Date", Selected: true},
		},
		Results: resultSet(25),
		Limit:   10,
	}))
	out := buf.String()

	assert.Contains(t, out, "<form")
	assert.Contains(t, out, `value="murder"`)
	assert.Contains(t, out, `<option value="Date" selected>`)
	assert.Contains(t, out, "1 - 10 of 23 (0.15 seconds)")
	assert.Equal(t, 10, strings.Count(out, `class="result"`))
	assert.Contains(t, out, "Fetching results...")
	assert.Contains(t, out, `<div class="footnote">Powered by Promptora</div>`)
}

func TestPage_DocumentViewHasNoForm(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, &Page{Mode: DocumentView, Document: "<p>Judgment text</p>"}))
	out := buf.String()

	assert.Contains(t, out, "<p>Judgment text</p>")
	assert.NotContains(t, out, "<form")
	assert.NotContains(t, out, "Powered by Promptora")
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "search", SearchView.String())
	assert.Equal(t, "document", DocumentView.String())
}

func TestPage_BannersAreEscaped(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, &Page{
		Mode:     SearchView,
		Errors:   []string{"An error occurred: <bad>"},
		Warnings: []string{"Please enter a valid search query."},
	}))
	out := buf.String()

	assert.Contains(t, out, "An error occurred: &lt;bad&gt;")
	assert.Contains(t, out, "Please enter a valid search query.")
	assert.NotContains(t, out, `class="result"`)
	assert.NotContains(t, out, "seconds)")
}
