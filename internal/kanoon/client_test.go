package kanoon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/legal-search/internal/models"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Options{
		SearchURL: srv.URL + "/search/",
		DocURL:    srv.URL + "/doc/",
		Token:     "test-token",
	})
}

func TestSearch_SendsFormAndParsesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search/", r.URL.Path)
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "  murder  ", r.PostForm.Get("formInput"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total": 23, "time": 0.15, "docs": [
			{"title": "State v. X", "headline": "a <b>murder</b>", "docsource": "High Court", "numcites": 2, "numcitedby": 5, "tid": 111},
			{"title": "Y v. Z", "tid": "222"}
		]}`)
	}))
	defer srv.Close()

	set, err := newTestClient(srv).Search(context.Background(), "  murder  ")
	require.NoError(t, err)

	assert.Equal(t, 23, set.Total)
	assert.InDelta(t, 0.15, set.ElapsedSeconds, 1e-9)
	require.Len(t, set.Documents, 2)
	assert.Equal(t, "111", set.Documents[0].ID)
	assert.Equal(t, "a <b>murder</b>", set.Documents[0].Snippet)
	assert.Equal(t, "222", set.Documents[1].ID)
	assert.Equal(t, "Unknown Source", set.Documents[1].SourceName)
}

func TestSearch_BlankQueryMakesNoCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := c.Search(context.Background(), q)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSearch_Non2xxIsRemoteRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Search(context.Background(), "murder")
	require.Error(t, err)

	var rre *RemoteRequestError
	require.True(t, errors.As(err, &rre))
	assert.Equal(t, http.StatusForbidden, rre.StatusCode)
	assert.Equal(t, "search", rre.Op)
	assert.Contains(t, rre.Error(), "invalid token")
}

func TestSearch_TransportErrorIsRemoteRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(srv)
	srv.Close()

	_, err := c.Search(context.Background(), "murder")

	var rre *RemoteRequestError
	require.True(t, errors.As(err, &rre))
	assert.Zero(t, rre.StatusCode)
	assert.NotNil(t, rre.Unwrap())
}

func TestSearch_BadJSONIsRemoteRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Search(context.Background(), "murder")

	var rre *RemoteRequestError
	require.True(t, errors.As(err, &rre))
	assert.Contains(t, rre.Error(), "decode")
}

func TestFetchDocument_ReturnsDoc(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/doc/12345/", r.URL.Path)
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "true", r.PostForm.Get("include_doc"))

		fmt.Fprint(w, `{"tid": 12345, "doc": "<p>Judgment text</p>"}`)
	}))
	defer srv.Close()

	body, err := newTestClient(srv).FetchDocument(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentBody("<p>Judgment text</p>"), body)
}

func TestFetchDocument_MissingDocFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tid": 12345, "title": "no body here"}`)
	}))
	defer srv.Close()

	body, err := newTestClient(srv).FetchDocument(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentBody(models.DocumentUnavailable), body)
}

func TestFetchDocument_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	body, err := newTestClient(srv).FetchDocument(context.Background(), "12345")

	var rre *RemoteRequestError
	require.True(t, errors.As(err, &rre))
	assert.Equal(t, http.StatusInternalServerError, rre.StatusCode)
	assert.Empty(t, body)
}

func TestFetchDocument_EmptyIDMakesNoCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchDocument(context.Background(), "")

	var rre *RemoteRequestError
	require.True(t, errors.As(err, &rre))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestDocumentURL_EscapesID(t *testing.T) {
	c := NewClient(Options{DocURL: "https://api.example.test/doc/"})
	assert.Equal(t, "https://api.example.test/doc/12345/", c.DocumentURL("12345"))
	assert.Equal(t, "https://api.example.test/doc/a%2Fb/", c.DocumentURL("a/b"))
}

func TestFetchDocument_NullDocIsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tid": 12345, "doc": null}`)
	}))
	defer srv.Close()

	body, err := newTestClient(srv).FetchDocument(context.Background(), "12345")
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))

	// "न्याय" is Devanagari; every rune is three bytes long.
	got := truncate("न्याय", 4)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "न...", got)
}

func TestSearch_Non2xxBodyStaysValidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "x"+strings.Repeat("é", 600))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Search(context.Background(), "murder")

	var rre *RemoteRequestError
	require.True(t, errors.As(err, &rre))
	assert.True(t, utf8.ValidString(rre.Body))
	assert.True(t, strings.HasSuffix(rre.Body, "..."))
}
