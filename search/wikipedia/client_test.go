package wikipedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>%s - Wikipedia</title></head>
<body>
<nav>Main menu</nav>
<div id="content"><h1>%s</h1>
<div id="mw-content-text"><p>%s is a family of large language models released by Meta AI.
The models are trained on public data and come in several sizes, with context windows of up to
128 thousand tokens. They are widely used for research and commercial applications.</p>
<p>The release included instruction tuned variants and a detailed technical report describing
the training recipe, evaluation results and safety mitigations.</p></div></div>
</body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "search", r.URL.Query().Get("list"))
		assert.Equal(t, "llama 3.1", r.URL.Query().Get("srsearch"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":{"search":[{"title":"Llama (language model)"},{"title":"Meta AI"},{"title":"Extra"}]}}`))
	})
	mux.HandleFunc("/wiki/", func(w http.ResponseWriter, r *http.Request) {
		title := r.URL.Path[len("/wiki/"):]
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(strings.ReplaceAll(articleHTML, "%s", title)))
	})
	return httptest.NewServer(mux)
}

func TestLookup(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(0, 0))
	docs, err := c.Lookup(context.Background(), "llama 3.1", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Llama (language model)", docs[0].Page)
	assert.Equal(t, srv.URL+"/wiki/Llama_%28language_model%29", docs[0].Source)
	assert.Contains(t, docs[0].Content, "large language models")
	assert.Equal(t, "Meta AI", docs[1].Page)
}

func TestLookup_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL), WithRateLimit(0, 0)).Lookup(context.Background(), "q", 2)
	assert.Error(t, err)
}

func TestLookup_ContentCap(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(0, 0), WithMaxContentChars(20))
	docs, err := c.Lookup(context.Background(), "llama 3.1", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].Content, 20)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"no cap", "Zürich", 0, "Zürich"},
		{"short", "Zürich", 10, "Zürich"},
		{"ascii", "llama", 3, "lla"},
		{"inside two byte rune", "Zürich", 2, "Z"},
		{"after two byte rune", "Zürich", 3, "Zü"},
		{"inside four byte rune", "a🦙b", 3, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
