package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/scholar"
)

type BookInfo struct {
	Title  string   `json:"title"`
	Year   int      `json:"year"`
	Topics []string `json:"topics"`
}

func TestGenerate(t *testing.T) {
	t.Run("decodes a matching response", func(t *testing.T) {
		p := &scripted{responses: []*ai.Response{{Content: `{"title":"Dune","year":1965,"topics":["desert"]}`}}}

		book, err := Generate[BookInfo](context.Background(), p, nil)
		require.NoError(t, err)
		assert.Equal(t, BookInfo{Title: "Dune", Year: 1965, Topics: []string{"desert"}}, book)

		require.NotNil(t, p.lastOpts.ResponseSchema)
		assert.Equal(t, "book_info", p.lastOpts.ResponseSchema.Name)
	})

	t.Run("accepts fenced JSON", func(t *testing.T) {
		p := &scripted{responses: []*ai.Response{{Content: "```json\n{\"title\":\"Dune\",\"year\":1965,\"topics\":[]}\n```"}}}

		book, err := Generate[BookInfo](context.Background(), p, nil)
		require.NoError(t, err)
		assert.Equal(t, "Dune", book.Title)
	})

	t.Run("missing field is a generation error", func(t *testing.T) {
		p := &scripted{responses: []*ai.Response{{Content: `{"title":"Dune","topics":[]}`}}}

		_, err := Generate[BookInfo](context.Background(), p, nil)
		var genErr *ai.GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, "book_info", genErr.Schema)
		assert.Contains(t, err.Error(), "year")
	})

	t.Run("wrong type is a generation error", func(t *testing.T) {
		p := &scripted{responses: []*ai.Response{{Content: `{"title":"Dune","year":"1965","topics":[]}`}}}

		_, err := Generate[BookInfo](context.Background(), p, nil)
		var genErr *ai.GenerationError
		require.ErrorAs(t, err, &genErr)
	})

	t.Run("provider errors pass through", func(t *testing.T) {
		p := &scripted{errs: []error{ai.NewPermanentError("denied", 403, nil)}}

		_, err := Generate[BookInfo](context.Background(), p, nil)
		require.Error(t, err)
		assert.True(t, ai.IsPermanent(err))
	})
}

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"BookInfo":     "book_info",
		"SearchQuery":  "search_query",
		"Perspectives": "perspectives",
		"HTTPResponse": "http_response",
		"":             "",
	}
	for in, want := range cases {
		assert.Equal(t, want, toSnakeCase(in), in)
	}
}
