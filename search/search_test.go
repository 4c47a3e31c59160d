package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatWeb(t *testing.T) {
	got := FormatWeb([]WebResult{
		{URL: "https://a.example", Content: "alpha"},
		{URL: "https://b.example", Content: "beta"},
	})
	want := "<Document href=\"https://a.example\"/>\nalpha\n</Document>" +
		"\n\n---\n\n" +
		"<Document href=\"https://b.example\"/>\nbeta\n</Document>"
	assert.Equal(t, want, got)
	assert.Empty(t, FormatWeb(nil))
}

func TestFormatDocuments(t *testing.T) {
	got := FormatDocuments([]Document{{Source: "https://en.wikipedia.org/wiki/Go", Page: "Go", Content: "A language."}})
	assert.Equal(t, "<Document source=\"https://en.wikipedia.org/wiki/Go\" page=\"Go\"/>\nA language.\n</Document>", got)
}
