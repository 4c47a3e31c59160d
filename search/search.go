// Package search defines the retrieval collaborators used by interviews and
// renders their results as context fragments for the expert prompt.
package search

import (
	"context"
	"fmt"
	"strings"
)

// Separator joins fragments within one retrieval bundle.
const Separator = "\n\n---\n\n"

// WebResult is one web search hit.
type WebResult struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Document is one knowledge-base page.
type Document struct {
	Source  string `json:"source"`
	Page    string `json:"page"`
	Content string `json:"content"`
}

// WebSearcher runs a web search.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]WebResult, error)
}

// KnowledgeBase looks up encyclopedic documents.
type KnowledgeBase interface {
	Lookup(ctx context.Context, query string, maxDocs int) ([]Document, error)
}

// WebSearchFunc adapts a function to WebSearcher.
type WebSearchFunc func(ctx context.Context, query string, maxResults int) ([]WebResult, error)

// Search calls f.
func (f WebSearchFunc) Search(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
	return f(ctx, query, maxResults)
}

// LookupFunc adapts a function to KnowledgeBase.
type LookupFunc func(ctx context.Context, query string, maxDocs int) ([]Document, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, query string, maxDocs int) ([]Document, error) {
	return f(ctx, query, maxDocs)
}

// FormatWeb renders web results as one bundle.
func FormatWeb(results []WebResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("<Document href=\"%s\"/>\n%s\n</Document>", r.URL, r.Content)
	}
	return strings.Join(parts, Separator)
}

// FormatDocuments renders knowledge-base documents as one bundle.
func FormatDocuments(docs []Document) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = fmt.Sprintf("<Document source=\"%s\" page=\"%s\"/>\n%s\n</Document>", d.Source, d.Page, d.Content)
	}
	return strings.Join(parts, Separator)
}
