package web_search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/chatgate/tools/web_search/brave"
	"github.com/mohammad-safakhou/chatgate/tools/web_search/models"
	"github.com/mohammad-safakhou/chatgate/tools/web_search/serper"
)

// WebSearcher is the search collaborator contract: a query in, structured
// ranked results out. Failures are errors, never error-flavored strings.
type WebSearcher interface {
	Search(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")
var ErrMissingAPIKey = errors.New("missing search api key")

func NewWebSearcher(provider Provider, apiKey string) (WebSearcher, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: apiKey}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// Format renders results as a numbered block suitable for splicing into a
// model prompt: 1-based index, title, snippet, URL.
func Format(results []models.Result) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		title := r.Title
		if title == "" {
			title = "No title"
		}
		snippet := r.Snippet
		if snippet == "" {
			snippet = "No description"
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n   URL: %s", i+1, title, snippet, r.URL)
	}
	return b.String()
}
