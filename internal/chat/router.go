package chat

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/chatgate/internal/docindex"
	"github.com/mohammad-safakhou/chatgate/tools/web_search"
)

// AugmentKind identifies which context source, if any, a turn uses.
type AugmentKind int

const (
	AugmentNone AugmentKind = iota
	AugmentDocument
	AugmentSearch
)

// Augmentation is the router's decision for one turn: a tagged variant of
// none / document context / search context, plus the tier that chose it.
type Augmentation struct {
	Kind    AugmentKind
	Context string
	Reason  string
}

// Words whose presence in a message signal it is about the loaded document.
// When a document is loaded these suppress search even if a search keyword
// co-occurs.
var docKeywords = []string{"pdf", "document", "file", "page", "section", "chapter"}

// Words whose presence signal the message needs current information.
var searchKeywords = []string{
	"today", "latest", "current", "recent", "this year",
	"news", "weather", "price", "stock",
	"who is", "what year",
	"2024", "2025", "2026",
	"search", "find", "look up",
}

// Router is the single decision point choosing the context source for a
// turn. It reads session state and calls the retrieval collaborators; it
// never mutates history.
type Router struct {
	searcher   web_search.WebSearcher // nil disables the search path
	maxResults int
	topK       int
	timeout    time.Duration
	logger     *log.Logger
}

func NewRouter(searcher web_search.WebSearcher, maxResults, topK int, timeout time.Duration) *Router {
	if maxResults <= 0 {
		maxResults = 5
	}
	if topK <= 0 {
		topK = 3
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Router{
		searcher:   searcher,
		maxResults: maxResults,
		topK:       topK,
		timeout:    timeout,
		logger:     log.New(log.Writer(), "[ROUTER] ", log.LstdFlags),
	}
}

// Resolve picks exactly one of {none, document, search} for the message.
// Priority: a loaded document always wins over search; without a document,
// search keywords trigger the web path. Search failures, timeouts and empty
// results degrade to no augmentation - a turn never fails because retrieval
// did.
func (r *Router) Resolve(ctx context.Context, userText string, index *docindex.Index) Augmentation {
	lower := strings.ToLower(userText)

	if index != nil && index.IsLoaded() {
		reason := "document loaded"
		if containsAny(lower, docKeywords) {
			reason = "document keyword"
		}
		snips := index.Query(userText, r.topK)
		if len(snips) == 0 {
			return Augmentation{Kind: AugmentNone, Reason: "document yielded no snippets"}
		}
		return Augmentation{
			Kind:    AugmentDocument,
			Context: docindex.FormatSnippets(snips),
			Reason:  reason,
		}
	}

	if !needsSearch(lower) {
		return Augmentation{Kind: AugmentNone, Reason: "no trigger"}
	}
	if r.searcher == nil {
		return Augmentation{Kind: AugmentNone, Reason: "search not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	results, err := r.searcher.Search(ctx, userText, r.maxResults)
	if err != nil {
		searchesTotal.WithLabelValues("error").Inc()
		r.logger.Printf("search failed, continuing without augmentation: %v", err)
		return Augmentation{Kind: AugmentNone, Reason: "search failed"}
	}
	if len(results) == 0 {
		searchesTotal.WithLabelValues("empty").Inc()
		return Augmentation{Kind: AugmentNone, Reason: "search returned nothing"}
	}
	searchesTotal.WithLabelValues("ok").Inc()
	return Augmentation{
		Kind:    AugmentSearch,
		Context: web_search.Format(results),
		Reason:  "search keyword",
	}
}

// needsSearch reports whether the lowercased message matches the
// current-information keyword set. A message containing both "date" and
// "today" is a benign self-referential question the model can answer
// itself; that narrow carve-out suppresses the trigger.
func needsSearch(lower string) bool {
	if strings.Contains(lower, "date") && strings.Contains(lower, "today") {
		return false
	}
	return containsAny(lower, searchKeywords)
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
