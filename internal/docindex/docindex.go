package docindex

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mohammad-safakhou/chatgate/tools/pdfextract"
)

// excerptLimit bounds the text returned per snippet.
const excerptLimit = 1000

// ErrNoText means extraction produced zero usable pages. A load that
// cannot yield any chunks is rejected and leaves prior state untouched.
var ErrNoText = errors.New("document has no extractable text")

// Chunk is one page of extracted document text.
type Chunk struct {
	Page int
	Text string
}

// Snippet is a transient, page-tagged excerpt produced for a single turn's
// prompt construction. It is never stored in history.
type Snippet struct {
	Page    int
	Excerpt string
}

// Summary reports what a successful load produced.
type Summary struct {
	Name  string
	Pages int
	Chars int
}

// Index holds the page chunks of at most one loaded document and answers
// keyword-relevance queries against them.
type Index struct {
	mu      sync.RWMutex
	extract pdfextract.Extractor
	name    string
	chunks  []Chunk
}

func New(extract pdfextract.Extractor) *Index {
	return &Index{extract: extract}
}

// Load extracts page text from data and replaces the entire prior chunk
// collection. On any failure, including a document with no extractable
// text, the prior state is left untouched.
func (x *Index) Load(data []byte, name string) (Summary, error) {
	pages, err := x.extract.Pages(data)
	if err != nil {
		return Summary{}, fmt.Errorf("load document: %w", err)
	}
	if len(pages) == 0 {
		return Summary{}, ErrNoText
	}

	chunks := make([]Chunk, 0, len(pages))
	chars := 0
	for _, p := range pages {
		chunks = append(chunks, Chunk{Page: p.Number, Text: p.Text})
		chars += len(p.Text)
	}

	x.mu.Lock()
	x.chunks = chunks
	x.name = name
	x.mu.Unlock()

	return Summary{Name: name, Pages: len(chunks), Chars: chars}, nil
}

// Query scores each chunk by the number of question words present as
// substrings of the chunk's lowercased text and returns the topK highest
// scoring chunks, descending by score, ties broken by page order. When no
// chunk scores above zero the first topK chunks are returned in page order
// so a keyword-mismatched question still gets some context.
func (x *Index) Query(question string, topK int) []Snippet {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if len(x.chunks) == 0 || topK <= 0 {
		return nil
	}

	words := strings.Fields(strings.ToLower(question))

	type scored struct {
		chunk Chunk
		score int
	}
	all := make([]scored, 0, len(x.chunks))
	anyHit := false
	for _, c := range x.chunks {
		lower := strings.ToLower(c.Text)
		score := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				score++
			}
		}
		if score > 0 {
			anyHit = true
		}
		all = append(all, scored{chunk: c, score: score})
	}

	if anyHit {
		sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	}
	if topK > len(all) {
		topK = len(all)
	}

	out := make([]Snippet, 0, topK)
	for _, s := range all[:topK] {
		out = append(out, Snippet{Page: s.chunk.Page, Excerpt: excerpt(s.chunk.Text)})
	}
	return out
}

// IsLoaded reports whether a document is currently loaded.
func (x *Index) IsLoaded() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.chunks) > 0
}

// Info returns the loaded document's name and page count.
func (x *Index) Info() (name string, pages int, loaded bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.name, len(x.chunks), len(x.chunks) > 0
}

// Clear wipes chunks and name together.
func (x *Index) Clear() {
	x.mu.Lock()
	x.chunks = nil
	x.name = ""
	x.mu.Unlock()
}

// FormatSnippets renders snippets as page-tagged blocks for prompt
// construction.
func FormatSnippets(snips []Snippet) string {
	parts := make([]string, 0, len(snips))
	for _, s := range snips {
		parts = append(parts, fmt.Sprintf("[Page %d]\n%s", s.Page, s.Excerpt))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func excerpt(s string) string {
	if len(s) <= excerptLimit {
		return s
	}
	return s[:excerptLimit] + "…"
}
