package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mohammad-safakhou/chatgate/models"
	"github.com/mohammad-safakhou/chatgate/provider"
	"github.com/mohammad-safakhou/chatgate/tools/pdfextract"
)

type fakeLLM struct {
	mu     sync.Mutex
	chunks []string
	err    error
	calls  [][]models.Message
}

func (f *fakeLLM) ChatStream(ctx context.Context, messages []models.Message, onDelta func(string) error) (string, error) {
	f.mu.Lock()
	snapshot := make([]models.Message, len(messages))
	copy(snapshot, messages)
	f.calls = append(f.calls, snapshot)
	f.mu.Unlock()

	var full strings.Builder
	for _, ch := range f.chunks {
		if ch == "" {
			continue
		}
		full.WriteString(ch)
		if err := onDelta(ch); err != nil {
			return "", err
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return full.String(), nil
}

func (f *fakeLLM) lastCall() []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// blockingLLM parks inside the generation call until released, to exercise
// the single generation slot.
type blockingLLM struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingLLM) ChatStream(ctx context.Context, messages []models.Message, onDelta func(string) error) (string, error) {
	close(b.started)
	<-b.release
	if err := onDelta("ok"); err != nil {
		return "", err
	}
	return "ok", nil
}

func newTestSession(llm provider.Provider) *Session {
	return NewSession("s1", llm, NewRouter(nil, 5, 3, time.Second), fakeExtractor{})
}

func singlePage(text string) []pdfextract.Page {
	return []pdfextract.Page{{Number: 1, Text: text}}
}

func collect(chunks *[]string) func(string) error {
	return func(delta string) error {
		*chunks = append(*chunks, delta)
		return nil
	}
}

func TestTurnCommitsUserAndAssistant(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"Hel", "lo"}}
	s := newTestSession(llm)

	var streamed []string
	final, err := s.Turn(context.Background(), "hi there", collect(&streamed))
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if final != "Hello" {
		t.Fatalf("unexpected final: %q", final)
	}
	if strings.Join(streamed, "") != "Hello" {
		t.Fatalf("unexpected stream: %q", streamed)
	}

	history := s.History()
	if len(history) != 3 {
		t.Fatalf("history should be system+user+assistant, got %d entries", len(history))
	}
	if history[1].Role != models.RoleUser || history[1].Content != "hi there" {
		t.Fatalf("user entry must hold the verbatim input, got %+v", history[1])
	}
	if history[2].Role != models.RoleAssistant || history[2].Content != "Hello" {
		t.Fatalf("unexpected assistant entry: %+v", history[2])
	}
}

func TestTurnFailureCommitsOnlyUser(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"partial "}, err: errors.New("model unavailable")}
	s := newTestSession(llm)

	if _, err := s.Turn(context.Background(), "hi", func(string) error { return nil }); err == nil {
		t.Fatal("expected generation error")
	}

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("failed turn should leave system+user only, got %d entries", len(history))
	}
	if history[1].Content != "hi" {
		t.Fatalf("user entry should survive a failed turn, got %+v", history[1])
	}
}

func TestTurnAugmentedPromptNeverPersisted(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"answer"}}
	s := newTestSession(llm)
	s.index = loadedIndex(t, "the document talks about widgets")

	var streamed []string
	if _, err := s.Turn(context.Background(), "what does the document say", collect(&streamed)); err != nil {
		t.Fatalf("Turn: %v", err)
	}

	// preamble first, then model output
	if len(streamed) == 0 || streamed[0] != "Searching the document...\n\n" {
		t.Fatalf("expected document preamble as first chunk, got %q", streamed)
	}

	// the model saw the augmented prompt
	outgoing := llm.lastCall()
	last := outgoing[len(outgoing)-1]
	if !strings.Contains(last.Content, "Relevant document excerpts") {
		t.Fatalf("model should receive the augmented prompt, got %q", last.Content)
	}

	// history kept the plain text
	history := s.History()
	if history[1].Content != "what does the document say" {
		t.Fatalf("history must keep the verbatim user text, got %q", history[1].Content)
	}
	for _, m := range history {
		if strings.Contains(m.Content, "Relevant document excerpts") {
			t.Fatal("augmented text leaked into durable history")
		}
	}
}

func TestTurnRejectsConcurrent(t *testing.T) {
	llm := &blockingLLM{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestSession(llm)

	done := make(chan error, 1)
	go func() {
		_, err := s.Turn(context.Background(), "first", func(string) error { return nil })
		done <- err
	}()

	<-llm.started
	if _, err := s.Turn(context.Background(), "second", func(string) error { return nil }); !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("expected ErrTurnInFlight, got %v", err)
	}

	close(llm.release)
	if err := <-done; err != nil {
		t.Fatalf("first turn should complete: %v", err)
	}

	history := s.History()
	if len(history) != 3 {
		t.Fatalf("only the first turn should have committed, got %d entries", len(history))
	}
}

func TestSequentialTurnsDoNotInterleave(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"reply"}}
	s := newTestSession(llm)

	for _, msg := range []string{"one", "two"} {
		if _, err := s.Turn(context.Background(), msg, func(string) error { return nil }); err != nil {
			t.Fatalf("Turn(%q): %v", msg, err)
		}
	}

	history := s.History()
	want := []struct{ role, content string }{
		{models.RoleSystem, ""},
		{models.RoleUser, "one"},
		{models.RoleAssistant, "reply"},
		{models.RoleUser, "two"},
		{models.RoleAssistant, "reply"},
	}
	if len(history) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(history))
	}
	for i, w := range want {
		if history[i].Role != w.role {
			t.Fatalf("entry %d: expected role %s, got %s", i, w.role, history[i].Role)
		}
		if w.content != "" && history[i].Content != w.content {
			t.Fatalf("entry %d: expected %q, got %q", i, w.content, history[i].Content)
		}
	}
}

func TestClearHistoryReflectsDocumentState(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"reply"}}
	s := newTestSession(llm)

	if _, err := s.Turn(context.Background(), "hello", func(string) error { return nil }); err != nil {
		t.Fatalf("Turn: %v", err)
	}
	s.ClearHistory()

	history := s.History()
	if len(history) != 1 || history[0].Role != models.RoleSystem {
		t.Fatalf("ClearHistory should leave exactly one system message, got %d entries", len(history))
	}
	if strings.Contains(history[0].Content, "document") {
		t.Fatal("no-document system prompt should not mention a document")
	}
}

func TestDocumentLifecycleSwapsSystemPrompt(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"reply"}}
	s := NewSession("s1", llm, NewRouter(nil, 5, 3, time.Second),
		fakeExtractor{pages: singlePage("widget specs")})

	summary, err := s.LoadDocument([]byte("%PDF"), "specs.pdf")
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if summary.Pages != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if sys := s.History()[0].Content; !strings.Contains(sys, "specs.pdf") {
		t.Fatalf("system prompt should mention the loaded document, got %q", sys)
	}
	if info := s.DocumentInfo(); !info.Loaded || info.Name != "specs.pdf" {
		t.Fatalf("unexpected document info: %+v", info)
	}

	s.ClearDocument()
	if info := s.DocumentInfo(); info.Loaded || info.Name != "" || info.Pages != 0 {
		t.Fatalf("ClearDocument must restore the pre-load state, got %+v", info)
	}
	if sys := s.History()[0].Content; strings.Contains(sys, "specs.pdf") {
		t.Fatalf("system prompt should drop the document mention, got %q", sys)
	}
}

func TestClearHistoryKeepsDocumentMention(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"reply"}}
	s := NewSession("s1", llm, NewRouter(nil, 5, 3, time.Second),
		fakeExtractor{pages: singlePage("content")})

	if _, err := s.LoadDocument([]byte("%PDF"), "notes.pdf"); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	s.ClearHistory()

	history := s.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(history))
	}
	if !strings.Contains(history[0].Content, "notes.pdf") {
		t.Fatal("regenerated system prompt must reflect the loaded document")
	}
}
