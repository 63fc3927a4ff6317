package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mohammad-safakhou/chatgate/internal/docindex"
	"github.com/mohammad-safakhou/chatgate/models"
	"github.com/mohammad-safakhou/chatgate/provider"
	"github.com/mohammad-safakhou/chatgate/tools/pdfextract"
)

// ErrTurnInFlight is returned when a second turn is started on a session
// while one is still running. Each session has a single generation slot.
var ErrTurnInFlight = errors.New("a turn is already in flight for this session")

// Session owns one conversation: its ordered history, its document index
// and the single in-flight generation slot. Different sessions are fully
// independent.
type Session struct {
	id     string
	llm    provider.Provider
	router *Router
	index  *docindex.Index
	logger *log.Logger

	mu         sync.RWMutex // guards messages and lastActive
	messages   []models.Message
	lastActive time.Time

	turnMu sync.Mutex // generation slot, held for a whole turn
}

func NewSession(id string, llm provider.Provider, router *Router, extract pdfextract.Extractor) *Session {
	s := &Session{
		id:         id,
		llm:        llm,
		router:     router,
		index:      docindex.New(extract),
		logger:     log.New(log.Writer(), "[SESSION] ", log.LstdFlags),
		lastActive: time.Now(),
	}
	s.messages = []models.Message{{Role: models.RoleSystem, Content: SystemPrompt("", 0, time.Now())}}
	return s
}

func (s *Session) ID() string { return s.id }

// Turn runs one user-message-in, assistant-message-out cycle. emit receives
// the augmentation preamble (when present) followed by every model delta,
// in order, with no additional buffering.
//
// History semantics: the plain user text is committed before generation
// starts; the augmented variant goes only to the model and never touches
// history. Normal completion appends the assistant reply (+2 entries per
// turn); a generation failure leaves the user entry without a reply (+1).
func (s *Session) Turn(ctx context.Context, userText string, emit func(delta string) error) (string, error) {
	if !s.turnMu.TryLock() {
		return "", ErrTurnInFlight
	}
	defer s.turnMu.Unlock()
	s.touch()

	aug := s.router.Resolve(ctx, userText, s.index)
	if aug.Kind != AugmentNone {
		s.logger.Printf("session %s: augmenting turn (%s)", s.id, aug.Reason)
		if err := emit(preamble(aug.Kind)); err != nil {
			return "", fmt.Errorf("emit preamble: %w", err)
		}
	}

	// Outgoing list for this one generation call: snapshot of history plus
	// the ephemeral augmented user message.
	outgoing := s.snapshot()
	outgoing = append(outgoing, models.Message{Role: models.RoleUser, Content: buildAugmentedPrompt(userText, aug)})

	s.append(models.Message{Role: models.RoleUser, Content: userText})

	final, err := s.llm.ChatStream(ctx, outgoing, func(delta string) error {
		if delta == "" {
			return nil
		}
		return emit(delta)
	})
	if err != nil {
		return "", fmt.Errorf("generation: %w", err)
	}

	s.append(models.Message{Role: models.RoleAssistant, Content: final})
	return final, nil
}

// ClearHistory resets history to a single fresh system message reflecting
// the current document-loaded state.
func (s *Session) ClearHistory() {
	name, pages, _ := s.index.Info()
	s.mu.Lock()
	s.messages = []models.Message{{Role: models.RoleSystem, Content: SystemPrompt(name, pages, time.Now())}}
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// LoadDocument loads a document into the session's index and swaps in the
// document-aware system prompt. A failed load leaves both untouched.
func (s *Session) LoadDocument(data []byte, name string) (docindex.Summary, error) {
	summary, err := s.index.Load(data, name)
	if err != nil {
		return docindex.Summary{}, err
	}
	s.refreshSystemPrompt()
	return summary, nil
}

// ClearDocument wipes the index and swaps in the no-document system prompt.
func (s *Session) ClearDocument() {
	s.index.Clear()
	s.refreshSystemPrompt()
}

// DocumentInfo describes the currently loaded document.
func (s *Session) DocumentInfo() models.DocumentInfo {
	name, pages, loaded := s.index.Info()
	return models.DocumentInfo{Loaded: loaded, Name: name, Pages: pages}
}

// History returns a copy of the full durable history, system prompt
// included.
func (s *Session) History() []models.Message {
	return s.snapshot()
}

// MessageCount is the number of conversation entries, excluding the system
// prompt.
func (s *Session) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages) - 1
}

// IdleSince reports the last time this session was used.
func (s *Session) IdleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

func (s *Session) refreshSystemPrompt() {
	name, pages, _ := s.index.Info()
	s.mu.Lock()
	s.messages[0] = models.Message{Role: models.RoleSystem, Content: SystemPrompt(name, pages, time.Now())}
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) snapshot() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages), len(s.messages)+1)
	copy(out, s.messages)
	return out
}

func (s *Session) append(m models.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}
