package server

import (
	"context"
	"strings"
	"time"

	"github.com/mohammad-safakhou/chatgate/internal/chat"
	"github.com/mohammad-safakhou/chatgate/models"
	"github.com/mohammad-safakhou/chatgate/tools/pdfextract"
)

type fakeLLM struct {
	chunks []string
	err    error
}

func (f *fakeLLM) ChatStream(ctx context.Context, messages []models.Message, onDelta func(string) error) (string, error) {
	var full strings.Builder
	for _, ch := range f.chunks {
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

type fakeExtractor struct {
	pages []pdfextract.Page
	err   error
}

func (f fakeExtractor) Pages(data []byte) ([]pdfextract.Page, error) {
	return f.pages, f.err
}

func testRegistry(llm *fakeLLM, extract pdfextract.Extractor) *chat.Registry {
	router := chat.NewRouter(nil, 5, 3, time.Second)
	return chat.NewRegistry(func(id string) *chat.Session {
		return chat.NewSession(id, llm, router, extract)
	})
}
