package chat

import (
	"fmt"
	"time"
)

const basePrompt = "You are a helpful AI assistant with memory. Be concise and helpful."

// SystemPrompt builds the session system message as a pure function of the
// document-loaded state and the current date. It is recomputed and swapped
// in whenever document state changes, never edited in place.
func SystemPrompt(docName string, pages int, now time.Time) string {
	prompt := fmt.Sprintf("%s Today's date is %s.", basePrompt, now.Format("January 2, 2006"))
	if docName == "" {
		return prompt
	}
	return fmt.Sprintf("%s The user has loaded a document named %q (%d pages). "+
		"Answer questions about it using the excerpts provided with each question, "+
		"quote the document exactly and mention page numbers.", prompt, docName, pages)
}

// preamble is the human-visible status chunk emitted before any model
// tokens when a turn is augmented. It is not part of the model's reply and
// is never committed to history.
func preamble(kind AugmentKind) string {
	switch kind {
	case AugmentSearch:
		return "Searching the web...\n\n"
	case AugmentDocument:
		return "Searching the document...\n\n"
	}
	return ""
}

// buildAugmentedPrompt splices retrieved context into the model-facing copy
// of the user message. The result exists only for one generation call; the
// durable history keeps the user's original text.
func buildAugmentedPrompt(userText string, aug Augmentation) string {
	switch aug.Kind {
	case AugmentSearch:
		return fmt.Sprintf("%s\n\nWeb search results:\n%s\n\n"+
			"Answer the question using the search results above. "+
			"Quote sources exactly, include their URLs, and do not make up information.",
			userText, aug.Context)
	case AugmentDocument:
		return fmt.Sprintf("%s\n\nRelevant document excerpts:\n%s\n\n"+
			"Answer the question using the excerpts above. "+
			"Quote the document exactly, mention page numbers, and do not make up information.",
			userText, aug.Context)
	}
	return userText
}
