package models

// Role values for conversation messages. They match the wire format of
// OpenAI-compatible chat completion APIs.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a conversation. An ordered sequence of
// messages forms the durable history of a session; the first entry is
// always the current system prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DocumentInfo describes the document currently loaded into a session,
// if any.
type DocumentInfo struct {
	Loaded bool   `json:"loaded"`
	Name   string `json:"name,omitempty"`
	Pages  int    `json:"pages,omitempty"`
}
