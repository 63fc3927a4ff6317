package server

import "github.com/mohammad-safakhou/chatgate/models"

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// SessionResponse carries a session identifier.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// StatusResponse is a generic status wrapper.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// UploadResponse reports a successful document load.
type UploadResponse struct {
	Status   string              `json:"status"`
	Message  string              `json:"message"`
	Document models.DocumentInfo `json:"document"`
}

// wsInbound is a typed client message on the chat WebSocket.
type wsInbound struct {
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	Data     string `json:"data,omitempty"` // base64 document bytes for upload_document
	Filename string `json:"filename,omitempty"`
}

// wsOutbound is a typed server message on the chat WebSocket.
type wsOutbound struct {
	Type         string               `json:"type"`
	Content      string               `json:"content,omitempty"`
	Message      string               `json:"message,omitempty"`
	MessageCount *int                 `json:"message_count,omitempty"`
	Document     *models.DocumentInfo `json:"document,omitempty"`
}
