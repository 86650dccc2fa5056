package model

import (
	"encoding/json"
	"time"
)

type MessageInput struct {
	ID          string            `json:"id"`
	Role        string            `json:"role"`
	Parts       json.RawMessage   `json:"parts"`
	Attachments []json.RawMessage `json:"attachments"`
	CreatedAt   time.Time         `json:"created_at"`
}

type ChatRequest struct {
	ID         string       `json:"id"`
	Message    MessageInput `json:"message"`
	Visibility Visibility   `json:"selected_visibility_type"`
}

type ChatResponse struct {
	Chat     Chat    `json:"chat"`
	Message  Message `json:"message"`
	StreamID string  `json:"stream_id"`
}

type SaveMessagesRequest struct {
	Messages []MessageInput `json:"messages"`
}

type VisibilityRequest struct {
	Visibility Visibility `json:"visibility"`
}

type VoteRequest struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	Type      string `json:"type"`
}

type DocumentRequest struct {
	Title   string       `json:"title"`
	Content string       `json:"content"`
	Kind    DocumentKind `json:"kind"`
}

type SuggestionInput struct {
	ID            string `json:"id,omitempty"`
	OriginalText  string `json:"original_text"`
	SuggestedText string `json:"suggested_text"`
	Description   string `json:"description,omitempty"`
	IsResolved    bool   `json:"is_resolved"`
}

// SaveSuggestionsRequest pins suggestions to one document version. A zero
// DocumentCreatedAt means the latest version.
type SaveSuggestionsRequest struct {
	DocumentID        string            `json:"document_id"`
	DocumentCreatedAt time.Time         `json:"document_created_at"`
	Suggestions       []SuggestionInput `json:"suggestions"`
}

type DeleteAllResponse struct {
	DeletedCount int `json:"deleted_count"`
}
