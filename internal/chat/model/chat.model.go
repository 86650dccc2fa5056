package model

import (
	"encoding/json"
	"time"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Usage is the token accounting snapshot of the last completion in a chat.
type Usage struct {
	ModelID      string `json:"model_id,omitempty"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalTokens  int    `json:"total_tokens"`
}

type Chat struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Visibility  Visibility `json:"visibility"`
	CreatedAt   time.Time  `json:"created_at"`
	LastContext *Usage     `json:"last_context,omitempty"`
}

type Message struct {
	ID          string            `json:"id"`
	ChatID      string            `json:"chat_id"`
	Role        string            `json:"role"`
	Parts       json.RawMessage   `json:"parts"`
	Attachments []json.RawMessage `json:"attachments"`
	CreatedAt   time.Time         `json:"created_at"`
}

type Vote struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	IsUpvoted bool   `json:"is_upvoted"`
}

type Stream struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatPageQuery selects one page of a user's history. At most one cursor may be set.
type ChatPageQuery struct {
	Limit         int
	StartingAfter string
	EndingBefore  string
}

type ChatPage struct {
	Chats   []Chat `json:"chats"`
	HasMore bool   `json:"has_more"`
}
