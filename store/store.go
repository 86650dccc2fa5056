// Package store holds the in-memory chat state: users, chats, messages, votes,
// document versions, suggestions and stream markers.
//
// A ChatStore is safe for concurrent use. Every operation runs under a single
// lock, so cascades such as DeleteChatByID are observed all-or-nothing.
// Entities are stored by value and returned as copies.
package store

import (
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"chatstate/internal/chat/model"
)

const (
	DefaultUserID    = "local-user"
	DefaultUserEmail = "local@example.com"
)

var (
	ErrConflictingCursors = errors.New("only one of starting_after or ending_before can be provided")
	ErrCursorNotFound     = errors.New("cursor chat not found")
)

type voteKey struct {
	chatID    string
	messageID string
}

type ChatStore struct {
	mu  sync.RWMutex
	now func() time.Time

	users       map[string]model.User
	chats       map[string]model.Chat
	messages    map[string]model.Message
	votes       map[voteKey]model.Vote
	documents   map[string][]model.Document // id -> versions in creation order
	suggestions map[string]model.Suggestion
	streams     map[string]model.Stream
}

type Option func(*ChatStore)

// WithClock replaces time.Now as the source of createdAt stamps and rate windows.
func WithClock(now func() time.Time) Option {
	return func(s *ChatStore) { s.now = now }
}

func New(opts ...Option) *ChatStore {
	s := &ChatStore{
		now:         time.Now,
		users:       make(map[string]model.User),
		chats:       make(map[string]model.Chat),
		messages:    make(map[string]model.Message),
		votes:       make(map[voteKey]model.Vote),
		documents:   make(map[string][]model.Document),
		suggestions: make(map[string]model.Suggestion),
		streams:     make(map[string]model.Stream),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.users[DefaultUserID] = model.User{ID: DefaultUserID, Email: DefaultUserEmail}
	return s
}

func (s *ChatStore) GetDefaultUser() model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[DefaultUserID]
}

func cloneUsage(u *model.Usage) *model.Usage {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func cloneChat(c model.Chat) model.Chat {
	c.LastContext = cloneUsage(c.LastContext)
	return c
}

func cloneMessage(m model.Message) model.Message {
	m.Parts = slices.Clone(m.Parts)
	if m.Attachments != nil {
		attachments := make([]json.RawMessage, len(m.Attachments))
		for i, a := range m.Attachments {
			attachments[i] = slices.Clone(a)
		}
		m.Attachments = attachments
	}
	return m
}
