package store

import (
	"cmp"
	"slices"

	"chatstate/internal/chat/model"
)

// SaveChat creates the chat or replaces it wholesale, dropping any previous LastContext.
func (s *ChatStore) SaveChat(id, userID, title string, visibility model.Visibility) model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := model.Chat{
		ID:         id,
		UserID:     userID,
		Title:      title,
		Visibility: visibility,
		CreatedAt:  s.now(),
	}
	s.chats[id] = chat
	return chat
}

func (s *ChatStore) GetChatByID(id string) (model.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[id]
	if !ok {
		return model.Chat{}, false
	}
	return cloneChat(chat), true
}

// compareChats orders chats newest first; equal timestamps fall back to id, descending.
func compareChats(a, b model.Chat) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// GetChatsByUserID returns one page of the user's chats, newest first.
//
// StartingAfter keeps only chats newer than the cursor chat, EndingBefore only
// older ones. Both are resolved against the cursor chat's position in the
// ordering, so a cursor that is not one of the user's chats is ErrCursorNotFound.
func (s *ChatStore) GetChatsByUserID(userID string, q model.ChatPageQuery) (model.ChatPage, error) {
	if q.StartingAfter != "" && q.EndingBefore != "" {
		return model.ChatPage{}, ErrConflictingCursors
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		cursor    model.Chat
		hasCursor bool
	)
	if id := cmp.Or(q.StartingAfter, q.EndingBefore); id != "" {
		c, ok := s.chats[id]
		if !ok || c.UserID != userID {
			return model.ChatPage{}, ErrCursorNotFound
		}
		cursor, hasCursor = c, true
	}

	chats := make([]model.Chat, 0)
	for _, chat := range s.chats {
		if chat.UserID != userID {
			continue
		}
		if hasCursor {
			order := compareChats(chat, cursor)
			if q.StartingAfter != "" && order >= 0 {
				continue
			}
			if q.EndingBefore != "" && order <= 0 {
				continue
			}
		}
		chats = append(chats, cloneChat(chat))
	}
	slices.SortFunc(chats, compareChats)

	page := model.ChatPage{Chats: chats}
	if q.Limit >= 0 && len(chats) > q.Limit {
		page.Chats = chats[:q.Limit]
		page.HasMore = true
	}
	return page, nil
}

// DeleteChatByID removes the chat together with its votes, messages and
// streams, and returns the chat as it was. Unknown ids change nothing.
func (s *ChatStore) DeleteChatByID(id string) (model.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteChat(id)
}

// deleteChat runs the cascade. Callers must hold s.mu for writing.
func (s *ChatStore) deleteChat(id string) (model.Chat, bool) {
	chat, ok := s.chats[id]
	if !ok {
		return model.Chat{}, false
	}

	for key := range s.votes {
		if key.chatID == id {
			delete(s.votes, key)
		}
	}
	for msgID, msg := range s.messages {
		if msg.ChatID == id {
			delete(s.messages, msgID)
		}
	}
	for streamID, stream := range s.streams {
		if stream.ChatID == id {
			delete(s.streams, streamID)
		}
	}
	delete(s.chats, id)
	return chat, true
}

// DeleteAllChatsByUserID cascades DeleteChatByID over every chat the user owns
// and returns the removed chats, newest first. The deleted count is their length.
func (s *ChatStore) DeleteAllChatsByUserID(userID string) []model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, chat := range s.chats {
		if chat.UserID == userID {
			ids = append(ids, id)
		}
	}

	deleted := make([]model.Chat, 0, len(ids))
	for _, id := range ids {
		if chat, ok := s.deleteChat(id); ok {
			deleted = append(deleted, cloneChat(chat))
		}
	}
	slices.SortFunc(deleted, compareChats)
	return deleted
}

func (s *ChatStore) UpdateChatVisibilityByID(chatID string, visibility model.Visibility) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat, ok := s.chats[chatID]; ok {
		chat.Visibility = visibility
		s.chats[chatID] = chat
	}
}

func (s *ChatStore) UpdateChatLastContextByID(chatID string, usage model.Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat, ok := s.chats[chatID]; ok {
		chat.LastContext = &usage
		s.chats[chatID] = chat
	}
}
