package store

import (
	"cmp"
	"slices"
	"time"

	"chatstate/internal/chat/model"
)

// SaveMessages upserts each message by id.
func (s *ChatStore) SaveMessages(messages []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range messages {
		s.messages[msg.ID] = cloneMessage(msg)
	}
}

func compareMessages(a, b model.Message) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// GetMessagesByChatID returns the chat's messages oldest first.
func (s *ChatStore) GetMessagesByChatID(chatID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]model.Message, 0)
	for _, msg := range s.messages {
		if msg.ChatID == chatID {
			messages = append(messages, cloneMessage(msg))
		}
	}
	slices.SortFunc(messages, compareMessages)
	return messages
}

func (s *ChatStore) GetMessageByID(id string) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return model.Message{}, false
	}
	return cloneMessage(msg), true
}

// DeleteMessagesByChatIDAfterTimestamp removes the chat's messages created at
// or after timestamp, along with their votes. The boundary is inclusive.
func (s *ChatStore) DeleteMessagesByChatIDAfterTimestamp(chatID string, timestamp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, msg := range s.messages {
		if msg.ChatID != chatID || msg.CreatedAt.Before(timestamp) {
			continue
		}
		delete(s.votes, voteKey{chatID: chatID, messageID: id})
		delete(s.messages, id)
	}
}

// GetMessageCountByUserID counts user-role messages created in the trailing
// differenceInHours window across every chat owned by userID.
func (s *ChatStore) GetMessageCountByUserID(userID string, differenceInHours float64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-time.Duration(differenceInHours * float64(time.Hour)))

	count := 0
	for _, msg := range s.messages {
		if msg.Role != model.RoleUser || msg.CreatedAt.Before(cutoff) {
			continue
		}
		if chat, ok := s.chats[msg.ChatID]; ok && chat.UserID == userID {
			count++
		}
	}
	return count
}
