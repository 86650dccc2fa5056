package store

import (
	"slices"
	"strings"

	"chatstate/internal/chat/model"
)

func (s *ChatStore) CreateStreamID(streamID, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streams[streamID] = model.Stream{ID: streamID, ChatID: chatID, CreatedAt: s.now()}
}

// GetStreamIDsByChatID returns the chat's stream ids, oldest first.
func (s *ChatStore) GetStreamIDsByChatID(chatID string) []string {
	s.mu.RLock()
	var streams []model.Stream
	for _, stream := range s.streams {
		if stream.ChatID == chatID {
			streams = append(streams, stream)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(streams, func(a, b model.Stream) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	ids := make([]string, len(streams))
	for i, stream := range streams {
		ids[i] = stream.ID
	}
	return ids
}
