package store

import "chatstate/internal/chat/model"

// VoteMessage records the vote for (chatID, messageID), replacing any earlier
// one. Only voteType "up" counts as an upvote.
func (s *ChatStore) VoteMessage(chatID, messageID, voteType string) model.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote := model.Vote{
		ChatID:    chatID,
		MessageID: messageID,
		IsUpvoted: voteType == "up",
	}
	s.votes[voteKey{chatID: chatID, messageID: messageID}] = vote
	return vote
}

func (s *ChatStore) GetVotesByChatID(chatID string) []model.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	votes := make([]model.Vote, 0)
	for key, vote := range s.votes {
		if key.chatID == chatID {
			votes = append(votes, vote)
		}
	}
	return votes
}
