package store

import (
	"encoding/json"
	"testing"
	"time"

	"chatstate/internal/chat/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagesAscendingByCreatedAt(t *testing.T) {
	s, _ := newTestStore()
	s.SaveMessages([]model.Message{
		msg("late", "c1", model.RoleAssistant, t0.Add(2*time.Minute)),
		msg("early", "c1", model.RoleUser, t0),
		msg("mid", "c1", model.RoleUser, t0.Add(time.Minute)),
		msg("elsewhere", "c2", model.RoleUser, t0),
	})

	assert.Equal(t, []string{"early", "mid", "late"}, messageIDs(s.GetMessagesByChatID("c1")))
	assert.NotNil(t, s.GetMessagesByChatID("none"))
}

func TestSaveMessagesUpserts(t *testing.T) {
	s, _ := newTestStore()
	s.SaveMessages([]model.Message{msg("m1", "c1", model.RoleUser, t0)})

	replacement := msg("m1", "c1", model.RoleAssistant, t0)
	replacement.Parts = json.RawMessage(`[{"type":"text","text":"edited"}]`)
	s.SaveMessages([]model.Message{replacement})

	got, ok := s.GetMessageByID("m1")
	require.True(t, ok)
	assert.Equal(t, model.RoleAssistant, got.Role)
	assert.JSONEq(t, `[{"type":"text","text":"edited"}]`, string(got.Parts))
	assert.Len(t, s.GetMessagesByChatID("c1"), 1)
}

func TestGetMessageByIDMissing(t *testing.T) {
	s, _ := newTestStore()
	_, ok := s.GetMessageByID("missing")
	assert.False(t, ok)
}

func TestStoredMessageDoesNotAliasCaller(t *testing.T) {
	s, _ := newTestStore()
	m := msg("m1", "c1", model.RoleUser, t0)
	s.SaveMessages([]model.Message{m})
	m.Parts[0] = 'X'

	got, _ := s.GetMessageByID("m1")
	assert.Equal(t, byte('['), got.Parts[0])
}

func TestDeleteMessagesAfterTimestampIsInclusive(t *testing.T) {
	s, _ := newTestStore()
	t1, t2 := t0.Add(time.Minute), t0.Add(2*time.Minute)
	s.SaveChat("c1", "u1", "t", model.VisibilityPrivate)
	s.SaveMessages([]model.Message{
		msg("m1", "c1", model.RoleUser, t0),
		msg("m2", "c1", model.RoleAssistant, t1),
		msg("m3", "c1", model.RoleUser, t2),
		msg("other", "c2", model.RoleUser, t2),
	})
	s.VoteMessage("c1", "m1", "up")
	s.VoteMessage("c1", "m2", "up")
	s.VoteMessage("c1", "m3", "down")

	s.DeleteMessagesByChatIDAfterTimestamp("c1", t1)

	assert.Equal(t, []string{"m1"}, messageIDs(s.GetMessagesByChatID("c1")))
	votes := s.GetVotesByChatID("c1")
	require.Len(t, votes, 1)
	assert.Equal(t, "m1", votes[0].MessageID)
	assert.Len(t, s.GetMessagesByChatID("c2"), 1)
}

func TestGetMessageCountByUserIDWindow(t *testing.T) {
	s, clock := newTestStore()
	now := t0.Add(10 * time.Hour)

	s.SaveChat("mine", "u1", "t", model.VisibilityPrivate)
	s.SaveChat("theirs", "u2", "t", model.VisibilityPrivate)
	clock.Set(now)

	var msgs []model.Message
	for i, hoursAgo := range []float64{0.5, 2, 3, 5, 9.5} {
		at := now.Add(-time.Duration(hoursAgo * float64(time.Hour)))
		msgs = append(msgs, msg(string(rune('a'+i)), "mine", model.RoleUser, at))
	}
	msgs = append(msgs,
		msg("reply", "mine", model.RoleAssistant, now),
		msg("foreign", "theirs", model.RoleUser, now),
	)
	s.SaveMessages(msgs)

	// 0.5h, 2h and exactly 3h ago fall inside the trailing 3 hours
	assert.Equal(t, 3, s.GetMessageCountByUserID("u1", 3))
	assert.Equal(t, 5, s.GetMessageCountByUserID("u1", 24))
	assert.Equal(t, 1, s.GetMessageCountByUserID("u2", 24))
	assert.Equal(t, 0, s.GetMessageCountByUserID("nobody", 24))
}

func TestVoteUpsert(t *testing.T) {
	s, _ := newTestStore()
	s.VoteMessage("c1", "m1", "up")
	s.VoteMessage("c1", "m1", "down")

	votes := s.GetVotesByChatID("c1")
	require.Len(t, votes, 1)
	assert.False(t, votes[0].IsUpvoted)

	s.VoteMessage("c1", "m1", "up")
	votes = s.GetVotesByChatID("c1")
	require.Len(t, votes, 1)
	assert.True(t, votes[0].IsUpvoted)

	s.VoteMessage("c1", "m2", "sideways")
	assert.Len(t, s.GetVotesByChatID("c1"), 2)
}

func TestVoteKeysDoNotCollide(t *testing.T) {
	s, _ := newTestStore()
	s.VoteMessage("a-b", "c", "up")
	s.VoteMessage("a", "b-c", "down")

	assert.Len(t, s.GetVotesByChatID("a-b"), 1)
	assert.Len(t, s.GetVotesByChatID("a"), 1)
}

func TestStreamIDsAscending(t *testing.T) {
	s, clock := newTestStore()
	clock.Set(t0.Add(time.Minute))
	s.CreateStreamID("second", "c1")
	clock.Set(t0)
	s.CreateStreamID("first", "c1")
	s.CreateStreamID("elsewhere", "c2")

	assert.Equal(t, []string{"first", "second"}, s.GetStreamIDsByChatID("c1"))
	assert.Empty(t, s.GetStreamIDsByChatID("none"))
}
