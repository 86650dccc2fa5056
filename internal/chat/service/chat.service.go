package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"chatstate/internal/chat/model"
	"chatstate/pkg/logger"
	"chatstate/socket"
	"chatstate/store"

	"github.com/google/uuid"
)

// usageWindowHours is the rolling window MaxMessagesPerDay is counted over.
const usageWindowHours = 24

type Publisher interface {
	Publish(msg socket.WSMessage)
	RemoveChat(chatID string)
}

type Archiver interface {
	MarkDirty(chatID string)
}

type TitleGenerator interface {
	Generate(ctx context.Context, parts json.RawMessage) string
}

type ChatService struct {
	Store   *store.ChatStore
	Hub     Publisher
	Archive Archiver
	Titles  TitleGenerator

	// MaxMessagesPerDay caps user messages per user over the trailing 24 hours; 0 disables it.
	MaxMessagesPerDay int

	Now func() time.Time

	// writeMu pairs the id and usage checks with the save they guard.
	writeMu sync.Mutex
}

func NewChatService(st *store.ChatStore, hub Publisher, archive Archiver, titles TitleGenerator, maxMessagesPerDay int) *ChatService {
	return &ChatService{
		Store:             st,
		Hub:               hub,
		Archive:           archive,
		Titles:            titles,
		MaxMessagesPerDay: maxMessagesPerDay,
		Now:               time.Now,
	}
}

// Chat records a user turn: it creates the chat on first use, enforces the
// usage window, stores the message and opens a stream marker for the reply.
func (s *ChatService) Chat(ctx context.Context, userID string, req model.ChatRequest) (*model.ChatResponse, error) {
	if req.ID == "" || req.Message.ID == "" || len(req.Message.Parts) == 0 {
		return nil, ErrInvalidMessage
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}
	if !visibility.Valid() {
		return nil, ErrInvalidVisibility
	}

	title := ""
	if _, ok := s.Store.GetChatByID(req.ID); !ok {
		title = s.Titles.Generate(ctx, req.Message.Parts)
	}

	chat, msg, err := s.saveTurn(ctx, userID, req, visibility, title)
	if err != nil {
		return nil, err
	}

	streamID := uuid.NewString()
	s.Store.CreateStreamID(streamID, chat.ID)

	s.changed(chat.ID, userID, socket.MessagesSavedType, []model.Message{msg})
	return &model.ChatResponse{Chat: chat, Message: msg, StreamID: streamID}, nil
}

func (s *ChatService) saveTurn(ctx context.Context, userID string, req model.ChatRequest, visibility model.Visibility, title string) (model.Chat, model.Message, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.MaxMessagesPerDay > 0 && s.Store.GetMessageCountByUserID(userID, usageWindowHours) >= s.MaxMessagesPerDay {
		return model.Chat{}, model.Message{}, ErrRateLimited
	}

	chat, exists := s.Store.GetChatByID(req.ID)
	if exists && chat.UserID != userID {
		return model.Chat{}, model.Message{}, ErrForbidden
	}

	msg := s.toMessage(req.ID, req.Message)
	msg.Role = model.RoleUser
	msg.CreatedAt = s.Now()
	if err := s.checkMessageIDs(req.ID, []model.Message{msg}); err != nil {
		return model.Chat{}, model.Message{}, err
	}

	if !exists {
		// Deleted since the lookup in Chat.
		if title == "" {
			title = s.Titles.Generate(ctx, req.Message.Parts)
		}
		chat = s.Store.SaveChat(req.ID, userID, title, visibility)
		logger.Sugar.Infof("Created chat %s for user %s", chat.ID, userID)
	}
	s.Store.SaveMessages([]model.Message{msg})
	return chat, msg, nil
}

// checkMessageIDs rejects ids that already name a message in another chat.
// Callers hold writeMu.
func (s *ChatService) checkMessageIDs(chatID string, messages []model.Message) error {
	for _, msg := range messages {
		if existing, ok := s.Store.GetMessageByID(msg.ID); ok && existing.ChatID != chatID {
			return ErrMessageIDTaken
		}
	}
	return nil
}

// SaveMessages stores messages produced outside the user turn, typically the
// assistant reply assembled by the caller from the upstream stream.
func (s *ChatService) SaveMessages(userID, chatID string, inputs []model.MessageInput) ([]model.Message, error) {
	if _, err := s.ownedChat(chatID, userID); err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(inputs))
	for _, in := range inputs {
		if in.ID == "" {
			return nil, ErrInvalidMessage
		}
		msg := s.toMessage(chatID, in)
		if msg.Role == "" {
			msg.Role = model.RoleAssistant
		}
		messages = append(messages, msg)
	}

	s.writeMu.Lock()
	if err := s.checkMessageIDs(chatID, messages); err != nil {
		s.writeMu.Unlock()
		return nil, err
	}
	s.Store.SaveMessages(messages)
	s.writeMu.Unlock()

	s.changed(chatID, userID, socket.MessagesSavedType, messages)
	return messages, nil
}

func (s *ChatService) toMessage(chatID string, in model.MessageInput) model.Message {
	msg := model.Message{
		ID:          in.ID,
		ChatID:      chatID,
		Role:        in.Role,
		Parts:       in.Parts,
		Attachments: in.Attachments,
		CreatedAt:   in.CreatedAt,
	}
	if msg.Attachments == nil {
		msg.Attachments = []json.RawMessage{}
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.Now()
	}
	return msg
}

func (s *ChatService) Messages(userID, chatID string) ([]model.Message, error) {
	if _, err := s.readableChat(chatID, userID); err != nil {
		return nil, err
	}
	return s.Store.GetMessagesByChatID(chatID), nil
}

// DeleteTrailingMessages removes messageID and everything after it in its chat.
func (s *ChatService) DeleteTrailingMessages(userID, messageID string) error {
	msg, ok := s.Store.GetMessageByID(messageID)
	if !ok {
		return ErrMessageNotFound
	}
	if _, err := s.ownedChat(msg.ChatID, userID); err != nil {
		return err
	}

	s.Store.DeleteMessagesByChatIDAfterTimestamp(msg.ChatID, msg.CreatedAt)
	s.changed(msg.ChatID, userID, socket.MessagesTruncatedType, map[string]time.Time{"after": msg.CreatedAt})
	return nil
}

// History returns a page of the user's chats; see store.ChatStore.GetChatsByUserID.
func (s *ChatService) History(userID string, q model.ChatPageQuery) (model.ChatPage, error) {
	return s.Store.GetChatsByUserID(userID, q)
}

// DeleteChat returns the deleted chat, or false when there was nothing to delete.
func (s *ChatService) DeleteChat(userID, chatID string) (model.Chat, bool, error) {
	chat, ok := s.Store.GetChatByID(chatID)
	if !ok {
		return model.Chat{}, false, nil
	}
	if chat.UserID != userID {
		return model.Chat{}, false, ErrForbidden
	}

	chat, ok = s.Store.DeleteChatByID(chatID)
	if ok {
		s.removed(chatID, userID)
	}
	return chat, ok, nil
}

func (s *ChatService) DeleteAllChats(userID string) int {
	deleted := s.Store.DeleteAllChatsByUserID(userID)
	for _, chat := range deleted {
		s.removed(chat.ID, userID)
	}
	logger.Sugar.Infof("Deleted %d chats for user %s", len(deleted), userID)
	return len(deleted)
}

func (s *ChatService) UpdateVisibility(userID, chatID string, visibility model.Visibility) error {
	if !visibility.Valid() {
		return ErrInvalidVisibility
	}
	if _, err := s.ownedChat(chatID, userID); err != nil {
		return err
	}
	s.Store.UpdateChatVisibilityByID(chatID, visibility)
	s.changed(chatID, userID, socket.VisibilityType, model.VisibilityRequest{Visibility: visibility})
	return nil
}

func (s *ChatService) UpdateLastContext(userID, chatID string, usage model.Usage) error {
	if _, err := s.ownedChat(chatID, userID); err != nil {
		return err
	}
	s.Store.UpdateChatLastContextByID(chatID, usage)
	s.changed(chatID, userID, socket.ContextType, usage)
	return nil
}

func (s *ChatService) Vote(userID string, req model.VoteRequest) (model.Vote, error) {
	if req.Type != "up" && req.Type != "down" {
		return model.Vote{}, ErrInvalidVoteType
	}
	if _, err := s.ownedChat(req.ChatID, userID); err != nil {
		return model.Vote{}, err
	}
	if msg, ok := s.Store.GetMessageByID(req.MessageID); !ok || msg.ChatID != req.ChatID {
		return model.Vote{}, ErrMessageNotFound
	}

	vote := s.Store.VoteMessage(req.ChatID, req.MessageID, req.Type)
	s.publish(req.ChatID, userID, socket.VoteType, vote)
	return vote, nil
}

func (s *ChatService) Votes(userID, chatID string) ([]model.Vote, error) {
	if _, err := s.readableChat(chatID, userID); err != nil {
		return nil, err
	}
	return s.Store.GetVotesByChatID(chatID), nil
}

func (s *ChatService) StreamIDs(userID, chatID string) ([]string, error) {
	if _, err := s.readableChat(chatID, userID); err != nil {
		return nil, err
	}
	return s.Store.GetStreamIDsByChatID(chatID), nil
}

// CanRead reports whether userID may see the chat: its owner, or anyone when it is public.
func (s *ChatService) CanRead(chatID, userID string) bool {
	_, err := s.readableChat(chatID, userID)
	return err == nil
}

func (s *ChatService) readableChat(chatID, userID string) (model.Chat, error) {
	chat, ok := s.Store.GetChatByID(chatID)
	if !ok {
		return model.Chat{}, ErrChatNotFound
	}
	if chat.Visibility != model.VisibilityPublic && chat.UserID != userID {
		return model.Chat{}, ErrForbidden
	}
	return chat, nil
}

func (s *ChatService) ownedChat(chatID, userID string) (model.Chat, error) {
	chat, ok := s.Store.GetChatByID(chatID)
	if !ok {
		return model.Chat{}, ErrChatNotFound
	}
	if chat.UserID != userID {
		return model.Chat{}, ErrForbidden
	}
	return chat, nil
}

// changed marks the chat for archiving and tells its subscribers.
func (s *ChatService) changed(chatID, userID, eventType string, payload any) {
	if s.Archive != nil {
		s.Archive.MarkDirty(chatID)
	}
	s.publish(chatID, userID, eventType, payload)
}

func (s *ChatService) removed(chatID, userID string) {
	if s.Archive != nil {
		s.Archive.MarkDirty(chatID)
	}
	s.publish(chatID, userID, socket.ChatDeletedType, nil)
	if s.Hub != nil {
		s.Hub.RemoveChat(chatID)
	}
}

func (s *ChatService) publish(chatID, userID, eventType string, payload any) {
	if s.Hub == nil {
		return
	}
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			logger.Sugar.Errorf("Error marshalling %s event for chat %s: %v", eventType, chatID, err)
			return
		}
		raw = b
	}
	s.Hub.Publish(socket.WSMessage{Type: eventType, ChatID: chatID, UserID: userID, Payload: raw})
}

// IsClientError reports whether err stems from the caller's input rather than the service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMessage) ||
		errors.Is(err, ErrInvalidVisibility) ||
		errors.Is(err, ErrInvalidVoteType) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, store.ErrConflictingCursors)
}

// IsConflict reports whether err is an id collision with another user's data.
func IsConflict(err error) bool {
	return errors.Is(err, ErrMessageIDTaken) || errors.Is(err, ErrSuggestionIDTaken)
}
