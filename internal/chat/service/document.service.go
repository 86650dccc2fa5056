package service

import (
	"time"

	"chatstate/internal/chat/model"

	"github.com/google/uuid"
)

// SaveDocument appends a new version. Only the document's owner may add versions.
func (s *ChatService) SaveDocument(userID, id string, req model.DocumentRequest) (model.Document, error) {
	if !req.Kind.Valid() {
		return model.Document{}, ErrInvalidKind
	}
	if latest, ok := s.Store.GetDocumentByID(id); ok && latest.UserID != userID {
		return model.Document{}, ErrForbidden
	}
	return s.Store.SaveDocument(id, req.Title, req.Kind, req.Content, userID), nil
}

func (s *ChatService) Documents(userID, id string) ([]model.Document, error) {
	if _, err := s.ownedDocument(id, userID); err != nil {
		return nil, err
	}
	return s.Store.GetDocumentsByID(id), nil
}

func (s *ChatService) LatestDocument(userID, id string) (model.Document, error) {
	return s.ownedDocument(id, userID)
}

// DeleteDocumentsAfter rolls the document back to the versions created at or
// before timestamp and returns the versions that were dropped.
func (s *ChatService) DeleteDocumentsAfter(userID, id string, timestamp time.Time) ([]model.Document, error) {
	if _, err := s.ownedDocument(id, userID); err != nil {
		return nil, err
	}
	return s.Store.DeleteDocumentsByIDAfterTimestamp(id, timestamp), nil
}

func (s *ChatService) Suggestions(userID, documentID string) ([]model.Suggestion, error) {
	if latest, ok := s.Store.GetDocumentByID(documentID); ok && latest.UserID != userID {
		return nil, ErrForbidden
	}
	return s.Store.GetSuggestionsByDocumentID(documentID), nil
}

// SaveSuggestions stores suggestions against one version of the document,
// generating ids for new suggestions.
func (s *ChatService) SaveSuggestions(userID string, req model.SaveSuggestionsRequest) ([]model.Suggestion, error) {
	latest, err := s.ownedDocument(req.DocumentID, userID)
	if err != nil {
		return nil, err
	}

	pinned := latest.CreatedAt
	if !req.DocumentCreatedAt.IsZero() {
		found := false
		for _, version := range s.Store.GetDocumentsByID(req.DocumentID) {
			if version.CreatedAt.Equal(req.DocumentCreatedAt) {
				pinned, found = version.CreatedAt, true
				break
			}
		}
		if !found {
			return nil, ErrDocumentNotFound
		}
	}

	now := s.Now()
	suggestions := make([]model.Suggestion, 0, len(req.Suggestions))
	for _, in := range req.Suggestions {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		suggestions = append(suggestions, model.Suggestion{
			ID:                id,
			DocumentID:        req.DocumentID,
			DocumentCreatedAt: pinned,
			OriginalText:      in.OriginalText,
			SuggestedText:     in.SuggestedText,
			Description:       in.Description,
			IsResolved:        in.IsResolved,
			UserID:            userID,
			CreatedAt:         now,
		})
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, sug := range suggestions {
		if existing, ok := s.Store.GetSuggestionByID(sug.ID); ok && existing.DocumentID != sug.DocumentID {
			return nil, ErrSuggestionIDTaken
		}
	}
	s.Store.SaveSuggestions(suggestions)
	return suggestions, nil
}

func (s *ChatService) ownedDocument(id, userID string) (model.Document, error) {
	latest, ok := s.Store.GetDocumentByID(id)
	if !ok {
		return model.Document{}, ErrDocumentNotFound
	}
	if latest.UserID != userID {
		return model.Document{}, ErrForbidden
	}
	return latest, nil
}
