package store

import (
	"slices"
	"time"

	"chatstate/internal/chat/model"
)

// SaveDocument appends a new version of document id. Earlier versions are kept.
func (s *ChatStore) SaveDocument(id, title string, kind model.DocumentKind, content, userID string) model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := model.Document{
		ID:        id,
		CreatedAt: s.now(),
		Title:     title,
		Content:   content,
		Kind:      kind,
		UserID:    userID,
	}
	s.documents[id] = append(s.documents[id], doc)
	return doc
}

// GetDocumentsByID returns every version of the document in creation order.
func (s *ChatStore) GetDocumentsByID(id string) []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(make([]model.Document, 0, len(s.documents[id])), s.documents[id]...)
}

// GetDocumentByID returns the latest version of the document.
func (s *ChatStore) GetDocumentByID(id string) (model.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.documents[id]
	if len(versions) == 0 {
		return model.Document{}, false
	}
	return versions[len(versions)-1], true
}

// DeleteDocumentsByIDAfterTimestamp drops the versions created strictly after
// timestamp and the suggestions pinned to them, returning the dropped versions.
// A version created exactly at timestamp survives.
func (s *ChatStore) DeleteDocumentsByIDAfterTimestamp(id string, timestamp time.Time) []model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []model.Document
	removed := make([]model.Document, 0)
	for _, doc := range s.documents[id] {
		if doc.CreatedAt.After(timestamp) {
			removed = append(removed, doc)
		} else {
			kept = append(kept, doc)
		}
	}
	if len(kept) == 0 {
		delete(s.documents, id)
	} else {
		s.documents[id] = slices.Clip(kept)
	}

	for sugID, sug := range s.suggestions {
		if sug.DocumentID == id && sug.DocumentCreatedAt.After(timestamp) {
			delete(s.suggestions, sugID)
		}
	}
	return removed
}

// SaveSuggestions upserts each suggestion by id.
func (s *ChatStore) SaveSuggestions(suggestions []model.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sug := range suggestions {
		s.suggestions[sug.ID] = sug
	}
}

func (s *ChatStore) GetSuggestionByID(id string) (model.Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sug, ok := s.suggestions[id]
	return sug, ok
}

// GetSuggestionsByDocumentID returns suggestions for any version of the document.
func (s *ChatStore) GetSuggestionsByDocumentID(documentID string) []model.Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suggestions := make([]model.Suggestion, 0)
	for _, sug := range s.suggestions {
		if sug.DocumentID == documentID {
			suggestions = append(suggestions, sug)
		}
	}
	return suggestions
}
