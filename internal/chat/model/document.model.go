package model

import "time"

type DocumentKind string

const (
	KindText  DocumentKind = "text"
	KindCode  DocumentKind = "code"
	KindImage DocumentKind = "image"
	KindSheet DocumentKind = "sheet"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case KindText, KindCode, KindImage, KindSheet:
		return true
	}
	return false
}

// Document is one version of a document. Versions sharing an ID are ordered by CreatedAt.
type Document struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Kind      DocumentKind `json:"kind"`
	UserID    string       `json:"user_id"`
}

// Suggestion is pinned to the document version identified by (DocumentID, DocumentCreatedAt).
type Suggestion struct {
	ID                string    `json:"id"`
	DocumentID        string    `json:"document_id"`
	DocumentCreatedAt time.Time `json:"document_created_at"`
	OriginalText      string    `json:"original_text"`
	SuggestedText     string    `json:"suggested_text"`
	Description       string    `json:"description,omitempty"`
	IsResolved        bool      `json:"is_resolved"`
	UserID            string    `json:"user_id"`
	CreatedAt         time.Time `json:"created_at"`
}
