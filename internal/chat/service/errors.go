package service

import "errors"

var (
	ErrChatNotFound      = errors.New("chat not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrForbidden         = errors.New("forbidden")
	ErrRateLimited       = errors.New("message limit reached for the last 24 hours")
	ErrInvalidVoteType   = errors.New("vote type must be up or down")
	ErrInvalidVisibility = errors.New("visibility must be private or public")
	ErrInvalidKind       = errors.New("kind must be one of text, code, image, sheet")
	ErrInvalidMessage    = errors.New("message id and parts are required")
	ErrMessageIDTaken    = errors.New("message id belongs to another chat")
	ErrSuggestionIDTaken = errors.New("suggestion id belongs to another document")
)
