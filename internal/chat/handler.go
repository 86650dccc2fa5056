package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"chatstate/internal/chat/model"
	"chatstate/internal/chat/service"
	"chatstate/middleware"
	"chatstate/pkg/logger"
	"chatstate/store"

	"github.com/go-chi/chi/v5"
)

const defaultHistoryLimit = 10

type ChatHandler struct {
	Service *service.ChatService
}

func NewChatHandler(service *service.ChatService) *ChatHandler {
	return &ChatHandler{Service: service}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Error encoding response: %v", err)
	}
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, action string, err error) {
	switch {
	case service.IsClientError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case service.IsConflict(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrRateLimited):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, service.ErrChatNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, store.ErrCursorNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		logger.Sugar.Errorf("Handler: Failed to %s: %v", action, err)
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

func (h *ChatHandler) PostChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.Chat(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		writeError(w, "save chat message", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("id")
	if chatID == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	chat, ok, err := h.Service.DeleteChat(middleware.UserID(r.Context()), chatID)
	if err != nil {
		writeError(w, "delete chat", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Service.Messages(middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get messages", err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *ChatHandler) SaveMessages(w http.ResponseWriter, r *http.Request) {
	var req model.SaveMessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := h.Service.SaveMessages(middleware.UserID(r.Context()), chi.URLParam(r, "id"), req.Messages)
	if err != nil {
		writeError(w, "save messages", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *ChatHandler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	var req model.VisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.UpdateVisibility(middleware.UserID(r.Context()), chi.URLParam(r, "id"), req.Visibility); err != nil {
		writeError(w, "update visibility", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) UpdateContext(w http.ResponseWriter, r *http.Request) {
	var usage model.Usage
	if err := json.NewDecoder(r.Body).Decode(&usage); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.UpdateLastContext(middleware.UserID(r.Context()), chi.URLParam(r, "id"), usage); err != nil {
		writeError(w, "update context", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResumeStream always answers 204: stream resumption is not supported, the
// markers only record that a stream was opened.
func (h *ChatHandler) ResumeStream(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) GetStreams(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Service.StreamIDs(middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get streams", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *ChatHandler) DeleteTrailingMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteTrailingMessages(middleware.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete trailing messages", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := model.ChatPageQuery{
		Limit:         defaultHistoryLimit,
		StartingAfter: query.Get("starting_after"),
		EndingBefore:  query.Get("ending_before"),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		q.Limit = limit
	}

	page, err := h.Service.History(middleware.UserID(r.Context()), q)
	if err != nil {
		writeError(w, "get history", err)
		return
	}
	if page.Chats == nil {
		page.Chats = []model.Chat{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ChatHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	count := h.Service.DeleteAllChats(middleware.UserID(r.Context()))
	writeJSON(w, http.StatusOK, model.DeleteAllResponse{DeletedCount: count})
}

func (h *ChatHandler) GetVotes(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		http.Error(w, "Missing chatId parameter", http.StatusBadRequest)
		return
	}

	votes, err := h.Service.Votes(middleware.UserID(r.Context()), chatID)
	if err != nil {
		writeError(w, "get votes", err)
		return
	}
	if votes == nil {
		votes = []model.Vote{}
	}
	writeJSON(w, http.StatusOK, votes)
}

func (h *ChatHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req model.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChatID == "" || req.MessageID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	vote, err := h.Service.Vote(middleware.UserID(r.Context()), req)
	if err != nil {
		writeError(w, "vote", err)
		return
	}
	writeJSON(w, http.StatusOK, vote)
}

func (h *ChatHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("id")
	if docID == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}
	userID := middleware.UserID(r.Context())

	if r.URL.Query().Get("latest") == "true" {
		doc, err := h.Service.LatestDocument(userID, docID)
		if err != nil {
			writeError(w, "get document", err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
		return
	}

	docs, err := h.Service.Documents(userID, docID)
	if err != nil {
		writeError(w, "get documents", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *ChatHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("id")
	if docID == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	var req model.DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.Service.SaveDocument(middleware.UserID(r.Context()), docID, req)
	if err != nil {
		writeError(w, "save document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *ChatHandler) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	docID := query.Get("id")
	if docID == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}
	timestamp, err := time.Parse(time.RFC3339Nano, query.Get("timestamp"))
	if err != nil {
		http.Error(w, "Invalid timestamp parameter", http.StatusBadRequest)
		return
	}

	removed, err := h.Service.DeleteDocumentsAfter(middleware.UserID(r.Context()), docID, timestamp)
	if err != nil {
		writeError(w, "delete documents", err)
		return
	}
	if removed == nil {
		removed = []model.Document{}
	}
	writeJSON(w, http.StatusOK, removed)
}

func (h *ChatHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("documentId")
	if docID == "" {
		http.Error(w, "Missing documentId parameter", http.StatusBadRequest)
		return
	}

	suggestions, err := h.Service.Suggestions(middleware.UserID(r.Context()), docID)
	if err != nil {
		writeError(w, "get suggestions", err)
		return
	}
	if suggestions == nil {
		suggestions = []model.Suggestion{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (h *ChatHandler) SaveSuggestions(w http.ResponseWriter, r *http.Request) {
	var req model.SaveSuggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocumentID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := h.Service.SaveSuggestions(middleware.UserID(r.Context()), req)
	if err != nil {
		writeError(w, "save suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
