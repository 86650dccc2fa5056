// Package archive mirrors chat transcripts into a SQL table for offline use.
// The table is written only; the chat store never reads it back.
package archive

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chatstate/internal/chat/model"
	"chatstate/pkg/logger"
)

// Source is the read side of the chat store that snapshots are taken from.
type Source interface {
	GetChatByID(id string) (model.Chat, bool)
	GetMessagesByChatID(chatID string) []model.Message
}

type transcript struct {
	Chat     model.Chat      `json:"chat"`
	Messages []model.Message `json:"messages"`
}

// Worker tracks chats changed since the last flush and writes them out in batches.
type Worker struct {
	repo   *Repository
	source Source
	now    func() time.Time

	mu    sync.Mutex
	dirty map[string]uint64 // chatID -> change generation
	gen   uint64
}

func NewWorker(repo *Repository, source Source) *Worker {
	return &Worker{
		repo:   repo,
		source: source,
		now:    time.Now,
		dirty:  make(map[string]uint64),
	}
}

// MarkDirty schedules the chat for the next flush. A chat that no longer
// exists at flush time is removed from the archive.
func (w *Worker) MarkDirty(chatID string) {
	w.mu.Lock()
	w.gen++
	w.dirty[chatID] = w.gen
	w.mu.Unlock()
}

// Pending reports how many chats await a flush.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirty)
}

// Run flushes every interval until ctx is done, then flushes once more.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Flush(ctx)
		case <-ctx.Done():
			w.Flush(context.Background())
			return
		}
	}
}

// Flush writes every dirty chat. Failed chats stay dirty for the next tick.
func (w *Worker) Flush(ctx context.Context) {
	w.mu.Lock()
	pending := make(map[string]uint64, len(w.dirty))
	for chatID, gen := range w.dirty {
		pending[chatID] = gen
	}
	w.mu.Unlock()

	for chatID, gen := range pending {
		if err := w.flushChat(ctx, chatID); err != nil {
			continue
		}

		w.mu.Lock()
		// Only mark as clean if the chat hasn't changed again since we started.
		if w.dirty[chatID] == gen {
			delete(w.dirty, chatID)
		}
		w.mu.Unlock()
	}
}

func (w *Worker) flushChat(ctx context.Context, chatID string) error {
	chat, ok := w.source.GetChatByID(chatID)
	if !ok {
		if err := w.repo.Delete(ctx, chatID); err != nil {
			return err
		}
		logger.Sugar.Infof("Removed archived chat: %s", chatID)
		return nil
	}

	messages := w.source.GetMessagesByChatID(chatID)
	body, err := json.Marshal(transcript{Chat: chat, Messages: messages})
	if err != nil {
		logger.Sugar.Errorf("Failed to encode transcript for chat %s: %v", chatID, err)
		return err
	}

	err = w.repo.Save(ctx, Snapshot{
		ChatID:       chat.ID,
		UserID:       chat.UserID,
		Title:        chat.Title,
		Visibility:   string(chat.Visibility),
		MessageCount: len(messages),
		Transcript:   body,
		ArchivedAt:   w.now(),
	})
	if err != nil {
		return err
	}
	logger.Sugar.Infof("Archived chat: %s", chatID)
	return nil
}
