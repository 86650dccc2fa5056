package archive

import (
	"context"
	"database/sql"
	"time"

	"chatstate/pkg/logger"
)

// Placeholders are numbered in order of first use so the statements run
// unchanged on both lib/pq and go-sqlite3.
const (
	schema = `CREATE TABLE IF NOT EXISTS chat_archive (
		chat_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		visibility TEXT NOT NULL,
		message_count INTEGER NOT NULL,
		transcript TEXT NOT NULL,
		archived_at TIMESTAMP NOT NULL
	)`

	upsertSnapshot = `INSERT INTO chat_archive (chat_id, user_id, title, visibility, message_count, transcript, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chat_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			title = EXCLUDED.title,
			visibility = EXCLUDED.visibility,
			message_count = EXCLUDED.message_count,
			transcript = EXCLUDED.transcript,
			archived_at = EXCLUDED.archived_at`

	deleteSnapshot = `DELETE FROM chat_archive WHERE chat_id = $1`
)

type Snapshot struct {
	ChatID       string
	UserID       string
	Title        string
	Visibility   string
	MessageCount int
	Transcript   []byte
	ArchivedAt   time.Time
}

type Repository struct {
	DB *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	if err != nil {
		logger.Sugar.Errorf("Failed to create chat_archive table: %v", err)
	}
	return err
}

func (r *Repository) Save(ctx context.Context, s Snapshot) error {
	_, err := r.DB.ExecContext(ctx, upsertSnapshot,
		s.ChatID, s.UserID, s.Title, s.Visibility, s.MessageCount, string(s.Transcript), s.ArchivedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to archive chat %s: %v", s.ChatID, err)
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, chatID string) error {
	_, err := r.DB.ExecContext(ctx, deleteSnapshot, chatID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete archived chat %s: %v", chatID, err)
	}
	return err
}
