package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"chatstate/internal/chat/model"
	"chatstate/store"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var archivedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockWorker(t *testing.T) (*Worker, *store.ChatStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	chats := store.New()
	w := NewWorker(NewRepository(db), chats)
	w.now = func() time.Time { return archivedAt }
	return w, chats, mock
}

func seedChat(chats *store.ChatStore) {
	chats.SaveChat("c1", "u1", "Trip planning", model.VisibilityPrivate)
	chats.SaveMessages([]model.Message{
		{ID: "m1", ChatID: "c1", Role: model.RoleUser, Parts: json.RawMessage(`[]`), CreatedAt: archivedAt},
		{ID: "m2", ChatID: "c1", Role: model.RoleAssistant, Parts: json.RawMessage(`[]`), CreatedAt: archivedAt.Add(time.Second)},
	})
}

func TestFlushArchivesDirtyChat(t *testing.T) {
	w, chats, mock := newMockWorker(t)
	seedChat(chats)

	mock.ExpectExec("INSERT INTO chat_archive").
		WithArgs("c1", "u1", "Trip planning", "private", 2, sqlmock.AnyArg(), archivedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w.MarkDirty("c1")
	w.Flush(context.Background())

	assert.Equal(t, 0, w.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushRemovesDeletedChat(t *testing.T) {
	w, _, mock := newMockWorker(t)

	mock.ExpectExec("DELETE FROM chat_archive WHERE chat_id = \\$1").
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w.MarkDirty("gone")
	w.Flush(context.Background())

	assert.Equal(t, 0, w.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushRetriesFailedChat(t *testing.T) {
	w, chats, mock := newMockWorker(t)
	seedChat(chats)

	mock.ExpectExec("INSERT INTO chat_archive").WillReturnError(errors.New("connection reset"))
	mock.ExpectExec("INSERT INTO chat_archive").WillReturnResult(sqlmock.NewResult(0, 1))

	w.MarkDirty("c1")
	w.Flush(context.Background())
	assert.Equal(t, 1, w.Pending(), "failed chats stay dirty")

	w.Flush(context.Background())
	assert.Equal(t, 0, w.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunFlushesOnShutdown(t *testing.T) {
	w, chats, mock := newMockWorker(t)
	seedChat(chats)
	mock.ExpectExec("INSERT INTO chat_archive").WillReturnResult(sqlmock.NewResult(0, 1))

	w.MarkDirty("c1")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, 0, w.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryOnSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	repo := NewRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))

	snap := Snapshot{ChatID: "c1", UserID: "u1", Title: "first", Visibility: "private", Transcript: []byte(`{}`), ArchivedAt: archivedAt}
	require.NoError(t, repo.Save(ctx, snap))
	snap.Title, snap.MessageCount = "second", 4
	require.NoError(t, repo.Save(ctx, snap))

	var (
		title string
		count int
		rows  int
	)
	require.NoError(t, db.QueryRow(`SELECT title, message_count FROM chat_archive WHERE chat_id = $1`, "c1").Scan(&title, &count))
	assert.Equal(t, "second", title)
	assert.Equal(t, 4, count)

	require.NoError(t, repo.Delete(ctx, "c1"))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM chat_archive`).Scan(&rows))
	assert.Equal(t, 0, rows)
}
