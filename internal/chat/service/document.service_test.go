package service

import (
	"testing"
	"time"

	"chatstate/internal/chat/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveDocumentOwnership(t *testing.T) {
	f := newFixture(0)

	_, err := f.svc.SaveDocument("u1", "d1", model.DocumentRequest{Title: "t", Kind: "pdf"})
	assert.ErrorIs(t, err, ErrInvalidKind)

	doc, err := f.svc.SaveDocument("u1", "d1", model.DocumentRequest{Title: "t", Content: "v1", Kind: model.KindText})
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.UserID)

	_, err = f.svc.SaveDocument("u2", "d1", model.DocumentRequest{Title: "t", Content: "x", Kind: model.KindText})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Documents("u2", "d1")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.LatestDocument("u1", "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentRollbackAndSuggestions(t *testing.T) {
	f := newFixture(0)
	t1, t2 := t0.Add(time.Minute), t0.Add(2*time.Minute)
	for _, at := range []time.Time{t0, t1, t2} {
		f.clock.now = at
		_, err := f.svc.SaveDocument("u1", "d1", model.DocumentRequest{Title: "t", Content: at.String(), Kind: model.KindCode})
		require.NoError(t, err)
	}

	pinned, err := f.svc.SaveSuggestions("u1", model.SaveSuggestionsRequest{
		DocumentID:        "d1",
		DocumentCreatedAt: t1,
		Suggestions:       []model.SuggestionInput{{OriginalText: "a", SuggestedText: "b"}},
	})
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	assert.NotEmpty(t, pinned[0].ID)
	assert.Equal(t, t1, pinned[0].DocumentCreatedAt)

	latest, err := f.svc.SaveSuggestions("u1", model.SaveSuggestionsRequest{
		DocumentID:  "d1",
		Suggestions: []model.SuggestionInput{{ID: "s-latest", OriginalText: "c", SuggestedText: "d"}},
	})
	require.NoError(t, err)
	assert.Equal(t, t2, latest[0].DocumentCreatedAt)

	_, err = f.svc.SaveSuggestions("u1", model.SaveSuggestionsRequest{DocumentID: "d1", DocumentCreatedAt: t0.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	removed, err := f.svc.DeleteDocumentsAfter("u1", "d1", t1)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, t2, removed[0].CreatedAt)

	suggestions, err := f.svc.Suggestions("u1", "d1")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, pinned[0].ID, suggestions[0].ID)

	_, err = f.svc.Suggestions("u2", "d1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSuggestionIDsStayWithTheirDocument(t *testing.T) {
	f := newFixture(0)
	_, err := f.svc.SaveDocument("alice", "d1", model.DocumentRequest{Title: "t", Content: "a", Kind: model.KindText})
	require.NoError(t, err)
	_, err = f.svc.SaveDocument("mallory", "d2", model.DocumentRequest{Title: "t", Content: "b", Kind: model.KindText})
	require.NoError(t, err)

	_, err = f.svc.SaveSuggestions("alice", model.SaveSuggestionsRequest{
		DocumentID:  "d1",
		Suggestions: []model.SuggestionInput{{ID: "s1", OriginalText: "a", SuggestedText: "A"}},
	})
	require.NoError(t, err)

	_, err = f.svc.SaveSuggestions("mallory", model.SaveSuggestionsRequest{
		DocumentID:  "d2",
		Suggestions: []model.SuggestionInput{{ID: "s1", OriginalText: "b", SuggestedText: "B"}},
	})
	assert.ErrorIs(t, err, ErrSuggestionIDTaken)

	suggestions, err := f.svc.Suggestions("alice", "d1")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "A", suggestions[0].SuggestedText)
	assert.Empty(t, f.store.GetSuggestionsByDocumentID("d2"))
}
