package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/repository"
	"github.com/sakif/lingoread/internal/repository/sqlstore"
)

var listAll = repository.ListOptions{Limit: 100}

func newArticleFixture(t *testing.T) (*ArticleService, *sqlstore.DB, int64) {
	t.Helper()
	db := newTestStore(t)
	return NewArticleService(db, testLogger()), db, createUser(t, db, "reader").ID
}

func TestCreateArticle(t *testing.T) {
	svc, _, _ := newArticleFixture(t)
	ctx := context.Background()

	text, err := svc.Create(ctx, NewArticle{
		Title:   "  The Fox  ",
		Content: "The quick brown fox.",
		URL:     "https://example.com/fox",
		Tags:    []string{"Animals", " animals ", "", "short"},
	})
	require.NoError(t, err)
	assert.NotZero(t, text.ID)
	assert.Equal(t, "The Fox", text.Title)
	assert.Equal(t, []string{"animals", "short"}, text.Tags)

	got, err := svc.Get(ctx, text.ID)
	require.NoError(t, err)
	assert.Equal(t, text.Title, got.Title)
	assert.Equal(t, []string{"animals", "short"}, got.Tags)
}

func TestCreateArticle_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   NewArticle
	}{
		{"blank title", NewArticle{Title: "  "}},
		{"title too long", NewArticle{Title: strings.Repeat("t", MaxTitleLength+1)}},
		{"relative url", NewArticle{Title: "ok", URL: "/fox"}},
		{"non-http url", NewArticle{Title: "ok", URL: "ftp://example.com/fox"}},
		{"tag too long", NewArticle{Title: "ok", Tags: []string{strings.Repeat("x", MaxTagLength+1)}}},
	}

	svc, db, _ := newArticleFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	texts, err := db.SearchTexts(context.Background(), "", "", listAll)
	require.NoError(t, err)
	assert.Empty(t, texts, "rejected articles leave nothing behind")
}

func TestSearchArticles(t *testing.T) {
	svc, _, _ := newArticleFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, NewArticle{Title: "Fox Tales", Tags: []string{"animals"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, NewArticle{Title: "Tax Law", Tags: []string{"law"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, NewArticle{Title: "The FOX returns", Tags: []string{"animals", "sequel"}})
	require.NoError(t, err)

	tests := []struct {
		name       string
		title, tag string
		want       []string
	}{
		{"everything newest first", "", "", []string{"The FOX returns", "Tax Law", "Fox Tales"}},
		{"title is case-insensitive", "fox", "", []string{"The FOX returns", "Fox Tales"}},
		{"tag is normalized", "", " ANIMALS ", []string{"The FOX returns", "Fox Tales"}},
		{"title and tag", "returns", "sequel", []string{"The FOX returns"}},
		{"no match", "zebra", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			texts, err := svc.Search(ctx, tt.title, tt.tag, 0, 0)
			require.NoError(t, err)
			titles := []string{}
			for _, x := range texts {
				titles = append(titles, x.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}

	page, err := svc.Search(ctx, "", "", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Tax Law", page[0].Title)

	page, err = svc.Search(ctx, "", "", 10_000, -3)
	require.NoError(t, err)
	assert.Len(t, page, 3, "oversized limit and negative offset are clamped")
}

func TestDeleteArticle(t *testing.T) {
	svc, _, userID := newArticleFixture(t)
	ctx := context.Background()

	text, err := svc.Create(ctx, NewArticle{Title: "Short-lived"})
	require.NoError(t, err)
	_, err = svc.LogReadingTime(ctx, userID, text.ID, 90)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, text.ID))
	_, err = svc.Get(ctx, text.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, text.ID), apperror.ErrNotFound)

	last, err := svc.LastReading(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, last, "the log outlives its text")
	assert.Nil(t, last.Log.TextID)
	assert.Nil(t, last.Text)
	assert.Equal(t, 90, last.Log.ElapsedSeconds)
}

func TestLogReadingTime(t *testing.T) {
	svc, _, userID := newArticleFixture(t)
	ctx := context.Background()

	text, err := svc.Create(ctx, NewArticle{Title: "Essay"})
	require.NoError(t, err)

	_, err = svc.LogReadingTime(ctx, userID, text.ID, -1)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.LogReadingTime(ctx, userID, 9999, 10)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	none, err := svc.LastReading(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, none, "no logs yet")

	_, err = svc.LogReadingTime(ctx, userID, text.ID, 30)
	require.NoError(t, err)
	second, err := svc.LogReadingTime(ctx, userID, text.ID, 0)
	require.NoError(t, err)

	last, err := svc.LastReading(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.ID, last.Log.ID)
	require.NotNil(t, last.Text)
	assert.Equal(t, "Essay", last.Text.Title)
}

func TestLibrary(t *testing.T) {
	svc, _, userID := newArticleFixture(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, NewArticle{Title: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, NewArticle{Title: "B"})
	require.NoError(t, err)

	require.NoError(t, svc.AddToLibrary(ctx, userID, a.ID))
	require.NoError(t, svc.AddToLibrary(ctx, userID, b.ID))
	require.NoError(t, svc.AddToLibrary(ctx, userID, a.ID), "saving twice is a no-op")
	assert.ErrorIs(t, svc.AddToLibrary(ctx, userID, 9999), apperror.ErrNotFound)

	lib, err := svc.Library(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, lib, 2)

	require.NoError(t, svc.RemoveFromLibrary(ctx, userID, a.ID))
	assert.ErrorIs(t, svc.RemoveFromLibrary(ctx, userID, a.ID), apperror.ErrNotFound)

	lib, err = svc.Library(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lib, 1)
	assert.Equal(t, b.ID, lib[0].ID)
}
