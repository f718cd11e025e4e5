package sqlstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/model"
)

func TestGetTranslation_Miss(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetTranslation(context.Background(), "cat", "en", "zh")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateTranslation_ThenGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateTranslation(ctx, &model.Translation{
		Text: "cat", SourceLang: "en", TargetLang: "zh", TranslatedText: "猫",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := db.GetTranslation(ctx, "cat", "en", "zh")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "猫", got.TranslatedText)
}

func TestCreateTranslation_DuplicateKeyReturnsExisting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, err := db.CreateTranslation(ctx, &model.Translation{
		Text: "cat", SourceLang: "en", TargetLang: "zh", TranslatedText: "猫",
	})
	require.NoError(t, err)

	// Rows are immutable: a second writer with a different value gets the
	// stored row back.
	second, err := db.CreateTranslation(ctx, &model.Translation{
		Text: "cat", SourceLang: "en", TargetLang: "zh", TranslatedText: "貓",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "猫", second.TranslatedText)
}

func TestCreateTranslation_KeyIncludesLanguages(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.CreateTranslation(ctx, &model.Translation{Text: "chat", SourceLang: "fr", TargetLang: "en", TranslatedText: "cat"})
	require.NoError(t, err)
	b, err := db.CreateTranslation(ctx, &model.Translation{Text: "chat", SourceLang: "en", TargetLang: "zh", TranslatedText: "聊天"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateTranslation_ConcurrentSingleRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	const n = 20
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr, err := db.CreateTranslation(ctx, &model.Translation{
				Text: "race", SourceLang: "en", TargetLang: "zh", TranslatedText: "竞赛",
			})
			if assert.NoError(t, err) {
				ids[i] = tr.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var rows int
	require.NoError(t, db.get(ctx, &rows,
		`SELECT COUNT(*) FROM translations WHERE text = ? AND source_lang = ? AND target_lang = ?`,
		"race", "en", "zh"))
	assert.Equal(t, 1, rows)
}
