package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/model"
)

const translationColumns = `id, text, source_lang, target_lang, translated_text, created_at`

func (db *DB) GetTranslation(ctx context.Context, text, sourceLang, targetLang string) (*model.Translation, error) {
	var t model.Translation
	err := db.get(ctx, &t,
		`SELECT `+translationColumns+` FROM translations
		 WHERE text = ? AND source_lang = ? AND target_lang = ?`,
		text, sourceLang, targetLang,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("translation", sourceLang+">"+targetLang+":"+text)
		}
		return nil, fmt.Errorf("sqlstore: getting translation %q (%s>%s): %w", text, sourceLang, targetLang, err)
	}
	return &t, nil
}

// CreateTranslation stores a new cache entry. The key triple is UNIQUE; if a
// concurrent writer got there first, RETURNING yields no row (or the driver
// reports a unique violation) and the stored row is re-fetched, so every
// caller ends up with the same value.
func (db *DB) CreateTranslation(ctx context.Context, t *model.Translation) (*model.Translation, error) {
	row := *t
	row.CreatedAt = time.Now().UTC()

	err := db.get(ctx, &row.ID,
		`INSERT INTO translations (text, source_lang, target_lang, translated_text, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (text, source_lang, target_lang) DO NOTHING
		 RETURNING id`,
		row.Text, row.SourceLang, row.TargetLang, row.TranslatedText, row.CreatedAt,
	)
	switch {
	case err == nil:
		return &row, nil
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		return db.GetTranslation(ctx, t.Text, t.SourceLang, t.TargetLang)
	default:
		return nil, fmt.Errorf("sqlstore: inserting translation %q (%s>%s): %w", t.Text, t.SourceLang, t.TargetLang, err)
	}
}
