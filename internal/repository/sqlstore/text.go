package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/repository"
)

// textColumns is always used with texts aliased as "t".
const textColumns = `t.id, t.title, t.content, t.url, t.authors, t.published_at,
	t.unique_words, t.total_words, t.average_sentence_length,
	t.average_word_length, t.difficulty, t.created_at`

// CreateText inserts the article and links its tags. Run it inside WithTx
// so a failing tag leaves no half-tagged text behind.
func (db *DB) CreateText(ctx context.Context, t *model.Text) error {
	t.CreatedAt = time.Now().UTC()

	err := db.get(ctx, &t.ID,
		`INSERT INTO texts (title, content, url, authors, published_at,
		   unique_words, total_words, average_sentence_length,
		   average_word_length, difficulty, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		t.Title, t.Content, t.URL, t.Authors, t.PublishedAt,
		t.UniqueWords, t.TotalWords, t.AverageSentenceLength,
		t.AverageWordLength, t.Difficulty, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting text %q: %w", t.Title, err)
	}

	for _, name := range t.Tags {
		tag, err := db.GetOrCreateTag(ctx, name)
		if err != nil {
			return err
		}
		_, err = db.exec(ctx,
			`INSERT INTO text_tags (text_id, tag_id) VALUES (?, ?)
			 ON CONFLICT (text_id, tag_id) DO NOTHING`,
			t.ID, tag.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: tagging text %d with %q: %w", t.ID, name, err)
		}
	}
	return nil
}

func (db *DB) GetText(ctx context.Context, id int64) (*model.Text, error) {
	var t model.Text
	err := db.get(ctx, &t, `SELECT `+textColumns+` FROM texts t WHERE t.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("text", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting text %d: %w", id, err)
	}
	if err := db.loadTags(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// SearchTexts filters by a case-insensitive title substring and/or an exact
// tag name. Empty filters match everything. Newest first.
func (db *DB) SearchTexts(ctx context.Context, title, tag string, opts repository.ListOptions) ([]model.Text, error) {
	var (
		q    strings.Builder
		args []any
	)
	q.WriteString(`SELECT ` + textColumns + ` FROM texts t`)
	if tag != "" {
		q.WriteString(` JOIN text_tags tt ON tt.text_id = t.id
		                JOIN tags tg ON tg.id = tt.tag_id AND tg.name = ?`)
		args = append(args, tag)
	}
	if title != "" {
		q.WriteString(` WHERE LOWER(t.title) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(title))
	}
	q.WriteString(` ORDER BY t.created_at DESC, t.id DESC LIMIT ? OFFSET ?`)
	args = append(args, opts.Limit, opts.Offset)

	texts := []model.Text{}
	if err := db.selectAll(ctx, &texts, q.String(), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: searching texts (title=%q tag=%q): %w", title, tag, err)
	}
	for i := range texts {
		if err := db.loadTags(ctx, &texts[i]); err != nil {
			return nil, err
		}
	}
	return texts, nil
}

// DeleteText removes the article. Tags links and library entries cascade;
// reading logs keep their row with text_id set to NULL.
func (db *DB) DeleteText(ctx context.Context, id int64) error {
	n, err := db.exec(ctx, `DELETE FROM texts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting text %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("text", strconv.FormatInt(id, 10))
	}
	return nil
}

// GetOrCreateTag follows the same insert-then-select shape as GetOrCreateWord.
func (db *DB) GetOrCreateTag(ctx context.Context, name string) (*model.Tag, error) {
	_, err := db.exec(ctx, `INSERT INTO tags (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: inserting tag %q: %w", name, err)
	}

	var tag model.Tag
	if err := db.get(ctx, &tag, `SELECT id, name FROM tags WHERE name = ?`, name); err != nil {
		return nil, fmt.Errorf("sqlstore: reading tag %q: %w", name, err)
	}
	return &tag, nil
}

func (db *DB) loadTags(ctx context.Context, t *model.Text) error {
	t.Tags = []string{}
	err := db.selectAll(ctx, &t.Tags,
		`SELECT tg.name FROM tags tg
		 JOIN text_tags tt ON tt.tag_id = tg.id
		 WHERE tt.text_id = ?
		 ORDER BY tg.name`,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: loading tags for text %d: %w", t.ID, err)
	}
	return nil
}

// ---- library ----

func (db *DB) AddToLibrary(ctx context.Context, userID, textID int64) error {
	_, err := db.exec(ctx,
		`INSERT INTO user_texts (user_id, text_id, added_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, text_id) DO NOTHING`,
		userID, textID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlstore: adding text %d to library of user %d: %w", textID, userID, err)
	}
	return nil
}

func (db *DB) RemoveFromLibrary(ctx context.Context, userID, textID int64) error {
	n, err := db.exec(ctx, `DELETE FROM user_texts WHERE user_id = ? AND text_id = ?`, userID, textID)
	if err != nil {
		return fmt.Errorf("sqlstore: removing text %d from library of user %d: %w", textID, userID, err)
	}
	if n == 0 {
		return apperror.NotFound("library entry", strconv.FormatInt(textID, 10))
	}
	return nil
}

func (db *DB) ListLibrary(ctx context.Context, userID int64) ([]model.Text, error) {
	texts := []model.Text{}
	err := db.selectAll(ctx, &texts,
		`SELECT `+textColumns+` FROM texts t
		 JOIN user_texts ut ON ut.text_id = t.id
		 WHERE ut.user_id = ?
		 ORDER BY ut.added_at DESC, t.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing library of user %d: %w", userID, err)
	}
	for i := range texts {
		if err := db.loadTags(ctx, &texts[i]); err != nil {
			return nil, err
		}
	}
	return texts, nil
}

// ---- reading logs ----

func (db *DB) CreateReadingLog(ctx context.Context, l *model.ReadingLog) error {
	l.CreatedAt = time.Now().UTC()
	err := db.get(ctx, &l.ID,
		`INSERT INTO logs (user_id, text_id, elapsed_time_seconds, created_at)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		l.UserID, l.TextID, l.ElapsedSeconds, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting reading log for user %d: %w", l.UserID, err)
	}
	return nil
}

func (db *DB) LastReadingLog(ctx context.Context, userID int64) (*model.ReadingLog, error) {
	var l model.ReadingLog
	err := db.get(ctx, &l,
		`SELECT id, user_id, text_id, elapsed_time_seconds, created_at
		 FROM logs WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("reading log for user", strconv.FormatInt(userID, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting last reading log for user %d: %w", userID, err)
	}
	return &l, nil
}
