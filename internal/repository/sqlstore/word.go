package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/model"
)

const wordColumns = `id, lemma, lemma_rank, word_rank, created_at`

// GetOrCreateWord inserts the lemma if it is new, then reads the row back.
// Concurrent callers race on the UNIQUE(lemma) constraint; the loser's
// INSERT does nothing and its SELECT sees the winner's row.
func (db *DB) GetOrCreateWord(ctx context.Context, lemma string) (*model.Word, error) {
	_, err := db.exec(ctx,
		`INSERT INTO words (lemma, created_at) VALUES (?, ?)
		 ON CONFLICT (lemma) DO NOTHING`,
		lemma, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: inserting word %q: %w", lemma, err)
	}

	var w model.Word
	if err := db.get(ctx, &w, `SELECT `+wordColumns+` FROM words WHERE lemma = ?`, lemma); err != nil {
		return nil, fmt.Errorf("sqlstore: reading word %q: %w", lemma, err)
	}
	return &w, nil
}

func (db *DB) GetWordByID(ctx context.Context, id int64) (*model.Word, error) {
	var w model.Word
	err := db.get(ctx, &w, `SELECT `+wordColumns+` FROM words WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("word", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting word %d: %w", id, err)
	}
	return &w, nil
}

func (db *DB) AddUserWord(ctx context.Context, userID, wordID int64) (bool, error) {
	n, err := db.exec(ctx,
		`INSERT INTO user_words (user_id, word_id, number_of_times_seen, added_at)
		 VALUES (?, ?, 0, ?)
		 ON CONFLICT (user_id, word_id) DO NOTHING`,
		userID, wordID, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlstore: adding word %d for user %d: %w", wordID, userID, err)
	}
	return n == 1, nil
}

// RemoveUserWord does not distinguish "no such word" from "word not held";
// both leave zero rows affected.
func (db *DB) RemoveUserWord(ctx context.Context, userID, wordID int64) error {
	n, err := db.exec(ctx,
		`DELETE FROM user_words WHERE user_id = ? AND word_id = ?`, userID, wordID)
	if err != nil {
		return fmt.Errorf("sqlstore: removing word %d for user %d: %w", wordID, userID, err)
	}
	if n == 0 {
		return apperror.NotFound("word", strconv.FormatInt(wordID, 10))
	}
	return nil
}

func (db *DB) CountUserWords(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := db.get(ctx, &n, `SELECT COUNT(*) FROM user_words WHERE user_id = ?`, userID); err != nil {
		return 0, fmt.Errorf("sqlstore: counting words for user %d: %w", userID, err)
	}
	return n, nil
}

func (db *DB) ClearUserWords(ctx context.Context, userID int64) (int64, error) {
	n, err := db.exec(ctx, `DELETE FROM user_words WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: clearing words for user %d: %w", userID, err)
	}
	return n, nil
}

func (db *DB) GetUserWord(ctx context.Context, userID, wordID int64) (*model.UserWord, error) {
	var uw model.UserWord
	err := db.get(ctx, &uw,
		`SELECT user_id, word_id, number_of_times_seen, added_at
		 FROM user_words WHERE user_id = ? AND word_id = ?`,
		userID, wordID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("word", strconv.FormatInt(wordID, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting word %d for user %d: %w", wordID, userID, err)
	}
	return &uw, nil
}

// IncrementSeen updates the counter in place. The database applies the
// "+ 1" under its own row lock, so concurrent graders never lose an update.
func (db *DB) IncrementSeen(ctx context.Context, userID, wordID int64) error {
	_, err := db.exec(ctx,
		`UPDATE user_words SET number_of_times_seen = number_of_times_seen + 1
		 WHERE user_id = ? AND word_id = ?`,
		userID, wordID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: incrementing seen for user %d word %d: %w", userID, wordID, err)
	}
	return nil
}

func (db *DB) ListUserWords(ctx context.Context, userID int64, sourceLang, targetLang string) ([]model.WordBankEntry, error) {
	entries := []model.WordBankEntry{}
	err := db.selectAll(ctx, &entries,
		`SELECT w.id, w.lemma, uw.number_of_times_seen, t.translated_text AS translation
		 FROM user_words uw
		 JOIN words w ON w.id = uw.word_id
		 LEFT JOIN translations t
		   ON t.text = w.lemma AND t.source_lang = ? AND t.target_lang = ?
		 WHERE uw.user_id = ?
		 ORDER BY w.lemma`,
		sourceLang, targetLang, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing words for user %d: %w", userID, err)
	}
	return entries, nil
}

func (db *DB) ListQuizCandidates(ctx context.Context, userID int64, sourceLang, targetLang string) ([]model.QuizCandidate, error) {
	var candidates []model.QuizCandidate
	err := db.selectAll(ctx, &candidates,
		`SELECT w.id AS word_id, w.lemma, t.translated_text
		 FROM user_words uw
		 JOIN words w ON w.id = uw.word_id
		 JOIN translations t
		   ON t.text = w.lemma AND t.source_lang = ? AND t.target_lang = ?
		 WHERE uw.user_id = ?
		 ORDER BY w.id`,
		sourceLang, targetLang, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing quiz candidates for user %d: %w", userID, err)
	}
	return candidates, nil
}

func (db *DB) ListUntranslatedLemmas(ctx context.Context, sourceLang, targetLang string, limit int) ([]string, error) {
	var lemmas []string
	err := db.selectAll(ctx, &lemmas,
		`SELECT w.lemma FROM words w
		 WHERE EXISTS (SELECT 1 FROM user_words uw WHERE uw.word_id = w.id)
		   AND NOT EXISTS (
		     SELECT 1 FROM translations t
		     WHERE t.text = w.lemma AND t.source_lang = ? AND t.target_lang = ?
		   )
		 ORDER BY w.id
		 LIMIT ?`,
		sourceLang, targetLang, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing untranslated lemmas: %w", err)
	}
	return lemmas, nil
}
