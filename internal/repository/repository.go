// Package repository declares the storage contracts the service layer depends
// on. Implementations live in sub-packages (see sqlstore).
package repository

import (
	"context"

	"github.com/sakif/lingoread/internal/model"
)

// ListOptions bounds list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// CreateUser inserts u and fills ID and CreatedAt. A taken name is
	// apperror.ErrConflict.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByName(ctx context.Context, name string) (*model.User, error)
	// IncrementQuizzesDone bumps the counter in place.
	IncrementQuizzesDone(ctx context.Context, userID int64) error
	SetGoalLengthMinutes(ctx context.Context, userID int64, minutes *int) error
}

// WordRepository covers canonical words and the user↔word edge.
type WordRepository interface {
	// GetOrCreateWord returns the word for lemma, inserting it on first use.
	// Safe under concurrent callers: at most one row per lemma.
	GetOrCreateWord(ctx context.Context, lemma string) (*model.Word, error)
	GetWordByID(ctx context.Context, id int64) (*model.Word, error)

	// AddUserWord inserts the edge with a zero counter and reports whether
	// it was new. An existing edge is left untouched.
	AddUserWord(ctx context.Context, userID, wordID int64) (bool, error)
	// RemoveUserWord deletes one edge; a missing edge is apperror.ErrNotFound.
	RemoveUserWord(ctx context.Context, userID, wordID int64) error
	CountUserWords(ctx context.Context, userID int64) (int, error)
	// ClearUserWords deletes every edge of the user in one statement and
	// reports how many were removed.
	ClearUserWords(ctx context.Context, userID int64) (int64, error)
	GetUserWord(ctx context.Context, userID, wordID int64) (*model.UserWord, error)
	// IncrementSeen does seen = seen + 1 on the edge. No edge, no-op.
	IncrementSeen(ctx context.Context, userID, wordID int64) error

	ListUserWords(ctx context.Context, userID int64, sourceLang, targetLang string) ([]model.WordBankEntry, error)
	// ListQuizCandidates returns held words that have a cached translation
	// for the language pair.
	ListQuizCandidates(ctx context.Context, userID int64, sourceLang, targetLang string) ([]model.QuizCandidate, error)
	// ListUntranslatedLemmas returns held lemmas (any user) with no cached
	// translation for the pair, oldest first.
	ListUntranslatedLemmas(ctx context.Context, sourceLang, targetLang string, limit int) ([]string, error)
}

type TranslationRepository interface {
	// GetTranslation looks up the exact key; a miss is apperror.ErrNotFound.
	GetTranslation(ctx context.Context, text, sourceLang, targetLang string) (*model.Translation, error)
	// CreateTranslation inserts t. When another writer already stored the
	// key, the existing row is returned instead.
	CreateTranslation(ctx context.Context, t *model.Translation) (*model.Translation, error)
}

// TextRepository covers articles, tags, the user library and reading logs.
type TextRepository interface {
	// CreateText inserts t and links t.Tags, creating missing tags.
	CreateText(ctx context.Context, t *model.Text) error
	GetText(ctx context.Context, id int64) (*model.Text, error)
	SearchTexts(ctx context.Context, title, tag string, opts ListOptions) ([]model.Text, error)
	DeleteText(ctx context.Context, id int64) error
	GetOrCreateTag(ctx context.Context, name string) (*model.Tag, error)

	// AddToLibrary is idempotent.
	AddToLibrary(ctx context.Context, userID, textID int64) error
	RemoveFromLibrary(ctx context.Context, userID, textID int64) error
	ListLibrary(ctx context.Context, userID int64) ([]model.Text, error)

	CreateReadingLog(ctx context.Context, l *model.ReadingLog) error
	LastReadingLog(ctx context.Context, userID int64) (*model.ReadingLog, error)
}

// Store is the full storage surface plus transactions.
type Store interface {
	UserRepository
	WordRepository
	TranslationRepository
	TextRepository

	// WithTx runs fn against a Store bound to one transaction. fn's error
	// rolls back; nil commits. Nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
