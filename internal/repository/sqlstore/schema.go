package sqlstore

import (
	"fmt"
	"strings"
)

// schema is written once with dialect tokens:
//
//	{{pk}}    auto-increment primary key
//	{{ref}}   integer column referencing a {{pk}}
//	{{ts}}    timestamp column
//	{{float}} double precision column
//
// Timestamps carry no DEFAULT; the repository always passes them from Go so
// both engines store the same value.
var schema = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id                  {{pk}},
			name                TEXT NOT NULL UNIQUE,
			password_hash       TEXT NOT NULL,
			quizzes_done        INTEGER NOT NULL DEFAULT 0,
			goal_length_minutes INTEGER,
			created_at          {{ts}} NOT NULL
		)`},
	{"words", `
		CREATE TABLE IF NOT EXISTS words (
			id         {{pk}},
			lemma      TEXT NOT NULL UNIQUE,
			lemma_rank INTEGER NOT NULL DEFAULT 0,
			word_rank  INTEGER NOT NULL DEFAULT 0,
			created_at {{ts}} NOT NULL
		)`},
	{"user_words", `
		CREATE TABLE IF NOT EXISTS user_words (
			user_id              {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			word_id              {{ref}} NOT NULL REFERENCES words(id) ON DELETE CASCADE,
			number_of_times_seen INTEGER NOT NULL DEFAULT 0,
			added_at             {{ts}} NOT NULL,
			PRIMARY KEY (user_id, word_id)
		)`},
	{"user_words index", `
		CREATE INDEX IF NOT EXISTS idx_user_words_word_id ON user_words(word_id)`},
	{"translations", `
		CREATE TABLE IF NOT EXISTS translations (
			id              {{pk}},
			text            TEXT NOT NULL,
			source_lang     TEXT NOT NULL,
			target_lang     TEXT NOT NULL,
			translated_text TEXT NOT NULL,
			created_at      {{ts}} NOT NULL,
			UNIQUE (text, source_lang, target_lang)
		)`},
	{"texts", `
		CREATE TABLE IF NOT EXISTS texts (
			id                      {{pk}},
			title                   TEXT NOT NULL,
			content                 TEXT NOT NULL DEFAULT '',
			url                     TEXT NOT NULL DEFAULT '',
			authors                 TEXT NOT NULL DEFAULT '',
			published_at            {{ts}},
			unique_words            INTEGER NOT NULL DEFAULT 0,
			total_words             INTEGER NOT NULL DEFAULT 0,
			average_sentence_length {{float}} NOT NULL DEFAULT 0,
			average_word_length     {{float}} NOT NULL DEFAULT 0,
			difficulty              {{float}} NOT NULL DEFAULT 0,
			created_at              {{ts}} NOT NULL
		)`},
	{"tags", `
		CREATE TABLE IF NOT EXISTS tags (
			id   {{pk}},
			name TEXT NOT NULL UNIQUE
		)`},
	{"text_tags", `
		CREATE TABLE IF NOT EXISTS text_tags (
			text_id {{ref}} NOT NULL REFERENCES texts(id) ON DELETE CASCADE,
			tag_id  {{ref}} NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (text_id, tag_id)
		)`},
	{"user_texts", `
		CREATE TABLE IF NOT EXISTS user_texts (
			user_id  {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text_id  {{ref}} NOT NULL REFERENCES texts(id) ON DELETE CASCADE,
			added_at {{ts}} NOT NULL,
			PRIMARY KEY (user_id, text_id)
		)`},
	{"logs", `
		CREATE TABLE IF NOT EXISTS logs (
			id                   {{pk}},
			user_id              {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text_id              {{ref}} REFERENCES texts(id) ON DELETE SET NULL,
			elapsed_time_seconds INTEGER NOT NULL,
			created_at           {{ts}} NOT NULL
		)`},
	{"logs index", `
		CREATE INDEX IF NOT EXISTS idx_logs_user_created ON logs(user_id, created_at)`},
}

var dialectTokens = map[string]*strings.Replacer{
	DialectSQLite: strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ref}}", "INTEGER",
		"{{ts}}", "DATETIME",
		"{{float}}", "REAL",
	),
	DialectPostgres: strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ref}}", "BIGINT",
		"{{ts}}", "TIMESTAMPTZ",
		"{{float}}", "DOUBLE PRECISION",
	),
}

// migrate creates every table and index that does not exist yet.
// CREATE ... IF NOT EXISTS makes it safe to run on every start.
func (db *DB) migrate() error {
	r := dialectTokens[db.dialect]
	for _, step := range schema {
		if _, err := db.conn.Exec(r.Replace(step.ddl)); err != nil {
			return fmt.Errorf("creating %s: %w", step.name, err)
		}
	}
	return nil
}
