package model

import "time"

// Word is a canonical dictionary entry. Lemma is lowercase and unique.
//
// LemmaRank and WordRank are frequency ranks carried over from the article
// pipeline; zero means unranked.
type Word struct {
	ID        int64     `json:"id"         db:"id"`
	Lemma     string    `json:"lemma"      db:"lemma"`
	LemmaRank int       `json:"lemma_rank" db:"lemma_rank"`
	WordRank  int       `json:"word_rank"  db:"word_rank"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserWord is the user↔word association. Seen is the exposure counter and
// only ever changes through an in-place increment.
type UserWord struct {
	UserID  int64     `db:"user_id"`
	WordID  int64     `db:"word_id"`
	Seen    int       `db:"number_of_times_seen"`
	AddedAt time.Time `db:"added_at"`
}

// WordBankEntry is one row of a user's word bank as returned to clients.
// Translation is nil when no en→zh translation is cached yet.
type WordBankEntry struct {
	ID          int64   `json:"id"          db:"id"`
	Lemma       string  `json:"lemma"       db:"lemma"`
	Seen        int     `json:"seen"        db:"number_of_times_seen"`
	Translation *string `json:"translation" db:"translation"`
}

// QuizCandidate is a held word joined with its cached translation.
type QuizCandidate struct {
	WordID      int64  `db:"word_id"`
	Lemma       string `db:"lemma"`
	Translation string `db:"translated_text"`
}
