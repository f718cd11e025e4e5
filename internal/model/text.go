package model

import "time"

// Text is an article in the shared library.
//
// The statistics fields (UniqueWords, Difficulty, ...) are filled by the
// ingestion pipeline, which lives outside this service; rows created through
// the API keep them at zero.
type Text struct {
	ID                    int64      `json:"id"                      db:"id"`
	Title                 string     `json:"title"                   db:"title"`
	Content               string     `json:"content"                 db:"content"`
	URL                   string     `json:"url"                     db:"url"`
	Authors               string     `json:"authors"                 db:"authors"`
	PublishedAt           *time.Time `json:"date"                    db:"published_at"`
	UniqueWords           int        `json:"unique_words"            db:"unique_words"`
	TotalWords            int        `json:"total_words"             db:"total_words"`
	AverageSentenceLength float64    `json:"average_sentence_length" db:"average_sentence_length"`
	AverageWordLength     float64    `json:"average_word_length"     db:"average_word_length"`
	Difficulty            float64    `json:"difficulty"              db:"difficulty"`
	CreatedAt             time.Time  `json:"created_at"              db:"created_at"`
	Tags                  []string   `json:"tags"                    db:"-"`
}

// Tag labels a Text. Name is unique.
type Tag struct {
	ID   int64  `json:"id"   db:"id"`
	Name string `json:"name" db:"name"`
}

// ReadingLog records time spent on a text. TextID becomes nil when the
// article is deleted; the log row stays.
type ReadingLog struct {
	ID             int64     `json:"id"                   db:"id"`
	UserID         int64     `json:"user_id"              db:"user_id"`
	TextID         *int64    `json:"text_id"              db:"text_id"`
	ElapsedSeconds int       `json:"elapsed_time_seconds" db:"elapsed_time_seconds"`
	CreatedAt      time.Time `json:"date"                 db:"created_at"`
}

// LastReading pairs a user's most recent log with its text, if it still exists.
type LastReading struct {
	Log  ReadingLog `json:"log"`
	Text *Text      `json:"text"`
}
