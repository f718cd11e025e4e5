package model

import "time"

// Translation is one cache entry. Rows are unique on
// (Text, SourceLang, TargetLang) and never updated after insert.
type Translation struct {
	ID             int64     `json:"id"          db:"id"`
	Text           string    `json:"text"        db:"text"`
	SourceLang     string    `json:"source_lang" db:"source_lang"`
	TargetLang     string    `json:"target_lang" db:"target_lang"`
	TranslatedText string    `json:"translation" db:"translated_text"`
	CreatedAt      time.Time `json:"created_at"  db:"created_at"`
}
