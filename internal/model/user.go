// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash carries `json:"-"` so a User can be written straight into a
// response without leaking the bcrypt hash.
type User struct {
	ID           int64     `json:"id"           db:"id"`
	Name         string    `json:"name"         db:"name"`
	PasswordHash string    `json:"-"            db:"password_hash"`
	QuizzesDone  int       `json:"quizzes_done" db:"quizzes_done"`

	// GoalLengthMinutes is the daily reading goal; nil until the user sets one.
	GoalLengthMinutes *int      `json:"goal_length_minutes" db:"goal_length_minutes"`
	CreatedAt         time.Time `json:"created_at"          db:"created_at"`
}
