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

const userColumns = `id, name, password_hash, quizzes_done, goal_length_minutes, created_at`

// CreateUser inserts a new account. The UNIQUE constraint on name is the
// only duplicate check; a violation becomes apperror.Conflict.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	u.CreatedAt = time.Now().UTC()
	u.QuizzesDone = 0

	err := db.get(ctx, &u.ID,
		`INSERT INTO users (name, password_hash, quizzes_done, created_at)
		 VALUES (?, ?, 0, ?) RETURNING id`,
		u.Name, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", u.Name)
		}
		return fmt.Errorf("sqlstore: inserting user %q: %w", u.Name, err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := db.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting user %d: %w", id, err)
	}
	return &u, nil
}

func (db *DB) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	var u model.User
	err := db.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", name)
		}
		return nil, fmt.Errorf("sqlstore: getting user %q: %w", name, err)
	}
	return &u, nil
}

func (db *DB) IncrementQuizzesDone(ctx context.Context, userID int64) error {
	n, err := db.exec(ctx,
		`UPDATE users SET quizzes_done = quizzes_done + 1 WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: incrementing quizzes_done for user %d: %w", userID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", strconv.FormatInt(userID, 10))
	}
	return nil
}

// SetGoalLengthMinutes stores the daily reading goal; nil clears it.
func (db *DB) SetGoalLengthMinutes(ctx context.Context, userID int64, minutes *int) error {
	n, err := db.exec(ctx, `UPDATE users SET goal_length_minutes = ? WHERE id = ?`, minutes, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: setting reading goal for user %d: %w", userID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", strconv.FormatInt(userID, 10))
	}
	return nil
}
