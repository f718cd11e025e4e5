package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/repository"
)

// newTestDB opens a fresh in-memory database for each test. The pool holds a
// single connection, so the whole test sees one private database.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DialectSQLite, ":memory:")
	require.NoError(t, err, "Open(:memory:)")
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, PasswordHash: "hash"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.migrate(), "second migrate() should be a no-op")
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}

// =========================================================================
// TRANSACTION TESTS
// =========================================================================

func TestWithTx_CommitsOnNil(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")

	err := db.WithTx(ctx, func(tx repository.Store) error {
		return tx.IncrementQuizzesDone(ctx, u.ID)
	})
	require.NoError(t, err)

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuizzesDone)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.IncrementQuizzesDone(ctx, u.ID); err != nil {
			return err
		}
		if _, err := tx.GetOrCreateWord(ctx, "cat"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuizzesDone, "increment should have been rolled back")

	var n int
	require.NoError(t, db.get(ctx, &n, `SELECT COUNT(*) FROM words`))
	assert.Equal(t, 0, n, "word insert should have been rolled back")
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")

	assert.Panics(t, func() {
		_ = db.WithTx(ctx, func(tx repository.Store) error {
			_ = tx.IncrementQuizzesDone(ctx, u.ID)
			panic("kaboom")
		})
	})

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuizzesDone)
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	boom := errors.New("outer fails")

	err := db.WithTx(ctx, func(tx repository.Store) error {
		inner := tx.WithTx(ctx, func(tx2 repository.Store) error {
			return tx2.IncrementQuizzesDone(ctx, u.ID)
		})
		require.NoError(t, inner)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuizzesDone, "inner work belongs to the outer transaction")
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%go%", likePattern("Go"))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
}
