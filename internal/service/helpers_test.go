package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/repository/sqlstore"
	"github.com/sakif/lingoread/internal/translator"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *sqlstore.DB {
	t.Helper()
	db, err := sqlstore.Open(sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sqlstore.DB, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, PasswordHash: "x"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

var errProviderDown = errors.New("provider down")

// fakeProvider is an in-memory translator.Provider that counts calls.
// Unknown words translate to "zh:<word>".
type fakeProvider struct {
	mu        sync.Mutex
	calls     int
	responses map[string]string
	failFor   map[string]bool
	err       error
	delay     time.Duration
}

func newFakeProvider(responses map[string]string) *fakeProvider {
	if responses == nil {
		responses = map[string]string{}
	}
	return &fakeProvider{responses: responses, failFor: map[string]bool{}}
}

func (f *fakeProvider) Translate(ctx context.Context, req translator.Request) (*translator.Result, error) {
	f.mu.Lock()
	f.calls++
	err := f.err
	if f.failFor[req.Text] {
		err = errProviderDown
	}
	out, ok := f.responses[req.Text]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		out = "zh:" + req.Text
	}
	return &translator.Result{TranslatedText: out, Duration: delay}, nil
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProvider) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// fakeMemo is a map-backed cache.Memo.
type fakeMemo struct {
	mu     sync.Mutex
	values map[string]string
	err    error
	gets   int
}

func newFakeMemo() *fakeMemo {
	return &fakeMemo{values: map[string]string{}}
}

func (m *fakeMemo) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *fakeMemo) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *fakeMemo) Close() error { return nil }
