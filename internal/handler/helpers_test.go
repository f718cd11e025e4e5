package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/lingoread/internal/auth"
	"github.com/sakif/lingoread/internal/handler"
	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/repository/sqlstore"
	"github.com/sakif/lingoread/internal/service"
	"github.com/sakif/lingoread/internal/translator"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// stubProvider is an in-memory translator.Provider. Unknown words translate
// to "zh:<word>"; down makes every call fail.
type stubProvider struct {
	mu        sync.Mutex
	responses map[string]string
	down      bool
	calls     int
}

func (p *stubProvider) Translate(_ context.Context, req translator.Request) (*translator.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.down {
		return nil, translator.ErrTimeout
	}
	out, ok := p.responses[req.Text]
	if !ok {
		out = "zh:" + req.Text
	}
	return &translator.Result{TranslatedText: out}, nil
}

func (p *stubProvider) setDown(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

func (p *stubProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type testEnv struct {
	router   http.Handler
	db       *sqlstore.DB
	tokens   *auth.TokenService
	provider *stubProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlstore.Open(sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	provider := &stubProvider{responses: map[string]string{"cat": "猫", "dog": "狗", "hello": "你好"}}

	translations := service.NewTranslationService(db, provider, nil, 0, logger)
	authSvc := service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(4), logger)

	authH := handler.NewAuthHandler(authSvc, tokens.TTL(), false, logger)
	wordH := handler.NewWordHandler(service.NewWordBankService(db, translations, logger), logger)
	quizH := handler.NewQuizHandler(service.NewQuizService(db, logger), logger)
	trH := handler.NewTranslationHandler(translations, logger)
	artH := handler.NewArticleHandler(service.NewArticleService(db, logger), logger)
	healthH := handler.NewHealthHandler(db, logger)

	r := chi.NewRouter()
	r.Get("/health", healthH.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authH.HandleRegister)
		r.Post("/auth/login", authH.HandleLogin)
		r.Post("/auth/logout", authH.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/users/me", authH.HandleMe)
			r.Post("/users/goals", authH.HandleSetGoal)
			r.Get("/users/library", artH.HandleLibrary)
			r.Post("/users/library", artH.HandleAddToLibrary)
			r.Delete("/users/library/{id}", artH.HandleRemoveFromLibrary)
			r.Get("/users/last-reading", artH.HandleLastReading)

			r.Post("/articles", artH.HandleCreate)
			r.Get("/articles/search", artH.HandleSearch)
			r.Get("/articles/{id}", artH.HandleGet)
			r.Delete("/articles/{id}", artH.HandleDelete)
			r.Post("/articles/{id}/reading-time", artH.HandleLogReadingTime)

			r.Get("/translations", trH.HandleTranslate)

			r.Get("/words", wordH.HandleList)
			r.Post("/words", wordH.HandleAdd)
			r.Delete("/words", wordH.HandleClear)
			r.Delete("/words/{id}", wordH.HandleRemove)

			r.Get("/quizzes/wordbank", quizH.HandleGenerate)
			r.Post("/quizzes/wordbank/submit", quizH.HandleSubmit)
		})
	})

	return &testEnv{router: r, db: db, tokens: tokens, provider: provider}
}

// user creates an account directly in the store and returns its id.
func (e *testEnv) user(t *testing.T, name string) int64 {
	t.Helper()
	u := &model.User{Name: name, PasswordHash: "unused"}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u.ID
}

// do sends a request, authenticated as userID when it is non-zero.
func (e *testEnv) do(t *testing.T, method, path, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		token, err := e.tokens.Generate(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}
