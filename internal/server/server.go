// Package server is the composition root: it wires the store, translator
// and memo into services and handlers, mounts the routes and runs the HTTP
// server with graceful shutdown.
//
//	main.go → config.Load → sqlstore.Open, libre.New, cache.NewRedis
//	        → server.New (services, handlers, routes, backfill) → Start
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/lingoread/internal/auth"
	"github.com/sakif/lingoread/internal/cache"
	"github.com/sakif/lingoread/internal/config"
	"github.com/sakif/lingoread/internal/handler"
	"github.com/sakif/lingoread/internal/jobs"
	"github.com/sakif/lingoread/internal/middleware"
	"github.com/sakif/lingoread/internal/repository/sqlstore"
	"github.com/sakif/lingoread/internal/service"
	"github.com/sakif/lingoread/internal/translator"
)

// Server owns the database and memo for its lifetime; Start closes both on
// shutdown.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqlstore.DB
	memo     cache.Memo
	backfill *jobs.Backfill
	limiter  *middleware.RateLimiter
}

// New builds every service and handler and mounts the routes. It does not
// start background work; Start does.
func New(cfg *config.Config, db *sqlstore.DB, provider translator.Provider, memo cache.Memo, logger *slog.Logger) (*Server, error) {
	if memo == nil {
		memo = cache.Nop{}
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	translations := service.NewTranslationService(db, provider, memo, cfg.TranslationMemoTTL, logger)

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		memo:     memo,
		backfill: jobs.NewBackfill(db, translations, cfg.BackfillBatch, logger),
		limiter:  middleware.NewRateLimiter(cfg.TranslateRatePerMin, cfg.TranslateBurst),
	}

	s.setupRoutes(routeDeps{
		tokens:       tokens,
		auth:         service.NewAuthService(db, tokens, auth.NewPasswordService(), logger),
		translations: translations,
		words:        service.NewWordBankService(db, translations, logger),
		quizzes:      service.NewQuizService(db, logger),
		articles:     service.NewArticleService(db, logger),
	})
	return s, nil
}

type routeDeps struct {
	tokens       *auth.TokenService
	auth         *service.AuthService
	translations *service.TranslationService
	words        *service.WordBankService
	quizzes      *service.QuizService
	articles     *service.ArticleService
}

// setupRoutes mounts:
//
//	GET    /health
//	POST   /api/auth/{register,login,logout}
//	GET    /api/users/me                 POST /api/users/goals
//	GET    /api/users/library            POST /api/users/library
//	DELETE /api/users/library/{id}
//	GET    /api/users/last-reading
//	POST   /api/articles                 GET  /api/articles/search
//	GET    /api/articles/{id}            DELETE /api/articles/{id}
//	POST   /api/articles/{id}/reading-time
//	GET    /api/translations             (rate limited per user)
//	GET    /api/words                    POST /api/words
//	DELETE /api/words                    DELETE /api/words/{id}
//	GET    /api/quizzes/wordbank         POST /api/quizzes/wordbank/submit
//
// Middleware order: RequestID, RealIP, Logger, Recoverer. Logger sits
// outside Recoverer so a recovered panic is still logged with its 500.
func (s *Server) setupRoutes(d routeDeps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	authH := handler.NewAuthHandler(d.auth, d.tokens.TTL(), s.config.CookieSecure, s.logger)
	articleH := handler.NewArticleHandler(d.articles, s.logger)
	translationH := handler.NewTranslationHandler(d.translations, s.logger)
	wordH := handler.NewWordHandler(d.words, s.logger)
	quizH := handler.NewQuizHandler(d.quizzes, s.logger)
	healthH := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/health", healthH.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.HandleRegister)
			r.Post("/login", authH.HandleLogin)
			r.Post("/logout", authH.HandleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(d.tokens))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", authH.HandleMe)
				r.Post("/goals", authH.HandleSetGoal)
				r.Get("/library", articleH.HandleLibrary)
				r.Post("/library", articleH.HandleAddToLibrary)
				r.Delete("/library/{id}", articleH.HandleRemoveFromLibrary)
				r.Get("/last-reading", articleH.HandleLastReading)
			})

			r.Route("/articles", func(r chi.Router) {
				r.Post("/", articleH.HandleCreate)
				r.Get("/search", articleH.HandleSearch)
				r.Get("/{id}", articleH.HandleGet)
				r.Delete("/{id}", articleH.HandleDelete)
				r.Post("/{id}/reading-time", articleH.HandleLogReadingTime)
			})

			r.With(middleware.RateLimit(s.limiter, userKey, s.logger)).
				Get("/translations", translationH.HandleTranslate)

			r.Route("/words", func(r chi.Router) {
				r.Get("/", wordH.HandleList)
				r.Post("/", wordH.HandleAdd)
				r.Delete("/", wordH.HandleClear)
				r.Delete("/{id}", wordH.HandleRemove)
			})

			r.Route("/quizzes/wordbank", func(r chi.Router) {
				r.Get("/", quizH.HandleGenerate)
				r.Post("/submit", quizH.HandleSubmit)
			})
		})
	})
}

// userKey charges authenticated requests to the user and anything else to
// the client IP.
func userKey(r *http.Request) string {
	if id, ok := auth.UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return "ip:" + middleware.ClientIP(r)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds, stops the backfill job and closes the memo and database.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.memo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go s.limiter.RunSweeper(ctx)

	if s.config.BackfillInterval > 0 {
		if err := s.backfill.Start(s.config.BackfillInterval); err != nil {
			return err
		}
		defer s.backfill.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Must exceed the translator timeout.
		WriteTimeout: s.config.TranslatorTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("db_driver", s.db.Dialect()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
