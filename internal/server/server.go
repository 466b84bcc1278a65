// Package server is the composition root: it wires the database,
// services, and handlers together and owns the HTTP lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/adyanews/adyanews/internal/auth"
	"github.com/adyanews/adyanews/internal/handler"
	"github.com/adyanews/adyanews/internal/mail"
	"github.com/adyanews/adyanews/internal/middleware"
	"github.com/adyanews/adyanews/internal/news"
	sqliteRepo "github.com/adyanews/adyanews/internal/repository/sqlite"
	"github.com/adyanews/adyanews/internal/service"
	"github.com/adyanews/adyanews/internal/summarize"
)

// Config holds everything the server needs, loaded from the environment
// in main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	ClientURL string

	NewsAPIURL string
	NewsAPIKey string

	GroqAPIURL string
	GroqAPIKey string

	SMTP mail.Config

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database connection; the connection is
// closed on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain: database, token/password
// services, external clients, domain services, handlers, routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	} else {
		s.logger.Warn("GitHub OAuth not configured, /api/auth/github routes disabled")
	}

	mailer := mail.NewSMTPMailer(s.config.SMTP)
	newsClient := news.New(s.config.NewsAPIURL, s.config.NewsAPIKey)
	summarizer := summarize.New(s.config.GroqAPIURL, s.config.GroqAPIKey)

	users := s.db.Users()
	saved := s.db.SavedArticles()

	authService := service.NewAuthService(users, tokens, passwords, mailer, s.config.ClientURL, s.logger)
	userService := service.NewUserService(users, s.logger)
	articleService := service.NewArticleService(saved, s.db, summarizer, s.logger)
	feedService := service.NewFeedService(newsClient, articleService, users, s.logger)
	adminService := service.NewAdminService(users, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.config.ClientURL, s.logger)
	userHandler := handler.NewUserHandler(userService, feedService, s.logger)
	articleHandler := handler.NewArticleHandler(articleService, s.logger)
	newsHandler := handler.NewNewsHandler(feedService, s.logger)
	adminHandler := handler.NewAdminHandler(adminService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	requireAdmin := auth.RequireAdmin(users)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","message":"AdyaNews API is running"}`)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Post("/verify-email", authHandler.HandleVerifyEmail)
			r.Post("/resend-verification", authHandler.HandleResendVerification)
			r.Post("/forgot-password", authHandler.HandleForgotPassword)
			r.Post("/reset-password/{token}", authHandler.HandleResetPassword)
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)

			r.With(requireAuth).Get("/check-auth", authHandler.HandleCheckAuth)
		})

		r.Get("/public/news", newsHandler.HandleGetPublicNews)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/news", newsHandler.HandleGetNews)

			r.Route("/feed", func(r chi.Router) {
				r.Get("/", newsHandler.HandleGetFeed)
				r.Put("/filters", newsHandler.HandleSetFilters)
				r.Post("/refresh", newsHandler.HandleRefreshFeed)
				r.Post("/load-more", newsHandler.HandleLoadMore)
				r.Post("/retry", newsHandler.HandleRetryFeed)
				r.Post("/save", newsHandler.HandleSaveToFeed)
				r.Delete("/save/{articleId}", newsHandler.HandleUnsaveFromFeed)
			})

			r.Route("/articles", func(r chi.Router) {
				r.Get("/saved", articleHandler.HandleGetSaved)
				r.Post("/save", articleHandler.HandleSave)
				r.Get("/metadata", articleHandler.HandleMetadata)
				r.Post("/summarize", articleHandler.HandleSummarize)
				r.Post("/recommend", articleHandler.HandleRecommend)
				r.Delete("/{articleId}", articleHandler.HandleUnsave)
				r.Patch("/{articleId}/read", articleHandler.HandleToggleRead)
				r.Patch("/{articleId}/category", articleHandler.HandleUpdateCategory)
				r.Patch("/{articleId}/tags", articleHandler.HandleUpdateTags)
			})

			r.Route("/user", func(r chi.Router) {
				r.Get("/profile", userHandler.HandleGetProfile)
				r.Put("/profile", userHandler.HandleUpdateProfile)
				r.Put("/language", userHandler.HandleUpdateLanguage)
				r.Put("/interests", userHandler.HandleUpdateInterests)
				r.Delete("/", userHandler.HandleDeleteAccount)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/users", adminHandler.HandleListUsers)
				r.Get("/stats/users", adminHandler.HandleUserStats)
				r.Get("/stats/content", adminHandler.HandleContentStats)
				r.Put("/users/{userId}", adminHandler.HandleUpdateUser)
				r.Delete("/users/{userId}", adminHandler.HandleDeleteUser)
				r.Patch("/users/{userId}/role", adminHandler.HandleSetRole)
			})
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, and
// close the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
