// The main package stays minimal: load config from the environment,
// build the server, run it.
package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/adyanews/adyanews/internal/mail"
	"github.com/adyanews/adyanews/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := server.Config{
		Port:      envInt("PORT", 5000),
		DBPath:    envOr("DB_PATH", "adyanews.db"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		ClientURL: envOr("CLIENT_URL", "http://localhost:5173"),

		NewsAPIURL: os.Getenv("NEWS_API_URL"), // empty = provider default
		NewsAPIKey: os.Getenv("NEWS_API_KEY"),

		GroqAPIURL: os.Getenv("GROQ_API_URL"), // empty = provider default
		GroqAPIKey: os.Getenv("GROQ_API_KEY"),

		SMTP: mail.Config{
			Host:     envOr("SMTP_HOST", "smtp.gmail.com"),
			Port:     envOr("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     envOr("MAIL_FROM", "no-reply@adyanews.app"),
			FromName: envOr("MAIL_FROM_NAME", "AdyaNews"),
		},

		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	if cfg.NewsAPIKey == "" {
		logger.Warn("NEWS_API_KEY not set, news searches will fail")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
