// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/blogconsole/internal/apiclient"
	"github.com/olegiv/blogconsole/internal/cache"
	"github.com/olegiv/blogconsole/internal/config"
	"github.com/olegiv/blogconsole/internal/console"
	"github.com/olegiv/blogconsole/internal/handler"
	"github.com/olegiv/blogconsole/internal/i18n"
	"github.com/olegiv/blogconsole/internal/imaging"
	"github.com/olegiv/blogconsole/internal/logging"
	"github.com/olegiv/blogconsole/internal/middleware"
	"github.com/olegiv/blogconsole/internal/render"
	"github.com/olegiv/blogconsole/internal/scheduler"
	"github.com/olegiv/blogconsole/internal/session"
	"github.com/olegiv/blogconsole/internal/version"
	"github.com/olegiv/blogconsole/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "blogconsole - admin console for the blog REST API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGCONSOLE_API_BASE_URL      Blog API origin (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGCONSOLE_SESSION_SECRET    Session and CSRF key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGCONSOLE_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGCONSOLE_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGCONSOLE_REDIS_URL         Redis URL for shared sessions (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOGCONSOLE_GITHUB_CLIENT_ID  GitHub OAuth client ID (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	if *showVersion {
		_, _ = fmt.Printf("blogconsole %s\n", versionInfo)
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo version.Info) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	// Warnings and errors are also kept in memory for the health report
	events := logging.NewEventLog(logging.DefaultEventLogSize)
	logger := slog.New(logging.NewHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}), events))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}
	slog.Info("i18n system initialized", "languages", i18n.SupportedLanguages)

	// Session data and short-lived lookups share one store
	store, err := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.SessionPrefix,
		DefaultTTL: cfg.SessionLifetime,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing session store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("error closing session store", "error", err)
		}
	}()

	sessionManager := session.New(store, session.Options{
		Lifetime:    cfg.SessionLifetime,
		IdleTimeout: cfg.SessionIdleTTL,
		IsDev:       cfg.IsDevelopment(),
	})
	slog.Info("session manager initialized", "redis", cfg.UseRedisSessions())

	api, err := apiclient.New(apiclient.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.UpstreamTimeout,
		RateLimit: cfg.UpstreamRate,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("initializing blog API client: %w", err)
	}

	svc := console.NewService(console.Options{
		API:           api,
		Cache:         store,
		PageSize:      cfg.PageSize,
		ImagePageSize: cfg.ImagePageSize,
		IdleTTL:       cfg.SessionIdleTTL,
		GitHub: console.GitHubConfig{
			ClientID:    cfg.GitHubClientID,
			RedirectURI: cfg.GitHubRedirectURI,
		},
		Logger: logger,
	})
	slog.Info("console service initialized", "api", api.BaseURL(), "github", cfg.GitHubEnabled())

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates,
		SessionManager: sessionManager,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	signinLimiter := middleware.NewRateLimiter(cfg.SigninRate, 5, logger)
	signinGuard := middleware.NewSigninGuard(middleware.SigninGuardConfig{}, logger)

	sched := scheduler.New(logger)
	jobs := []scheduler.Job{
		{Name: "sweep-console-sessions", Spec: "@every 1m", Run: func() error {
			if n := svc.Sweep(); n > 0 {
				slog.Debug("swept idle console sessions", "dropped", n, "remaining", svc.Len())
			}
			return nil
		}},
		{Name: "sweep-signin-limits", Spec: "@every 5m", Run: func() error {
			signinLimiter.Sweep()
			if n := signinGuard.Sweep(); n > 0 {
				slog.Debug("swept sign-in lockouts", "removed", n)
			}
			return nil
		}},
	}
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("registering job: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	h := handler.New(handler.Config{
		Service:        svc,
		SessionManager: sessionManager,
		Renderer:       renderer,
		Images:         imaging.NewProcessor(imaging.Options{}),
		SigninGuard:    signinGuard,
		Logger:         logger,
	})
	healthHandler := handler.NewHealthHandler(store, svc, versionInfo).WithEvents(events)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	// Health checks need no session
	healthHandler.Routes(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Language)
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.UpstreamJar(sessionManager))
		r.Use(middleware.SkipCSRF("/auth/weibo"))
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), logger)))

		h.Routes(r, signinLimiter.Middleware())
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
