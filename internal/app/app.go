package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"
	"ninerolesapp/nine-roles/internal/audit"
	"ninerolesapp/nine-roles/internal/auth"
	"ninerolesapp/nine-roles/internal/catalog"
	"ninerolesapp/nine-roles/internal/config"
	"ninerolesapp/nine-roles/internal/httpserver"
	"ninerolesapp/nine-roles/internal/observability"
	"ninerolesapp/nine-roles/internal/suggest"
	"ninerolesapp/nine-roles/internal/workspace"
)

type App struct {
	cfg        config.Config
	log        *slog.Logger
	db         *sql.DB
	workspaces *workspace.Registry
	server     *httpserver.Server
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := observability.NewLogger(cfg.LogLevel)

	cat, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	db, err := OpenDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	auditLogger, err := newAuditLogger(cfg, db)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	var userStore auth.UserStore = auth.NewInMemoryUserStore()
	if db != nil {
		userStore, err = auth.NewPostgresUserStore(db)
		if err != nil {
			closeDB(db)
			return nil, fmt.Errorf("create postgres user store: %w", err)
		}
	}
	authService, err := auth.NewService(userStore, auth.ServiceConfig{
		BcryptCost:   cfg.Auth.BcryptCost,
		SessionTTL:   cfg.Auth.SessionTTL,
		DefaultRoles: cat.DefaultUserRoles,
	})
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("create auth service: %w", err)
	}
	_, err = authService.CreateUser(cfg.Auth.BootstrapName, cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword, cat.DefaultUserRoles)
	switch {
	case err == nil:
		logger.Info("bootstrap user created", "email", cfg.Auth.BootstrapEmail)
	case errors.Is(err, auth.ErrEmailTaken):
		logger.Info("bootstrap user already exists", "email", cfg.Auth.BootstrapEmail)
	default:
		closeDB(db)
		return nil, fmt.Errorf("create bootstrap user: %w", err)
	}

	gateway, err := suggest.New(ctx, suggest.Config{
		APIKey:   cfg.Suggest.APIKey,
		Model:    cfg.Suggest.Model,
		Endpoint: cfg.Suggest.Endpoint,
		Timeout:  cfg.Suggest.Timeout,
	})
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("create suggestion gateway: %w", err)
	}
	if !gateway.Enabled() {
		logger.Warn("no Gemini API key configured; smart suggestions are disabled")
	}

	registry := workspace.NewRegistry(cat, workspace.Options{})

	server := httpserver.New(cfg.HTTP, httpserver.Deps{
		Auth:       authService,
		Workspaces: registry,
		Catalog:    cat,
		Gateway:    gateway,
		Audit:      auditLogger,
		Logger:     logger,
	})

	return &App{
		cfg:        cfg,
		log:        logger,
		db:         db,
		workspaces: registry,
		server:     server,
	}, nil
}

// OpenDB opens and pings the Postgres database. An empty url returns a nil
// handle.
func OpenDB(url string) (*sql.DB, error) {
	if url == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func newAuditLogger(cfg config.Config, db *sql.DB) (httpserver.AuditLogger, error) {
	if db != nil {
		l, err := audit.NewPostgresLogger(db)
		if err != nil {
			return nil, fmt.Errorf("create postgres audit logger: %w", err)
		}
		return l, nil
	}
	return audit.NewFileLogger(cfg.AuditLogFile), nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func (a *App) Run(ctx context.Context) error {
	defer closeDB(a.db)
	// Charge running role timers before exit.
	defer a.workspaces.CloseAll()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
