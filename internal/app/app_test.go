package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ninerolesapp/nine-roles/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		HTTP: config.HTTPConfig{
			Addr:            "127.0.0.1:0",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		Auth: config.AuthConfig{
			BootstrapName:     "Content Creator",
			BootstrapEmail:    "creator@example.com",
			BootstrapPassword: "creator123",
			BcryptCost:        4,
			SessionTTL:        time.Hour,
		},
		Suggest: config.SuggestConfig{
			Model:   "gemini-2.5-flash",
			Timeout: time.Second,
		},
		AuditLogFile: filepath.Join(t.TempDir(), "audit.log"),
		LogLevel:     "error",
	}
}

func TestNewAndRunStopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if a.db != nil {
		t.Fatalf("expected no database without DATABASE_URL")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestNewRejectsMissingCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for missing catalog file")
	}
}

func TestOpenDBEmptyURL(t *testing.T) {
	db, err := OpenDB("")
	if err != nil || db != nil {
		t.Fatalf("expected nil db and nil error, got %v %v", db, err)
	}
}
