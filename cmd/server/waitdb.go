package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func waitDBCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "wait-db",
		Short: "Block until the audit database accepts connections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				dsn = os.Getenv("TEST_POSTGRES_DSN")
			}
			if dsn == "" {
				return fmt.Errorf("DATABASE_URL or TEST_POSTGRES_DSN is required")
			}
			if timeout <= 0 {
				return fmt.Errorf("timeout must be > 0")
			}

			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()

			return waitForDB(cmd.Context(), db, timeout, 2*time.Second, func() {
				fmt.Fprintln(cmd.OutOrStdout(), "postgres ready")
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "How long to keep trying")
	return cmd
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func waitForDB(ctx context.Context, db pinger, timeout, interval time.Duration, ready func()) error {
	deadline := time.Now().Add(timeout)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			ready()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("postgres not ready within %s: %w", timeout, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
