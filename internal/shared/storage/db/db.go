package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/spf13/viper"

	"docflow-backend/internal/shared/metrics"
	"docflow-backend/internal/shared/telemetry"
)

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	// PingAttempts bounds how often Connect pings before giving up.
	PingAttempts    int
	RetryDelay      time.Duration
	// Name labels the pool in metrics and logs.
	Name            string
}

var openDB = sql.Open

// DefaultWorkerOptions returns defaults for the background job worker.
func DefaultWorkerOptions() Options {
	return Options{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxIdleTime: time.Minute,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
		PingAttempts:    5,
		RetryDelay:      2 * time.Second,
		Name:            "worker",
	}
}

// DefaultServerOptions returns defaults for the API server.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
		PingAttempts:    5,
		RetryDelay:      2 * time.Second,
		Name:            "api",
	}
}

// DefaultMigrateOptions returns defaults for short-lived CLI commands.
func DefaultMigrateOptions() Options {
	return Options{
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
		PingAttempts:    1,
		Name:            "cli",
	}
}

// OptionsFromEnv overrides defaults with DB_* env vars if present.
func OptionsFromEnv(defaults Options) Options {
	v := viper.New()
	v.SetEnvPrefix("DB")
	v.AutomaticEnv()
	return optionsFrom(v, defaults)
}

func optionsFrom(v *viper.Viper, defaults Options) Options {
	opts := defaults
	if n := v.GetInt("MAX_OPEN_CONNS"); n > 0 {
		opts.MaxOpenConns = n
	}
	if n := v.GetInt("MAX_IDLE_CONNS"); n > 0 {
		opts.MaxIdleConns = n
	}
	if d := v.GetDuration("CONN_MAX_LIFETIME"); d > 0 {
		opts.ConnMaxLifetime = d
	}
	if d := v.GetDuration("CONN_MAX_IDLE_TIME"); d > 0 {
		opts.ConnMaxIdleTime = d
	}
	if d := v.GetDuration("PING_TIMEOUT"); d > 0 {
		opts.PingTimeout = d
	}
	if n := v.GetInt("PING_ATTEMPTS"); n > 0 {
		opts.PingAttempts = n
	}
	return opts
}

// Connect opens a *sql.DB using the provided DATABASE_URL and verifies connectivity,
// retrying the ping while the database comes up.
// The returned *sql.DB should be shared and re-used by callers.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	applyOptions(db, opts)

	if err := pingWithRetry(ctx, db, opts); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	name := opts.Name
	if name == "" {
		name = "default"
	}
	metrics.RegisterDB(db, name)
	logPoolStats(db, name)
	return db, nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, opts Options) error {
	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	attempts := max(1, opts.PingAttempts)

	var err error
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		telemetry.Warn("db.ping_retry", map[string]any{"attempt": i, "error": err.Error()})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	return err
}

func applyOptions(db *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func logPoolStats(db *sql.DB, name string) {
	stats := db.Stats()
	telemetry.Info("db.init", map[string]any{
		"pool":     name,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
		"max_open": stats.MaxOpenConnections,
	})
}
