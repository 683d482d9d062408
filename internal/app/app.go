package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/poofware/locshare-service/internal/config"
	"github.com/poofware/locshare-service/internal/repositories"
	"github.com/poofware/locshare-service/internal/utils"
)

const (
	maxRetries       = 5
	connectTimeout   = 5 * time.Second
	initialBackoff   = 500 * time.Millisecond
	migrationTimeout = 30 * time.Second
)

type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
}

func NewApp(cfg *config.Config) (*App, error) {
	effectiveURL := cfg.DBUrl
	if cfg.LDFlag_UsingIsolatedSchema {
		role, err := isolatedRole(cfg.UniqueRunnerID, cfg.UniqueRunNumber)
		if err != nil {
			return nil, err
		}
		if effectiveURL, err = withRole(cfg.DBUrl, role); err != nil {
			return nil, err
		}
		utils.Logger.Infof("Using isolated schema; connecting as role %s", role)
	} else {
		utils.Logger.Info("Isolated schema disabled; using public schema.")
	}

	dbPool, err := connectWithRetry(effectiveURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()
	if err := repositories.Migrate(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	utils.Logger.Info("Database migrations applied.")

	return &App{Config: cfg, DB: dbPool}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("Database connection closed.")
	}
}

func connectWithRetry(databaseURL string) (*pgxpool.Pool, error) {
	backoff := initialBackoff
	var lastErr error

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		pool, err := newDBPool(ctx, databaseURL)
		cancel()
		if err == nil {
			utils.Logger.Infof("Successfully connected to database on attempt %d", i)
			return pool, nil
		}
		lastErr = err

		if i == maxRetries {
			break
		}
		utils.Logger.WithError(err).Warnf(
			"Failed to connect to database on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, lastErr)
}

// newDBPool retires idle sockets before intermediate proxies drop them and
// keeps the rest warm with periodic health checks.
func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	return pgxpool.ConnectConfig(ctx, cfg)
}
