package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"tourbook/internal/config"
	"tourbook/internal/logger"
	"tourbook/internal/models"
)

const connectAttempts = 5

var (
	sharedOnce sync.Once
	sharedDB   *bun.DB
	sharedErr  error
)

// Shared returns the process-wide database handle, connecting on first use.
// Later calls return the same handle or the same error. An empty DSN yields
// models.ErrStoreUnavailable.
func Shared(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	sharedOnce.Do(func() {
		sharedDB, sharedErr = Connect(ctx, cfg, log)
	})
	return sharedDB, sharedErr
}

// Close releases the shared handle. Call once at process shutdown.
func Close() error {
	if sharedDB == nil {
		return nil
	}
	return sharedDB.Close()
}

func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	if !cfg.Configured() {
		log.Warn("DATABASE", "DATABASE_DSN not set, store-backed routes will answer 503")
		return nil, fmt.Errorf("%w: DATABASE_DSN not set", models.ErrStoreUnavailable)
	}

	sqldb, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", models.ErrStoreUnavailable, err)
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	for i := 0; i < connectAttempts; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, connectAttempts))
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = sqldb.PingContext(pingCtx)
		cancel()
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < connectAttempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("%w: ping after %d attempts: %v", models.ErrStoreUnavailable, connectAttempts, err)
	}

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}
