package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mynotes/pkg/logger"

	_ "github.com/lib/pq"
)

// ErrNotConfigured is returned when no connection string is available.
var ErrNotConfigured = errors.New("database is not configured")

// Connect opens a postgres pool and pings it, retrying a few times in case of
// temporary DNS/network blips. Unlike a hard exit, the error is returned so
// callers can fall back to offline data.
func Connect(ctx context.Context, dsn string, retries int, delay time.Duration) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrNotConfigured
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if retries < 1 {
		retries = 1
	}
	for i := 0; i < retries; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db, nil
		}
		if i == retries-1 {
			break
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", delay, err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	db.Close()
	return nil, err
}
