package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// ConnectPostgres opens a pooled connection and verifies it with a ping.
func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Info().Msg("✅ Connected to PostgreSQL")
	return db, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS feedback (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	rating     SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	text       TEXT NOT NULL,
	email      TEXT NOT NULL,
	phone      TEXT,
	date       TIMESTAMPTZ NOT NULL,
	sentiment  TEXT NOT NULL,
	is_spam    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS feedback_email_created_at_idx ON feedback (email, created_at DESC);
CREATE INDEX IF NOT EXISTS feedback_created_at_idx ON feedback (created_at DESC);
CREATE TABLE IF NOT EXISTS admins (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// EnsurePostgresSchema creates the tables and indexes if they are missing.
func EnsurePostgresSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure postgres schema: %w", err)
	}
	return nil
}
