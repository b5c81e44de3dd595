// Package database handles the PostgreSQL connection and queries.
//
// Go Pattern: We use the `sqlx` package which extends Go's standard `database/sql`
// with convenient features like scanning rows into structs. You write raw SQL,
// which keeps every query visible in one place.
//
// Go's database/sql has built-in connection pooling: you create one *sql.DB
// (or *sqlx.DB) at startup and share it across your entire application.
// It's safe for concurrent use by multiple goroutines.
//
// DocGenie stores very little: a key-value settings table that holds the
// generative API key. Chats and history never touch the database.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver: the underscore import runs its init()

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/settings"
)

// DB wraps the sqlx database connection with our application-specific methods.
// Go Pattern: Embedding (*sqlx.DB) gives us all of sqlx's methods automatically,
// plus we can add our own. This is Go's version of inheritance: composition.
type DB struct {
	*sqlx.DB
}

// New creates a new database connection with connection pooling configured.
func New(databaseURL string) (*DB, error) {
	// sqlx.Connect both opens the connection and pings the database
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// The settings table sees a handful of queries per chat message at most.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	return &DB{db}, nil
}

// HealthCheck verifies the database connection is alive.
// Go Pattern: context.Context is passed to functions that may be slow or
// need cancellation (like database queries, HTTP requests).
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// --- Settings Operations ---
// These three methods make *DB a settings.Store.

// GetSetting returns the value stored under name.
func (db *DB) GetSetting(ctx context.Context, name string) (string, error) {
	var s models.Setting
	err := db.GetContext(ctx, &s, `SELECT name, value, updated_at FROM settings WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", settings.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", name, err)
	}
	return s.Value, nil
}

// PutSetting inserts or replaces the value stored under name.
func (db *DB) PutSetting(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO settings (name, value)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", name, err)
	}
	return nil
}

// DeleteSetting removes name. A missing row returns settings.ErrNotFound.
func (db *DB) DeleteSetting(ctx context.Context, name string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM settings WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", name, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return settings.ErrNotFound
	}
	return nil
}
