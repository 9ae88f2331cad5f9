// internal/adapter/storage/schema.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// CreateTables bootstraps the schema. Events and users carry a PostGIS
// geography point; category links, favorites and notifications cascade
// on event deletion.
func CreateTables(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE TABLE IF NOT EXISTS users (
			id                 BIGSERIAL PRIMARY KEY,
			username           TEXT NOT NULL UNIQUE,
			email              TEXT NOT NULL UNIQUE,
			location           GEOGRAPHY(POINT, 4326),
			preferred_language TEXT NOT NULL DEFAULT 'en',
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id          BIGSERIAL PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location    GEOGRAPHY(POINT, 4326) NOT NULL,
			address     TEXT NOT NULL DEFAULT '',
			start_time  TIMESTAMPTZ NOT NULL,
			end_time    TIMESTAMPTZ NOT NULL,
			creator_id  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (start_time < end_time)
		)`,
		`CREATE TABLE IF NOT EXISTS event_categories (
			event_id    BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			PRIMARY KEY (event_id, category_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_category_preferences (
			user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, category_id)
		)`,
		`CREATE TABLE IF NOT EXISTS saved_events (
			user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			event_id   BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, event_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id         BIGSERIAL PRIMARY KEY,
			user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			event_id   BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			kind       TEXT NOT NULL,
			message    TEXT NOT NULL,
			is_read    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS scheduled_notifications (
			id       BIGSERIAL PRIMARY KEY,
			user_id  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			kind     TEXT NOT NULL,
			message  TEXT NOT NULL,
			due_at   TIMESTAMPTZ NOT NULL,
			sent_at  TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_location ON events USING GIST (location)`,
		`CREATE INDEX IF NOT EXISTS idx_users_location ON users USING GIST (location)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduled_due ON scheduled_notifications (due_at) WHERE sent_at IS NULL`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}
	return nil
}
