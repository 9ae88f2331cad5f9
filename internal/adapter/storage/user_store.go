// internal/adapter/storage/user_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"eventscout/internal/domain/geo"
	"eventscout/internal/domain/user"
)

// UserStore implements user.Store on PostgreSQL with PostGIS.
type UserStore struct {
	db *pgxpool.Pool
}

// NewUserStore creates a new user store
func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{
		db: db,
	}
}

// GetByID retrieves a user profile by ID
func (s *UserStore) GetByID(ctx context.Context, id int64) (*user.Profile, error) {
	query := `
		SELECT
			u.id, u.username, u.email,
			ST_Y(u.location::geometry) as lat, ST_X(u.location::geometry) as lng,
			u.preferred_language, u.created_at,
			COALESCE(
				(SELECT array_agg(ucp.category_id ORDER BY ucp.category_id)
				 FROM user_category_preferences ucp WHERE ucp.user_id = u.id),
				'{}'
			) as category_preferences
		FROM users u
		WHERE u.id = $1
	`

	var p user.Profile
	var lat, lng *float64

	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Username,
		&p.Email,
		&lat,
		&lng,
		&p.PreferredLanguage,
		&p.CreatedAt,
		&p.CategoryPreferences,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying user: %w", err)
	}

	if lat != nil && lng != nil {
		p.Location = &geo.Point{Latitude: *lat, Longitude: *lng}
	}

	return &p, nil
}

// CategoryPreferences returns the user's stored category ids.
func (s *UserStore) CategoryPreferences(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT category_id FROM user_category_preferences
		WHERE user_id = $1
		ORDER BY category_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying preferences: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning preference: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}
	return ids, nil
}

// SetCategoryPreferences replaces the user's stored category ids in
// one transaction.
func (s *UserStore) SetCategoryPreferences(ctx context.Context, userID int64, categoryIDs []int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_category_preferences WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("error clearing preferences: %w", err)
	}

	if len(categoryIDs) > 0 {
		_, err := tx.Exec(ctx, `
			INSERT INTO user_category_preferences (user_id, category_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`, userID, categoryIDs)
		if err != nil {
			return fmt.Errorf("error inserting preferences: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing preferences: %w", err)
	}
	return nil
}

// UpdateLocation stores the user's home location.
func (s *UserStore) UpdateLocation(ctx context.Context, userID int64, p geo.Point) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET location = ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography
		WHERE id = $3
	`, p.Longitude, p.Latitude, userID)
	if err != nil {
		return fmt.Errorf("error updating location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// FindInterested returns users whose stored category preferences
// intersect categoryIDs and whose location lies within radiusKm of
// anchor, excluding excludeID. Users without a stored location are
// filtered out by the spatial predicate itself.
func (s *UserStore) FindInterested(
	ctx context.Context,
	anchor geo.Point,
	radiusKm float64,
	categoryIDs []int64,
	excludeID int64,
) ([]user.Profile, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT
			u.id, u.username, u.email,
			ST_Y(u.location::geometry) as lat, ST_X(u.location::geometry) as lng,
			u.preferred_language, u.created_at
		FROM users u
		JOIN user_category_preferences ucp ON ucp.user_id = u.id
		WHERE ucp.category_id = ANY($1)
		AND u.location IS NOT NULL
		AND ST_DWithin(geography(u.location), geography(ST_SetSRID(ST_MakePoint($2, $3), 4326)), $4 * 1000)
		AND u.id <> $5
	`

	rows, err := s.db.Query(ctx, query,
		categoryIDs,
		anchor.Longitude,
		anchor.Latitude,
		radiusKm,
		excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying interested users: %w", err)
	}
	defer rows.Close()

	var profiles []user.Profile
	for rows.Next() {
		var p user.Profile
		var lat, lng float64
		if err := rows.Scan(
			&p.ID,
			&p.Username,
			&p.Email,
			&lat,
			&lng,
			&p.PreferredLanguage,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning interested user: %w", err)
		}
		p.Location = &geo.Point{Latitude: lat, Longitude: lng}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interested users: %w", err)
	}

	return profiles, nil
}

// SavedUserIDs returns the ids of users who favorited the event.
func (s *UserStore) SavedUserIDs(ctx context.Context, eventID int64) ([]int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id FROM saved_events WHERE event_id = $1
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("error querying saved users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning saved user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved users: %w", err)
	}
	return ids, nil
}
