// internal/adapter/storage/event_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"eventscout/internal/domain/event"
	"eventscout/internal/domain/geo"
)

// EventStore implements event.Store on PostgreSQL with PostGIS.
type EventStore struct {
	db *pgxpool.Pool
}

// NewEventStore creates a new event store
func NewEventStore(db *pgxpool.Pool) *EventStore {
	return &EventStore{
		db: db,
	}
}

const eventColumns = `
	e.id, e.title, e.description,
	ST_Y(e.location::geometry) as lat, ST_X(e.location::geometry) as lng,
	e.address, e.start_time, e.end_time, e.creator_id, u.username as creator_name,
	e.created_at, e.updated_at,
	COALESCE(
		(SELECT array_agg(ec.category_id ORDER BY ec.category_id)
		 FROM event_categories ec WHERE ec.event_id = e.id),
		'{}'
	) as category_ids`

func scanEvent(row pgx.Row, e *event.Event) error {
	var lat, lng float64
	if err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&lat,
		&lng,
		&e.Address,
		&e.StartTime,
		&e.EndTime,
		&e.CreatorID,
		&e.CreatorName,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.CategoryIDs,
	); err != nil {
		return err
	}
	e.Location = geo.Point{Latitude: lat, Longitude: lng}
	return nil
}

// Create inserts the event and its category links in one transaction.
// Either both commit or neither does; partial linkage is never
// observable.
func (s *EventStore) Create(ctx context.Context, e *event.Event) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO events (title, description, location, address, start_time, end_time, creator_id)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		e.Title,
		e.Description,
		e.Location.Longitude,
		e.Location.Latitude,
		e.Address,
		e.StartTime,
		e.EndTime,
		e.CreatorID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting event: %w", err)
	}

	if err := replaceCategories(ctx, tx, e.ID, e.CategoryIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing event create: %w", err)
	}
	return nil
}

// Update rewrites the event row and replaces its category links in one
// transaction.
func (s *EventStore) Update(ctx context.Context, e *event.Event) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE events
		SET title = $1,
		    description = $2,
		    location = ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography,
		    address = $5,
		    start_time = $6,
		    end_time = $7,
		    updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	err = tx.QueryRow(ctx, query,
		e.Title,
		e.Description,
		e.Location.Longitude,
		e.Location.Latitude,
		e.Address,
		e.StartTime,
		e.EndTime,
		e.ID,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return event.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error updating event: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM event_categories WHERE event_id = $1`, e.ID); err != nil {
		return fmt.Errorf("error clearing event categories: %w", err)
	}
	if err := replaceCategories(ctx, tx, e.ID, e.CategoryIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing event update: %w", err)
	}
	return nil
}

func replaceCategories(ctx context.Context, tx pgx.Tx, eventID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO event_categories (event_id, category_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, eventID, categoryIDs)
	if err != nil {
		return fmt.Errorf("error linking event categories: %w", err)
	}
	return nil
}

// Delete removes the event. Category links, favorites and pending
// notifications are removed by the schema's ON DELETE CASCADE.
func (s *EventStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return event.ErrNotFound
	}
	return nil
}

// GetByID retrieves an event by ID
func (s *EventStore) GetByID(ctx context.Context, id int64) (*event.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN users u ON u.id = e.creator_id
		WHERE e.id = $1
	`

	var e event.Event
	err := scanEvent(s.db.QueryRow(ctx, query, id), &e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, event.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying event: %w", err)
	}
	return &e, nil
}

// List returns events newest-first with the total count. Listing has
// no anchor, so the order is explicitly created_at DESC.
func (s *EventStore) List(ctx context.Context, page, pageSize int) ([]event.Event, int, error) {
	if err := event.ValidatePagination(page, pageSize); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN users u ON u.id = e.creator_id
		ORDER BY e.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var e event.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, 0, fmt.Errorf("error scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating events: %w", err)
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting events: %w", err)
	}

	return events, total, nil
}

// FindWithinRadius returns events whose location lies within radiusKm
// of anchor, additionally filtered by category membership and date
// range, ordered ascending by distance and paginated. The row query
// and the count query are compiled from the same predicate set, so the
// reported total always reflects the exact predicate of the rows.
func (s *EventStore) FindWithinRadius(
	ctx context.Context,
	anchor geo.Point,
	radiusKm float64,
	f event.Filter,
	page, pageSize int,
) ([]event.WithDistance, int, error) {
	if err := event.ValidatePagination(page, pageSize); err != nil {
		return nil, 0, err
	}

	// The anchor predicate is added first so its placeholders are
	// always $1 (lng), $2 (lat), which the distance column reuses.
	ps := newPredicateSet()
	ps.add("e.location IS NOT NULL")
	ps.add(
		"ST_DWithin(geography(e.location), geography(ST_SetSRID(ST_MakePoint($%d, $%d), 4326)), $%d * 1000)",
		anchor.Longitude, anchor.Latitude, radiusKm,
	)

	if len(f.CategoryIDs) > 0 {
		ps.add(`EXISTS (
			SELECT 1 FROM event_categories ec
			WHERE ec.event_id = e.id AND ec.category_id = ANY($%d)
		)`, f.CategoryIDs)
	}
	if f.StartDate != nil {
		ps.add("e.start_time >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		ps.add("e.end_time <= $%d", *f.EndDate)
	}

	where, args := ps.where()

	countQuery := `SELECT COUNT(*) FROM events e ` + where

	var total int
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting events within radius: %w", err)
	}

	limitIdx := ps.nextIndex()
	rowQuery := fmt.Sprintf(`
		SELECT `+eventColumns+`,
		ST_Distance(geography(e.location), geography(ST_SetSRID(ST_MakePoint($1, $2), 4326))) / 1000 as distance_km
		FROM events e
		JOIN users u ON u.id = e.creator_id
		%s
		ORDER BY distance_km ASC
		LIMIT $%d OFFSET $%d
	`, where, limitIdx, limitIdx+1)

	rowArgs := append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(ctx, rowQuery, rowArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying events within radius: %w", err)
	}
	defer rows.Close()

	var events []event.WithDistance
	for rows.Next() {
		var e event.WithDistance
		var lat, lng float64
		if err := rows.Scan(
			&e.ID,
			&e.Title,
			&e.Description,
			&lat,
			&lng,
			&e.Address,
			&e.StartTime,
			&e.EndTime,
			&e.CreatorID,
			&e.CreatorName,
			&e.CreatedAt,
			&e.UpdatedAt,
			&e.CategoryIDs,
			&e.DistanceKm,
		); err != nil {
			return nil, 0, fmt.Errorf("error scanning event: %w", err)
		}
		e.Location = geo.Point{Latitude: lat, Longitude: lng}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating events: %w", err)
	}

	return events, total, nil
}

// SaveFavorite records the event in the user's favorites. Saving twice
// is a no-op.
func (s *EventStore) SaveFavorite(ctx context.Context, userID, eventID int64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO saved_events (user_id, event_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, eventID)
	if err != nil {
		return fmt.Errorf("error saving favorite: %w", err)
	}
	return nil
}

// RemoveFavorite removes the event from the user's favorites.
func (s *EventStore) RemoveFavorite(ctx context.Context, userID, eventID int64) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM saved_events WHERE user_id = $1 AND event_id = $2
	`, userID, eventID)
	if err != nil {
		return fmt.Errorf("error removing favorite: %w", err)
	}
	return nil
}

// ListFavorites returns the user's saved events, most recently saved
// first, with the total count.
func (s *EventStore) ListFavorites(ctx context.Context, userID int64, page, pageSize int) ([]event.Event, int, error) {
	if err := event.ValidatePagination(page, pageSize); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + eventColumns + `
		FROM events e
		JOIN users u ON u.id = e.creator_id
		JOIN saved_events se ON se.event_id = e.id
		WHERE se.user_id = $1
		ORDER BY se.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.Query(ctx, query, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying favorites: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var e event.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, 0, fmt.Errorf("error scanning favorite: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating favorites: %w", err)
	}

	var total int
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM saved_events WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting favorites: %w", err)
	}

	return events, total, nil
}
