package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/stayops/internal/domain"
)

func scanProperty(row pgx.Row) (*domain.Property, error) {
	var (
		property  domain.Property
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)

	if err := row.Scan(&id, &property.Name, &createdAt); err != nil {
		return nil, err
	}

	property.ID = uuid.UUID(id.Bytes).String()
	property.CreatedAt = pgtypeToTime(createdAt)
	return &property, nil
}

// CreateProperty creates a new property.
func (s *Store) CreateProperty(ctx context.Context, property *domain.Property) (*domain.Property, error) {
	id, err := uuid.Parse(property.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO properties (id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, name, created_at`,
		id, property.Name, timeToPgtype(property.CreatedAt))

	created, err := scanProperty(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	return created, nil
}

// FindPropertyByID retrieves a property by its ID.
func (s *Store) FindPropertyByID(ctx context.Context, id string) (*domain.Property, error) {
	propertyUUID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	row := s.db.QueryRow(ctx,
		`SELECT id, name, created_at FROM properties WHERE id = $1`, propertyUUID)

	property, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPropertyNotFound, id)
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return property, nil
}

// FindProperties lists all properties, newest first.
func (s *Store) FindProperties(ctx context.Context) ([]*domain.Property, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, created_at FROM properties ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to find properties: %w", err)
	}
	defer rows.Close()

	properties := make([]*domain.Property, 0)
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, property)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate properties: %w", err)
	}

	return properties, nil
}

// DeleteProperty removes a property. Owned tasks, plans, and bookings go
// with it via ON DELETE CASCADE; run records are cleaned up explicitly since
// they reference obligations polymorphically.
func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	propertyUUID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	return s.executeInTransaction(ctx, "delete_property", func(txStore *Store) error {
		if _, err := txStore.db.Exec(ctx, `
			DELETE FROM run_records r
			WHERE (r.obligation_kind = 'task' AND r.obligation_id IN
					(SELECT id FROM tasks WHERE property_id = $1))
			   OR (r.obligation_kind = 'plan' AND r.obligation_id IN
					(SELECT id FROM maintenance_plans WHERE property_id = $1))`,
			propertyUUID); err != nil {
			return fmt.Errorf("failed to delete property runs: %w", err)
		}

		tag, err := txStore.db.Exec(ctx, `DELETE FROM properties WHERE id = $1`, propertyUUID)
		if err != nil {
			return fmt.Errorf("failed to delete property: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", domain.ErrPropertyNotFound, id)
		}
		return nil
	})
}
