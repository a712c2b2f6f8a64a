package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/listings/api/internal/database"
	"github.com/stwalsh4118/listings/api/internal/models"
)

// sqlitePropertyRepository stores properties in a local SQLite file.
type sqlitePropertyRepository struct {
	db *database.SQLite
}

// NewSQLitePropertyRepository creates a PropertyRepository backed by SQLite.
func NewSQLitePropertyRepository(db *database.SQLite) PropertyRepository {
	return &sqlitePropertyRepository{db: db}
}

func (r *sqlitePropertyRepository) Create(ctx context.Context, p *models.Property) (int64, error) {
	query := `
		INSERT INTO properties (
			title, location, price, sqft, bedrooms, bathrooms, year_built,
			description, property_type, image_url, contact_email, contact_phone,
			status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.DB.ExecContext(ctx, query,
		p.Title, p.Location, p.Price, p.Area, p.Bedrooms, p.Bathrooms, p.YearBuilt,
		p.Description, p.PropertyType, p.ImageURL, p.ContactEmail, p.ContactPhone,
		string(p.Status), p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted property id: %w", err)
	}
	return id, nil
}

func (r *sqlitePropertyRepository) FindByID(ctx context.Context, id int64) (*models.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE id = ?`, propertyColumns)

	p, err := scanProperty(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %d: %w", id, err)
	}
	return p, nil
}

func (r *sqlitePropertyRepository) List(ctx context.Context, status models.PropertyStatus) ([]models.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties`, propertyColumns)
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties (status=%q): %w", status, err)
	}
	defer rows.Close()

	results := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	return results, nil
}

func (r *sqlitePropertyRepository) UpdateStatus(ctx context.Context, id int64, status models.PropertyStatus, updatedAt time.Time) (bool, error) {
	result, err := r.db.DB.ExecContext(ctx,
		`UPDATE properties SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), updatedAt.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update status of property %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows for property %d: %w", id, err)
	}
	return affected > 0, nil
}
