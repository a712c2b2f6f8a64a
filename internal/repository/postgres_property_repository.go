package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/listings/api/internal/database"
	"github.com/stwalsh4118/listings/api/internal/models"
)

// postgresPropertyRepository stores properties in PostgreSQL through a pgx pool.
type postgresPropertyRepository struct {
	db *database.Postgres
}

// NewPostgresPropertyRepository creates a PropertyRepository backed by PostgreSQL.
func NewPostgresPropertyRepository(db *database.Postgres) PropertyRepository {
	return &postgresPropertyRepository{db: db}
}

func (r *postgresPropertyRepository) Create(ctx context.Context, p *models.Property) (int64, error) {
	query := `
		INSERT INTO properties (
			title, location, price, sqft, bedrooms, bathrooms, year_built,
			description, property_type, image_url, contact_email, contact_phone,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	var id int64
	err := r.db.Pool.QueryRow(ctx, query,
		p.Title, p.Location, p.Price, p.Area, p.Bedrooms, p.Bathrooms, p.YearBuilt,
		p.Description, p.PropertyType, p.ImageURL, p.ContactEmail, p.ContactPhone,
		string(p.Status), p.CreatedAt, p.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert property: %w", err)
	}
	return id, nil
}

func (r *postgresPropertyRepository) FindByID(ctx context.Context, id int64) (*models.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE id = $1`, propertyColumns)

	p, err := scanProperty(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresPropertyRepository) List(ctx context.Context, status models.PropertyStatus) ([]models.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties`, propertyColumns)
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
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

func (r *postgresPropertyRepository) UpdateStatus(ctx context.Context, id int64, status models.PropertyStatus, updatedAt time.Time) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE properties SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), updatedAt, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update status of property %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
