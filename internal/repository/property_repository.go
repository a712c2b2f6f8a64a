package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/listings/api/internal/database"
	"github.com/stwalsh4118/listings/api/internal/models"
)

// PropertyRepository defines the data access operations for properties.
type PropertyRepository interface {
	// Create inserts p and returns the identifier assigned by the database.
	// p.ID is ignored; Status, CreatedAt and UpdatedAt are stored as given.
	Create(ctx context.Context, p *models.Property) (int64, error)

	// FindByID returns the property with the given id.
	// Returns nil, nil if no property is found (not an error).
	FindByID(ctx context.Context, id int64) (*models.Property, error)

	// List returns properties newest first, restricted to status when it is
	// non-empty. Returns an empty slice when nothing matches.
	List(ctx context.Context, status models.PropertyStatus) ([]models.Property, error)

	// UpdateStatus overwrites the status and updated_at of one property.
	// Returns false when no property has the given id.
	UpdateStatus(ctx context.Context, id int64, status models.PropertyStatus, updatedAt time.Time) (bool, error)
}

// ErrUnsupportedDatabase is returned by New for a handle it has no
// implementation for.
var ErrUnsupportedDatabase = errors.New("unsupported database")

// New returns the repository implementation matching the open database.
func New(db database.Database) (PropertyRepository, error) {
	switch d := db.(type) {
	case *database.Postgres:
		return NewPostgresPropertyRepository(d), nil
	case *database.SQLite:
		return NewSQLitePropertyRepository(d), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedDatabase, db)
}

const propertyColumns = `id, title, location, price, sqft, bedrooms, bathrooms, year_built,
	description, property_type, image_url, contact_email, contact_phone, status,
	created_at, updated_at`

// rowScanner is satisfied by both *sql.Row(s) and pgx.Row(s).
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	var status string
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Location,
		&p.Price,
		&p.Area,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.YearBuilt,
		&p.Description,
		&p.PropertyType,
		&p.ImageURL,
		&p.ContactEmail,
		&p.ContactPhone,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = models.PropertyStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
