package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/listings/api/internal/logger"
	"github.com/stwalsh4118/listings/api/internal/models"
	"github.com/stwalsh4118/listings/api/internal/repository"
	"github.com/stwalsh4118/listings/api/internal/validation"
)

// ErrPropertyNotFound is returned when no property has the requested id.
var ErrPropertyNotFound = errors.New("property not found")

func invalidStatus(status models.PropertyStatus) error {
	return &validation.Error{
		Field:   "status",
		Message: fmt.Sprintf("Invalid status: %q must be one of pending, approved, rejected", string(status)),
	}
}

// StorageError reports a failure of the underlying store. Its message is
// internal and must not be shown to clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PropertyService defines the business operations on property listings.
type PropertyService interface {
	// Create validates input and stores it as a new pending property.
	// Returns a *validation.Error (nothing is written) when input is invalid
	// and a *StorageError when the write fails.
	Create(ctx context.Context, input validation.Input) (int64, error)

	// Get returns the property with the given id.
	// Returns ErrPropertyNotFound if it does not exist.
	Get(ctx context.Context, id int64) (*models.Property, error)

	// List returns properties newest first. A nil status returns all of them.
	List(ctx context.Context, status *models.PropertyStatus) ([]models.Property, error)

	// UpdateStatus overwrites the status of a property and refreshes its
	// updated timestamp. Returns false when no property has the given id.
	// A status outside the known set is a *validation.Error.
	UpdateStatus(ctx context.Context, id int64, status models.PropertyStatus) (bool, error)
}

// propertyService is the concrete implementation of PropertyService.
type propertyService struct {
	repo      repository.PropertyRepository
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

// Option configures a PropertyService.
type Option func(*propertyService)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *propertyService) {
		s.now = now
	}
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(repo repository.PropertyRepository, v *validation.Validator, log *logger.Logger, opts ...Option) PropertyService {
	s := &propertyService{
		repo:      repo,
		validator: v,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *propertyService) Create(ctx context.Context, input validation.Input) (int64, error) {
	property, err := s.validator.Validate(input)
	if err != nil {
		s.log.Warn("Property submission rejected", map[string]interface{}{
			"reason": err.Error(),
		})
		return 0, err
	}

	// Postgres keeps microseconds; truncating keeps both stores comparable.
	now := s.now().UTC().Truncate(time.Microsecond)
	property.Status = models.StatusPending
	property.CreatedAt = now
	property.UpdatedAt = now

	id, err := s.repo.Create(ctx, property)
	if err != nil {
		s.log.Error("Failed to save property", err, map[string]interface{}{
			"title": property.Title,
		})
		return 0, &StorageError{Op: "create", Err: err}
	}

	s.log.Info("Property saved", map[string]interface{}{
		"property_id": id,
		"title":       property.Title,
	})
	return id, nil
}

func (s *propertyService) Get(ctx context.Context, id int64) (*models.Property, error) {
	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to retrieve property", err, map[string]interface{}{
			"property_id": id,
		})
		return nil, &StorageError{Op: "get", Err: err}
	}

	// Repository returns nil, nil when no property found - transform to domain error
	if property == nil {
		s.log.Debug("Property not found", map[string]interface{}{
			"property_id": id,
		})
		return nil, ErrPropertyNotFound
	}

	return property, nil
}

func (s *propertyService) List(ctx context.Context, status *models.PropertyStatus) ([]models.Property, error) {
	var filter models.PropertyStatus
	if status != nil {
		if !status.Valid() {
			return nil, invalidStatus(*status)
		}
		filter = *status
	}

	properties, err := s.repo.List(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list properties", err, map[string]interface{}{
			"status": string(filter),
		})
		return nil, &StorageError{Op: "list", Err: err}
	}

	s.log.Debug("Properties listed", map[string]interface{}{
		"status": string(filter),
		"count":  len(properties),
	})
	return properties, nil
}

func (s *propertyService) UpdateStatus(ctx context.Context, id int64, status models.PropertyStatus) (bool, error) {
	if !status.Valid() {
		s.log.Warn("Invalid status provided", map[string]interface{}{
			"property_id": id,
			"status":      string(status),
		})
		return false, invalidStatus(status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, s.now().UTC().Truncate(time.Microsecond))
	if err != nil {
		s.log.Error("Failed to update property status", err, map[string]interface{}{
			"property_id": id,
			"status":      string(status),
		})
		return false, &StorageError{Op: "update status", Err: err}
	}

	if !updated {
		s.log.Debug("No property to update", map[string]interface{}{
			"property_id": id,
		})
		return false, nil
	}

	s.log.Info("Property status updated", map[string]interface{}{
		"property_id": id,
		"status":      string(status),
	})
	return true, nil
}
