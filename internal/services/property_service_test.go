package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/listings/api/internal/database"
	"github.com/stwalsh4118/listings/api/internal/logger"
	"github.com/stwalsh4118/listings/api/internal/models"
	"github.com/stwalsh4118/listings/api/internal/repository"
	"github.com/stwalsh4118/listings/api/internal/validation"
)

// MockPropertyRepository is a mock implementation of PropertyRepository for testing
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, p *models.Property) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, id int64) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	property, ok := args.Get(0).(*models.Property)
	if !ok {
		return nil, args.Error(1)
	}
	return property, args.Error(1)
}

func (m *MockPropertyRepository) List(ctx context.Context, status models.PropertyStatus) ([]models.Property, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyRepository) UpdateStatus(ctx context.Context, id int64, status models.PropertyStatus, updatedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Bool(0), args.Error(1)
}

var fixedNow = time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestService(repo repository.PropertyRepository) PropertyService {
	return NewPropertyService(repo, validation.MustNew(fixedClock), logger.New("test"), WithClock(fixedClock))
}

func validInput() validation.Input {
	return validation.Input{
		"title":        "Test Property",
		"location":     "123 Test St",
		"price":        "500000",
		"sqft":         "2000",
		"bedrooms":     "3",
		"bathrooms":    "2",
		"yearBuilt":    "2020",
		"contactEmail": "test@example.com",
		"contactPhone": "1234567890",
	}
}

func TestCreate_Success(t *testing.T) {
	// Arrange
	mockRepo := new(MockPropertyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	want := fixedNow.Truncate(time.Microsecond)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Property) bool {
		return p.Title == "Test Property" &&
			p.Price == 500000 &&
			p.Status == models.StatusPending &&
			p.PropertyType == models.DefaultPropertyType &&
			p.CreatedAt.Equal(want) &&
			p.UpdatedAt.Equal(p.CreatedAt)
	})).Return(int64(1), nil)

	// Act
	id, err := service.Create(ctx, validInput())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	mockRepo.AssertExpectations(t)
}

func TestCreate_IgnoresSubmittedStatus(t *testing.T) {
	mockRepo := new(MockPropertyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	input := validInput()
	input["status"] = "approved"

	mockRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Property) bool {
		return p.Status == models.StatusPending
	})).Return(int64(7), nil)

	id, err := service.Create(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	mockRepo.AssertExpectations(t)
}

func TestCreate_InvalidInputIsNotStored(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(validation.Input)
		message string
	}{
		{
			name:    "negative price",
			mutate:  func(in validation.Input) { in["price"] = "-5" },
			message: "Price must be greater than 0",
		},
		{
			name:    "missing title",
			mutate:  func(in validation.Input) { delete(in, "title") },
			message: "Missing required field: title",
		},
		{
			name:    "bad email",
			mutate:  func(in validation.Input) { in["contactEmail"] = "not-an-email" },
			message: "Invalid email format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockPropertyRepository)
			service := newTestService(mockRepo)

			input := validInput()
			tt.mutate(input)

			id, err := service.Create(context.Background(), input)

			require.Error(t, err)
			assert.Zero(t, id)
			assert.ErrorIs(t, err, validation.ErrInvalid)
			assert.Equal(t, tt.message, err.Error())
			// Repository should not be called for validation errors
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_RepositoryError(t *testing.T) {
	mockRepo := new(MockPropertyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	dbError := errors.New("database is locked")
	mockRepo.On("Create", ctx, mock.Anything).Return(int64(0), dbError)

	id, err := service.Create(ctx, validInput())

	require.Error(t, err)
	assert.Zero(t, id)
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "create", storageErr.Op)
	assert.ErrorIs(t, err, dbError)
	assert.NotErrorIs(t, err, validation.ErrInvalid)
}

func TestGet_Success(t *testing.T) {
	mockRepo := new(MockPropertyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	expected := &models.Property{ID: 12, Title: "Loft", Status: models.StatusApproved}
	mockRepo.On("FindByID", ctx, int64(12)).Return(expected, nil)

	property, err := service.Get(ctx, 12)

	require.NoError(t, err)
	assert.Equal(t, expected, property)
	mockRepo.AssertExpectations(t)
}

func TestGet_NotFound(t *testing.T) {
	mockRepo := new(MockPropertyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	// Repository returns nil, nil when no property found
	mockRepo.On("FindByID", ctx, int64(99)).Return(nil, nil)

	property, err := service.Get(ctx, 99)

	assert.Nil(t, property)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	mockRepo.AssertExpectations(t)
}

func TestGet_RepositoryError(t *testing.T) {
	mockRepo := new(MockPropertyRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	dbError := errors.New("database connection failed")
	mockRepo.On("FindByID", ctx, int64(3)).Return(nil, dbError)

	property, err := service.Get(ctx, 3)

	assert.Nil(t, property)
	assert.ErrorIs(t, err, dbError)
	assert.NotErrorIs(t, err, ErrPropertyNotFound)
}

func TestList(t *testing.T) {
	pending := models.StatusPending
	unknown := models.PropertyStatus("archived")

	t.Run("all", func(t *testing.T) {
		mockRepo := new(MockPropertyRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("List", ctx, models.PropertyStatus("")).Return([]models.Property{{ID: 2}, {ID: 1}}, nil)

		properties, err := service.List(ctx, nil)

		require.NoError(t, err)
		assert.Len(t, properties, 2)
		mockRepo.AssertExpectations(t)
	})

	t.Run("filtered", func(t *testing.T) {
		mockRepo := new(MockPropertyRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("List", ctx, models.StatusPending).Return([]models.Property{}, nil)

		properties, err := service.List(ctx, &pending)

		require.NoError(t, err)
		assert.Empty(t, properties)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		mockRepo := new(MockPropertyRepository)
		service := newTestService(mockRepo)

		properties, err := service.List(context.Background(), &unknown)

		assert.Nil(t, properties)
		assert.ErrorIs(t, err, validation.ErrInvalid)
		mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		mockRepo := new(MockPropertyRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("UpdateStatus", ctx, int64(5), models.StatusApproved, fixedNow.Truncate(time.Microsecond)).Return(true, nil)

		updated, err := service.UpdateStatus(ctx, 5, models.StatusApproved)

		require.NoError(t, err)
		assert.True(t, updated)
		mockRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockPropertyRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		mockRepo.On("UpdateStatus", ctx, int64(404), models.StatusRejected, mock.Anything).Return(false, nil)

		updated, err := service.UpdateStatus(ctx, 404, models.StatusRejected)

		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("invalid status", func(t *testing.T) {
		mockRepo := new(MockPropertyRepository)
		service := newTestService(mockRepo)

		updated, err := service.UpdateStatus(context.Background(), 1, models.PropertyStatus("sold"))

		assert.False(t, updated)
		assert.ErrorIs(t, err, validation.ErrInvalid)
		assert.Contains(t, err.Error(), "sold")
		mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo := new(MockPropertyRepository)
		service := newTestService(mockRepo)
		ctx := context.Background()

		dbError := errors.New("disk I/O error")
		mockRepo.On("UpdateStatus", ctx, int64(1), models.StatusPending, mock.Anything).Return(false, dbError)

		updated, err := service.UpdateStatus(ctx, 1, models.StatusPending)

		assert.False(t, updated)
		var storageErr *StorageError
		assert.ErrorAs(t, err, &storageErr)
	})
}

// TestPropertyService_SQLiteRoundTrip runs the service against a real store.
func TestPropertyService_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "properties.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := fixedNow
	service := NewPropertyService(
		repository.NewSQLitePropertyRepository(db),
		validation.MustNew(fixedClock),
		logger.New("test"),
		WithClock(func() time.Time { return clock }),
	)

	id, err := service.Create(ctx, validInput())
	require.NoError(t, err)

	created, err := service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Test Property", created.Title)
	assert.Equal(t, 500000.0, created.Price)
	assert.Equal(t, 2000.0, created.Area)
	assert.Equal(t, 3, created.Bedrooms)
	assert.Equal(t, 2020, created.YearBuilt)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	clock = fixedNow.Add(time.Hour)
	updated, err := service.UpdateStatus(ctx, id, models.StatusApproved)
	require.NoError(t, err)
	assert.True(t, updated)

	approved, err := service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.True(t, approved.UpdatedAt.After(approved.CreatedAt))
	assert.True(t, approved.CreatedAt.Equal(created.CreatedAt))

	pending := models.StatusPending
	stillPending, err := service.List(ctx, &pending)
	require.NoError(t, err)
	assert.Empty(t, stillPending)

	bad := validInput()
	bad["price"] = "-5"
	_, err = service.Create(ctx, bad)
	require.Error(t, err)
	assert.Equal(t, "Price must be greater than 0", err.Error())

	all, err := service.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1, "rejected submissions are never stored")
}
