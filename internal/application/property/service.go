// Package property manages the properties that own tasks, plans, and
// bookings.
package property

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/stayops/internal/domain"
)

// Repository defines storage operations for properties.
type Repository interface {
	// CreateProperty creates a new property.
	CreateProperty(ctx context.Context, property *domain.Property) (*domain.Property, error)

	// FindPropertyByID retrieves a property.
	// Returns domain.ErrPropertyNotFound if it doesn't exist.
	FindPropertyByID(ctx context.Context, id string) (*domain.Property, error)

	// FindProperties lists all properties, newest first.
	FindProperties(ctx context.Context) ([]*domain.Property, error)

	// DeleteProperty removes a property and everything it owns.
	DeleteProperty(ctx context.Context, id string) error
}

// Service orchestrates property operations.
type Service struct {
	repo Repository
}

// NewService creates a new property service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a property.
func (s *Service) Create(ctx context.Context, name string) (*domain.Property, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrTitleRequired
	}

	idObj, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}

	property := &domain.Property{
		ID:        idObj.String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateProperty(ctx, property)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	return created, nil
}

// Get retrieves a property.
func (s *Service) Get(ctx context.Context, id string) (*domain.Property, error) {
	if id == "" {
		return nil, domain.ErrPropertyNotFound
	}
	return s.repo.FindPropertyByID(ctx, id)
}

// List lists all properties.
func (s *Service) List(ctx context.Context) ([]*domain.Property, error) {
	return s.repo.FindProperties(ctx)
}

// Delete removes a property and everything it owns.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindPropertyByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteProperty(ctx, id)
}
