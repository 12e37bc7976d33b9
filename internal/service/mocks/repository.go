package mocks

import (
	"context"
	"errors"

	"github.com/civdash/dashboard-server/internal/repository/models"
)

// MockEnterpriseRepository is a mock implementation of the EnterpriseRepository
// interface for testing the service layer.
type MockEnterpriseRepository struct {
	GetAllFunc          func(ctx context.Context) ([]models.EnterpriseRecord, error)
	CountByCategoryFunc func(ctx context.Context) ([]models.CategoryCount, error)
}

// GetAll implements the EnterpriseRepository interface
func (m *MockEnterpriseRepository) GetAll(ctx context.Context) ([]models.EnterpriseRecord, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, errors.New("GetAllFunc not implemented")
}

// CountByCategory implements the EnterpriseRepository interface
func (m *MockEnterpriseRepository) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	if m.CountByCategoryFunc != nil {
		return m.CountByCategoryFunc(ctx)
	}
	return nil, errors.New("CountByCategoryFunc not implemented")
}
