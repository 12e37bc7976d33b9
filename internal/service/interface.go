package service

import (
	"context"
	"time"

	"github.com/civdash/dashboard-server/internal/repository/models"
)

// EnterpriseRepository defines the interface for database operations for service.
type EnterpriseRepository interface {
	GetAll(ctx context.Context) ([]models.EnterpriseRecord, error)
	CountByCategory(ctx context.Context) ([]models.CategoryCount, error)
}

// PreferenceCache is the slice of the cache the preferences service needs.
type PreferenceCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}
