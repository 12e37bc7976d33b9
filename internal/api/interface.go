package api

import (
	"context"
	"time"

	"github.com/civdash/dashboard-server/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type DashboardService interface {
	Refresh(ctx context.Context) (service.MetricsResult, error)
	CategoryBreakdown(ctx context.Context) ([]service.CategoryBreakdownEntry, error)
	Fallback() service.MetricsResult
}

type PreferencesService interface {
	GetRefreshInterval(ctx context.Context) time.Duration
	SetRefreshInterval(ctx context.Context, interval time.Duration) error
}
