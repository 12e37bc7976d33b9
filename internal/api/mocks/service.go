package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/civdash/dashboard-server/internal/service"
)

// MockDashboardService is a function-based mock of the DashboardService
// interface for handler tests.
type MockDashboardService struct {
	RefreshFunc           func(ctx context.Context) (service.MetricsResult, error)
	CategoryBreakdownFunc func(ctx context.Context) ([]service.CategoryBreakdownEntry, error)
	FallbackFunc          func() service.MetricsResult
}

func (m *MockDashboardService) Refresh(ctx context.Context) (service.MetricsResult, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return service.MetricsResult{}, errors.New("RefreshFunc not implemented")
}

func (m *MockDashboardService) CategoryBreakdown(ctx context.Context) ([]service.CategoryBreakdownEntry, error) {
	if m.CategoryBreakdownFunc != nil {
		return m.CategoryBreakdownFunc(ctx)
	}
	return nil, errors.New("CategoryBreakdownFunc not implemented")
}

func (m *MockDashboardService) Fallback() service.MetricsResult {
	if m.FallbackFunc != nil {
		return m.FallbackFunc()
	}
	return service.FallbackMetrics(time.Now())
}

// MockPreferencesService is a function-based mock of the PreferencesService
// interface for handler tests.
type MockPreferencesService struct {
	GetRefreshIntervalFunc func(ctx context.Context) time.Duration
	SetRefreshIntervalFunc func(ctx context.Context, interval time.Duration) error
}

func (m *MockPreferencesService) GetRefreshInterval(ctx context.Context) time.Duration {
	if m.GetRefreshIntervalFunc != nil {
		return m.GetRefreshIntervalFunc(ctx)
	}
	return service.DefaultRefreshInterval
}

func (m *MockPreferencesService) SetRefreshInterval(ctx context.Context, interval time.Duration) error {
	if m.SetRefreshIntervalFunc != nil {
		return m.SetRefreshIntervalFunc(ctx, interval)
	}
	return nil
}
