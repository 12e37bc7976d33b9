package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

var (
	ErrFetchFailure       = errors.New("enterprise fetch failure")
	ErrCancelled          = errors.New("refresh cancelled")
	ErrMetricsUnavailable = errors.New("metrics unavailable")
)

// RetryConfig holds retry configuration for enterprise snapshot fetches.
type RetryConfig struct {
	// MaxAttempts is the maximum number of fetch attempts.
	MaxAttempts int

	// BackoffBase is the wait after the first failed attempt.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to the wait on each further retry.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the standard dashboard retry policy:
// three attempts with waits of 2s then 4s between them.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DashboardService fetches enterprise snapshots and aggregates them into
// dashboard metrics. One refresh is one logical operation: fetch with retry,
// then a pure aggregation pass.
type DashboardService struct {
	storage EnterpriseRepository
	logger  *zap.Logger
	retry   RetryConfig

	// injected for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDashboardService creates a new DashboardService instance.
func NewDashboardService(storage EnterpriseRepository, logger *zap.Logger, retry RetryConfig) *DashboardService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	if retry.MaxAttempts < 1 {
		retry = DefaultRetryConfig()
	}
	if retry.BackoffMultiplier <= 0 {
		retry.BackoffMultiplier = 1
	}
	return &DashboardService{
		storage: storage,
		logger:  logger,
		retry:   retry,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Refresh fetches the current enterprise snapshot and computes metrics.
// Fetch failures are retried per the RetryConfig; cancellation aborts
// immediately with ErrCancelled and consumes no retry slot. After the last
// attempt fails, ErrMetricsUnavailable wraps the last fetch error and the
// caller decides whether to substitute FallbackMetrics.
func (s *DashboardService) Refresh(ctx context.Context) (MetricsResult, error) {
	var lastErr error

	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("dashboard refresh cancelled", zap.Int("attempt", attempt))
			return MetricsResult{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		records, err := s.storage.GetAll(ctx)
		if err == nil {
			result := ComputeMetrics(records, s.now())
			s.logger.Info("dashboard refresh complete",
				zap.Int("enterprises", result.EnterpriseCount),
				zap.Int("active_projects", result.ActiveProjectCount),
				zap.Float64("health_score", result.HealthScore),
				zap.Int("attempt", attempt))
			return result, nil
		}

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			s.logger.Warn("dashboard refresh cancelled mid-fetch", zap.Int("attempt", attempt))
			return MetricsResult{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		lastErr = fmt.Errorf("%w: %v", ErrFetchFailure, err)
		s.logger.Warn("enterprise fetch failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.retry.MaxAttempts),
			zap.Error(err))

		if attempt < s.retry.MaxAttempts {
			wait := s.backoff(attempt)
			if err := s.sleep(ctx, wait); err != nil {
				s.logger.Warn("dashboard refresh cancelled during backoff", zap.Int("attempt", attempt))
				return MetricsResult{}, fmt.Errorf("%w: %v", ErrCancelled, err)
			}
		}
	}

	s.logger.Error("dashboard refresh exhausted retries",
		zap.Int("attempts", s.retry.MaxAttempts),
		zap.Error(lastErr))
	return MetricsResult{}, fmt.Errorf("%w: %v", ErrMetricsUnavailable, lastErr)
}

// CategoryBreakdown returns per-category record counts for the dashboard's
// distribution panel. A single fetch; the panel tolerates transient misses.
func (s *DashboardService) CategoryBreakdown(ctx context.Context) ([]CategoryBreakdownEntry, error) {
	counts, err := s.storage.CountByCategory(ctx)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	out := make([]CategoryBreakdownEntry, 0, len(counts))
	for _, c := range counts {
		entry := CategoryBreakdownEntry{Category: c.Category, Count: c.Count}
		if total > 0 {
			entry.Share = math.Round(float64(c.Count)/float64(total)*1000) / 10
		}
		out = append(out, entry)
	}
	return out, nil
}

// Fallback returns the neutral metrics substitute stamped with current time.
func (s *DashboardService) Fallback() MetricsResult {
	return FallbackMetrics(s.now())
}

// backoff computes the wait after the given failed attempt (counted from 1).
func (s *DashboardService) backoff(attempt int) time.Duration {
	wait := float64(s.retry.BackoffBase)
	for i := 1; i < attempt; i++ {
		wait *= s.retry.BackoffMultiplier
	}
	return time.Duration(wait)
}

// sleepContext waits for d unless the context is done first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
