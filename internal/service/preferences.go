package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	refreshIntervalKey = "prefs:dashboard:refresh_interval"
	preferenceTTL      = 30 * 24 * time.Hour

	// DefaultRefreshInterval applies when no preference is stored or the
	// stored one has expired.
	DefaultRefreshInterval = 60 * time.Second

	minRefreshInterval = 5 * time.Second
	maxRefreshInterval = time.Hour
)

var ErrInvalidInterval = errors.New("refresh interval out of range")

// PreferencesService persists the dashboard refresh interval as a concretely
// typed RefreshPreference record in the TTL cache.
type PreferencesService struct {
	cache  PreferenceCache
	logger *zap.Logger
	now    func() time.Time
}

func NewPreferencesService(cache PreferenceCache, logger *zap.Logger) *PreferencesService {
	if cache == nil {
		panic("cache must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferencesService{
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// GetRefreshInterval returns the stored interval, or the default on any miss.
// A cache failure here is not worth surfacing; the dashboard just refreshes
// at the default cadence.
func (p *PreferencesService) GetRefreshInterval(ctx context.Context) time.Duration {
	var pref RefreshPreference
	if err := p.cache.Get(ctx, refreshIntervalKey, &pref); err != nil {
		p.logger.Debug("refresh interval preference miss", zap.Error(err))
		return DefaultRefreshInterval
	}
	if pref.IntervalSeconds <= 0 {
		return DefaultRefreshInterval
	}
	return time.Duration(pref.IntervalSeconds) * time.Second
}

// SetRefreshInterval validates and persists a new refresh interval.
func (p *PreferencesService) SetRefreshInterval(ctx context.Context, interval time.Duration) error {
	if interval < minRefreshInterval || interval > maxRefreshInterval {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrInvalidInterval, interval, minRefreshInterval, maxRefreshInterval)
	}

	pref := RefreshPreference{
		IntervalSeconds: int(interval / time.Second),
		UpdatedAt:       p.now().UTC(),
	}
	if err := p.cache.Set(ctx, refreshIntervalKey, pref, preferenceTTL); err != nil {
		return fmt.Errorf("persist refresh interval: %w", err)
	}

	p.logger.Info("refresh interval updated", zap.Int("interval_seconds", pref.IntervalSeconds))
	return nil
}
