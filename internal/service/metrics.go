package service

import (
	"math"
	"time"

	"github.com/civdash/dashboard-server/internal/repository/models"
)

const (
	// activityWindow is the trailing window a record must have been modified
	// in to count as an active project. The baseline partition uses the same
	// cutoff on creation time.
	activityWindow = 30 * 24 * time.Hour
	// recencyWindow feeds the recency tier of the health score.
	recencyWindow = 7 * 24 * time.Hour

	// utilizationPerActive is a placeholder heuristic pending real
	// spend-tracking data: each active project is assumed to consume 15% of
	// budget capacity. Kept as-is intentionally; do not "correct" it here.
	utilizationPerActive = 15.0

	// fallbackHealthScore is the fixed score reported when metrics are
	// unavailable after retry exhaustion. Lands in the "Poor" band.
	fallbackHealthScore = 40.0
)

// ComputeMetrics aggregates one enterprise snapshot into display metrics.
// Pure function of its inputs: any well-formed snapshot, including an empty
// one, yields a valid result. now is injected so windows are reproducible.
func ComputeMetrics(snapshot []models.EnterpriseRecord, now time.Time) MetricsResult {
	activeCutoff := now.Add(-activityWindow)
	shiftedCutoff := now.Add(-2 * activityWindow)
	recentCutoff := now.Add(-recencyWindow)

	var (
		totalBudget    float64
		activeCount    int
		prevCount      int
		prevBudget     float64
		prevActive     int
		describedCount int
		fundedCount    int
		recentCount    int
	)

	for _, rec := range snapshot {
		totalBudget += rec.Budget

		if rec.Budget > 0 {
			fundedCount++
		}
		if rec.Description != "" {
			describedCount++
		}

		// Baseline partition: records that already existed a full window ago.
		if rec.CreatedAt.Before(activeCutoff) {
			prevCount++
			prevBudget += rec.Budget
		}

		if rec.LastModified == nil {
			continue
		}
		lm := *rec.LastModified
		if lm.After(activeCutoff) {
			activeCount++
		} else if lm.After(shiftedCutoff) {
			// Shifted window (now-60d, now-30d] for the activity baseline.
			prevActive++
		}
		if lm.After(recentCutoff) {
			recentCount++
		}
	}

	count := len(snapshot)

	return MetricsResult{
		EnterpriseCount:    count,
		TotalBudget:        totalBudget,
		ActiveProjectCount: activeCount,
		HealthScore:        healthScore(count, activeCount, describedCount, fundedCount, recentCount),
		BudgetUtilization:  budgetUtilization(totalBudget, activeCount),
		CountChange:        deltaOf(float64(count), float64(prevCount)),
		BudgetChange:       deltaOf(totalBudget, prevBudget),
		ActiveChange:       deltaOf(float64(activeCount), float64(prevActive)),
		GeneratedAt:        now,
	}
}

// FallbackMetrics is the neutral result substituted when metrics are
// unavailable: zero counts, no baselines, and a fixed "Poor" health score.
func FallbackMetrics(now time.Time) MetricsResult {
	noBaseline := Delta{Direction: DirectionNoBaseline}
	return MetricsResult{
		HealthScore:  fallbackHealthScore,
		CountChange:  noBaseline,
		BudgetChange: noBaseline,
		ActiveChange: noBaseline,
		GeneratedAt:  now,
	}
}

// deltaOf compares a current value against its prior-period baseline.
// A zero baseline reports DirectionNoBaseline instead of dividing.
func deltaOf(current, previous float64) Delta {
	if previous == 0 {
		return Delta{Absolute: current - previous, Direction: DirectionNoBaseline}
	}
	abs := current - previous
	dir := DirectionUp
	if abs < 0 {
		dir = DirectionDown
	}
	return Delta{
		Absolute:  abs,
		Percent:   abs / previous * 100,
		Direction: dir,
	}
}

// healthScore is a weighted composite of four 25-point tiers. Each tier is
// capped independently; the rounded sum is clamped to [0,100].
func healthScore(count, active, described, funded, recent int) float64 {
	var score float64

	// Presence tier: rewards having records at all, then scale.
	if count > 0 {
		score += 10
	}
	if count >= 5 {
		score += 10
	}
	if count >= 10 {
		score += 5
	}

	// Activity tier: projects modified within the trailing window.
	if active > 0 {
		score += 10
	}
	if active >= 3 {
		score += 10
	}
	if active >= 5 {
		score += 5
	}

	if count > 0 {
		n := float64(count)
		// Data-quality tier: descriptions present and budgets funded.
		score += 12.5*(float64(described)/n) + 12.5*(float64(funded)/n)
		// Recency tier: share of records touched in the last week.
		score += 25 * (float64(recent) / n)
	}

	return clamp(math.Round(score*10)/10, 0, 100)
}

// budgetUtilization estimates utilization from active-project count.
// Placeholder pending real spend tracking, see utilizationPerActive.
func budgetUtilization(totalBudget float64, active int) float64 {
	if totalBudget <= 0 {
		return 0
	}
	return math.Min(100, float64(active)*utilizationPerActive)
}

// HealthStatusFor bands a health score. Step boundaries are inclusive:
// a score of exactly 90 is Excellent, 89.9 is Good.
func HealthStatusFor(score float64) HealthStatus {
	switch {
	case score >= 90:
		return HealthStatus{Label: HealthExcellent, Severity: 0}
	case score >= 75:
		return HealthStatus{Label: HealthGood, Severity: 1}
	case score >= 60:
		return HealthStatus{Label: HealthFair, Severity: 2}
	case score >= 40:
		return HealthStatus{Label: HealthPoor, Severity: 3}
	default:
		return HealthStatus{Label: HealthCritical, Severity: 4}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
