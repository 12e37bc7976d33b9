package service

import (
	"testing"
	"time"

	"github.com/civdash/dashboard-server/internal/repository/models"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func modifiedAt(t time.Time) *time.Time {
	return &t
}

func daysAgo(d int) time.Time {
	return testNow.Add(-time.Duration(d) * 24 * time.Hour)
}

// TestComputeMetrics_Empty verifies the empty snapshot is a valid result.
func TestComputeMetrics_Empty(t *testing.T) {
	result := ComputeMetrics(nil, testNow)

	assert.Equal(t, 0, result.EnterpriseCount)
	assert.Equal(t, 0.0, result.TotalBudget)
	assert.Equal(t, 0, result.ActiveProjectCount)
	assert.Equal(t, 0.0, result.HealthScore)
	assert.Equal(t, 0.0, result.BudgetUtilization)
	assert.Equal(t, DirectionNoBaseline, result.CountChange.Direction)
	assert.Equal(t, DirectionNoBaseline, result.BudgetChange.Direction)
	assert.Equal(t, DirectionNoBaseline, result.ActiveChange.Direction)
	assert.Equal(t, testNow, result.GeneratedAt)
}

// TestComputeMetrics_WorkedExample walks the full composite:
// 10 records, all created over 30 days ago, 5 modified within 7 days,
// 8 with a description, all with positive budget.
func TestComputeMetrics_WorkedExample(t *testing.T) {
	var snapshot []models.EnterpriseRecord
	for i := 0; i < 10; i++ {
		rec := models.EnterpriseRecord{
			ID:        int64(i + 1),
			Name:      "Enterprise",
			Category:  "Utilities",
			Budget:    10000,
			CreatedAt: daysAgo(90),
		}
		if i < 5 {
			rec.LastModified = modifiedAt(daysAgo(2))
		}
		if i < 8 {
			rec.Description = "municipal water services"
		}
		snapshot = append(snapshot, rec)
	}

	result := ComputeMetrics(snapshot, testNow)

	assert.Equal(t, 10, result.EnterpriseCount)
	assert.Equal(t, 100000.0, result.TotalBudget)
	assert.Equal(t, 5, result.ActiveProjectCount)

	// presence 25 + activity 25 + quality 12.5*0.8+12.5*1.0=22.5 + recency 25*0.5=12.5
	assert.Equal(t, 85.0, result.HealthScore)
	assert.Equal(t, HealthGood, HealthStatusFor(result.HealthScore).Label)

	// 5 active * 15, capped at 100
	assert.Equal(t, 75.0, result.BudgetUtilization)

	// Full baseline: every record existed a window ago, so deltas are flat.
	assert.Equal(t, DirectionUp, result.CountChange.Direction)
	assert.Equal(t, 0.0, result.CountChange.Absolute)
	assert.Equal(t, 0.0, result.CountChange.Percent)
	assert.Equal(t, DirectionUp, result.BudgetChange.Direction)

	// Nothing was modified in the shifted (60d, 30d] window.
	assert.Equal(t, DirectionNoBaseline, result.ActiveChange.Direction)
}

func TestComputeMetrics_Deltas(t *testing.T) {
	t.Run("growth against baseline", func(t *testing.T) {
		snapshot := []models.EnterpriseRecord{
			{Budget: 100, CreatedAt: daysAgo(45)},
			{Budget: 100, CreatedAt: daysAgo(45)},
			{Budget: 100, CreatedAt: daysAgo(45)},
			{Budget: 100, CreatedAt: daysAgo(45)},
			{Budget: 300, CreatedAt: daysAgo(3)},
		}

		result := ComputeMetrics(snapshot, testNow)

		assert.Equal(t, 1.0, result.CountChange.Absolute)
		assert.Equal(t, 25.0, result.CountChange.Percent)
		assert.Equal(t, DirectionUp, result.CountChange.Direction)

		assert.Equal(t, 300.0, result.BudgetChange.Absolute)
		assert.Equal(t, 75.0, result.BudgetChange.Percent)
		assert.Equal(t, DirectionUp, result.BudgetChange.Direction)
	})

	t.Run("all records created within the window means no baseline", func(t *testing.T) {
		snapshot := []models.EnterpriseRecord{
			{Budget: 100, CreatedAt: daysAgo(3)},
			{Budget: 200, CreatedAt: daysAgo(10)},
		}

		result := ComputeMetrics(snapshot, testNow)

		assert.Equal(t, DirectionNoBaseline, result.CountChange.Direction)
		assert.Equal(t, DirectionNoBaseline, result.BudgetChange.Direction)
	})

	t.Run("zero budget baseline never divides", func(t *testing.T) {
		snapshot := []models.EnterpriseRecord{
			{Budget: 0, CreatedAt: daysAgo(45)},
			{Budget: 500, CreatedAt: daysAgo(3)},
		}

		result := ComputeMetrics(snapshot, testNow)

		// Count baseline exists, budget baseline does not.
		assert.Equal(t, DirectionUp, result.CountChange.Direction)
		assert.Equal(t, 100.0, result.CountChange.Percent)
		assert.Equal(t, DirectionNoBaseline, result.BudgetChange.Direction)
	})

	t.Run("active projects compare against the shifted window", func(t *testing.T) {
		snapshot := []models.EnterpriseRecord{
			{CreatedAt: daysAgo(90), Budget: 1, LastModified: modifiedAt(daysAgo(5))},
			{CreatedAt: daysAgo(90), Budget: 1, LastModified: modifiedAt(daysAgo(10))},
			{CreatedAt: daysAgo(90), Budget: 1, LastModified: modifiedAt(daysAgo(45))},
			{CreatedAt: daysAgo(90), Budget: 1, LastModified: modifiedAt(daysAgo(50))},
			{CreatedAt: daysAgo(90), Budget: 1, LastModified: modifiedAt(daysAgo(55))},
			{CreatedAt: daysAgo(90), Budget: 1, LastModified: modifiedAt(daysAgo(100))},
			{CreatedAt: daysAgo(90), Budget: 1},
		}

		result := ComputeMetrics(snapshot, testNow)

		assert.Equal(t, 2, result.ActiveProjectCount)
		assert.Equal(t, -1.0, result.ActiveChange.Absolute)
		assert.InDelta(t, -33.3, result.ActiveChange.Percent, 0.1)
		assert.Equal(t, DirectionDown, result.ActiveChange.Direction)
	})

	t.Run("shrinking count reports down", func(t *testing.T) {
		// 4 old records is the baseline; the snapshot itself only has 4,
		// so a Down delta needs the baseline to exceed the total, which
		// cannot happen. Down shows up in active projects instead; count
		// deltas bottom out at zero change.
		snapshot := []models.EnterpriseRecord{
			{Budget: 100, CreatedAt: daysAgo(45)},
			{Budget: 100, CreatedAt: daysAgo(45)},
		}

		result := ComputeMetrics(snapshot, testNow)
		assert.Equal(t, 0.0, result.CountChange.Absolute)
		assert.Equal(t, DirectionUp, result.CountChange.Direction)
	})
}

func TestComputeMetrics_WindowBoundaries(t *testing.T) {
	t.Run("modified exactly at the cutoff is not active", func(t *testing.T) {
		cutoff := testNow.Add(-activityWindow)
		snapshot := []models.EnterpriseRecord{
			{Budget: 1, CreatedAt: daysAgo(90), LastModified: modifiedAt(cutoff)},
		}

		result := ComputeMetrics(snapshot, testNow)

		assert.Equal(t, 0, result.ActiveProjectCount)
		// It lands in the shifted window instead.
		assert.Equal(t, DirectionDown, result.ActiveChange.Direction)
		assert.Equal(t, -1.0, result.ActiveChange.Absolute)
	})

	t.Run("nil last modified never counts as active", func(t *testing.T) {
		snapshot := []models.EnterpriseRecord{
			{Budget: 1, CreatedAt: daysAgo(1)},
			{Budget: 1, CreatedAt: daysAgo(90)},
		}

		result := ComputeMetrics(snapshot, testNow)
		assert.Equal(t, 0, result.ActiveProjectCount)
	})
}

func TestHealthScore_Tiers(t *testing.T) {
	t.Run("single stale record earns presence only", func(t *testing.T) {
		snapshot := []models.EnterpriseRecord{
			{CreatedAt: daysAgo(90)},
		}

		result := ComputeMetrics(snapshot, testNow)
		// presence 10, no activity, no description, no budget, no recency
		assert.Equal(t, 10.0, result.HealthScore)
	})

	t.Run("activity tier steps at 1, 3 and 5", func(t *testing.T) {
		base := func(active int) float64 {
			var snapshot []models.EnterpriseRecord
			for i := 0; i < 10; i++ {
				rec := models.EnterpriseRecord{CreatedAt: daysAgo(90)}
				if i < active {
					// Recent enough to be active, old enough to stay out
					// of the recency tier.
					rec.LastModified = modifiedAt(daysAgo(10))
				}
				snapshot = append(snapshot, rec)
			}
			return ComputeMetrics(snapshot, testNow).HealthScore
		}

		none := base(0)
		one := base(1)
		three := base(3)
		five := base(5)
		seven := base(7)

		assert.Equal(t, 10.0, one-none)
		assert.Equal(t, 20.0, three-none)
		assert.Equal(t, 25.0, five-none)
		assert.Equal(t, five, seven, "activity tier is capped at 5 active projects")
	})

	t.Run("perfect snapshot caps at 100", func(t *testing.T) {
		var snapshot []models.EnterpriseRecord
		for i := 0; i < 12; i++ {
			snapshot = append(snapshot, models.EnterpriseRecord{
				Budget:       5000,
				Description:  "fully documented",
				CreatedAt:    daysAgo(90),
				LastModified: modifiedAt(daysAgo(1)),
			})
		}

		result := ComputeMetrics(snapshot, testNow)
		assert.Equal(t, 100.0, result.HealthScore)
	})

	t.Run("score is rounded to one decimal", func(t *testing.T) {
		// 3 records, 1 described, 1 funded: quality = 12.5/3 + 12.5/3 = 8.333..
		snapshot := []models.EnterpriseRecord{
			{CreatedAt: daysAgo(90), Description: "x", Budget: 0},
			{CreatedAt: daysAgo(90), Budget: 100},
			{CreatedAt: daysAgo(90)},
		}

		result := ComputeMetrics(snapshot, testNow)
		// presence 10 + quality 8.333.. rounds to 18.3
		assert.Equal(t, 18.3, result.HealthScore)
	})
}

func TestBudgetUtilization(t *testing.T) {
	cases := []struct {
		name     string
		budget   float64
		active   int
		expected float64
	}{
		{name: "no budget means zero regardless of activity", budget: 0, active: 4, expected: 0},
		{name: "scales by active count", budget: 1000, active: 3, expected: 45},
		{name: "caps at 100", budget: 1000, active: 9, expected: 100},
		{name: "no active projects", budget: 1000, active: 0, expected: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, budgetUtilization(tc.budget, tc.active))
		})
	}
}

// TestHealthStatusFor pins the banding boundaries at exactly 90/75/60/40.
func TestHealthStatusFor(t *testing.T) {
	cases := []struct {
		score    float64
		label    HealthBand
		severity int
	}{
		{score: 100, label: HealthExcellent, severity: 0},
		{score: 90, label: HealthExcellent, severity: 0},
		{score: 89.9, label: HealthGood, severity: 1},
		{score: 75, label: HealthGood, severity: 1},
		{score: 74.9, label: HealthFair, severity: 2},
		{score: 60, label: HealthFair, severity: 2},
		{score: 59.9, label: HealthPoor, severity: 3},
		{score: 40, label: HealthPoor, severity: 3},
		{score: 39.9, label: HealthCritical, severity: 4},
		{score: 0, label: HealthCritical, severity: 4},
	}

	for _, tc := range cases {
		status := HealthStatusFor(tc.score)
		assert.Equal(t, tc.label, status.Label, "score %.1f", tc.score)
		assert.Equal(t, tc.severity, status.Severity, "score %.1f", tc.score)
	}
}

func TestDeltaText(t *testing.T) {
	assert.Equal(t, "+3 (12.5%)", Delta{Absolute: 3, Percent: 12.5, Direction: DirectionUp}.Text())
	assert.Equal(t, "-2 (-8.0%)", Delta{Absolute: -2, Percent: -8, Direction: DirectionDown}.Text())
	assert.Equal(t, "no baseline", Delta{Direction: DirectionNoBaseline}.Text())
}

func TestFallbackMetrics(t *testing.T) {
	result := FallbackMetrics(testNow)

	assert.Equal(t, 0, result.EnterpriseCount)
	assert.Equal(t, 40.0, result.HealthScore)
	assert.Equal(t, HealthPoor, HealthStatusFor(result.HealthScore).Label)
	assert.Equal(t, DirectionNoBaseline, result.CountChange.Direction)
	assert.Equal(t, DirectionNoBaseline, result.BudgetChange.Direction)
	assert.Equal(t, DirectionNoBaseline, result.ActiveChange.Direction)
	assert.Equal(t, testNow, result.GeneratedAt)
}

// ComputeMetrics is pure: identical inputs give identical results.
func TestComputeMetrics_Deterministic(t *testing.T) {
	snapshot := []models.EnterpriseRecord{
		{Budget: 100, CreatedAt: daysAgo(45), Description: "a", LastModified: modifiedAt(daysAgo(2))},
		{Budget: 250, CreatedAt: daysAgo(10)},
	}

	first := ComputeMetrics(snapshot, testNow)
	second := ComputeMetrics(snapshot, testNow)
	assert.Equal(t, first, second)
}
