package service

import (
	"fmt"
	"time"
)

// Direction classifies a period-over-period delta.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	// DirectionNoBaseline means the prior-period denominator was zero,
	// so no percent change can be reported.
	DirectionNoBaseline Direction = "no_baseline"
)

// Delta is one period-over-period comparison. Percent is meaningless when
// Direction is DirectionNoBaseline.
type Delta struct {
	Absolute  float64   `json:"absolute"`
	Percent   float64   `json:"percent"`
	Direction Direction `json:"direction"`
}

// Text renders the delta for display, e.g. "+3 (12.5%)".
func (d Delta) Text() string {
	if d.Direction == DirectionNoBaseline {
		return "no baseline"
	}
	return fmt.Sprintf("%+.0f (%.1f%%)", d.Absolute, d.Percent)
}

// HealthBand is the label attached to a health-score range.
type HealthBand string

const (
	HealthExcellent HealthBand = "Excellent"
	HealthGood      HealthBand = "Good"
	HealthFair      HealthBand = "Fair"
	HealthPoor      HealthBand = "Poor"
	HealthCritical  HealthBand = "Critical"
)

// HealthStatus pairs a band label with its ordinal severity tier
// (0 = Excellent .. 4 = Critical). Presentation maps tiers to colors;
// the service never deals in colors.
type HealthStatus struct {
	Label    HealthBand `json:"label"`
	Severity int        `json:"severity"`
}

// MetricsResult is an immutable aggregation over one enterprise snapshot.
// Produced fresh on every pass; never mutated after return.
type MetricsResult struct {
	EnterpriseCount    int       `json:"enterprise_count"`
	TotalBudget        float64   `json:"total_budget"`
	ActiveProjectCount int       `json:"active_project_count"`
	HealthScore        float64   `json:"health_score"`
	BudgetUtilization  float64   `json:"budget_utilization"`
	CountChange        Delta     `json:"count_change"`
	BudgetChange       Delta     `json:"budget_change"`
	ActiveChange       Delta     `json:"active_change"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// CategoryBreakdownEntry is one slice of the per-category distribution.
// Share is the percent of all records in this category, one decimal.
type CategoryBreakdownEntry struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Share    float64 `json:"share"`
}

// RefreshPreference is the persisted dashboard refresh-interval setting.
type RefreshPreference struct {
	IntervalSeconds int       `json:"interval_seconds"`
	UpdatedAt       time.Time `json:"updated_at"`
}
