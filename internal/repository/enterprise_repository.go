package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/civdash/dashboard-server/internal/repository/models"
)

type EnterpriseRepository struct {
	db *sql.DB
}

func NewEnterpriseRepository(db *sql.DB) *EnterpriseRepository {
	return &EnterpriseRepository{db: db}
}

// GetAll returns every enterprise record ordered by id. The result is the
// snapshot the metrics aggregation runs over; callers must not mutate rows
// while an aggregation pass is in flight.
func (r *EnterpriseRepository) GetAll(ctx context.Context) ([]models.EnterpriseRecord, error) {
	const query = `
		SELECT
			e.id,
			e.name,
			e.category,
			e.budget,
			COALESCE(e.description, '') AS description,
			e.created_at,
			e.last_modified
		FROM enterprises AS e
		ORDER BY e.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query GetAll: %w", err)
	}
	defer rows.Close()

	var results []models.EnterpriseRecord
	for rows.Next() {
		var rec models.EnterpriseRecord
		var lastModified sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Category, &rec.Budget, &rec.Description, &rec.CreatedAt, &lastModified); err != nil {
			return nil, fmt.Errorf("scan GetAll row: %w", err)
		}
		if lastModified.Valid {
			t := lastModified.Time
			rec.LastModified = &t
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetAll: %w", err)
	}
	return results, nil
}

// CountByCategory returns record counts grouped by category label, largest first.
func (r *EnterpriseRepository) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	const query = `
		SELECT
			e.category,
			COUNT(e.id) AS record_count
		FROM enterprises AS e
		GROUP BY e.category
		ORDER BY record_count DESC, e.category
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query CountByCategory: %w", err)
	}
	defer rows.Close()

	var results []models.CategoryCount
	for rows.Next() {
		var cc models.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan CountByCategory row: %w", err)
		}
		results = append(results, cc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate CountByCategory: %w", err)
	}
	return results, nil
}
