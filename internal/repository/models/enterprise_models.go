package models

import "time"

// EnterpriseRecord is one municipal enterprise row as stored.
// LastModified is nil for records never touched after creation.
type EnterpriseRecord struct {
	ID           int64
	Name         string
	Category     string
	Budget       float64
	Description  string
	CreatedAt    time.Time
	LastModified *time.Time
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
