package models

import "time"

// DefaultBoundarySet is the set applied when an exam names none.
const DefaultBoundarySet = "default"

// GradeBoundary is one row of a school's letter-grade table. Rows sharing a
// SetName form a boundary table that must tile [0,100] without gaps or overlaps.
type GradeBoundary struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SchoolID   uint      `gorm:"not null;uniqueIndex:idx_boundary_scope" json:"school_id"`
	SetName    string    `gorm:"size:64;not null;uniqueIndex:idx_boundary_scope" json:"set_name"`
	MinPercent float64   `gorm:"not null;uniqueIndex:idx_boundary_scope" json:"min_percent"`
	MaxPercent float64   `gorm:"not null" json:"max_percent"`
	Label      string    `gorm:"size:8;not null" json:"label"`
	Remarks    string    `gorm:"size:255" json:"remarks"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
