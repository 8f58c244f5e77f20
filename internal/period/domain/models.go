package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PeriodStatus gates which transactions a reporting period accepts.
type PeriodStatus string

const (
	// StatusOpen accepts all transaction postings.
	StatusOpen PeriodStatus = "OPEN"
	// StatusAdjusting accepts journal entries only.
	StatusAdjusting PeriodStatus = "ADJUSTING"
	// StatusClosed accepts nothing. Terminal.
	StatusClosed PeriodStatus = "CLOSED"
)

// ReportingPeriod is one calendar year of an entity's books.
// Transitions are monotonic: OPEN -> ADJUSTING -> CLOSED.
type ReportingPeriod struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	EntityID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_periods_entity_year,priority:1"`
	CalendarYear int          `gorm:"not null;uniqueIndex:ux_periods_entity_year,priority:2"`
	Status       PeriodStatus `gorm:"type:text;not null"`

	// Version increments on every transition so stale writers are rejected.
	Version int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ReportingPeriod) TableName() string { return "reporting_periods" }

// next returns the status that follows s, if any.
func (s PeriodStatus) next() (PeriodStatus, bool) {
	switch s {
	case StatusOpen:
		return StatusAdjusting, true
	case StatusAdjusting:
		return StatusClosed, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether the status may move to target.
func (s PeriodStatus) CanTransitionTo(target PeriodStatus) bool {
	next, ok := s.next()
	return ok && next == target
}
