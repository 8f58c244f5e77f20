package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Open creates the reporting period for the calendar year, OPEN.
	Open(ctx context.Context, year int) (*ReportingPeriod, error)
	// ResolveForDate returns the entity's period covering the date.
	ResolveForDate(ctx context.Context, date time.Time) (*ReportingPeriod, error)
	Get(ctx context.Context, id snowflake.ID) (*ReportingPeriod, error)
	// Transition moves the period one step along OPEN -> ADJUSTING -> CLOSED.
	// Exactly one of two concurrent identical transitions succeeds; the other
	// observes ConcurrentTransitionError.
	Transition(ctx context.Context, periodID snowflake.ID, target PeriodStatus) (*ReportingPeriod, error)
	// EarliestOpen returns the entity's earliest period still OPEN.
	EarliestOpen(ctx context.Context) (*ReportingPeriod, error)
}

// Gate checks whether a period admits a posting. Adjusting-capable
// transaction types (journal entries) may post into ADJUSTING periods.
func Gate(period *ReportingPeriod, adjustingCapable bool) error {
	switch period.Status {
	case StatusClosed:
		return &ClosedPeriodError{
			EntityID:     period.EntityID,
			PeriodID:     period.ID,
			CalendarYear: period.CalendarYear,
		}
	case StatusAdjusting:
		if !adjustingCapable {
			return &RestrictedPeriodError{
				EntityID:     period.EntityID,
				PeriodID:     period.ID,
				CalendarYear: period.CalendarYear,
			}
		}
	}
	return nil
}
