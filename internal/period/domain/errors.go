package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidEntity = errors.New("invalid_entity")
	ErrInvalidYear   = errors.New("invalid_year")
	ErrNotFound      = errors.New("period_not_found")
)

// ClosedPeriodError rejects a posting dated inside a closed period.
type ClosedPeriodError struct {
	EntityID     snowflake.ID
	PeriodID     snowflake.ID
	CalendarYear int
}

func (e *ClosedPeriodError) Error() string {
	return fmt.Sprintf("reporting period %d is closed for entity %s", e.CalendarYear, e.EntityID)
}

// RestrictedPeriodError rejects a non-adjusting posting into an adjusting
// period.
type RestrictedPeriodError struct {
	EntityID     snowflake.ID
	PeriodID     snowflake.ID
	CalendarYear int
}

func (e *RestrictedPeriodError) Error() string {
	return fmt.Sprintf("reporting period %d accepts journal entries only for entity %s", e.CalendarYear, e.EntityID)
}

// InvalidTransitionError rejects a transition that is not the next step of
// the OPEN -> ADJUSTING -> CLOSED sequence.
type InvalidTransitionError struct {
	PeriodID snowflake.ID
	From     PeriodStatus
	To       PeriodStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("reporting period %s cannot move from %s to %s", e.PeriodID, e.From, e.To)
}

// ConcurrentTransitionError reports a transition lost to a concurrent one.
type ConcurrentTransitionError struct {
	PeriodID snowflake.ID
	Expected PeriodStatus
	Found    PeriodStatus
}

func (e *ConcurrentTransitionError) Error() string {
	return fmt.Sprintf("reporting period %s moved to %s while a transition from %s was in flight", e.PeriodID, e.Found, e.Expected)
}
