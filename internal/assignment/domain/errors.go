package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("assignment amount must be positive")
	ErrSelfAssignment      = errors.New("a transaction cannot clear itself")
	ErrMainAccountMismatch = errors.New("assigned transactions must share a main account")
	ErrNotFound            = errors.New("assignment not found")
)

// NotClearableError reports a cleared-side transaction whose type cannot
// carry an outstanding balance.
type NotClearableError struct {
	TransactionID   snowflake.ID
	TransactionType string
}

func (e *NotClearableError) Error() string {
	return fmt.Sprintf("transaction %s (%s) is not clearable", e.TransactionID, e.TransactionType)
}

// NotSettlingError reports a settling-side transaction whose type cannot
// clear other transactions.
type NotSettlingError struct {
	TransactionID   snowflake.ID
	TransactionType string
}

func (e *NotSettlingError) Error() string {
	return fmt.Sprintf("transaction %s (%s) cannot settle other transactions", e.TransactionID, e.TransactionType)
}

// UnpostedTransactionError reports an assignment against a draft.
type UnpostedTransactionError struct {
	TransactionID snowflake.ID
}

func (e *UnpostedTransactionError) Error() string {
	return fmt.Sprintf("transaction %s is not posted and cannot be assigned", e.TransactionID)
}

// OverclearanceError reports an assignment amount exceeding the remaining
// capacity of either side.
type OverclearanceError struct {
	TransactionID snowflake.ID
	Available     decimal.Decimal
	Requested     decimal.Decimal
}

func (e *OverclearanceError) Error() string {
	return fmt.Sprintf("transaction %s has %s available, %s requested",
		e.TransactionID, e.Available.StringFixed(2), e.Requested.StringFixed(2))
}
