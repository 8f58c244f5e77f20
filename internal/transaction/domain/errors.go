package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidEntity          = errors.New("invalid_entity")
	ErrInvalidTransactionType = errors.New("invalid_transaction_type")
	ErrInvalidNarration       = errors.New("invalid_narration")
	ErrInvalidDate            = errors.New("invalid_transaction_date")
	ErrInvalidAmount          = errors.New("invalid_amount")
	ErrMissingLineItems       = errors.New("missing_line_items")
	ErrMissingMainAmount      = errors.New("missing_main_amount")
	ErrTaxNotAllowed          = errors.New("tax_not_allowed")
	ErrCurrencyMismatch       = errors.New("currency_mismatch")
	ErrNotFound               = errors.New("not_found")
)

// PostedTransactionError rejects any mutation of a posted transaction.
type PostedTransactionError struct {
	TransactionID snowflake.ID
}

func (e *PostedTransactionError) Error() string {
	return fmt.Sprintf("transaction %s is posted and cannot change", e.TransactionID)
}

// UnbalancedTransactionError reports an allocation that cannot make debits
// equal credits.
type UnbalancedTransactionError struct {
	TransactionID snowflake.ID
	Remainder     decimal.Decimal
}

func (e *UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("transaction %s does not balance: remainder %s", e.TransactionID, e.Remainder)
}

// InvalidMainAccountError reports a main account whose type is outside the
// transaction type's allowed set.
type InvalidMainAccountError struct {
	TransactionID   snowflake.ID
	TransactionType TransactionType
	AccountID       snowflake.ID
	AccountType     string
}

func (e *InvalidMainAccountError) Error() string {
	return fmt.Sprintf("account %s (%s) cannot be the main account of a %s", e.AccountID, e.AccountType, e.TransactionType)
}

// InvalidLineItemAccountError reports a line item account whose type is
// outside the transaction type's allowed set.
type InvalidLineItemAccountError struct {
	TransactionID   snowflake.ID
	TransactionType TransactionType
	AccountID       snowflake.ID
	AccountType     string
}

func (e *InvalidLineItemAccountError) Error() string {
	return fmt.Sprintf("account %s (%s) cannot be a line item account of a %s", e.AccountID, e.AccountType, e.TransactionType)
}
