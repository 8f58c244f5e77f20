package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type AssignRequest struct {
	// TransactionID is the settling transaction.
	TransactionID snowflake.ID
	// ClearedID is the clearable transaction to settle.
	ClearedID snowflake.ID
	Amount    decimal.Decimal
}

type Service interface {
	// Assign clears Amount of the clearable transaction with the settling
	// transaction. Both capacity checks run under row locks.
	Assign(ctx context.Context, req AssignRequest) (*Assignment, error)
	// BulkAssign spreads the settling transaction's remaining balance across
	// the main account's outstanding clearables, oldest transaction date
	// first, until the balance or the clearables run out.
	BulkAssign(ctx context.Context, transactionID snowflake.ID) ([]Assignment, error)
	// Balance returns the settling transaction's amount not yet used to
	// clear anything.
	Balance(ctx context.Context, transactionID snowflake.ID) (decimal.Decimal, error)
	// Outstanding returns the clearable transaction's amount not yet
	// cleared.
	Outstanding(ctx context.Context, transactionID snowflake.ID) (decimal.Decimal, error)
	// For lists the assignments made by the settling transaction.
	For(ctx context.Context, transactionID snowflake.ID) ([]Assignment, error)
}
