package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type LineItemRequest struct {
	AccountID snowflake.ID
	Narration string
	Amount    decimal.Decimal
	Quantity  decimal.Decimal
	TaxID     *snowflake.ID
}

type CreateRequest struct {
	TransactionType TransactionType
	AccountID       snowflake.ID
	TransactionDate time.Time
	Narration       string
	MainAmount      *decimal.Decimal
	Credited        *bool
	LineItems       []LineItemRequest
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Transaction, error)
	// Get loads a transaction with its line items.
	Get(ctx context.Context, id snowflake.ID) (*Transaction, error)
	AddLineItem(ctx context.Context, transactionID snowflake.ID, item LineItemRequest) (*LineItem, error)
	RemoveLineItem(ctx context.Context, transactionID, lineItemID snowflake.ID) error
	// Validate runs every pre-posting check without writing anything.
	Validate(ctx context.Context, transactionID snowflake.ID) error
	// Post validates, allocates and hands the postings to the ledger. All
	// writes land in one store transaction or none do.
	Post(ctx context.Context, transactionID snowflake.ID) (*Transaction, error)
}

// Poster is the ledger's write surface as the transaction layer sees it.
// The expected chain tip read before allocation is re-checked by the poster
// at commit time so concurrent chain extension surfaces as a conflict
// instead of a fork.
type Poster interface {
	ChainTip(ctx context.Context) (string, error)
	PostEntries(ctx context.Context, txn *Transaction, postings []Posting, expectedTip string) error
}
