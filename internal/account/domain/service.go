package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	Name        string
	AccountType AccountType
	CurrencyID  snowflake.ID
}

type BalanceRequest struct {
	AccountID       snowflake.ID
	Amount          decimal.Decimal
	BalanceSide     BalanceSide
	TransactionDate time.Time
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Account, error)
	Get(ctx context.Context, id snowflake.ID) (*Account, error)
	List(ctx context.Context, types ...AccountType) ([]Account, error)
	OpeningBalance(ctx context.Context, req BalanceRequest) (*Balance, error)
	OpeningBalances(ctx context.Context, accountID, periodID snowflake.ID) ([]Balance, error)
}
