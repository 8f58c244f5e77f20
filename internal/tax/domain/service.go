package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	Name             string
	Code             string
	TaxMode          TaxMode
	Rate             decimal.Decimal
	ControlAccountID snowflake.ID
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Tax, error)
	Get(ctx context.Context, id snowflake.ID) (*Tax, error)
	// GetAll resolves taxes by ID for allocation. Missing IDs are an error.
	GetAll(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Tax, error)
}
