package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, name, currencyCode, currencyName string) (*Entity, error)
	Get(ctx context.Context, id snowflake.ID) (*Entity, error)
	BaseCurrency(ctx context.Context, entityID snowflake.ID) (*Currency, error)
	AddCurrency(ctx context.Context, entityID snowflake.ID, code, name string) (*Currency, error)
}
