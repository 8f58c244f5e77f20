package entityctx

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// ErrMissingEntity indicates an operation ran without an entity in scope.
var ErrMissingEntity = errors.New("entity_not_in_context")

// Require returns the entity ID from context or ErrMissingEntity.
func Require(ctx context.Context) (snowflake.ID, error) {
	id, ok := EntityIDFromContext(ctx)
	if !ok || id == 0 {
		return 0, ErrMissingEntity
	}
	return id, nil
}
