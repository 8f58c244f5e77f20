package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Record writes one audit event. The actor token is taken from context
	// and stored opaquely.
	Record(ctx context.Context, entityID snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) error
}

var (
	ErrInvalidEntity = errors.New("invalid_entity")
	ErrInvalidAction = errors.New("invalid_action")
)
