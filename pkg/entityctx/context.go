package entityctx

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// EntityContextKey is the request context key for the active entity ID.
type EntityContextKey struct{}

// ActorContextKey is the request context key for the opaque actor token.
// The engine threads the token through to the audit side-channel without
// interpreting it.
type ActorContextKey struct{}

// WithEntityID stores the entity ID in the context.
func WithEntityID(ctx context.Context, entityID snowflake.ID) context.Context {
	return context.WithValue(ctx, EntityContextKey{}, entityID)
}

// WithActor stores the opaque actor token in the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorContextKey{}, actor)
}

// EntityIDFromContext returns the entity ID from context, if set.
func EntityIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	value := ctx.Value(EntityContextKey{})
	if value == nil {
		return 0, false
	}
	switch typed := value.(type) {
	case int64:
		return snowflake.ID(typed), true
	case snowflake.ID:
		return typed, true
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// ActorFromContext returns the opaque actor token from context, if set.
func ActorFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	actor, ok := ctx.Value(ActorContextKey{}).(string)
	if !ok || actor == "" {
		return "", false
	}
	return actor, true
}
