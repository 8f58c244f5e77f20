package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"go.uber.org/zap"
)

const (
	HeaderEntity = "X-Entity-ID"
	HeaderActor  = "X-Actor"
)

// EntityContext resolves the entity and actor headers into the request
// context. Every entity-scoped route sits behind it.
func EntityContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderEntity))
		if raw == "" {
			AbortWithError(c, entityctx.ErrMissingEntity)
			return
		}
		entityID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, entityctx.ErrMissingEntity)
			return
		}

		ctx := entityctx.WithEntityID(c.Request.Context(), entityID)
		if actor := strings.TrimSpace(c.GetHeader(HeaderActor)); actor != "" {
			ctx = entityctx.WithActor(ctx, actor)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http.access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
