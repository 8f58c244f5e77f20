package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/microbooks/microbooks/internal/audit/domain"
	"github.com/microbooks/microbooks/internal/clock"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) auditdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: clk,
	}
}

func (s *Service) Record(ctx context.Context, entityID snowflake.ID, action, targetType string, targetID *string, metadata map[string]any) error {
	if entityID == 0 {
		return auditdomain.ErrInvalidEntity
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	actor, _ := entityctx.ActorFromContext(ctx)

	encoded := ""
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			s.log.Warn("failed to encode audit metadata", zap.Error(err))
		} else {
			encoded = string(raw)
		}
	}

	return s.db.WithContext(ctx).Create(&auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		EntityID:   entityID,
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   encoded,
		CreatedAt:  s.clock.Now(),
	}).Error
}
