package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	taxdomain "github.com/microbooks/microbooks/internal/tax/domain"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	AccountSvc accountdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	accountSvc accountdomain.Service
}

func NewService(p Params) taxdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("tax.service"),
		genID:      p.GenID,
		accountSvc: p.AccountSvc,
	}
}

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Tax, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tax := &taxdomain.Tax{
		ID:               s.genID.Generate(),
		EntityID:         entityID,
		Name:             strings.TrimSpace(req.Name),
		Code:             strings.TrimSpace(req.Code),
		TaxMode:          req.TaxMode,
		Rate:             req.Rate,
		ControlAccountID: req.ControlAccountID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tax.Validate(); err != nil {
		return nil, err
	}

	control, err := s.accountSvc.Get(ctx, req.ControlAccountID)
	if err != nil {
		return nil, err
	}
	if control.AccountType != accountdomain.Control {
		return nil, taxdomain.ErrInvalidControlAccount
	}

	if err := s.db.WithContext(ctx).Create(tax).Error; err != nil {
		return nil, err
	}
	return tax, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*taxdomain.Tax, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	var tax taxdomain.Tax
	err = s.db.WithContext(ctx).First(&tax, "entity_id = ? AND id = ?", entityID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, taxdomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tax, nil
}

func (s *Service) GetAll(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]taxdomain.Tax, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	resolved := make(map[snowflake.ID]taxdomain.Tax, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	var taxes []taxdomain.Tax
	if err := s.db.WithContext(ctx).
		Where("entity_id = ? AND id IN ?", entityID, ids).
		Find(&taxes).Error; err != nil {
		return nil, err
	}
	for _, tax := range taxes {
		resolved[tax.ID] = tax
	}
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			return nil, taxdomain.ErrNotFound
		}
	}
	return resolved, nil
}
