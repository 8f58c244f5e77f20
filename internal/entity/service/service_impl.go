package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	entitydomain "github.com/microbooks/microbooks/internal/entity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) entitydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("entity.service"),
		genID: p.GenID,
	}
}

// Create provisions an entity together with its base currency.
func (s *Service) Create(ctx context.Context, name, currencyCode, currencyName string) (*entitydomain.Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, entitydomain.ErrInvalidName
	}
	currencyCode = strings.ToUpper(strings.TrimSpace(currencyCode))
	if currencyCode == "" {
		return nil, entitydomain.ErrInvalidCurrency
	}

	now := time.Now().UTC()
	entity := &entitydomain.Entity{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	currency := &entitydomain.Currency{
		ID:        s.genID.Generate(),
		EntityID:  entity.ID,
		Code:      currencyCode,
		Name:      currencyName,
		IsBase:    true,
		CreatedAt: now,
	}
	entity.BaseCurrencyID = currency.ID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		return tx.Create(currency).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("entity created",
		zap.String("entity_id", entity.ID.String()),
		zap.String("base_currency", currencyCode),
	)
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*entitydomain.Entity, error) {
	var entity entitydomain.Entity
	err := s.db.WithContext(ctx).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entitydomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (s *Service) BaseCurrency(ctx context.Context, entityID snowflake.ID) (*entitydomain.Currency, error) {
	var currency entitydomain.Currency
	err := s.db.WithContext(ctx).
		First(&currency, "entity_id = ? AND is_base = ?", entityID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entitydomain.ErrMissingBase
	}
	if err != nil {
		return nil, err
	}
	return &currency, nil
}

func (s *Service) AddCurrency(ctx context.Context, entityID snowflake.ID, code, name string) (*entitydomain.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, entitydomain.ErrInvalidCurrency
	}
	currency := &entitydomain.Currency{
		ID:        s.genID.Generate(),
		EntityID:  entityID,
		Code:      code,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(currency).Error; err != nil {
		return nil, err
	}
	return currency, nil
}
