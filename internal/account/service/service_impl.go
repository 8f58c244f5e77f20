package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	PeriodSvc perioddomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	periodSvc perioddomain.Service
}

func NewService(p Params) accountdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("account.service"),
		genID:     p.GenID,
		periodSvc: p.PeriodSvc,
	}
}

// Create opens an account and assigns the next free code in the range
// reserved for its type.
func (s *Service) Create(ctx context.Context, req accountdomain.CreateRequest) (*accountdomain.Account, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, accountdomain.ErrInvalidName
	}
	if !req.AccountType.Valid() {
		return nil, accountdomain.ErrInvalidAccountType
	}
	if req.CurrencyID == 0 {
		return nil, accountdomain.ErrInvalidCurrency
	}

	account := &accountdomain.Account{
		ID:          s.genID.Generate(),
		EntityID:    entityID,
		Name:        name,
		AccountType: req.AccountType,
		CurrencyID:  req.CurrencyID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&accountdomain.Account{}).
			Where("entity_id = ? AND account_type = ?", entityID, req.AccountType).
			Count(&count).Error; err != nil {
			return err
		}
		account.Code = req.AccountType.CodeBase() + count + 1
		return tx.Create(account).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("account created",
		zap.String("entity_id", entityID.String()),
		zap.String("account_type", string(req.AccountType)),
		zap.Int64("code", account.Code),
	)
	return account, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*accountdomain.Account, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	var account accountdomain.Account
	err = s.db.WithContext(ctx).First(&account, "entity_id = ? AND id = ?", entityID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, accountdomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Service) List(ctx context.Context, types ...accountdomain.AccountType) ([]accountdomain.Account, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	stmt := s.db.WithContext(ctx).
		Model(&accountdomain.Account{}).
		Where("entity_id = ?", entityID)
	if len(types) > 0 {
		stmt = stmt.Where("account_type IN ?", types)
	}

	var accounts []accountdomain.Account
	if err := stmt.Order("code ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// OpeningBalance seeds an account balance in the entity's earliest open
// period. Balances are set once; the model rejects updates.
func (s *Service) OpeningBalance(ctx context.Context, req accountdomain.BalanceRequest) (*accountdomain.Balance, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, accountdomain.ErrInvalidAmount
	}
	if req.BalanceSide != accountdomain.SideDebit && req.BalanceSide != accountdomain.SideCredit {
		return nil, accountdomain.ErrInvalidBalanceSide
	}
	if _, err := s.Get(ctx, req.AccountID); err != nil {
		return nil, err
	}

	period, err := s.periodSvc.EarliestOpen(ctx)
	if err != nil {
		return nil, err
	}

	balance := &accountdomain.Balance{
		ID:                s.genID.Generate(),
		EntityID:          entityID,
		AccountID:         req.AccountID,
		ReportingPeriodID: period.ID,
		Amount:            req.Amount,
		BalanceSide:       req.BalanceSide,
		TransactionDate:   req.TransactionDate.UTC(),
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(balance).Error; err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *Service) OpeningBalances(ctx context.Context, accountID, periodID snowflake.ID) ([]accountdomain.Balance, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	stmt := s.db.WithContext(ctx).
		Model(&accountdomain.Balance{}).
		Where("entity_id = ? AND account_id = ?", entityID, accountID)
	if periodID != 0 {
		stmt = stmt.Where("reporting_period_id = ?", periodID)
	}

	var balances []accountdomain.Balance
	if err := stmt.Order("transaction_date ASC").Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}
