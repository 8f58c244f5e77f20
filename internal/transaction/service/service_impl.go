package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	taxdomain "github.com/microbooks/microbooks/internal/tax/domain"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"github.com/microbooks/microbooks/pkg/db"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxNumberAttempts bounds retries when a concurrent create wins the same
// transaction number.
const maxNumberAttempts = 5

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	PeriodSvc perioddomain.Service
	TaxSvc    taxdomain.Service
	Poster    txndomain.Poster
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	periodSvc perioddomain.Service
	taxSvc    taxdomain.Service
	poster    txndomain.Poster
}

func NewService(p Params) txndomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("transaction.service"),
		genID:     p.GenID,
		periodSvc: p.PeriodSvc,
		taxSvc:    p.TaxSvc,
		poster:    p.Poster,
	}
}

func (s *Service) Create(ctx context.Context, req txndomain.CreateRequest) (*txndomain.Transaction, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	spec, ok := req.TransactionType.Spec()
	if !ok {
		return nil, txndomain.ErrInvalidTransactionType
	}
	if strings.TrimSpace(req.Narration) == "" {
		return nil, txndomain.ErrInvalidNarration
	}
	if req.TransactionDate.IsZero() {
		return nil, txndomain.ErrInvalidDate
	}
	if req.MainAmount != nil && !spec.Compound {
		return nil, txndomain.ErrInvalidAmount
	}

	period, err := s.periodSvc.ResolveForDate(ctx, req.TransactionDate)
	if err != nil {
		return nil, err
	}
	if err := perioddomain.Gate(period, spec.Adjusting); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &txndomain.Transaction{
		ID:                s.genID.Generate(),
		EntityID:          entityID,
		TransactionType:   req.TransactionType,
		AccountID:         req.AccountID,
		TransactionDate:   req.TransactionDate.UTC(),
		Narration:         strings.TrimSpace(req.Narration),
		MainAmount:        req.MainAmount,
		Credited:          req.Credited,
		Amount:            decimal.Zero,
		ReportingPeriodID: period.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, item := range req.LineItems {
		txn.LineItems = append(txn.LineItems, s.newLineItem(entityID, txn.ID, item))
	}

	// The number comes from a count, so two concurrent creates can mint the
	// same one. The unique index on (entity_id, transaction_no) makes the
	// loser fail; it retries with the next sequence.
	for attempt := int64(0); ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&txndomain.Transaction{}).
				Where("entity_id = ? AND transaction_type = ? AND reporting_period_id = ?",
					entityID, req.TransactionType, period.ID).
				Count(&count).Error; err != nil {
				return err
			}
			txn.TransactionNo = fmt.Sprintf("%s%04d/%d", spec.NumberPrefix, count+1+attempt, period.CalendarYear)
			return tx.Create(txn).Error
		})
		if err == nil {
			return txn, nil
		}
		if !db.IsDuplicateKeyErr(err) || attempt >= maxNumberAttempts {
			return nil, err
		}
	}
}

func (s *Service) newLineItem(entityID, transactionID snowflake.ID, req txndomain.LineItemRequest) txndomain.LineItem {
	qty := req.Quantity
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}
	return txndomain.LineItem{
		ID:            s.genID.Generate(),
		TransactionID: transactionID,
		EntityID:      entityID,
		AccountID:     req.AccountID,
		Narration:     strings.TrimSpace(req.Narration),
		Amount:        req.Amount,
		Quantity:      qty,
		TaxID:         req.TaxID,
		CreatedAt:     time.Now().UTC(),
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*txndomain.Transaction, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	var txn txndomain.Transaction
	err = s.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("line_items.id ASC") }).
		First(&txn, "entity_id = ? AND id = ?", entityID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, txndomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *Service) AddLineItem(ctx context.Context, transactionID snowflake.ID, req txndomain.LineItemRequest) (*txndomain.LineItem, error) {
	txn, err := s.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.IsPosted {
		return nil, &txndomain.PostedTransactionError{TransactionID: transactionID}
	}
	if !req.Amount.IsPositive() {
		return nil, txndomain.ErrInvalidAmount
	}

	item := s.newLineItem(txn.EntityID, txn.ID, req)
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Service) RemoveLineItem(ctx context.Context, transactionID, lineItemID snowflake.ID) error {
	txn, err := s.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn.IsPosted {
		return &txndomain.PostedTransactionError{TransactionID: transactionID}
	}

	result := s.db.WithContext(ctx).
		Delete(&txndomain.LineItem{}, "id = ? AND transaction_id = ?", lineItemID, transactionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return txndomain.ErrNotFound
	}
	return nil
}

func (s *Service) Validate(ctx context.Context, transactionID snowflake.ID) error {
	txn, err := s.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	_, err = s.validate(ctx, txn)
	return err
}

// validate runs the pre-posting checks and returns the accounts involved,
// keyed by ID, for the allocation step.
func (s *Service) validate(ctx context.Context, txn *txndomain.Transaction) (map[snowflake.ID]accountdomain.Account, error) {
	spec, ok := txn.TransactionType.Spec()
	if !ok {
		return nil, txndomain.ErrInvalidTransactionType
	}
	if len(txn.LineItems) == 0 {
		return nil, txndomain.ErrMissingLineItems
	}

	period, err := s.periodSvc.Get(ctx, txn.ReportingPeriodID)
	if err != nil {
		return nil, err
	}
	if err := perioddomain.Gate(period, spec.Adjusting); err != nil {
		return nil, err
	}

	taxIDs := make([]snowflake.ID, 0)
	accountIDs := []snowflake.ID{txn.AccountID}
	for i := range txn.LineItems {
		item := &txn.LineItems[i]
		accountIDs = append(accountIDs, item.AccountID)
		if item.TaxID != nil {
			if spec.NoTax {
				return nil, txndomain.ErrTaxNotAllowed
			}
			taxIDs = append(taxIDs, *item.TaxID)
		}
	}

	taxes, err := s.taxSvc.GetAll(ctx, taxIDs)
	if err != nil {
		return nil, err
	}
	for _, tax := range taxes {
		accountIDs = append(accountIDs, tax.ControlAccountID)
	}

	accounts, err := s.loadAccounts(ctx, txn.EntityID, accountIDs)
	if err != nil {
		return nil, err
	}

	main, ok := accounts[txn.AccountID]
	if !ok {
		return nil, accountdomain.ErrNotFound
	}
	if !main.AccountType.OneOf(spec.MainAccountTypes) {
		return nil, &txndomain.InvalidMainAccountError{
			TransactionID:   txn.ID,
			TransactionType: txn.TransactionType,
			AccountID:       main.ID,
			AccountType:     string(main.AccountType),
		}
	}

	for i := range txn.LineItems {
		item := &txn.LineItems[i]
		account, ok := accounts[item.AccountID]
		if !ok {
			return nil, accountdomain.ErrNotFound
		}
		if !account.AccountType.OneOf(spec.LineItemTypes) {
			return nil, &txndomain.InvalidLineItemAccountError{
				TransactionID:   txn.ID,
				TransactionType: txn.TransactionType,
				AccountID:       account.ID,
				AccountType:     string(account.AccountType),
			}
		}
	}

	// Cross-currency postings need an FX rate source, which the engine does
	// not define. Mixed currencies are an unsupported configuration.
	for _, account := range accounts {
		if account.CurrencyID != main.CurrencyID {
			return nil, txndomain.ErrCurrencyMismatch
		}
	}

	return accounts, nil
}

func (s *Service) loadAccounts(ctx context.Context, entityID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]accountdomain.Account, error) {
	var accounts []accountdomain.Account
	if err := s.db.WithContext(ctx).
		Where("entity_id = ? AND id IN ?", entityID, ids).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	resolved := make(map[snowflake.ID]accountdomain.Account, len(accounts))
	for _, account := range accounts {
		resolved[account.ID] = account
	}
	return resolved, nil
}

func (s *Service) Post(ctx context.Context, transactionID snowflake.ID) (*txndomain.Transaction, error) {
	txn, err := s.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.IsPosted {
		return nil, &txndomain.PostedTransactionError{TransactionID: transactionID}
	}

	if _, err := s.validate(ctx, txn); err != nil {
		return nil, err
	}

	taxIDs := make([]snowflake.ID, 0)
	for i := range txn.LineItems {
		if txn.LineItems[i].TaxID != nil {
			taxIDs = append(taxIDs, *txn.LineItems[i].TaxID)
		}
	}
	taxes, err := s.taxSvc.GetAll(ctx, taxIDs)
	if err != nil {
		return nil, err
	}

	postings, err := txndomain.Allocate(txn, taxes)
	if err != nil {
		return nil, err
	}
	if err := txndomain.CheckBalanced(txn.ID, postings); err != nil {
		return nil, err
	}

	tip, err := s.poster.ChainTip(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.poster.PostEntries(ctx, txn, postings, tip); err != nil {
		return nil, err
	}

	s.log.Info("transaction posted",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("transaction_no", txn.TransactionNo),
		zap.String("transaction_type", string(txn.TransactionType)),
	)
	return s.Get(ctx, transactionID)
}
