package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	assigndomain "github.com/microbooks/microbooks/internal/assignment/domain"
	auditdomain "github.com/microbooks/microbooks/internal/audit/domain"
	"github.com/microbooks/microbooks/internal/observability/metrics"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"github.com/microbooks/microbooks/pkg/db"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Audit   auditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) assigndomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("assignment.service"),
		genID:   p.GenID,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) Assign(ctx context.Context, req assigndomain.AssignRequest) (*assigndomain.Assignment, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, assigndomain.ErrInvalidAmount
	}
	if req.TransactionID == req.ClearedID {
		return nil, assigndomain.ErrSelfAssignment
	}

	var assignment *assigndomain.Assignment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settling, cleared, err := s.lockPair(tx, entityID, req.TransactionID, req.ClearedID)
		if err != nil {
			return err
		}
		assignment, err = s.assignLocked(tx, entityID, settling, cleared, req.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAssignment(ctx, false)
	s.recordAudit(ctx, entityID, assignment)
	return assignment, nil
}

func (s *Service) BulkAssign(ctx context.Context, transactionID snowflake.ID) ([]assigndomain.Assignment, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	var made []assigndomain.Assignment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settling, err := s.lockTransaction(tx, entityID, transactionID)
		if err != nil {
			return err
		}
		if err := s.checkSettling(settling); err != nil {
			return err
		}

		balance, err := s.settlingBalance(tx, settling)
		if err != nil {
			return err
		}

		// Oldest documents first; ID breaks date ties so the order is total.
		var candidates []txndomain.Transaction
		if err := db.ForUpdate(tx).
			Where("entity_id = ? AND account_id = ? AND is_posted = ? AND id <> ?",
				entityID, settling.AccountID, true, settling.ID).
			Order("transaction_date ASC, id ASC").
			Find(&candidates).Error; err != nil {
			return err
		}

		for i := range candidates {
			if !balance.IsPositive() {
				break
			}
			candidate := &candidates[i]
			if !candidate.TransactionType.Clearable() {
				continue
			}
			outstanding, err := s.clearedOutstanding(tx, candidate)
			if err != nil {
				return err
			}
			if !outstanding.IsPositive() {
				continue
			}

			amount := decimal.Min(outstanding, balance)
			assignment, err := s.assignLocked(tx, entityID, settling, candidate, amount)
			if err != nil {
				return err
			}
			made = append(made, *assignment)
			balance = balance.Sub(amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAssignment(ctx, true)
	for i := range made {
		s.recordAudit(ctx, entityID, &made[i])
	}
	return made, nil
}

// assignLocked runs the capacity checks and writes the assignment row. Both
// transaction rows must already be locked by the caller.
func (s *Service) assignLocked(tx *gorm.DB, entityID snowflake.ID, settling, cleared *txndomain.Transaction, amount decimal.Decimal) (*assigndomain.Assignment, error) {
	if err := s.checkSettling(settling); err != nil {
		return nil, err
	}
	if !cleared.TransactionType.Clearable() {
		return nil, &assigndomain.NotClearableError{
			TransactionID:   cleared.ID,
			TransactionType: string(cleared.TransactionType),
		}
	}
	if !cleared.IsPosted {
		return nil, &assigndomain.UnpostedTransactionError{TransactionID: cleared.ID}
	}
	if settling.AccountID != cleared.AccountID {
		return nil, assigndomain.ErrMainAccountMismatch
	}

	balance, err := s.settlingBalance(tx, settling)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(balance) {
		return nil, &assigndomain.OverclearanceError{
			TransactionID: settling.ID,
			Available:     balance,
			Requested:     amount,
		}
	}

	outstanding, err := s.clearedOutstanding(tx, cleared)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(outstanding) {
		return nil, &assigndomain.OverclearanceError{
			TransactionID: cleared.ID,
			Available:     outstanding,
			Requested:     amount,
		}
	}

	assignment := &assigndomain.Assignment{
		ID:            s.genID.Generate(),
		EntityID:      entityID,
		TransactionID: settling.ID,
		ClearedID:     cleared.ID,
		Amount:        amount,
		CreatedAt:     time.Now().UTC(),
	}
	if err := tx.Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *Service) checkSettling(settling *txndomain.Transaction) error {
	if !settling.TransactionType.Settling() {
		return &assigndomain.NotSettlingError{
			TransactionID:   settling.ID,
			TransactionType: string(settling.TransactionType),
		}
	}
	if !settling.IsPosted {
		return &assigndomain.UnpostedTransactionError{TransactionID: settling.ID}
	}
	return nil
}

// settlingBalance recomputes the settling transaction's remaining amount from
// its assignment rows. Nothing is cached; the stored rows are the truth.
func (s *Service) settlingBalance(tx *gorm.DB, settling *txndomain.Transaction) (decimal.Decimal, error) {
	assigned, err := s.sumAssignments(tx, "transaction_id", settling.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return settling.Amount.Sub(assigned), nil
}

func (s *Service) clearedOutstanding(tx *gorm.DB, cleared *txndomain.Transaction) (decimal.Decimal, error) {
	clearedTotal, err := s.sumAssignments(tx, "cleared_id", cleared.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return cleared.Amount.Sub(clearedTotal), nil
}

func (s *Service) sumAssignments(tx *gorm.DB, column string, id snowflake.ID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&assigndomain.Assignment{}).
		Select("SUM(amount)").
		Where(column+" = ?", id).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (s *Service) lockPair(tx *gorm.DB, entityID, settlingID, clearedID snowflake.ID) (*txndomain.Transaction, *txndomain.Transaction, error) {
	// Lock in ID order regardless of role so two concurrent assignments over
	// the same pair cannot deadlock.
	first, second := settlingID, clearedID
	if clearedID < settlingID {
		first, second = clearedID, settlingID
	}
	locked := make(map[snowflake.ID]*txndomain.Transaction, 2)
	for _, id := range []snowflake.ID{first, second} {
		txn, err := s.lockTransaction(tx, entityID, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = txn
	}
	return locked[settlingID], locked[clearedID], nil
}

func (s *Service) lockTransaction(tx *gorm.DB, entityID, id snowflake.ID) (*txndomain.Transaction, error) {
	var txn txndomain.Transaction
	err := db.ForUpdate(tx).First(&txn, "entity_id = ? AND id = ?", entityID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, txndomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *Service) Balance(ctx context.Context, transactionID snowflake.ID) (decimal.Decimal, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	tx := s.db.WithContext(ctx)
	settling, err := s.getTransaction(tx, entityID, transactionID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.settlingBalance(tx, settling)
}

func (s *Service) Outstanding(ctx context.Context, transactionID snowflake.ID) (decimal.Decimal, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	tx := s.db.WithContext(ctx)
	cleared, err := s.getTransaction(tx, entityID, transactionID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.clearedOutstanding(tx, cleared)
}

func (s *Service) For(ctx context.Context, transactionID snowflake.ID) ([]assigndomain.Assignment, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	var assignments []assigndomain.Assignment
	err = s.db.WithContext(ctx).
		Where("entity_id = ? AND transaction_id = ?", entityID, transactionID).
		Order("id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *Service) getTransaction(tx *gorm.DB, entityID, id snowflake.ID) (*txndomain.Transaction, error) {
	var txn txndomain.Transaction
	err := tx.First(&txn, "entity_id = ? AND id = ?", entityID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, txndomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *Service) recordAudit(ctx context.Context, entityID snowflake.ID, assignment *assigndomain.Assignment) {
	targetID := assignment.ID.String()
	err := s.audit.Record(ctx, entityID, "assignment.create", "assignment", &targetID, map[string]any{
		"transaction_id": assignment.TransactionID.String(),
		"cleared_id":     assignment.ClearedID.String(),
		"amount":         assignment.Amount.StringFixed(2),
	})
	if err != nil {
		s.log.Warn("audit record failed", zap.Error(err))
	}
}
