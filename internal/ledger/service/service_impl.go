package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/microbooks/microbooks/internal/audit/domain"
	entitydomain "github.com/microbooks/microbooks/internal/entity/domain"
	ledgerdomain "github.com/microbooks/microbooks/internal/ledger/domain"
	"github.com/microbooks/microbooks/internal/observability/metrics"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"github.com/microbooks/microbooks/pkg/db"
	"github.com/microbooks/microbooks/pkg/entityctx"
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

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ledger.service"),
		genID:   p.GenID,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) ChainTip(ctx context.Context) (string, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return "", err
	}
	return s.chainTip(s.db.WithContext(ctx), entityID)
}

func (s *Service) chainTip(tx *gorm.DB, entityID snowflake.ID) (string, error) {
	var last ledgerdomain.LedgerEntry
	err := tx.Where("entity_id = ?", entityID).
		Order("id DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledgerdomain.ChainSeed, nil
	}
	if err != nil {
		return "", err
	}
	return last.Hash, nil
}

// PostEntries appends the postings to the entity's chain and flips the
// transaction to posted, all in one store transaction. The entity row is
// locked for the duration so concurrent posters serialize on the chain tip.
func (s *Service) PostEntries(ctx context.Context, txn *txndomain.Transaction, postings []txndomain.Posting, expectedTip string) error {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return err
	}
	if txn.EntityID != entityID {
		return txndomain.ErrInvalidEntity
	}
	spec, ok := txn.TransactionType.Spec()
	if !ok {
		return txndomain.ErrInvalidTransactionType
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity entitydomain.Entity
		if err := db.ForUpdate(tx).First(&entity, "id = ?", entityID).Error; err != nil {
			return err
		}
		if entity.IntegrityFailedAt != nil {
			return ledgerdomain.ErrEntityQuarantined
		}

		// Period status may have moved since validation. The gate is the
		// commit-time check, everything earlier is advisory. The row is read
		// under lock inside this transaction so a concurrent transition
		// cannot commit between the check and the posting.
		var period perioddomain.ReportingPeriod
		if err := db.ForUpdate(tx).First(&period, "id = ?", txn.ReportingPeriodID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return perioddomain.ErrNotFound
			}
			return err
		}
		if err := perioddomain.Gate(&period, spec.Adjusting); err != nil {
			return err
		}

		var posted bool
		if err := tx.Model(&txndomain.Transaction{}).
			Select("is_posted").
			Where("id = ? AND entity_id = ?", txn.ID, entityID).
			Scan(&posted).Error; err != nil {
			return err
		}
		if posted {
			return &txndomain.PostedTransactionError{TransactionID: txn.ID}
		}

		tip, err := s.chainTip(tx, entityID)
		if err != nil {
			return err
		}
		if tip != expectedTip {
			return &ledgerdomain.ChainConflictError{
				EntityID:    entityID,
				ExpectedTip: expectedTip,
				ActualTip:   tip,
			}
		}

		now := time.Now().UTC()
		entries := make([]ledgerdomain.LedgerEntry, 0, len(postings))
		for _, posting := range postings {
			entry := ledgerdomain.LedgerEntry{
				ID:                s.genID.Generate(),
				EntityID:          entityID,
				TransactionID:     txn.ID,
				LineItemID:        posting.LineItemID,
				AccountID:         posting.AccountID,
				ReportingPeriodID: txn.ReportingPeriodID,
				Amount:            posting.Amount,
				BalanceSide:       posting.Side,
				TransactionDate:   txn.TransactionDate,
				PrevHash:          tip,
				CreatedAt:         now,
			}
			entry.Hash = entry.Digest()
			tip = entry.Hash
			entries = append(entries, entry)
		}
		if err := tx.Create(&entries).Error; err != nil {
			return err
		}

		mainTotal := txndomain.MainTotal(postings, txn.MainSide(), txn.AccountID)
		result := tx.Model(&txndomain.Transaction{}).
			Where("id = ? AND is_posted = ?", txn.ID, false).
			Updates(map[string]any{
				"is_posted":  true,
				"amount":     mainTotal,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &txndomain.PostedTransactionError{TransactionID: txn.ID}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordPosting(ctx, string(txn.TransactionType))
	targetID := txn.ID.String()
	if err := s.audit.Record(ctx, entityID, "ledger.post", "transaction", &targetID, map[string]any{
		"transaction_no": txn.TransactionNo,
		"entries":        len(postings),
	}); err != nil {
		s.log.Warn("audit record failed", zap.Error(err))
	}
	return nil
}

// VerifyChain replays the entity's entries in insertion order, recomputing
// each digest against the stored hash and link.
func (s *Service) VerifyChain(ctx context.Context) (*ledgerdomain.VerificationResult, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	var entries []ledgerdomain.LedgerEntry
	if err := s.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	tip := ledgerdomain.ChainSeed
	var broken *ledgerdomain.IntegrityError
	for i := range entries {
		entry := &entries[i]
		if entry.PrevHash != tip || entry.Digest() != entry.Hash {
			broken = &ledgerdomain.IntegrityError{EntityID: entityID, EntryID: entry.ID}
			break
		}
		tip = entry.Hash
	}

	if err := s.setQuarantine(ctx, entityID, broken != nil); err != nil {
		return nil, err
	}
	s.metrics.RecordChainVerification(ctx, broken == nil)

	if broken != nil {
		s.log.Error("ledger chain verification failed",
			zap.String("entity_id", entityID.String()),
			zap.String("entry_id", broken.EntryID.String()),
		)
		if err := s.audit.Record(ctx, entityID, "ledger.verify_failed", "ledger_entry", ptr(broken.EntryID.String()), nil); err != nil {
			s.log.Warn("audit record failed", zap.Error(err))
		}
		return nil, broken
	}

	return &ledgerdomain.VerificationResult{
		EntityID:       entityID,
		EntriesChecked: len(entries),
		Tip:            tip,
	}, nil
}

func (s *Service) setQuarantine(ctx context.Context, entityID snowflake.ID, failed bool) error {
	var failedAt *time.Time
	if failed {
		now := time.Now().UTC()
		failedAt = &now
	}
	return s.db.WithContext(ctx).
		Model(&entitydomain.Entity{}).
		Where("id = ?", entityID).
		Update("integrity_failed_at", failedAt).Error
}

func ptr(s string) *string { return &s }
