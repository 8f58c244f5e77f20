package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/microbooks/microbooks/internal/audit/domain"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	"github.com/microbooks/microbooks/pkg/db"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	auditSvc auditdomain.Service
}

func NewService(p Params) perioddomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("period.service"),
		genID:    p.GenID,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Open(ctx context.Context, year int) (*perioddomain.ReportingPeriod, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if year < 1900 {
		return nil, perioddomain.ErrInvalidYear
	}

	now := time.Now().UTC()
	period := &perioddomain.ReportingPeriod{
		ID:           s.genID.Generate(),
		EntityID:     entityID,
		CalendarYear: year,
		Status:       perioddomain.StatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(period).Error; err != nil {
		return nil, err
	}

	s.log.Info("reporting period opened",
		zap.String("entity_id", entityID.String()),
		zap.Int("calendar_year", year),
	)
	return period, nil
}

func (s *Service) ResolveForDate(ctx context.Context, date time.Time) (*perioddomain.ReportingPeriod, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	var period perioddomain.ReportingPeriod
	err = s.db.WithContext(ctx).
		First(&period, "entity_id = ? AND calendar_year = ?", entityID, date.Year()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, perioddomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*perioddomain.ReportingPeriod, error) {
	var period perioddomain.ReportingPeriod
	err := s.db.WithContext(ctx).First(&period, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, perioddomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// Transition serializes on the period row. The status is re-read under lock
// so two racing transitions resolve into one winner and one
// ConcurrentTransitionError.
func (s *Service) Transition(ctx context.Context, periodID snowflake.ID, target perioddomain.PeriodStatus) (*perioddomain.ReportingPeriod, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	before, err := s.Get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if before.EntityID != entityID {
		return nil, perioddomain.ErrNotFound
	}
	if !before.Status.CanTransitionTo(target) {
		return nil, &perioddomain.InvalidTransitionError{
			PeriodID: periodID,
			From:     before.Status,
			To:       target,
		}
	}

	var period perioddomain.ReportingPeriod
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := db.ForUpdate(tx).First(&period, "id = ?", periodID).Error; err != nil {
			return err
		}
		if period.Status != before.Status {
			return &perioddomain.ConcurrentTransitionError{
				PeriodID: periodID,
				Expected: before.Status,
				Found:    period.Status,
			}
		}
		if !period.Status.CanTransitionTo(target) {
			return &perioddomain.InvalidTransitionError{
				PeriodID: periodID,
				From:     period.Status,
				To:       target,
			}
		}

		result := tx.Model(&perioddomain.ReportingPeriod{}).
			Where("id = ? AND status = ? AND version = ?", periodID, period.Status, period.Version).
			Updates(map[string]any{
				"status":     target,
				"version":    period.Version + 1,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &perioddomain.ConcurrentTransitionError{
				PeriodID: periodID,
				Expected: period.Status,
				Found:    period.Status,
			}
		}
		period.Status = target
		period.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.auditSvc != nil {
		targetID := periodID.String()
		if err := s.auditSvc.Record(ctx, entityID, "period.transition", "reporting_period", &targetID, map[string]any{
			"calendar_year": period.CalendarYear,
			"status":        string(target),
		}); err != nil {
			s.log.Warn("failed to record period transition audit", zap.Error(err))
		}
	}

	s.log.Info("reporting period transitioned",
		zap.String("period_id", periodID.String()),
		zap.String("status", string(target)),
	)
	return &period, nil
}

func (s *Service) EarliestOpen(ctx context.Context) (*perioddomain.ReportingPeriod, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	var period perioddomain.ReportingPeriod
	err = s.db.WithContext(ctx).
		Where("entity_id = ? AND status = ?", entityID, perioddomain.StatusOpen).
		Order("calendar_year ASC").
		First(&period).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, perioddomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}
