package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	entitydomain "github.com/microbooks/microbooks/internal/entity/domain"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	"gorm.io/gorm"
)

const (
	defaultEntityName   = "Main"
	defaultCurrencyCode = "USD"
	defaultCurrencyName = "US Dollar"
)

// EnsureDefaultEntity seeds an entity with a base currency, an open reporting
// period for the current year and a starter chart of accounts. Re-running is
// a no-op.
func EnsureDefaultEntity(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entity, err := ensureEntityTx(ctx, tx, node)
		if err != nil {
			return err
		}
		if err := ensurePeriodTx(ctx, tx, node, entity.ID); err != nil {
			return err
		}
		return ensureChartTx(ctx, tx, node, entity)
	})
}

func ensureEntityTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (entitydomain.Entity, error) {
	var entity entitydomain.Entity
	err := tx.WithContext(ctx).Where("name = ?", defaultEntityName).First(&entity).Error
	if err == nil {
		return entity, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return entity, err
	}

	now := time.Now().UTC()
	currency := entitydomain.Currency{
		ID:        node.Generate(),
		Code:      defaultCurrencyCode,
		Name:      defaultCurrencyName,
		IsBase:    true,
		CreatedAt: now,
	}
	entity = entitydomain.Entity{
		ID:             node.Generate(),
		Name:           defaultEntityName,
		BaseCurrencyID: currency.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	currency.EntityID = entity.ID

	if err := tx.WithContext(ctx).Create(&entity).Error; err != nil {
		return entity, err
	}
	if err := tx.WithContext(ctx).Create(&currency).Error; err != nil {
		return entity, err
	}
	return entity, nil
}

func ensurePeriodTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, entityID snowflake.ID) error {
	year := time.Now().UTC().Year()
	var period perioddomain.ReportingPeriod
	err := tx.WithContext(ctx).
		Where("entity_id = ? AND calendar_year = ?", entityID, year).
		First(&period).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	period = perioddomain.ReportingPeriod{
		ID:           node.Generate(),
		EntityID:     entityID,
		CalendarYear: year,
		Status:       perioddomain.StatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return tx.WithContext(ctx).Create(&period).Error
}

func ensureChartTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, entity entitydomain.Entity) error {
	type starter struct {
		Name string
		Type accountdomain.AccountType
	}

	accounts := []starter{
		{"Bank", accountdomain.Bank},
		{"Accounts Receivable", accountdomain.Receivable},
		{"Accounts Payable", accountdomain.Payable},
		{"Sales Tax Control", accountdomain.Control},
		{"Sales Revenue", accountdomain.OperatingRevenue},
		{"Cost of Sales", accountdomain.DirectExpense},
		{"Operating Expenses", accountdomain.OperatingExpense},
		{"Owner Equity", accountdomain.Equity},
	}

	for _, a := range accounts {
		var count int64
		err := tx.WithContext(ctx).
			Model(&accountdomain.Account{}).
			Where("entity_id = ? AND name = ?", entity.ID, a.Name).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		var taken int64
		err = tx.WithContext(ctx).
			Model(&accountdomain.Account{}).
			Where("entity_id = ? AND account_type = ?", entity.ID, a.Type).
			Count(&taken).Error
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		account := accountdomain.Account{
			ID:          node.Generate(),
			EntityID:    entity.ID,
			Code:        a.Type.CodeBase() + taken + 1,
			Name:        a.Name,
			AccountType: a.Type,
			CurrencyID:  entity.BaseCurrencyID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
			return err
		}
	}
	return nil
}
