package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TaxMode represents how tax relates to a line item's nominal amount.
type TaxMode string

const (
	// TaxModeExclusive adds tax on top of the line amount.
	TaxModeExclusive TaxMode = "exclusive"
	// TaxModeInclusive carves tax out of the line amount.
	TaxModeInclusive TaxMode = "inclusive"
)

// Tax is an entity-scoped tax policy. Tax collected or paid is posted to the
// control account, never to the line item's account.
// The code is a stable, engine-facing identifier (immutable once created);
// the name is UI-facing and editable.
type Tax struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	EntityID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_taxes_entity_code,priority:1"`

	Name             string          `gorm:"type:text;not null"`
	Code             string          `gorm:"type:text;not null;uniqueIndex:ux_taxes_entity_code,priority:2"`
	TaxMode          TaxMode         `gorm:"column:tax_mode;type:text;not null"`
	Rate             decimal.Decimal `gorm:"type:numeric(6,4);not null"`
	ControlAccountID snowflake.ID    `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tax) TableName() string { return "taxes" }

func (t *Tax) Validate() error {
	if t.Code == "" {
		return ErrInvalidTaxCode
	}
	if t.TaxMode != TaxModeExclusive && t.TaxMode != TaxModeInclusive {
		return ErrInvalidTaxMode
	}
	if t.Rate.IsNegative() {
		return ErrInvalidTaxRate
	}
	if t.ControlAccountID == 0 {
		return ErrInvalidControlAccount
	}
	return nil
}
