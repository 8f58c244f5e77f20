package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Account is one chart-of-accounts entry. The code is auto-assigned within
// the numeric range reserved for the account type and is unique per entity.
type Account struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	EntityID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_accounts_entity_code,priority:1"`
	Code        int64        `gorm:"not null;uniqueIndex:ux_accounts_entity_code,priority:2"`
	Name        string       `gorm:"type:text;not null"`
	AccountType AccountType  `gorm:"type:text;not null;index"`
	CurrencyID  snowflake.ID `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// Balance seeds an account's balance at the start of a reporting period.
// Balances are set once; corrections go through journal entries.
type Balance struct {
	ID                snowflake.ID    `gorm:"primaryKey"`
	EntityID          snowflake.ID    `gorm:"not null;index"`
	AccountID         snowflake.ID    `gorm:"not null;index"`
	ReportingPeriodID snowflake.ID    `gorm:"not null;index"`
	Amount            decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	BalanceSide       BalanceSide     `gorm:"type:text;not null"`
	TransactionDate   time.Time       `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Balance) TableName() string { return "balances" }
