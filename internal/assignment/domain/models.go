package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Assignment clears part of a clearable transaction's balance with part of a
// settling transaction's balance. Amounts are positive and never exceed
// either side's remaining capacity.
type Assignment struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	EntityID snowflake.ID `gorm:"not null;index"`

	// TransactionID is the settling transaction doing the clearing.
	TransactionID snowflake.ID `gorm:"not null;index"`
	// ClearedID is the clearable transaction being settled.
	ClearedID snowflake.ID `gorm:"not null;index"`

	Amount decimal.Decimal `gorm:"type:numeric(20,4);not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Assignment) TableName() string { return "assignments" }
