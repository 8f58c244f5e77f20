package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Entity is the tenant boundary. Every other record carries an entity ID and
// is invisible across entities.
type Entity struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	Name           string       `gorm:"type:text;not null"`
	BaseCurrencyID snowflake.ID `gorm:"column:base_currency_id"`

	// IntegrityFailedAt is set when chain verification finds a mismatch.
	// Posting is refused for the entity until the chain verifies clean again.
	IntegrityFailedAt *time.Time

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entity) TableName() string { return "entities" }

// Currency is an entity-scoped currency. Exactly one currency per entity is
// the base currency.
type Currency struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	EntityID snowflake.ID `gorm:"not null;index"`
	Code     string       `gorm:"type:text;not null"`
	Name     string       `gorm:"type:text;not null"`
	IsBase   bool         `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Currency) TableName() string { return "currencies" }
