package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ChainSeed is the prev_hash of the first entry in an entity's chain.
const ChainSeed = "0000000000000000000000000000000000000000000000000000000000000000"

// LedgerEntry is one posted debit or credit. Entries are append only; each
// entry's hash covers its own fields plus the previous entry's hash, forming
// a per-entity chain back to ChainSeed.
type LedgerEntry struct {
	ID                snowflake.ID              `gorm:"primaryKey"`
	EntityID          snowflake.ID              `gorm:"not null;index:idx_ledger_entity_id,priority:1"`
	TransactionID     snowflake.ID              `gorm:"not null;index"`
	LineItemID        *snowflake.ID             `gorm:"index"`
	AccountID         snowflake.ID              `gorm:"not null;index:idx_ledger_account_date,priority:1"`
	ReportingPeriodID snowflake.ID              `gorm:"not null;index"`
	Amount            decimal.Decimal           `gorm:"type:numeric(20,4);not null"`
	BalanceSide       accountdomain.BalanceSide `gorm:"type:text;not null"`
	TransactionDate   time.Time                 `gorm:"not null;index:idx_ledger_account_date,priority:2"`

	Hash     string `gorm:"type:char(64);not null"`
	PrevHash string `gorm:"type:char(64);not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

// Digest computes the entry's chain hash from its stored fields. The encoding
// is positional and fixed-precision so a byte-identical row always recomputes
// the same hash. Every field a report filters or sums on is covered; moving
// an entry to another date or period breaks its digest. The date is encoded
// at second precision in UTC so a store round-trip cannot change it.
func (e *LedgerEntry) Digest() string {
	var lineItem string
	if e.LineItemID != nil {
		lineItem = e.LineItemID.String()
	}
	payload := strings.Join([]string{
		e.ID.String(),
		e.EntityID.String(),
		e.TransactionID.String(),
		lineItem,
		e.AccountID.String(),
		e.ReportingPeriodID.String(),
		e.Amount.StringFixed(4),
		string(e.BalanceSide),
		e.TransactionDate.UTC().Format(time.RFC3339),
		e.PrevHash,
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// BeforeUpdate rejects every update. Ledger entries are immutable.
func (e *LedgerEntry) BeforeUpdate(tx *gorm.DB) error {
	return fmt.Errorf("ledger entry %s: %w", e.ID, ErrImmutableLedger)
}

// BeforeDelete rejects every delete.
func (e *LedgerEntry) BeforeDelete(tx *gorm.DB) error {
	return fmt.Errorf("ledger entry %s: %w", e.ID, ErrImmutableLedger)
}
