package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	"github.com/shopspring/decimal"
)

// Transaction is an unposted source document plus its line items. It stays
// mutable until posted; posting freezes it permanently.
type Transaction struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	EntityID        snowflake.ID    `gorm:"not null;index:idx_transactions_entity_date,priority:1;uniqueIndex:ux_transactions_entity_no,priority:1"`
	TransactionType TransactionType `gorm:"type:text;not null;index"`
	TransactionNo   string          `gorm:"type:text;not null;uniqueIndex:ux_transactions_entity_no,priority:2"`
	AccountID       snowflake.ID    `gorm:"not null;index"`
	TransactionDate time.Time       `gorm:"not null;index:idx_transactions_entity_date,priority:2"`
	Narration       string          `gorm:"type:text;not null"`

	// MainAmount overrides the main-account total for compound journal
	// entries. Nil for ordinary transactions.
	MainAmount *decimal.Decimal `gorm:"type:numeric(20,4)"`

	// Credited flips the main-account side of a journal entry. Ignored for
	// every other type, whose side is fixed by the type table.
	Credited *bool

	// Amount is the posted main-account total, denormalized at posting time
	// so clearing capacity checks read one locked row.
	Amount decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`

	IsPosted          bool         `gorm:"not null;default:false;index"`
	ReportingPeriodID snowflake.ID `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`

	LineItems []LineItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }

// LineItem is the non-main side of a double entry.
type LineItem struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	TransactionID snowflake.ID    `gorm:"not null;index"`
	EntityID      snowflake.ID    `gorm:"not null;index"`
	AccountID     snowflake.ID    `gorm:"not null;index"`
	Narration     string          `gorm:"type:text"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Quantity      decimal.Decimal `gorm:"type:numeric(13,4);not null;default:1"`
	TaxID         *snowflake.ID   `gorm:"index"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "line_items" }

// MainSide returns the side the main account posts on, honoring the
// journal-entry Credited flip.
func (t *Transaction) MainSide() accountdomain.BalanceSide {
	side := typeSpecs[t.TransactionType].MainSide
	if t.TransactionType == JournalEntry && t.Credited != nil {
		if *t.Credited {
			side = accountdomain.SideCredit
		} else {
			side = accountdomain.SideDebit
		}
	}
	return side
}

// Total is the line's nominal amount before tax.
func (l LineItem) Total() decimal.Decimal {
	qty := l.Quantity
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}
	return l.Amount.Mul(qty)
}
