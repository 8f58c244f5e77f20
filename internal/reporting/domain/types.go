package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	"github.com/shopspring/decimal"
)

// StatementRow is one posted transaction's contribution to an account,
// with the running balance after it.
type StatementRow struct {
	TransactionID   snowflake.ID
	TransactionNo   string
	TransactionType string
	TransactionDate time.Time
	Narration       string
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	Balance         decimal.Decimal
}

// Statement is an account's activity over a date range. Balances are signed
// positive on the account's normal side.
type Statement struct {
	Account        accountdomain.Account
	From           time.Time
	To             time.Time
	OpeningBalance decimal.Decimal
	Rows           []StatementRow
	ClosingBalance decimal.Decimal
}

// AgeBucket partitions outstanding balances by days past the transaction
// date.
type AgeBucket string

const (
	BucketCurrent AgeBucket = "current"
	Bucket31to60  AgeBucket = "31-60"
	Bucket61to90  AgeBucket = "61-90"
	Bucket91to120 AgeBucket = "91-120"
	BucketOver120 AgeBucket = "120+"
)

// BucketFor places an age in days into its bucket.
func BucketFor(ageDays int) AgeBucket {
	switch {
	case ageDays <= 30:
		return BucketCurrent
	case ageDays <= 60:
		return Bucket31to60
	case ageDays <= 90:
		return Bucket61to90
	case ageDays <= 120:
		return Bucket91to120
	default:
		return BucketOver120
	}
}

// ScheduleRow is one clearable transaction still carrying an uncleared
// balance.
type ScheduleRow struct {
	TransactionID   snowflake.ID
	TransactionNo   string
	TransactionType string
	TransactionDate time.Time
	Amount          decimal.Decimal
	Cleared         decimal.Decimal
	Uncleared       decimal.Decimal
	AgeDays         int
	Bucket          AgeBucket
}

// Schedule is the aging of an account's outstanding clearable transactions.
type Schedule struct {
	Account  accountdomain.Account
	AsOf     time.Time
	Rows     []ScheduleRow
	Total    decimal.Decimal
	ByBucket map[AgeBucket]decimal.Decimal
}

// TrialBalanceRow is one account's net balance placed on its debit or credit
// column.
type TrialBalanceRow struct {
	Account accountdomain.Account
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// TrialBalance lists every account with activity. TotalDebits always equals
// TotalCredits; anything else means the ledger is corrupt.
type TrialBalance struct {
	AsOf         time.Time
	Rows         []TrialBalanceRow
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}
