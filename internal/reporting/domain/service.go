package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	// ErrNotSchedulable rejects schedules over accounts that are neither
	// receivable nor payable.
	ErrNotSchedulable = errors.New("account type does not carry an aging schedule")

	// ErrUnbalancedLedger reports a trial balance whose columns differ.
	ErrUnbalancedLedger = errors.New("trial balance does not balance")
)

type Service interface {
	// AccountStatement lists the account's posted activity in the range with
	// a running balance, seeded by the balance carried before the range.
	AccountStatement(ctx context.Context, accountID snowflake.ID, from, to time.Time) (*Statement, error)
	// AccountSchedule ages the account's outstanding clearable transactions
	// as of the given date. Receivable and payable accounts only.
	AccountSchedule(ctx context.Context, accountID snowflake.ID, asOf time.Time) (*Schedule, error)
	// TrialBalance nets every account's postings up to the date.
	TrialBalance(ctx context.Context, asOf time.Time) (*TrialBalance, error)
}
