package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var (
	// ErrImmutableLedger rejects any update or delete of a ledger entry.
	ErrImmutableLedger = errors.New("ledger entries cannot be modified or deleted")

	// ErrEntityQuarantined rejects postings against an entity whose chain
	// failed verification. The quarantine lifts only when VerifyChain passes.
	ErrEntityQuarantined = errors.New("entity ledger is quarantined pending integrity review")
)

// ChainConflictError reports that the chain tip moved between allocation and
// commit. The caller re-reads the tip and retries.
type ChainConflictError struct {
	EntityID    snowflake.ID
	ExpectedTip string
	ActualTip   string
}

func (e *ChainConflictError) Error() string {
	return fmt.Sprintf("ledger chain for entity %s advanced concurrently (expected tip %.8s, found %.8s)",
		e.EntityID, e.ExpectedTip, e.ActualTip)
}

// IntegrityError reports the first ledger entry whose stored hash does not
// match its recomputed digest.
type IntegrityError struct {
	EntityID snowflake.ID
	EntryID  snowflake.ID
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("ledger chain for entity %s broken at entry %s", e.EntityID, e.EntryID)
}
