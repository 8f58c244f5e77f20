package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
)

// VerificationResult summarizes a full chain replay for one entity.
type VerificationResult struct {
	EntityID       snowflake.ID
	EntriesChecked int
	Tip            string
}

// Service is the append-only ledger. It satisfies the transaction layer's
// Poster contract and adds chain verification on top.
type Service interface {
	txndomain.Poster

	// VerifyChain replays the entity's chain from the seed and recomputes
	// every digest. A mismatch quarantines the entity and returns an
	// IntegrityError; a clean replay lifts any standing quarantine.
	VerifyChain(ctx context.Context) (*VerificationResult, error)
}
