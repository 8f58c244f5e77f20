package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	auditservice "github.com/microbooks/microbooks/internal/audit/service"
	entitydomain "github.com/microbooks/microbooks/internal/entity/domain"
	ledgerdomain "github.com/microbooks/microbooks/internal/ledger/domain"
	"github.com/microbooks/microbooks/internal/migration"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	periodservice "github.com/microbooks/microbooks/internal/period/service"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	ctx     context.Context
	node    *snowflake.Node
	svc     ledgerdomain.Service
	period  *perioddomain.ReportingPeriod
	entity  entitydomain.Entity
	bank    accountdomain.Account
	revenue accountdomain.Account
	saleSeq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	log := zap.NewNop()

	currencyID := node.Generate()
	entity := entitydomain.Entity{
		ID:             node.Generate(),
		Name:           "Test Books",
		BaseCurrencyID: currencyID,
	}
	require.NoError(t, conn.Create(&entity).Error)
	require.NoError(t, conn.Create(&entitydomain.Currency{
		ID: currencyID, EntityID: entity.ID, Code: "USD", Name: "US Dollar", IsBase: true,
	}).Error)

	ctx := entityctx.WithActor(entityctx.WithEntityID(context.Background(), entity.ID), "tester")

	periodSvc := periodservice.NewService(periodservice.Params{DB: conn, Log: log, GenID: node})
	period, err := periodSvc.Open(ctx, time.Now().UTC().Year())
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{DB: conn, Log: log, GenID: node})

	svc := NewService(Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Audit: auditSvc,
	})

	f := &fixture{
		db:     conn,
		ctx:    ctx,
		node:   node,
		svc:    svc,
		period: period,
		entity: entity,
	}
	f.bank = f.createAccount(t, "Bank", accountdomain.Bank, 201)
	f.revenue = f.createAccount(t, "Sales", accountdomain.OperatingRevenue, 4001)
	return f
}

func (f *fixture) createAccount(t *testing.T, name string, accountType accountdomain.AccountType, code int64) accountdomain.Account {
	t.Helper()
	account := accountdomain.Account{
		ID:          f.node.Generate(),
		EntityID:    f.entity.ID,
		Code:        code,
		Name:        name,
		AccountType: accountType,
		CurrencyID:  f.entity.BaseCurrencyID,
	}
	require.NoError(t, f.db.Create(&account).Error)
	return account
}

func (f *fixture) createSale(t *testing.T, amount string) *txndomain.Transaction {
	t.Helper()
	value, err := decimal.NewFromString(amount)
	require.NoError(t, err)

	f.saleSeq++
	txn := &txndomain.Transaction{
		ID:                f.node.Generate(),
		EntityID:          f.entity.ID,
		TransactionType:   txndomain.CashSale,
		TransactionNo:     fmt.Sprintf("CS%04d/%d", f.saleSeq, f.period.CalendarYear),
		AccountID:         f.bank.ID,
		TransactionDate:   time.Now().UTC(),
		Narration:         "cash sale",
		Amount:            decimal.Zero,
		ReportingPeriodID: f.period.ID,
		LineItems: []txndomain.LineItem{{
			ID:        f.node.Generate(),
			EntityID:  f.entity.ID,
			AccountID: f.revenue.ID,
			Amount:    value,
			Quantity:  decimal.NewFromInt(1),
		}},
	}
	require.NoError(t, f.db.Create(txn).Error)
	return txn
}

func (f *fixture) post(t *testing.T, txn *txndomain.Transaction) []txndomain.Posting {
	t.Helper()
	postings, err := txndomain.Allocate(txn, nil)
	require.NoError(t, err)

	tip, err := f.svc.ChainTip(f.ctx)
	require.NoError(t, err)
	require.NoError(t, f.svc.PostEntries(f.ctx, txn, postings, tip))
	return postings
}

func TestPostEntriesBuildsChain(t *testing.T) {
	f := newFixture(t)

	txn := f.createSale(t, "100")
	f.post(t, txn)

	var entries []ledgerdomain.LedgerEntry
	require.NoError(t, f.db.Order("id ASC").Find(&entries).Error)
	require.Len(t, entries, 2)

	assert.Equal(t, ledgerdomain.ChainSeed, entries[0].PrevHash)
	assert.Equal(t, entries[0].Digest(), entries[0].Hash)
	assert.Equal(t, entries[0].Hash, entries[1].PrevHash)
	assert.Equal(t, entries[1].Digest(), entries[1].Hash)

	tip, err := f.svc.ChainTip(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, entries[1].Hash, tip)

	var reloaded txndomain.Transaction
	require.NoError(t, f.db.First(&reloaded, "id = ?", txn.ID).Error)
	assert.True(t, reloaded.IsPosted)
	assert.True(t, reloaded.Amount.Equal(decimal.NewFromInt(100)))
}

func TestPostEntriesExtendsChainAcrossTransactions(t *testing.T) {
	f := newFixture(t)

	first := f.createSale(t, "100")
	f.post(t, first)
	tipAfterFirst, err := f.svc.ChainTip(f.ctx)
	require.NoError(t, err)

	second := f.createSale(t, "50")
	f.post(t, second)

	var entries []ledgerdomain.LedgerEntry
	require.NoError(t, f.db.Where("transaction_id = ?", second.ID).Order("id ASC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, tipAfterFirst, entries[0].PrevHash)
}

func TestPostEntriesStaleTipConflicts(t *testing.T) {
	f := newFixture(t)

	staleTip, err := f.svc.ChainTip(f.ctx)
	require.NoError(t, err)

	f.post(t, f.createSale(t, "100"))

	second := f.createSale(t, "50")
	postings, err := txndomain.Allocate(second, nil)
	require.NoError(t, err)

	err = f.svc.PostEntries(f.ctx, second, postings, staleTip)
	var conflict *ledgerdomain.ChainConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, f.entity.ID, conflict.EntityID)
}

func TestPostEntriesRejectsDoublePosting(t *testing.T) {
	f := newFixture(t)

	txn := f.createSale(t, "100")
	postings := f.post(t, txn)

	tip, err := f.svc.ChainTip(f.ctx)
	require.NoError(t, err)
	err = f.svc.PostEntries(f.ctx, txn, postings, tip)
	var posted *txndomain.PostedTransactionError
	assert.ErrorAs(t, err, &posted)
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	f := newFixture(t)

	f.post(t, f.createSale(t, "100"))

	result, err := f.svc.VerifyChain(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntriesChecked)

	var victim ledgerdomain.LedgerEntry
	require.NoError(t, f.db.Order("id ASC").First(&victim).Error)
	// Hooks block updates, so tampering has to go through raw SQL, exactly
	// like a hostile actor with database access would.
	require.NoError(t, f.db.Exec(
		"UPDATE ledger_entries SET amount = ? WHERE id = ?", "999.0000", victim.ID,
	).Error)

	_, err = f.svc.VerifyChain(f.ctx)
	var integrity *ledgerdomain.IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, victim.ID, integrity.EntryID)

	// The entity is quarantined: no more postings.
	blocked := f.createSale(t, "10")
	postings, err := txndomain.Allocate(blocked, nil)
	require.NoError(t, err)
	tip, err := f.svc.ChainTip(f.ctx)
	require.NoError(t, err)
	err = f.svc.PostEntries(f.ctx, blocked, postings, tip)
	assert.ErrorIs(t, err, ledgerdomain.ErrEntityQuarantined)

	// Restoring the row and re-verifying lifts the quarantine.
	require.NoError(t, f.db.Exec(
		"UPDATE ledger_entries SET amount = ? WHERE id = ?", victim.Amount.StringFixed(4), victim.ID,
	).Error)
	_, err = f.svc.VerifyChain(f.ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.PostEntries(f.ctx, blocked, postings, tip))
}

func TestVerifyChainDetectsDateTampering(t *testing.T) {
	f := newFixture(t)

	f.post(t, f.createSale(t, "100"))

	var victim ledgerdomain.LedgerEntry
	require.NoError(t, f.db.Order("id ASC").First(&victim).Error)

	// Moving an entry to another date changes every report that filters on
	// it; the digest has to notice even though the amount is untouched.
	require.NoError(t, f.db.Exec(
		"UPDATE ledger_entries SET transaction_date = ? WHERE id = ?",
		victim.TransactionDate.AddDate(0, 6, 0), victim.ID,
	).Error)

	_, err := f.svc.VerifyChain(f.ctx)
	var integrity *ledgerdomain.IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, victim.ID, integrity.EntryID)
}

func TestVerifyChainDetectsPeriodTampering(t *testing.T) {
	f := newFixture(t)

	f.post(t, f.createSale(t, "100"))

	var victim ledgerdomain.LedgerEntry
	require.NoError(t, f.db.Order("id ASC").First(&victim).Error)

	require.NoError(t, f.db.Exec(
		"UPDATE ledger_entries SET reporting_period_id = ? WHERE id = ?",
		f.node.Generate(), victim.ID,
	).Error)

	_, err := f.svc.VerifyChain(f.ctx)
	var integrity *ledgerdomain.IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, victim.ID, integrity.EntryID)
}

func TestLedgerEntriesAreImmutable(t *testing.T) {
	f := newFixture(t)
	f.post(t, f.createSale(t, "100"))

	var entry ledgerdomain.LedgerEntry
	require.NoError(t, f.db.First(&entry).Error)

	err := f.db.Model(&entry).Update("amount", "1.0000").Error
	assert.ErrorIs(t, err, ledgerdomain.ErrImmutableLedger)

	err = f.db.Delete(&entry).Error
	assert.ErrorIs(t, err, ledgerdomain.ErrImmutableLedger)
}

func TestPostEntriesRechecksPeriodGate(t *testing.T) {
	f := newFixture(t)

	txn := f.createSale(t, "100")
	postings, err := txndomain.Allocate(txn, nil)
	require.NoError(t, err)
	tip, err := f.svc.ChainTip(f.ctx)
	require.NoError(t, err)

	// Close the period between validation and commit.
	require.NoError(t, f.db.Model(&perioddomain.ReportingPeriod{}).
		Where("id = ?", f.period.ID).
		Update("status", perioddomain.StatusClosed).Error)

	err = f.svc.PostEntries(f.ctx, txn, postings, tip)
	var closed *perioddomain.ClosedPeriodError
	assert.ErrorAs(t, err, &closed)
}
