package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	accountservice "github.com/microbooks/microbooks/internal/account/service"
	auditservice "github.com/microbooks/microbooks/internal/audit/service"
	entitydomain "github.com/microbooks/microbooks/internal/entity/domain"
	ledgerdomain "github.com/microbooks/microbooks/internal/ledger/domain"
	ledgerservice "github.com/microbooks/microbooks/internal/ledger/service"
	"github.com/microbooks/microbooks/internal/migration"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	periodservice "github.com/microbooks/microbooks/internal/period/service"
	taxdomain "github.com/microbooks/microbooks/internal/tax/domain"
	taxservice "github.com/microbooks/microbooks/internal/tax/service"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	db        *gorm.DB
	ctx       context.Context
	node      *snowflake.Node
	txnSvc    txndomain.Service
	taxSvc    taxdomain.Service
	periodSvc perioddomain.Service
	entity    entitydomain.Entity
	period    *perioddomain.ReportingPeriod

	bank       accountdomain.Account
	receivable accountdomain.Account
	revenue    accountdomain.Account
	control    accountdomain.Account
}

func newEnv(t *testing.T) *env {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(3)
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
	accountSvc := accountservice.NewService(accountservice.Params{DB: conn, Log: log, GenID: node, PeriodSvc: periodSvc})
	taxSvc := taxservice.NewService(taxservice.Params{DB: conn, Log: log, GenID: node, AccountSvc: accountSvc})
	poster := ledgerservice.NewService(ledgerservice.Params{
		DB: conn, Log: log, GenID: node, Audit: auditSvc,
	})
	txnSvc := NewService(Params{
		DB: conn, Log: log, GenID: node,
		PeriodSvc: periodSvc, TaxSvc: taxSvc, Poster: poster,
	})

	e := &env{
		db:        conn,
		ctx:       ctx,
		node:      node,
		txnSvc:    txnSvc,
		taxSvc:    taxSvc,
		periodSvc: periodSvc,
		entity:    entity,
		period:    period,
	}
	e.bank = e.account(t, accountSvc, "Bank", accountdomain.Bank)
	e.receivable = e.account(t, accountSvc, "Accounts Receivable", accountdomain.Receivable)
	e.revenue = e.account(t, accountSvc, "Sales", accountdomain.OperatingRevenue)
	e.control = e.account(t, accountSvc, "Sales Tax Control", accountdomain.Control)
	return e
}

func (e *env) account(t *testing.T, svc accountdomain.Service, name string, accountType accountdomain.AccountType) accountdomain.Account {
	t.Helper()
	account, err := svc.Create(e.ctx, accountdomain.CreateRequest{
		Name:        name,
		AccountType: accountType,
		CurrencyID:  e.entity.BaseCurrencyID,
	})
	require.NoError(t, err)
	return *account
}

func (e *env) saleRequest(amount string) txndomain.CreateRequest {
	return txndomain.CreateRequest{
		TransactionType: txndomain.CashSale,
		AccountID:       e.bank.ID,
		TransactionDate: time.Now().UTC(),
		Narration:       "walk-in sale",
		LineItems: []txndomain.LineItemRequest{{
			AccountID: e.revenue.ID,
			Amount:    mustDecimal(amount),
		}},
	}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	e := newEnv(t)

	first, err := e.txnSvc.Create(e.ctx, e.saleRequest("100"))
	require.NoError(t, err)
	second, err := e.txnSvc.Create(e.ctx, e.saleRequest("50"))
	require.NoError(t, err)

	year := e.period.CalendarYear
	assert.Equal(t, fmt.Sprintf("CS0001/%d", year), first.TransactionNo)
	assert.Equal(t, fmt.Sprintf("CS0002/%d", year), second.TransactionNo)
	assert.False(t, first.IsPosted)
}

func TestCreateRetriesPastTakenNumber(t *testing.T) {
	e := newEnv(t)

	year := e.period.CalendarYear
	// A row already holding the number the next create would mint, as left
	// behind by a concurrent create that committed first.
	taken := &txndomain.Transaction{
		ID:                e.node.Generate(),
		EntityID:          e.entity.ID,
		TransactionType:   txndomain.CashPurchase,
		TransactionNo:     fmt.Sprintf("CS0001/%d", year),
		AccountID:         e.bank.ID,
		TransactionDate:   time.Now().UTC(),
		Narration:         "number squatter",
		Amount:            decimal.Zero,
		ReportingPeriodID: e.period.ID,
	}
	require.NoError(t, e.db.Create(taken).Error)

	txn, err := e.txnSvc.Create(e.ctx, e.saleRequest("100"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CS0002/%d", year), txn.TransactionNo)
}

func TestTransactionNumbersAreUniquePerEntity(t *testing.T) {
	e := newEnv(t)

	txn, err := e.txnSvc.Create(e.ctx, e.saleRequest("100"))
	require.NoError(t, err)

	dup := &txndomain.Transaction{
		ID:                e.node.Generate(),
		EntityID:          e.entity.ID,
		TransactionType:   txndomain.CashSale,
		TransactionNo:     txn.TransactionNo,
		AccountID:         e.bank.ID,
		TransactionDate:   time.Now().UTC(),
		Narration:         "duplicate number",
		Amount:            decimal.Zero,
		ReportingPeriodID: e.period.ID,
	}
	assert.Error(t, e.db.Create(dup).Error)
}

func TestPostWritesBalancedEntries(t *testing.T) {
	e := newEnv(t)

	txn, err := e.txnSvc.Create(e.ctx, e.saleRequest("100"))
	require.NoError(t, err)

	posted, err := e.txnSvc.Post(e.ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, posted.IsPosted)
	assert.True(t, posted.Amount.Equal(mustDecimal("100")))

	var entries []ledgerdomain.LedgerEntry
	require.NoError(t, e.db.Where("transaction_id = ?", txn.ID).Find(&entries).Error)
	require.Len(t, entries, 2)

	balance := decimal.Zero
	for _, entry := range entries {
		if entry.BalanceSide == accountdomain.SideDebit {
			balance = balance.Add(entry.Amount)
		} else {
			balance = balance.Sub(entry.Amount)
		}
	}
	assert.True(t, balance.IsZero())
}

func TestPostWithTaxRoutesToControlAccount(t *testing.T) {
	e := newEnv(t)

	tax, err := e.taxSvc.Create(e.ctx, taxdomain.CreateRequest{
		Name:             "VAT",
		Code:             "VAT10",
		TaxMode:          taxdomain.TaxModeExclusive,
		Rate:             mustDecimal("0.10"),
		ControlAccountID: e.control.ID,
	})
	require.NoError(t, err)

	req := e.saleRequest("100")
	req.LineItems[0].TaxID = &tax.ID
	txn, err := e.txnSvc.Create(e.ctx, req)
	require.NoError(t, err)

	_, err = e.txnSvc.Post(e.ctx, txn.ID)
	require.NoError(t, err)

	var controlEntries []ledgerdomain.LedgerEntry
	require.NoError(t, e.db.Where("account_id = ?", e.control.ID).Find(&controlEntries).Error)
	require.Len(t, controlEntries, 1)
	assert.True(t, controlEntries[0].Amount.Equal(mustDecimal("10")))
	assert.Equal(t, accountdomain.SideCredit, controlEntries[0].BalanceSide)
}

func TestPostedTransactionIsFrozen(t *testing.T) {
	e := newEnv(t)

	txn, err := e.txnSvc.Create(e.ctx, e.saleRequest("100"))
	require.NoError(t, err)
	_, err = e.txnSvc.Post(e.ctx, txn.ID)
	require.NoError(t, err)

	var posted *txndomain.PostedTransactionError

	_, err = e.txnSvc.AddLineItem(e.ctx, txn.ID, txndomain.LineItemRequest{
		AccountID: e.revenue.ID,
		Amount:    mustDecimal("10"),
	})
	assert.ErrorAs(t, err, &posted)

	err = e.txnSvc.RemoveLineItem(e.ctx, txn.ID, txn.LineItems[0].ID)
	assert.ErrorAs(t, err, &posted)

	// Even raw model updates bounce off the storage hooks.
	var stored txndomain.Transaction
	require.NoError(t, e.db.First(&stored, "id = ?", txn.ID).Error)
	stored.Narration = "rewritten"
	err = e.db.Save(&stored).Error
	assert.ErrorAs(t, err, &posted)

	_, err = e.txnSvc.Post(e.ctx, txn.ID)
	assert.ErrorAs(t, err, &posted)
}

func TestValidateRejectsWrongMainAccount(t *testing.T) {
	e := newEnv(t)

	req := e.saleRequest("100")
	req.AccountID = e.revenue.ID // cash sales settle to a bank account
	txn, err := e.txnSvc.Create(e.ctx, req)
	require.NoError(t, err)

	err = e.txnSvc.Validate(e.ctx, txn.ID)
	var invalid *txndomain.InvalidMainAccountError
	assert.ErrorAs(t, err, &invalid)
}

func TestValidateRejectsWrongLineItemAccount(t *testing.T) {
	e := newEnv(t)

	req := e.saleRequest("100")
	req.LineItems[0].AccountID = e.receivable.ID
	txn, err := e.txnSvc.Create(e.ctx, req)
	require.NoError(t, err)

	err = e.txnSvc.Validate(e.ctx, txn.ID)
	var invalid *txndomain.InvalidLineItemAccountError
	assert.ErrorAs(t, err, &invalid)
}

func TestCreateRejectsClosedPeriod(t *testing.T) {
	e := newEnv(t)

	_, err := e.periodSvc.Transition(e.ctx, e.period.ID, perioddomain.StatusAdjusting)
	require.NoError(t, err)
	_, err = e.periodSvc.Transition(e.ctx, e.period.ID, perioddomain.StatusClosed)
	require.NoError(t, err)

	_, err = e.txnSvc.Create(e.ctx, e.saleRequest("100"))
	var closed *perioddomain.ClosedPeriodError
	assert.ErrorAs(t, err, &closed)
}

func TestAdjustingPeriodAcceptsOnlyJournalEntries(t *testing.T) {
	e := newEnv(t)

	_, err := e.periodSvc.Transition(e.ctx, e.period.ID, perioddomain.StatusAdjusting)
	require.NoError(t, err)

	_, err = e.txnSvc.Create(e.ctx, e.saleRequest("100"))
	var restricted *perioddomain.RestrictedPeriodError
	assert.ErrorAs(t, err, &restricted)

	journal, err := e.txnSvc.Create(e.ctx, txndomain.CreateRequest{
		TransactionType: txndomain.JournalEntry,
		AccountID:       e.bank.ID,
		TransactionDate: time.Now().UTC(),
		Narration:       "year-end adjustment",
		LineItems: []txndomain.LineItemRequest{{
			AccountID: e.revenue.ID,
			Amount:    mustDecimal("25"),
		}},
	})
	require.NoError(t, err)

	_, err = e.txnSvc.Post(e.ctx, journal.ID)
	require.NoError(t, err)
}

func TestEntityIsolation(t *testing.T) {
	e := newEnv(t)

	txn, err := e.txnSvc.Create(e.ctx, e.saleRequest("100"))
	require.NoError(t, err)

	otherCtx := entityctx.WithEntityID(context.Background(), e.node.Generate())
	_, err = e.txnSvc.Get(otherCtx, txn.ID)
	assert.ErrorIs(t, err, txndomain.ErrNotFound)
}
