package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	accountservice "github.com/microbooks/microbooks/internal/account/service"
	assigndomain "github.com/microbooks/microbooks/internal/assignment/domain"
	auditservice "github.com/microbooks/microbooks/internal/audit/service"
	entitydomain "github.com/microbooks/microbooks/internal/entity/domain"
	ledgerservice "github.com/microbooks/microbooks/internal/ledger/service"
	"github.com/microbooks/microbooks/internal/migration"
	periodservice "github.com/microbooks/microbooks/internal/period/service"
	taxservice "github.com/microbooks/microbooks/internal/tax/service"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	txnservice "github.com/microbooks/microbooks/internal/transaction/service"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	db     *gorm.DB
	ctx    context.Context
	node   *snowflake.Node
	svc    assigndomain.Service
	txnSvc txndomain.Service
	entity entitydomain.Entity

	bank       accountdomain.Account
	receivable accountdomain.Account
	revenue    accountdomain.Account
}

func newEnv(t *testing.T) *env {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(4)
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
	_, err = periodSvc.Open(ctx, time.Now().UTC().Year())
	require.NoError(t, err)
	// Backdated fixtures can cross a year boundary.
	_, err = periodSvc.Open(ctx, time.Now().UTC().Year()-1)
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{DB: conn, Log: log, GenID: node})
	accountSvc := accountservice.NewService(accountservice.Params{DB: conn, Log: log, GenID: node, PeriodSvc: periodSvc})
	taxSvc := taxservice.NewService(taxservice.Params{DB: conn, Log: log, GenID: node, AccountSvc: accountSvc})
	poster := ledgerservice.NewService(ledgerservice.Params{
		DB: conn, Log: log, GenID: node, Audit: auditSvc,
	})
	txnSvc := txnservice.NewService(txnservice.Params{
		DB: conn, Log: log, GenID: node,
		PeriodSvc: periodSvc, TaxSvc: taxSvc, Poster: poster,
	})
	svc := NewService(Params{DB: conn, Log: log, GenID: node, Audit: auditSvc})

	e := &env{
		db:     conn,
		ctx:    ctx,
		node:   node,
		svc:    svc,
		txnSvc: txnSvc,
		entity: entity,
	}
	e.bank = e.account(t, accountSvc, "Bank", accountdomain.Bank)
	e.receivable = e.account(t, accountSvc, "Accounts Receivable", accountdomain.Receivable)
	e.revenue = e.account(t, accountSvc, "Sales", accountdomain.OperatingRevenue)
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

func (e *env) postInvoice(t *testing.T, amount string, daysAgo int) *txndomain.Transaction {
	t.Helper()
	return e.post(t, txndomain.CreateRequest{
		TransactionType: txndomain.ClientInvoice,
		AccountID:       e.receivable.ID,
		TransactionDate: time.Now().UTC().AddDate(0, 0, -daysAgo),
		Narration:       "invoice",
		LineItems: []txndomain.LineItemRequest{{
			AccountID: e.revenue.ID,
			Amount:    mustDecimal(amount),
		}},
	})
}

func (e *env) postReceipt(t *testing.T, amount string) *txndomain.Transaction {
	t.Helper()
	return e.post(t, txndomain.CreateRequest{
		TransactionType: txndomain.ClientReceipt,
		AccountID:       e.receivable.ID,
		TransactionDate: time.Now().UTC(),
		Narration:       "receipt",
		LineItems: []txndomain.LineItemRequest{{
			AccountID: e.bank.ID,
			Amount:    mustDecimal(amount),
		}},
	})
}

func (e *env) post(t *testing.T, req txndomain.CreateRequest) *txndomain.Transaction {
	t.Helper()
	txn, err := e.txnSvc.Create(e.ctx, req)
	require.NoError(t, err)
	posted, err := e.txnSvc.Post(e.ctx, txn.ID)
	require.NoError(t, err)
	return posted
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAssignClearsInvoice(t *testing.T) {
	e := newEnv(t)

	invoice := e.postInvoice(t, "300", 10)
	receipt := e.postReceipt(t, "200")

	assignment, err := e.svc.Assign(e.ctx, assigndomain.AssignRequest{
		TransactionID: receipt.ID,
		ClearedID:     invoice.ID,
		Amount:        mustDecimal("200"),
	})
	require.NoError(t, err)
	assert.True(t, assignment.Amount.Equal(mustDecimal("200")))

	outstanding, err := e.svc.Outstanding(e.ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, outstanding.Equal(mustDecimal("100")))

	balance, err := e.svc.Balance(e.ctx, receipt.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestAssignRejectsOverclearance(t *testing.T) {
	e := newEnv(t)

	invoice := e.postInvoice(t, "100", 10)
	receipt := e.postReceipt(t, "500")

	_, err := e.svc.Assign(e.ctx, assigndomain.AssignRequest{
		TransactionID: receipt.ID,
		ClearedID:     invoice.ID,
		Amount:        mustDecimal("150"),
	})
	var over *assigndomain.OverclearanceError
	require.ErrorAs(t, err, &over)
	assert.Equal(t, invoice.ID, over.TransactionID)
	assert.True(t, over.Available.Equal(mustDecimal("100")))
}

func TestAssignRejectsExhaustedSettlingBalance(t *testing.T) {
	e := newEnv(t)

	first := e.postInvoice(t, "200", 10)
	second := e.postInvoice(t, "200", 5)
	receipt := e.postReceipt(t, "250")

	_, err := e.svc.Assign(e.ctx, assigndomain.AssignRequest{
		TransactionID: receipt.ID,
		ClearedID:     first.ID,
		Amount:        mustDecimal("200"),
	})
	require.NoError(t, err)

	_, err = e.svc.Assign(e.ctx, assigndomain.AssignRequest{
		TransactionID: receipt.ID,
		ClearedID:     second.ID,
		Amount:        mustDecimal("100"),
	})
	var over *assigndomain.OverclearanceError
	require.ErrorAs(t, err, &over)
	assert.Equal(t, receipt.ID, over.TransactionID)
	assert.True(t, over.Available.Equal(mustDecimal("50")))
}

func TestAssignRejectsSelfAssignment(t *testing.T) {
	e := newEnv(t)
	receipt := e.postReceipt(t, "100")

	_, err := e.svc.Assign(e.ctx, assigndomain.AssignRequest{
		TransactionID: receipt.ID,
		ClearedID:     receipt.ID,
		Amount:        mustDecimal("50"),
	})
	assert.ErrorIs(t, err, assigndomain.ErrSelfAssignment)
}

func TestAssignRejectsUnpostedCleared(t *testing.T) {
	e := newEnv(t)

	receipt := e.postReceipt(t, "100")
	draft, err := e.txnSvc.Create(e.ctx, txndomain.CreateRequest{
		TransactionType: txndomain.ClientInvoice,
		AccountID:       e.receivable.ID,
		TransactionDate: time.Now().UTC(),
		Narration:       "draft invoice",
		LineItems: []txndomain.LineItemRequest{{
			AccountID: e.revenue.ID,
			Amount:    mustDecimal("100"),
		}},
	})
	require.NoError(t, err)

	_, err = e.svc.Assign(e.ctx, assigndomain.AssignRequest{
		TransactionID: receipt.ID,
		ClearedID:     draft.ID,
		Amount:        mustDecimal("50"),
	})
	var unposted *assigndomain.UnpostedTransactionError
	assert.ErrorAs(t, err, &unposted)
}

func TestAssignRejectsNonSettlingType(t *testing.T) {
	e := newEnv(t)

	first := e.postInvoice(t, "100", 5)
	second := e.postInvoice(t, "100", 3)

	_, err := e.svc.Assign(e.ctx, assigndomain.AssignRequest{
		TransactionID: first.ID,
		ClearedID:     second.ID,
		Amount:        mustDecimal("50"),
	})
	var notSettling *assigndomain.NotSettlingError
	assert.ErrorAs(t, err, &notSettling)
}

func TestBulkAssignClearsOldestFirst(t *testing.T) {
	e := newEnv(t)

	older := e.postInvoice(t, "300", 30)
	newer := e.postInvoice(t, "400", 10)
	receipt := e.postReceipt(t, "500")

	made, err := e.svc.BulkAssign(e.ctx, receipt.ID)
	require.NoError(t, err)
	require.Len(t, made, 2)

	assert.Equal(t, older.ID, made[0].ClearedID)
	assert.True(t, made[0].Amount.Equal(mustDecimal("300")))
	assert.Equal(t, newer.ID, made[1].ClearedID)
	assert.True(t, made[1].Amount.Equal(mustDecimal("200")))

	balance, err := e.svc.Balance(e.ctx, receipt.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	outstanding, err := e.svc.Outstanding(e.ctx, newer.ID)
	require.NoError(t, err)
	assert.True(t, outstanding.Equal(mustDecimal("200")))
}

func TestBulkAssignSkipsClearedInvoices(t *testing.T) {
	e := newEnv(t)

	settled := e.postInvoice(t, "100", 20)
	open := e.postInvoice(t, "100", 10)
	firstReceipt := e.postReceipt(t, "100")

	_, err := e.svc.Assign(e.ctx, assigndomain.AssignRequest{
		TransactionID: firstReceipt.ID,
		ClearedID:     settled.ID,
		Amount:        mustDecimal("100"),
	})
	require.NoError(t, err)

	secondReceipt := e.postReceipt(t, "80")
	made, err := e.svc.BulkAssign(e.ctx, secondReceipt.ID)
	require.NoError(t, err)
	require.Len(t, made, 1)
	assert.Equal(t, open.ID, made[0].ClearedID)
	assert.True(t, made[0].Amount.Equal(mustDecimal("80")))
}
