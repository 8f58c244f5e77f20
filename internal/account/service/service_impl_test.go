package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	entitydomain "github.com/microbooks/microbooks/internal/entity/domain"
	"github.com/microbooks/microbooks/internal/migration"
	perioddomain "github.com/microbooks/microbooks/internal/period/domain"
	periodservice "github.com/microbooks/microbooks/internal/period/service"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	ctx       context.Context
	svc       accountdomain.Service
	periodSvc perioddomain.Service
	entity    entitydomain.Entity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)
	log := zap.NewNop()

	currencyID := node.Generate()
	entity := entitydomain.Entity{
		ID:             node.Generate(),
		Name:           "Test Books",
		BaseCurrencyID: currencyID,
	}
	require.NoError(t, conn.Create(&entity).Error)

	ctx := entityctx.WithEntityID(context.Background(), entity.ID)
	periodSvc := periodservice.NewService(periodservice.Params{DB: conn, Log: log, GenID: node})
	svc := NewService(Params{DB: conn, Log: log, GenID: node, PeriodSvc: periodSvc})

	return &fixture{db: conn, ctx: ctx, svc: svc, periodSvc: periodSvc, entity: entity}
}

func (f *fixture) create(t *testing.T, name string, accountType accountdomain.AccountType) *accountdomain.Account {
	t.Helper()
	account, err := f.svc.Create(f.ctx, accountdomain.CreateRequest{
		Name:        name,
		AccountType: accountType,
		CurrencyID:  f.entity.BaseCurrencyID,
	})
	require.NoError(t, err)
	return account
}

func TestCreateAssignsCodesWithinTypeRange(t *testing.T) {
	f := newFixture(t)

	first := f.create(t, "Main Bank", accountdomain.Bank)
	second := f.create(t, "Savings", accountdomain.Bank)
	receivable := f.create(t, "Accounts Receivable", accountdomain.Receivable)

	base := accountdomain.Bank.CodeBase()
	assert.Equal(t, base+1, first.Code)
	assert.Equal(t, base+2, second.Code)
	assert.Equal(t, accountdomain.Receivable.CodeBase()+1, receivable.Code)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, accountdomain.CreateRequest{
		Name:        "   ",
		AccountType: accountdomain.Bank,
		CurrencyID:  f.entity.BaseCurrencyID,
	})
	assert.ErrorIs(t, err, accountdomain.ErrInvalidName)

	_, err = f.svc.Create(f.ctx, accountdomain.CreateRequest{
		Name:        "Petty Cash",
		AccountType: accountdomain.AccountType("SLUSH_FUND"),
		CurrencyID:  f.entity.BaseCurrencyID,
	})
	assert.ErrorIs(t, err, accountdomain.ErrInvalidAccountType)

	_, err = f.svc.Create(f.ctx, accountdomain.CreateRequest{
		Name:        "Petty Cash",
		AccountType: accountdomain.Bank,
	})
	assert.ErrorIs(t, err, accountdomain.ErrInvalidCurrency)
}

func TestListFiltersByType(t *testing.T) {
	f := newFixture(t)

	f.create(t, "Main Bank", accountdomain.Bank)
	f.create(t, "Accounts Receivable", accountdomain.Receivable)
	f.create(t, "Sales", accountdomain.OperatingRevenue)

	all, err := f.svc.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	// Chart order.
	assert.Less(t, all[0].Code, all[1].Code)
	assert.Less(t, all[1].Code, all[2].Code)

	banks, err := f.svc.List(f.ctx, accountdomain.Bank)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, "Main Bank", banks[0].Name)
}

func TestGetScopedToEntity(t *testing.T) {
	f := newFixture(t)
	account := f.create(t, "Main Bank", accountdomain.Bank)

	otherCtx := entityctx.WithEntityID(context.Background(), account.ID)
	_, err := f.svc.Get(otherCtx, account.ID)
	assert.ErrorIs(t, err, accountdomain.ErrNotFound)
}

func TestOpeningBalanceLandsInEarliestOpenPeriod(t *testing.T) {
	f := newFixture(t)
	account := f.create(t, "Main Bank", accountdomain.Bank)

	older, err := f.periodSvc.Open(f.ctx, 2025)
	require.NoError(t, err)
	_, err = f.periodSvc.Open(f.ctx, 2026)
	require.NoError(t, err)

	balance, err := f.svc.OpeningBalance(f.ctx, accountdomain.BalanceRequest{
		AccountID:       account.ID,
		Amount:          decimal.NewFromInt(1000),
		BalanceSide:     accountdomain.SideDebit,
		TransactionDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, older.ID, balance.ReportingPeriodID)

	balances, err := f.svc.OpeningBalances(f.ctx, account.ID, older.ID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Amount.Equal(decimal.NewFromInt(1000)))
}

func TestOpeningBalanceValidatesInput(t *testing.T) {
	f := newFixture(t)
	account := f.create(t, "Main Bank", accountdomain.Bank)
	_, err := f.periodSvc.Open(f.ctx, 2026)
	require.NoError(t, err)

	_, err = f.svc.OpeningBalance(f.ctx, accountdomain.BalanceRequest{
		AccountID:   account.ID,
		Amount:      decimal.Zero,
		BalanceSide: accountdomain.SideDebit,
	})
	assert.ErrorIs(t, err, accountdomain.ErrInvalidAmount)

	_, err = f.svc.OpeningBalance(f.ctx, accountdomain.BalanceRequest{
		AccountID:   account.ID,
		Amount:      decimal.NewFromInt(100),
		BalanceSide: accountdomain.BalanceSide("SIDEWAYS"),
	})
	assert.ErrorIs(t, err, accountdomain.ErrInvalidBalanceSide)
}

func TestOpeningBalanceIsFrozenOnceWritten(t *testing.T) {
	f := newFixture(t)
	account := f.create(t, "Main Bank", accountdomain.Bank)
	_, err := f.periodSvc.Open(f.ctx, 2026)
	require.NoError(t, err)

	balance, err := f.svc.OpeningBalance(f.ctx, accountdomain.BalanceRequest{
		AccountID:       account.ID,
		Amount:          decimal.NewFromInt(1000),
		BalanceSide:     accountdomain.SideDebit,
		TransactionDate: time.Now().UTC(),
	})
	require.NoError(t, err)

	err = f.db.Model(balance).Update("amount", "2000").Error
	assert.ErrorIs(t, err, accountdomain.ErrBalanceFrozen)
}
