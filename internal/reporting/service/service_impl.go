package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	assigndomain "github.com/microbooks/microbooks/internal/assignment/domain"
	ledgerdomain "github.com/microbooks/microbooks/internal/ledger/domain"
	reportingdomain "github.com/microbooks/microbooks/internal/reporting/domain"
	txndomain "github.com/microbooks/microbooks/internal/transaction/domain"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) reportingdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("reporting.service"),
	}
}

func (s *Service) AccountStatement(ctx context.Context, accountID snowflake.ID, from, to time.Time) (*reportingdomain.Statement, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.getAccount(ctx, entityID, accountID)
	if err != nil {
		return nil, err
	}
	normal := account.AccountType.Normal()

	opening, err := s.balanceBefore(ctx, entityID, accountID, normal, from)
	if err != nil {
		return nil, err
	}

	var entries []ledgerdomain.LedgerEntry
	if err := s.db.WithContext(ctx).
		Where("entity_id = ? AND account_id = ? AND transaction_date >= ? AND transaction_date <= ?",
			entityID, accountID, from, to).
		Order("transaction_date ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	// A transaction may post several entries to the same account, one per
	// line item. The statement shows one row per transaction.
	rows := make([]reportingdomain.StatementRow, 0)
	index := make(map[snowflake.ID]int)
	for i := range entries {
		entry := &entries[i]
		at, ok := index[entry.TransactionID]
		if !ok {
			at = len(rows)
			index[entry.TransactionID] = at
			rows = append(rows, reportingdomain.StatementRow{
				TransactionID:   entry.TransactionID,
				TransactionDate: entry.TransactionDate,
			})
		}
		if entry.BalanceSide == accountdomain.SideDebit {
			rows[at].Debit = rows[at].Debit.Add(entry.Amount)
		} else {
			rows[at].Credit = rows[at].Credit.Add(entry.Amount)
		}
	}

	if err := s.fillTransactionDetails(ctx, entityID, rows); err != nil {
		return nil, err
	}

	balance := opening
	for i := range rows {
		movement := rows[i].Debit.Sub(rows[i].Credit)
		if normal == accountdomain.SideCredit {
			movement = movement.Neg()
		}
		balance = balance.Add(movement)
		rows[i].Balance = balance
	}

	return &reportingdomain.Statement{
		Account:        *account,
		From:           from,
		To:             to,
		OpeningBalance: opening,
		Rows:           rows,
		ClosingBalance: balance,
	}, nil
}

func (s *Service) fillTransactionDetails(ctx context.Context, entityID snowflake.ID, rows []reportingdomain.StatementRow) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]snowflake.ID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].TransactionID)
	}
	var txns []txndomain.Transaction
	if err := s.db.WithContext(ctx).
		Where("entity_id = ? AND id IN ?", entityID, ids).
		Find(&txns).Error; err != nil {
		return err
	}
	byID := make(map[snowflake.ID]*txndomain.Transaction, len(txns))
	for i := range txns {
		byID[txns[i].ID] = &txns[i]
	}
	for i := range rows {
		if txn, ok := byID[rows[i].TransactionID]; ok {
			rows[i].TransactionNo = txn.TransactionNo
			rows[i].TransactionType = string(txn.TransactionType)
			rows[i].Narration = txn.Narration
		}
	}
	return nil
}

// balanceBefore is the account's signed balance carried into a date: opening
// balance rows plus ledger entries dated earlier.
func (s *Service) balanceBefore(ctx context.Context, entityID, accountID snowflake.ID, normal accountdomain.BalanceSide, before time.Time) (decimal.Decimal, error) {
	total := decimal.Zero

	var balances []accountdomain.Balance
	if err := s.db.WithContext(ctx).
		Where("entity_id = ? AND account_id = ? AND transaction_date < ?", entityID, accountID, before).
		Find(&balances).Error; err != nil {
		return decimal.Zero, err
	}
	for _, b := range balances {
		if b.BalanceSide == normal {
			total = total.Add(b.Amount)
		} else {
			total = total.Sub(b.Amount)
		}
	}

	var entries []ledgerdomain.LedgerEntry
	if err := s.db.WithContext(ctx).
		Where("entity_id = ? AND account_id = ? AND transaction_date < ?", entityID, accountID, before).
		Find(&entries).Error; err != nil {
		return decimal.Zero, err
	}
	for _, entry := range entries {
		if entry.BalanceSide == normal {
			total = total.Add(entry.Amount)
		} else {
			total = total.Sub(entry.Amount)
		}
	}
	return total, nil
}

func (s *Service) AccountSchedule(ctx context.Context, accountID snowflake.ID, asOf time.Time) (*reportingdomain.Schedule, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.getAccount(ctx, entityID, accountID)
	if err != nil {
		return nil, err
	}
	if account.AccountType != accountdomain.Receivable && account.AccountType != accountdomain.Payable {
		return nil, reportingdomain.ErrNotSchedulable
	}

	var candidates []txndomain.Transaction
	if err := s.db.WithContext(ctx).
		Where("entity_id = ? AND account_id = ? AND is_posted = ? AND transaction_date <= ?",
			entityID, accountID, true, asOf).
		Order("transaction_date ASC, id ASC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	schedule := &reportingdomain.Schedule{
		Account:  *account,
		AsOf:     asOf,
		Total:    decimal.Zero,
		ByBucket: make(map[reportingdomain.AgeBucket]decimal.Decimal),
	}
	for i := range candidates {
		txn := &candidates[i]
		if !txn.TransactionType.Clearable() {
			continue
		}
		cleared, err := s.clearedTotal(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		uncleared := txn.Amount.Sub(cleared)
		if !uncleared.IsPositive() {
			continue
		}

		age := int(asOf.Sub(txn.TransactionDate).Hours() / 24)
		bucket := reportingdomain.BucketFor(age)
		schedule.Rows = append(schedule.Rows, reportingdomain.ScheduleRow{
			TransactionID:   txn.ID,
			TransactionNo:   txn.TransactionNo,
			TransactionType: string(txn.TransactionType),
			TransactionDate: txn.TransactionDate,
			Amount:          txn.Amount,
			Cleared:         cleared,
			Uncleared:       uncleared,
			AgeDays:         age,
			Bucket:          bucket,
		})
		schedule.Total = schedule.Total.Add(uncleared)
		schedule.ByBucket[bucket] = schedule.ByBucket[bucket].Add(uncleared)
	}
	return schedule, nil
}

func (s *Service) clearedTotal(ctx context.Context, transactionID snowflake.ID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := s.db.WithContext(ctx).
		Model(&assigndomain.Assignment{}).
		Select("SUM(amount)").
		Where("cleared_id = ?", transactionID).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (*reportingdomain.TrialBalance, error) {
	entityID, err := entityctx.Require(ctx)
	if err != nil {
		return nil, err
	}

	type sideSum struct {
		AccountID   snowflake.ID
		BalanceSide accountdomain.BalanceSide
		Total       decimal.Decimal
	}

	var ledgerSums []sideSum
	if err := s.db.WithContext(ctx).
		Model(&ledgerdomain.LedgerEntry{}).
		Select("account_id, balance_side, SUM(amount) AS total").
		Where("entity_id = ? AND transaction_date <= ?", entityID, asOf).
		Group("account_id, balance_side").
		Scan(&ledgerSums).Error; err != nil {
		return nil, err
	}

	var balanceSums []sideSum
	if err := s.db.WithContext(ctx).
		Model(&accountdomain.Balance{}).
		Select("account_id, balance_side, SUM(amount) AS total").
		Where("entity_id = ? AND transaction_date <= ?", entityID, asOf).
		Group("account_id, balance_side").
		Scan(&balanceSums).Error; err != nil {
		return nil, err
	}

	// Net per account: debits minus credits, reported in whichever column the
	// sign lands on.
	nets := make(map[snowflake.ID]decimal.Decimal)
	for _, row := range append(ledgerSums, balanceSums...) {
		amount := row.Total
		if row.BalanceSide == accountdomain.SideCredit {
			amount = amount.Neg()
		}
		nets[row.AccountID] = nets[row.AccountID].Add(amount)
	}

	accountIDs := make([]snowflake.ID, 0, len(nets))
	for id := range nets {
		accountIDs = append(accountIDs, id)
	}
	var accounts []accountdomain.Account
	if len(accountIDs) > 0 {
		if err := s.db.WithContext(ctx).
			Where("entity_id = ? AND id IN ?", entityID, accountIDs).
			Find(&accounts).Error; err != nil {
			return nil, err
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	report := &reportingdomain.TrialBalance{
		AsOf:         asOf,
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	for _, account := range accounts {
		net := nets[account.ID]
		row := reportingdomain.TrialBalanceRow{Account: account}
		if net.Sign() >= 0 {
			row.Debit = net
			report.TotalDebits = report.TotalDebits.Add(net)
		} else {
			row.Credit = net.Neg()
			report.TotalCredits = report.TotalCredits.Add(net.Neg())
		}
		report.Rows = append(report.Rows, row)
	}

	if !report.TotalDebits.Equal(report.TotalCredits) {
		return report, reportingdomain.ErrUnbalancedLedger
	}
	return report, nil
}

func (s *Service) getAccount(ctx context.Context, entityID, accountID snowflake.ID) (*accountdomain.Account, error) {
	var account accountdomain.Account
	err := s.db.WithContext(ctx).
		First(&account, "entity_id = ? AND id = ?", entityID, accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, accountdomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
