package domain

import (
	"testing"

	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	"github.com/stretchr/testify/assert"
)

func TestOnlyJournalEntriesAdjust(t *testing.T) {
	for _, txType := range []TransactionType{
		CashSale, CashPurchase, ClientInvoice, SupplierBill,
		CreditNote, DebitNote, ClientReceipt, SupplierPayment, ContraEntry,
	} {
		assert.False(t, txType.Adjusting(), string(txType))
	}
	assert.True(t, JournalEntry.Adjusting())
}

func TestClearingRoles(t *testing.T) {
	assert.True(t, ClientInvoice.Clearable())
	assert.False(t, ClientInvoice.Settling())

	assert.True(t, ClientReceipt.Settling())
	assert.False(t, ClientReceipt.Clearable())

	// Journal entries can stand on either side of a clearing.
	assert.True(t, JournalEntry.Clearable())
	assert.True(t, JournalEntry.Settling())
}

func TestUnknownTypeIsInvalid(t *testing.T) {
	assert.False(t, TransactionType("GIFT_CARD").Valid())
	_, ok := TransactionType("GIFT_CARD").Spec()
	assert.False(t, ok)
}

func TestMainSideFollowsDocumentDirection(t *testing.T) {
	assert.Equal(t, accountdomain.SideDebit, CashSale.MainSide())
	assert.Equal(t, accountdomain.SideCredit, CashPurchase.MainSide())
	assert.Equal(t, accountdomain.SideDebit, ClientInvoice.MainSide())
	assert.Equal(t, accountdomain.SideCredit, ClientReceipt.MainSide())
}
