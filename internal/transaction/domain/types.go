package domain

import (
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
)

// TransactionType tags a transaction with its business document kind. The
// set is closed; behavior differences are capability flags on the TypeSpec
// row, not subclasses.
type TransactionType string

const (
	CashSale        TransactionType = "CASH_SALE"
	CashPurchase    TransactionType = "CASH_PURCHASE"
	ClientInvoice   TransactionType = "CLIENT_INVOICE"
	SupplierBill    TransactionType = "SUPPLIER_BILL"
	CreditNote      TransactionType = "CREDIT_NOTE"
	DebitNote       TransactionType = "DEBIT_NOTE"
	ClientReceipt   TransactionType = "CLIENT_RECEIPT"
	SupplierPayment TransactionType = "SUPPLIER_PAYMENT"
	ContraEntry     TransactionType = "CONTRA_ENTRY"
	JournalEntry    TransactionType = "JOURNAL_ENTRY"
)

// TypeSpec is one row of the transaction-type configuration table.
//
// MainSide is the side the main account is posted on; line items post on the
// opposite side. Clearable types accumulate an outstanding balance that
// settlements reduce; Settling types accumulate an available balance that is
// consumed against clearable transactions. NoTax types reject tax-bearing
// line items. Compound types allow a main-amount override allocated across
// line items. Adjusting types are the only ones admitted into ADJUSTING
// periods.
type TypeSpec struct {
	Label            string
	NumberPrefix     string
	MainAccountTypes []accountdomain.AccountType // empty = any
	LineItemTypes    []accountdomain.AccountType // empty = any
	MainSide         accountdomain.BalanceSide
	Clearable        bool
	Settling         bool
	NoTax            bool
	Compound         bool
	Adjusting        bool
}

var typeSpecs = map[TransactionType]TypeSpec{
	CashSale: {
		Label:            "Cash Sale",
		NumberPrefix:     "CS",
		MainAccountTypes: []accountdomain.AccountType{accountdomain.Bank},
		LineItemTypes:    []accountdomain.AccountType{accountdomain.OperatingRevenue},
		MainSide:         accountdomain.SideDebit,
	},
	CashPurchase: {
		Label:            "Cash Purchase",
		NumberPrefix:     "CP",
		MainAccountTypes: []accountdomain.AccountType{accountdomain.Bank},
		LineItemTypes:    accountdomain.Purchasables(),
		MainSide:         accountdomain.SideCredit,
	},
	ClientInvoice: {
		Label:            "Client Invoice",
		NumberPrefix:     "IN",
		MainAccountTypes: []accountdomain.AccountType{accountdomain.Receivable},
		LineItemTypes:    []accountdomain.AccountType{accountdomain.OperatingRevenue},
		MainSide:         accountdomain.SideDebit,
		Clearable:        true,
	},
	SupplierBill: {
		Label:            "Supplier Bill",
		NumberPrefix:     "BL",
		MainAccountTypes: []accountdomain.AccountType{accountdomain.Payable},
		LineItemTypes:    accountdomain.Purchasables(),
		MainSide:         accountdomain.SideCredit,
		Clearable:        true,
	},
	CreditNote: {
		Label:            "Credit Note",
		NumberPrefix:     "CN",
		MainAccountTypes: []accountdomain.AccountType{accountdomain.Receivable},
		LineItemTypes:    []accountdomain.AccountType{accountdomain.OperatingRevenue},
		MainSide:         accountdomain.SideCredit,
		Settling:         true,
	},
	DebitNote: {
		Label:            "Debit Note",
		NumberPrefix:     "DN",
		MainAccountTypes: []accountdomain.AccountType{accountdomain.Payable},
		LineItemTypes:    accountdomain.Purchasables(),
		MainSide:         accountdomain.SideDebit,
		Settling:         true,
	},
	ClientReceipt: {
		Label:            "Client Receipt",
		NumberPrefix:     "RC",
		MainAccountTypes: []accountdomain.AccountType{accountdomain.Receivable},
		LineItemTypes:    []accountdomain.AccountType{accountdomain.Bank},
		MainSide:         accountdomain.SideCredit,
		Settling:         true,
		NoTax:            true,
	},
	SupplierPayment: {
		Label:            "Supplier Payment",
		NumberPrefix:     "PY",
		MainAccountTypes: []accountdomain.AccountType{accountdomain.Payable},
		LineItemTypes:    []accountdomain.AccountType{accountdomain.Bank},
		MainSide:         accountdomain.SideDebit,
		Settling:         true,
		NoTax:            true,
	},
	ContraEntry: {
		Label:            "Contra Entry",
		NumberPrefix:     "CE",
		MainAccountTypes: []accountdomain.AccountType{accountdomain.Bank},
		LineItemTypes:    []accountdomain.AccountType{accountdomain.Bank},
		MainSide:         accountdomain.SideDebit,
		NoTax:            true,
	},
	JournalEntry: {
		Label:        "Journal Entry",
		NumberPrefix: "JN",
		MainSide:     accountdomain.SideCredit,
		Clearable:    true,
		Settling:     true,
		Compound:     true,
		Adjusting:    true,
	},
}

// Spec returns the configuration row for the type.
func (t TransactionType) Spec() (TypeSpec, bool) {
	spec, ok := typeSpecs[t]
	return spec, ok
}

// Valid reports whether the type is part of the closed set.
func (t TransactionType) Valid() bool {
	_, ok := typeSpecs[t]
	return ok
}

// Clearable reports whether the type accumulates an outstanding balance.
func (t TransactionType) Clearable() bool { return typeSpecs[t].Clearable }

// Settling reports whether the type accumulates an available balance.
func (t TransactionType) Settling() bool { return typeSpecs[t].Settling }

// Adjusting reports whether the type may post into an ADJUSTING period.
func (t TransactionType) Adjusting() bool { return typeSpecs[t].Adjusting }

// MainSide returns the posting side of the main account.
func (t TransactionType) MainSide() accountdomain.BalanceSide {
	return typeSpecs[t].MainSide
}
