package domain

import (
	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/microbooks/microbooks/internal/account/domain"
	taxdomain "github.com/microbooks/microbooks/internal/tax/domain"
	"github.com/shopspring/decimal"
)

// Posting is one concrete (account, amount, side) to be written to the
// ledger. A transaction allocates into a set of postings whose debits equal
// credits exactly.
type Posting struct {
	AccountID  snowflake.ID
	LineItemID *snowflake.ID
	Amount     decimal.Decimal
	Side       accountdomain.BalanceSide
}

// places is the minor-unit precision amounts are posted at.
const places = 2

var one = decimal.NewFromInt(1)

// Allocate expands a transaction into its ledger postings. Taxes must
// contain every tax referenced by a line item.
//
// Ordinary transactions post, per line item, the gross amount against the
// main account and the net/tax split against the line account and the tax's
// control account. Compound transactions consume the main-amount override
// across line items in declaration order; the last allocated share absorbs
// any rounding remainder so the total never drifts by a minor unit.
func Allocate(txn *Transaction, taxes map[snowflake.ID]taxdomain.Tax) ([]Posting, error) {
	if len(txn.LineItems) == 0 {
		return nil, ErrMissingLineItems
	}
	spec, ok := txn.TransactionType.Spec()
	if !ok {
		return nil, ErrInvalidTransactionType
	}

	if spec.Compound && txn.MainAmount != nil {
		return allocateCompound(txn, taxes)
	}
	return allocateSimple(txn, spec, taxes)
}

func allocateSimple(txn *Transaction, spec TypeSpec, taxes map[snowflake.ID]taxdomain.Tax) ([]Posting, error) {
	mainSide := txn.MainSide()
	lineSide := mainSide.Opposite()

	postings := make([]Posting, 0, len(txn.LineItems)*2)
	for i := range txn.LineItems {
		item := &txn.LineItems[i]
		nominal := item.Total().Round(places)
		if !nominal.IsPositive() {
			return nil, ErrInvalidAmount
		}

		net, taxAmount, gross := nominal, decimal.Zero, nominal
		var controlAccountID snowflake.ID
		if item.TaxID != nil {
			if spec.NoTax {
				return nil, ErrTaxNotAllowed
			}
			tax, ok := taxes[*item.TaxID]
			if !ok {
				return nil, taxdomain.ErrNotFound
			}
			net, taxAmount, gross = splitTax(nominal, tax)
			controlAccountID = tax.ControlAccountID
		}

		lineItemID := item.ID
		postings = append(postings, Posting{
			AccountID:  txn.AccountID,
			LineItemID: &lineItemID,
			Amount:     gross,
			Side:       mainSide,
		})
		postings = append(postings, Posting{
			AccountID:  item.AccountID,
			LineItemID: &lineItemID,
			Amount:     net,
			Side:       lineSide,
		})
		if taxAmount.IsPositive() {
			postings = append(postings, Posting{
				AccountID:  controlAccountID,
				LineItemID: &lineItemID,
				Amount:     taxAmount,
				Side:       lineSide,
			})
		}
	}
	return postings, nil
}

// allocateCompound walks an explicit worklist of line items consuming the
// remaining main amount. It stops when the remainder reaches zero or the
// worklist is exhausted; a leftover remainder means the document cannot
// balance.
func allocateCompound(txn *Transaction, taxes map[snowflake.ID]taxdomain.Tax) ([]Posting, error) {
	mainAmount := txn.MainAmount.Round(places)
	if !mainAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	mainSide := txn.MainSide()
	lineSide := mainSide.Opposite()

	postings := []Posting{{
		AccountID: txn.AccountID,
		Amount:    mainAmount,
		Side:      mainSide,
	}}

	remaining := mainAmount
	for i := range txn.LineItems {
		if remaining.IsZero() {
			break
		}
		item := &txn.LineItems[i]
		nominal := item.Total().Round(places)
		if !nominal.IsPositive() {
			return nil, ErrInvalidAmount
		}

		var tax *taxdomain.Tax
		if item.TaxID != nil {
			resolved, ok := taxes[*item.TaxID]
			if !ok {
				return nil, taxdomain.ErrNotFound
			}
			tax = &resolved
		}

		gross := nominal
		if tax != nil && tax.TaxMode == taxdomain.TaxModeExclusive {
			_, _, gross = splitTax(nominal, *tax)
		}

		// The consumed share is always tax-gross here; a partial share is
		// just a smaller gross and splits the same way.
		share := decimal.Min(gross, remaining)
		remaining = remaining.Sub(share)

		net, taxAmount := share, decimal.Zero
		var controlAccountID snowflake.ID
		if tax != nil && !tax.Rate.IsZero() {
			net = share.Div(one.Add(tax.Rate)).Round(places)
			taxAmount = share.Sub(net)
			controlAccountID = tax.ControlAccountID
		}

		lineItemID := item.ID
		postings = append(postings, Posting{
			AccountID:  item.AccountID,
			LineItemID: &lineItemID,
			Amount:     net,
			Side:       lineSide,
		})
		if taxAmount.IsPositive() {
			postings = append(postings, Posting{
				AccountID:  controlAccountID,
				LineItemID: &lineItemID,
				Amount:     taxAmount,
				Side:       lineSide,
			})
		}
	}

	if !remaining.IsZero() {
		return nil, &UnbalancedTransactionError{
			TransactionID: txn.ID,
			Remainder:     remaining,
		}
	}
	return postings, nil
}

// splitTax splits a nominal line amount into net, tax and gross according to
// the tax mode. The arithmetic keeps net+tax == gross exact: the split side
// is rounded and the other side is derived by subtraction.
func splitTax(nominal decimal.Decimal, tax taxdomain.Tax) (net, taxAmount, gross decimal.Decimal) {
	if tax.Rate.IsZero() {
		return nominal, decimal.Zero, nominal
	}
	switch tax.TaxMode {
	case taxdomain.TaxModeInclusive:
		net = nominal.Div(one.Add(tax.Rate)).Round(places)
		taxAmount = nominal.Sub(net)
		gross = nominal
	default: // exclusive
		taxAmount = nominal.Mul(tax.Rate).Round(places)
		net = nominal
		gross = nominal.Add(taxAmount)
	}
	return net, taxAmount, gross
}

// CheckBalanced verifies the double-entry law over a set of postings.
func CheckBalanced(transactionID snowflake.ID, postings []Posting) error {
	sum := decimal.Zero
	for _, posting := range postings {
		if posting.Side == accountdomain.SideDebit {
			sum = sum.Add(posting.Amount)
		} else {
			sum = sum.Sub(posting.Amount)
		}
	}
	if !sum.IsZero() {
		return &UnbalancedTransactionError{
			TransactionID: transactionID,
			Remainder:     sum,
		}
	}
	return nil
}

// MainTotal is the amount posted against the main account: the transaction's
// posted total used for clearing capacity.
func MainTotal(postings []Posting, mainSide accountdomain.BalanceSide, mainAccountID snowflake.ID) decimal.Decimal {
	total := decimal.Zero
	for _, posting := range postings {
		if posting.AccountID == mainAccountID && posting.Side == mainSide {
			total = total.Add(posting.Amount)
		}
	}
	return total
}
