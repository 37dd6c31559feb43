package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance for balance comparisons (1e-6 currency units).
var Epsilon = decimal.New(1, -6)

// Split is one signed amount against one account within a transaction.
type Split struct {
	AccountID string
	Amount    decimal.Decimal // negative = money out of the account
	Currency  string
	Memo      string
}

// Transaction is an immutable, committed double-entry record. The sum
// of split amounts is zero within Epsilon; corrections are new
// offsetting transactions, never in-place edits.
type Transaction struct {
	ID          string // entry id, "YYYY-MM-NNN"
	Date        time.Time
	Description string
	Splits      []Split
}

// Currency returns the shared currency of the transaction's splits.
func (t Transaction) Currency() string {
	if len(t.Splits) == 0 {
		return ""
	}
	return t.Splits[0].Currency
}

// Total returns the sum of all split amounts. Zero for a balanced
// transaction.
func (t Transaction) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range t.Splits {
		sum = sum.Add(s.Amount)
	}
	return sum
}
