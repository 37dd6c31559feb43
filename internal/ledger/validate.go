package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

// Validate enforces the double-entry invariants on a built transaction
// before it may cross the commit boundary:
//
//  1. at least two splits
//  2. signed amounts sum to zero within model.Epsilon
//  3. no zero-amount splits
//  4. a single shared currency
func Validate(tx model.Transaction) error {
	if len(tx.Splits) < 2 {
		return fmt.Errorf("transaction %s has %d splits, need at least 2", tx.ID, len(tx.Splits))
	}

	sum := decimal.Zero
	currency := tx.Splits[0].Currency
	for _, s := range tx.Splits {
		if s.Amount.IsZero() {
			return fmt.Errorf("transaction %s has a zero-amount split on account %s", tx.ID, s.AccountID)
		}
		if s.Currency != currency {
			return CurrencyMismatchError{Want: currency, Got: s.Currency, Account: s.AccountID}
		}
		sum = sum.Add(s.Amount)
	}

	if sum.Abs().GreaterThan(model.Epsilon) {
		return ImbalancedError{Expected: decimal.Zero, Actual: sum, Delta: sum.Abs()}
	}
	return nil
}
