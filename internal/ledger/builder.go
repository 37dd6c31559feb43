package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

// ImbalancedError reports a transaction whose splits do not sum to
// zero, or split legs that disagree with the stated total.
type ImbalancedError struct {
	Expected decimal.Decimal
	Actual   decimal.Decimal
	Delta    decimal.Decimal
}

func (e ImbalancedError) Error() string {
	return fmt.Sprintf("transaction does not balance: expected %s, got %s (delta %s)",
		e.Expected.String(), e.Actual.String(), e.Delta.String())
}

// CurrencyMismatchError reports splits that would mix currencies
// without an explicit conversion.
type CurrencyMismatchError struct {
	Want    string
	Got     string
	Account string
}

func (e CurrencyMismatchError) Error() string {
	return fmt.Sprintf("account %q uses currency %s, transaction uses %s (no conversion supplied)",
		e.Account, e.Got, e.Want)
}

// SelfTransferError reports a transfer whose source and destination
// resolve to the same account.
type SelfTransferError struct {
	Account string
}

func (e SelfTransferError) Error() string {
	return fmt.Sprintf("cannot transfer from account %q to itself", e.Account)
}

// ResolvedLeg pairs one split-transaction leg with its resolved
// destination account.
type ResolvedLeg struct {
	Account *model.Account
	Amount  decimal.Decimal
}

// BuildTransfer constructs the two-split transaction for a Transfer
// command: a decrease on from and an increase on to, equal magnitude,
// so the signed amounts sum to zero. No persistence happens here.
func BuildTransfer(cmd model.Transfer, from, to *model.Account, entryID string, now time.Time) (model.Transaction, error) {
	if !cmd.Amount.IsPositive() {
		return model.Transaction{}, fmt.Errorf("transfer amount must be positive, got %s", cmd.Amount)
	}
	if from.ID == to.ID {
		return model.Transaction{}, SelfTransferError{Account: from.Name}
	}
	if from.Currency != to.Currency {
		return model.Transaction{}, CurrencyMismatchError{Want: from.Currency, Got: to.Currency, Account: to.Name}
	}

	tx := model.Transaction{
		ID:          entryID,
		Date:        txDate(cmd.Date, now),
		Description: cmd.Description,
		Splits: []model.Split{
			{AccountID: from.ID, Amount: cmd.Amount.Neg(), Currency: from.Currency},
			{AccountID: to.ID, Amount: cmd.Amount, Currency: to.Currency},
		},
	}
	if err := Validate(tx); err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

// BuildSplit constructs the transaction for a SplitTransaction command:
// one decreasing split of magnitude total on from, one increasing split
// per leg. The leg amounts must sum to the stated total within
// model.Epsilon or nothing is constructed.
func BuildSplit(cmd model.SplitTransaction, from *model.Account, legs []ResolvedLeg, entryID string, now time.Time) (model.Transaction, error) {
	if len(legs) == 0 {
		return model.Transaction{}, fmt.Errorf("split transaction needs at least one leg")
	}
	if !cmd.Total.IsPositive() {
		return model.Transaction{}, fmt.Errorf("split total must be positive, got %s", cmd.Total)
	}

	sum := decimal.Zero
	for _, leg := range legs {
		if !leg.Amount.IsPositive() {
			return model.Transaction{}, fmt.Errorf("leg amount for %q must be positive, got %s", leg.Account.Name, leg.Amount)
		}
		if leg.Account.Currency != from.Currency {
			return model.Transaction{}, CurrencyMismatchError{Want: from.Currency, Got: leg.Account.Currency, Account: leg.Account.Name}
		}
		sum = sum.Add(leg.Amount)
	}
	if delta := sum.Sub(cmd.Total).Abs(); delta.GreaterThan(model.Epsilon) {
		return model.Transaction{}, ImbalancedError{Expected: cmd.Total, Actual: sum, Delta: delta}
	}

	splits := make([]model.Split, 0, len(legs)+1)
	splits = append(splits, model.Split{AccountID: from.ID, Amount: cmd.Total.Neg(), Currency: from.Currency})
	for _, leg := range legs {
		splits = append(splits, model.Split{AccountID: leg.Account.ID, Amount: leg.Amount, Currency: leg.Account.Currency})
	}

	tx := model.Transaction{
		ID:          entryID,
		Date:        txDate(cmd.Date, now),
		Description: cmd.Description,
		Splits:      splits,
	}
	if err := Validate(tx); err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

// BuildOpening constructs the opening-balance transaction for a newly
// created account, offset against the equity root. Liability-side
// accounts open with the signs flipped.
func BuildOpening(acct, equity *model.Account, balance decimal.Decimal, entryID string, now time.Time) (model.Transaction, error) {
	if balance.IsZero() {
		return model.Transaction{}, fmt.Errorf("opening balance must be nonzero")
	}
	if acct.Currency != equity.Currency {
		return model.Transaction{}, CurrencyMismatchError{Want: acct.Currency, Got: equity.Currency, Account: equity.Name}
	}

	amount := balance
	if !acct.Type.DebitPositive() {
		amount = amount.Neg()
	}
	tx := model.Transaction{
		ID:          entryID,
		Date:        now,
		Description: "Initial balance",
		Splits: []model.Split{
			{AccountID: acct.ID, Amount: amount, Currency: acct.Currency},
			{AccountID: equity.ID, Amount: amount.Neg(), Currency: equity.Currency},
		},
	}
	if err := Validate(tx); err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

func txDate(d time.Time, now time.Time) time.Time {
	if d.IsZero() {
		return now
	}
	return d
}
