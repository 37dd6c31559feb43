package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeStock     AccountType = "STOCK"
)

// AccountTypes lists all valid account types in declaration order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeIncome,
	AccountTypeExpense,
	AccountTypeEquity,
	AccountTypeStock,
}

// InvalidAccountTypeError reports an account type outside the closed enum,
// or a type that cannot be inherited from its parent.
type InvalidAccountTypeError struct {
	Type   string
	Reason string
}

func (e InvalidAccountTypeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid account type %q: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid account type %q", e.Type)
}

// ParseAccountType converts a string (any case) to an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AccountTypes {
		if t == known {
			return t, nil
		}
	}
	return "", InvalidAccountTypeError{Type: s}
}

// DebitPositive reports whether the account type increases on the debit
// side under the shared signed-amount convention. Asset, expense and
// stock balances grow with positive splits; liability, income and equity
// balances grow with negative splits.
func (t AccountType) DebitPositive() bool {
	switch t {
	case AccountTypeAsset, AccountTypeExpense, AccountTypeStock:
		return true
	default:
		return false
	}
}

// Natural converts a raw signed balance into the sign users expect for
// the account type (income shown positive, etc.).
func (t AccountType) Natural(raw decimal.Decimal) decimal.Decimal {
	if t.DebitPositive() {
		return raw
	}
	return raw.Neg()
}

// PathSeparator joins account names into a full path like
// "Assets:Current Assets:Checking Account".
const PathSeparator = ":"

// Account is one node in the chart of accounts. The tree is kept as an
// id arena: each account names its parent and its ordered children by
// id, never by pointer.
type Account struct {
	ID          string
	Name        string
	Type        AccountType
	Currency    string
	Description string
	ParentID    string // empty = top-level
	ChildIDs    []string
	Balance     decimal.Decimal // cached leaf balance, recomputable from splits

	// Commodity metadata for tradable (STOCK) leaf accounts.
	Namespace    string
	InitialPrice decimal.Decimal
}

// IsLeaf reports whether the account has no children.
func (a *Account) IsLeaf() bool {
	return len(a.ChildIDs) == 0
}
