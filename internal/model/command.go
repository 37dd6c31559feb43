package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommandKind tags the closed set of command variants.
type CommandKind string

const (
	KindCreateAccount    CommandKind = "create_account"
	KindTransfer         CommandKind = "transfer"
	KindSplitTransaction CommandKind = "split_transaction"
	KindSetCurrency      CommandKind = "set_currency"
	KindReport           CommandKind = "report"
	KindListAccounts     CommandKind = "list_accounts"
	KindListTransactions CommandKind = "list_transactions"
	KindMoveAccount      CommandKind = "move_account"
)

// Command is the closed set of typed operations the interpreter can
// produce. Every variant's fields are primitive or enumerated; nothing
// free-form reaches the ledger without passing the resolver and
// balancer first.
type Command interface {
	Kind() CommandKind
}

// CreateAccount adds an account under a parent path. An empty Type
// inherits the parent's type; a nonzero InitialBalance posts an
// offsetting opening entry against the Equity root.
type CreateAccount struct {
	Name           string
	Type           AccountType // empty = inherit from parent
	ParentPath     string
	InitialBalance decimal.Decimal
	Description    string
}

func (CreateAccount) Kind() CommandKind { return KindCreateAccount }

// Transfer moves Amount from one account to another.
type Transfer struct {
	FromPath    string
	ToPath      string
	Amount      decimal.Decimal
	Date        time.Time // zero = processing time
	Description string
}

func (Transfer) Kind() CommandKind { return KindTransfer }

// SplitLeg is one destination of a split transaction.
type SplitLeg struct {
	ToPath string
	Amount decimal.Decimal
}

// SplitTransaction moves Total out of one account into several
// destinations. The leg amounts must sum to Total.
type SplitTransaction struct {
	FromPath    string
	Legs        []SplitLeg
	Total       decimal.Decimal
	Date        time.Time
	Description string
}

func (SplitTransaction) Kind() CommandKind { return KindSplitTransaction }

// CurrencyScope selects what a SetCurrency command applies to.
type CurrencyScope string

const (
	ScopeBook        CurrencyScope = "book"
	ScopeAllAccounts CurrencyScope = "all_accounts"
)

// SetCurrency changes the book default currency or rewrites every
// account's currency code.
type SetCurrency struct {
	Scope CurrencyScope
	Code  string
}

func (SetCurrency) Kind() CommandKind { return KindSetCurrency }

// ReportKind selects a read-side view.
type ReportKind string

const (
	ReportCashFlow     ReportKind = "cashflow"
	ReportBalanceSheet ReportKind = "balance_sheet"
)

// Report requests a roll-up view over an optional date range.
type Report struct {
	ReportKind ReportKind
	From       time.Time // zero = unbounded
	To         time.Time // zero = unbounded
}

func (Report) Kind() CommandKind { return KindReport }

// ListAccounts requests the full chart of accounts with balances.
type ListAccounts struct{}

func (ListAccounts) Kind() CommandKind { return KindListAccounts }

// ListTransactions requests the most recent transactions, newest first.
type ListTransactions struct {
	Limit int // 0 = default
}

func (ListTransactions) Kind() CommandKind { return KindListTransactions }

// MoveAccount reparents an account (and its subtree) under a new parent.
type MoveAccount struct {
	Path          string
	NewParentPath string
}

func (MoveAccount) Kind() CommandKind { return KindMoveAccount }

// Result is the per-command outcome handed to renderers.
type Result struct {
	OK      bool
	Message string
	Data    any
}
