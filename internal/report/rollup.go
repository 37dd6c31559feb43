package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/p2c2e/gnucash-cli/internal/book"
	"github.com/p2c2e/gnucash-cli/internal/model"
)

// Rollup holds bottom-up aggregated balances for every account over an
// optional date range. Balances are raw signed sums; views convert to
// natural signs per account type.
type Rollup struct {
	tree *book.Tree
	raw  map[string]decimal.Decimal
	from time.Time
	to   time.Time
}

// Compute aggregates committed transactions into per-account balances:
// each account's own signed split sum plus its children's rolled-up
// balances, post-order. Zero from/to bounds mean unbounded.
func Compute(tree *book.Tree, txs []model.Transaction, from, to time.Time) *Rollup {
	own := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if !from.IsZero() && tx.Date.Before(from) {
			continue
		}
		if !to.IsZero() && tx.Date.After(to) {
			continue
		}
		for _, s := range tx.Splits {
			own[s.AccountID] = own[s.AccountID].Add(s.Amount)
		}
	}

	r := &Rollup{tree: tree, raw: make(map[string]decimal.Decimal, tree.Len()), from: from, to: to}
	var visit func(a *model.Account) decimal.Decimal
	visit = func(a *model.Account) decimal.Decimal {
		sum := own[a.ID]
		for _, c := range tree.Children(a.ID) {
			sum = sum.Add(visit(c))
		}
		r.raw[a.ID] = sum
		return sum
	}
	for _, root := range tree.Roots() {
		visit(root)
	}
	return r
}

// Raw returns the rolled-up signed balance for an account id.
func (r *Rollup) Raw(id string) decimal.Decimal {
	return r.raw[id]
}

// Natural returns the rolled-up balance in the account type's natural
// sign convention.
func (r *Rollup) Natural(a *model.Account) decimal.Decimal {
	return a.Type.Natural(r.raw[a.ID])
}

// Line is one category row in a report view.
type Line struct {
	Name   string
	Path   string
	Amount decimal.Decimal
}

// CashFlowView partitions income and expense roll-ups into incoming
// and outflow buckets, broken down by immediate child category.
type CashFlowView struct {
	From          time.Time
	To            time.Time
	Incoming      []Line
	Outflow       []Line
	TotalIncoming decimal.Decimal
	TotalOutflow  decimal.Decimal
	Net           decimal.Decimal
}

// CashFlow builds the cash-flow view. Net = incoming - outflow.
func (r *Rollup) CashFlow() CashFlowView {
	v := CashFlowView{From: r.from, To: r.to}
	for _, root := range r.tree.Roots() {
		switch root.Type {
		case model.AccountTypeIncome:
			v.Incoming = append(v.Incoming, r.childLines(root)...)
			v.TotalIncoming = v.TotalIncoming.Add(r.Natural(root))
		case model.AccountTypeExpense:
			v.Outflow = append(v.Outflow, r.childLines(root)...)
			v.TotalOutflow = v.TotalOutflow.Add(r.Natural(root))
		}
	}
	v.Net = v.TotalIncoming.Sub(v.TotalOutflow)
	return v
}

// BalanceSheetView groups top-level asset, liability and equity
// balances and carries the accounting-identity check result.
type BalanceSheetView struct {
	Assets           []Line
	Liabilities      []Line
	Equity           []Line
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal
	NetWorth         decimal.Decimal
	Residual         decimal.Decimal
	Warning          string
}

// BalanceSheet builds the balance-sheet view and checks
// Assets == Liabilities + Equity. A residual beyond model.Epsilon is
// surfaced as a warning, never corrected.
func (r *Rollup) BalanceSheet() BalanceSheetView {
	var v BalanceSheetView
	for _, root := range r.tree.Roots() {
		line := r.rootLine(root)
		switch root.Type {
		case model.AccountTypeAsset, model.AccountTypeStock:
			v.Assets = append(v.Assets, line)
			v.TotalAssets = v.TotalAssets.Add(line.Amount)
		case model.AccountTypeLiability:
			v.Liabilities = append(v.Liabilities, line)
			v.TotalLiabilities = v.TotalLiabilities.Add(line.Amount)
		case model.AccountTypeEquity:
			v.Equity = append(v.Equity, line)
			v.TotalEquity = v.TotalEquity.Add(line.Amount)
		}
	}
	v.NetWorth = v.TotalAssets.Sub(v.TotalLiabilities)
	v.Residual = v.TotalAssets.Sub(v.TotalLiabilities.Add(v.TotalEquity))
	if v.Residual.Abs().GreaterThan(model.Epsilon) {
		v.Warning = "accounting identity violated: assets != liabilities + equity (residual " + v.Residual.String() + ")"
	}
	return v
}

func (r *Rollup) rootLine(a *model.Account) Line {
	path, _ := r.tree.PathOf(a.ID)
	return Line{Name: a.Name, Path: path, Amount: r.Natural(a)}
}

func (r *Rollup) childLines(root *model.Account) []Line {
	var lines []Line
	for _, c := range r.tree.Children(root.ID) {
		lines = append(lines, r.rootLine(c))
	}
	return lines
}
