package importer

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2c2e/gnucash-cli/internal/book"
	"github.com/p2c2e/gnucash-cli/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("acct-%03d", n)
	}
}

const sampleYAML = `
currency: USD
accounts:
  - name: Assets
    type: ASSET
    children:
      - name: Current Assets
        children:
          - name: Checking Account
            initial_balance: 2500
            balance_date: 2025-01-01
          - name: Savings Account
            initial_balance: 10000
  - name: Equity
    type: EQUITY
`

func TestParseAndApply(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	tree := book.NewTree()
	openings, err := Apply(doc, tree, "EUR", sequentialIDs())
	require.NoError(t, err)

	assert.Equal(t, 5, tree.Len())

	checking, err := tree.Resolve("Assets:Current Assets:Checking Account")
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeAsset, checking.Type, "type inherited from root")
	assert.Equal(t, "USD", checking.Currency, "document currency wins over default")

	require.Len(t, openings, 2)
	assert.Equal(t, checking.ID, openings[0].AccountID)
	assert.True(t, openings[0].Balance.Equal(dec("2500")))
	assert.Equal(t, 2025, openings[0].Date.Year())
	assert.True(t, openings[1].Date.IsZero(), "no balance_date means processing time")
}

func TestApplyDefaultCurrency(t *testing.T) {
	doc := &Document{Accounts: []Node{{Name: "Assets", Type: "ASSET"}}}
	tree := book.NewTree()
	_, err := Apply(doc, tree, "EUR", sequentialIDs())
	require.NoError(t, err)

	a, err := tree.Resolve("Assets")
	require.NoError(t, err)
	assert.Equal(t, "EUR", a.Currency)
}

func TestApplyRootWithoutType(t *testing.T) {
	doc := &Document{Accounts: []Node{{Name: "Stuff"}}}
	_, err := Apply(doc, book.NewTree(), "USD", sequentialIDs())
	var terr model.InvalidAccountTypeError
	require.ErrorAs(t, err, &terr)
}

func TestApplyStockParentRequiresExplicitType(t *testing.T) {
	doc := &Document{Accounts: []Node{
		{
			Name: "Brokerage", Type: "STOCK",
			Children: []Node{{Name: "AAPL", Namespace: "NASDAQ"}},
		},
	}}
	_, err := Apply(doc, book.NewTree(), "USD", sequentialIDs())
	var terr model.InvalidAccountTypeError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Reason, "STOCK")
}

func TestApplyStockLeafWithExplicitType(t *testing.T) {
	doc := &Document{Accounts: []Node{
		{
			Name: "Investments", Type: "STOCK",
			Children: []Node{{
				Name: "AAPL", Type: "STOCK",
				Namespace: "NASDAQ", InitialPrice: dec("185.50"),
			}},
		},
	}}
	tree := book.NewTree()
	_, err := Apply(doc, tree, "USD", sequentialIDs())
	require.NoError(t, err)

	aapl, err := tree.Resolve("Investments:AAPL")
	require.NoError(t, err)
	assert.Equal(t, "NASDAQ", aapl.Namespace)
	assert.True(t, aapl.InitialPrice.Equal(dec("185.50")))
}

func TestApplyBadBalanceDate(t *testing.T) {
	doc := &Document{Accounts: []Node{
		{Name: "Assets", Type: "ASSET", InitialBalance: dec("10"), BalanceDate: "01/02/2025"},
	}}
	tree := book.NewTree()
	_, err := Apply(doc, tree, "USD", sequentialIDs())
	require.Error(t, err)
	assert.Zero(t, tree.Len(), "nothing is added when validation fails")
}

// Importing the sample chart and re-exporting it reproduces the same
// hierarchy and account properties.
func TestSampleRoundTrip(t *testing.T) {
	tree := book.NewTree()
	_, err := Apply(Sample(), tree, "USD", sequentialIDs())
	require.NoError(t, err)

	exported := ExportTemplate(tree, "USD")

	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf, exported))

	reparsed, err := Parse(&buf)
	require.NoError(t, err)

	tree2 := book.NewTree()
	_, err = Apply(reparsed, tree2, "USD", sequentialIDs())
	require.NoError(t, err)

	require.Equal(t, tree.Len(), tree2.Len())
	want := tree.Accounts()
	got := tree2.Accounts()
	for i := range want {
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Type, got[i].Type)
		assert.Equal(t, want[i].Description, got[i].Description)

		wp, err := tree.PathOf(want[i].ID)
		require.NoError(t, err)
		gp, err := tree2.PathOf(got[i].ID)
		require.NoError(t, err)
		assert.Equal(t, wp, gp)
	}
}

func TestSampleOpenings(t *testing.T) {
	tree := book.NewTree()
	openings, err := Apply(Sample(), tree, "USD", sequentialIDs())
	require.NoError(t, err)

	require.Len(t, openings, 2)
	assert.True(t, openings[0].Balance.Equal(dec("2500")))
	assert.True(t, openings[1].Balance.Equal(dec("10000")))

	for _, typ := range model.AccountTypes {
		if typ == model.AccountTypeStock {
			continue
		}
		_, ok := tree.RootOfType(typ)
		assert.True(t, ok, "sample chart has a %s root", typ)
	}
}
