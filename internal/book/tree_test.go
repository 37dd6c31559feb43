package book

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

func addAccount(t *testing.T, tree *Tree, name string, typ model.AccountType, parentID string) *model.Account {
	t.Helper()
	a := &model.Account{
		ID:       uuid.NewString(),
		Name:     name,
		Type:     typ,
		Currency: "USD",
		ParentID: parentID,
	}
	require.NoError(t, tree.Add(a))
	return a
}

// sampleTree builds the SampleAccounts-style hierarchy used across the
// package tests.
func sampleTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree()
	assets := addAccount(t, tree, "Assets", model.AccountTypeAsset, "")
	current := addAccount(t, tree, "Current Assets", model.AccountTypeAsset, assets.ID)
	addAccount(t, tree, "Checking Account", model.AccountTypeAsset, current.ID)
	addAccount(t, tree, "Savings Account", model.AccountTypeAsset, current.ID)

	liabilities := addAccount(t, tree, "Liabilities", model.AccountTypeLiability, "")
	addAccount(t, tree, "Credit Card", model.AccountTypeLiability, liabilities.ID)

	income := addAccount(t, tree, "Income", model.AccountTypeIncome, "")
	addAccount(t, tree, "Salary", model.AccountTypeIncome, income.ID)

	expenses := addAccount(t, tree, "Expenses", model.AccountTypeExpense, "")
	addAccount(t, tree, "Groceries", model.AccountTypeExpense, expenses.ID)
	addAccount(t, tree, "Gas", model.AccountTypeExpense, expenses.ID)
	addAccount(t, tree, "Insurance", model.AccountTypeExpense, expenses.ID)

	addAccount(t, tree, "Equity", model.AccountTypeEquity, "")
	return tree
}

func TestAddAndPathOf(t *testing.T) {
	tree := sampleTree(t)

	checking, err := tree.Resolve("Assets:Current Assets:Checking Account")
	require.NoError(t, err)

	path, err := tree.PathOf(checking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Assets:Current Assets:Checking Account", path)
}

func TestAddRejectsDuplicateSiblingName(t *testing.T) {
	tree := NewTree()
	assets := addAccount(t, tree, "Assets", model.AccountTypeAsset, "")
	addAccount(t, tree, "Checking", model.AccountTypeAsset, assets.ID)

	err := tree.Add(&model.Account{
		ID:       uuid.NewString(),
		Name:     "checking", // differs only by case
		Type:     model.AccountTypeAsset,
		Currency: "USD",
		ParentID: assets.ID,
	})
	assert.Error(t, err)
}

func TestAddRejectsUnknownParent(t *testing.T) {
	tree := NewTree()
	err := tree.Add(&model.Account{
		ID:       uuid.NewString(),
		Name:     "Orphan",
		Type:     model.AccountTypeAsset,
		Currency: "USD",
		ParentID: "no-such-parent",
	})
	assert.Error(t, err)
}

func TestAddRejectsInvalidType(t *testing.T) {
	tree := NewTree()
	err := tree.Add(&model.Account{
		ID:       uuid.NewString(),
		Name:     "Weird",
		Type:     model.AccountType("BANKISH"),
		Currency: "USD",
	})
	var typeErr model.InvalidAccountTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestMove(t *testing.T) {
	tree := sampleTree(t)
	gas, err := tree.Resolve("Expenses:Gas")
	require.NoError(t, err)
	assets, err := tree.Resolve("Assets")
	require.NoError(t, err)

	require.NoError(t, tree.Move(gas.ID, assets.ID))

	path, err := tree.PathOf(gas.ID)
	require.NoError(t, err)
	assert.Equal(t, "Assets:Gas", path)

	expenses, err := tree.Resolve("Expenses")
	require.NoError(t, err)
	for _, c := range tree.Children(expenses.ID) {
		assert.NotEqual(t, "Gas", c.Name)
	}
}

func TestMoveRejectsCycle(t *testing.T) {
	tree := sampleTree(t)
	assets, err := tree.Resolve("Assets")
	require.NoError(t, err)
	checking, err := tree.Resolve("Checking Account")
	require.NoError(t, err)

	err = tree.Move(assets.ID, checking.ID)
	assert.Error(t, err)
}

func TestWalkOrder(t *testing.T) {
	tree := sampleTree(t)

	var names []string
	tree.Walk(func(a *model.Account) { names = append(names, a.Name) })

	require.NotEmpty(t, names)
	assert.Equal(t, "Assets", names[0])
	assert.Equal(t, "Current Assets", names[1])
	assert.Equal(t, "Checking Account", names[2])
	assert.Len(t, names, tree.Len())
}

func TestSetCurrencyAll(t *testing.T) {
	tree := sampleTree(t)
	tree.SetCurrencyAll("EUR")
	for _, a := range tree.Accounts() {
		assert.Equal(t, "EUR", a.Currency)
	}
}
