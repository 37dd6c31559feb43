package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

func TestResolveFullPath(t *testing.T) {
	tree := sampleTree(t)

	a, err := tree.Resolve("Assets:Current Assets:Checking Account")
	require.NoError(t, err)
	assert.Equal(t, "Checking Account", a.Name)
}

func TestResolveFullPathCaseInsensitive(t *testing.T) {
	tree := sampleTree(t)

	a, err := tree.Resolve("assets:current assets:checking account")
	require.NoError(t, err)
	assert.Equal(t, "Checking Account", a.Name)
}

func TestResolveUniqueSuffix(t *testing.T) {
	tree := sampleTree(t)

	a, err := tree.Resolve("Checking Account")
	require.NoError(t, err)
	assert.Equal(t, "Checking Account", a.Name)

	a, err = tree.Resolve("Current Assets:Savings Account")
	require.NoError(t, err)
	assert.Equal(t, "Savings Account", a.Name)
}

func TestResolveNotFound(t *testing.T) {
	tree := sampleTree(t)

	_, err := tree.Resolve("Yacht Fund")
	var notFound NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Yacht Fund", notFound.Reference)
}

func TestResolveAmbiguousListsCandidates(t *testing.T) {
	tree := sampleTree(t)

	// A second "Insurance" under a different parent.
	liabilities, err := tree.Resolve("Liabilities")
	require.NoError(t, err)
	addAccount(t, tree, "Insurance", model.AccountTypeLiability, liabilities.ID)

	_, err = tree.Resolve("Insurance")
	var ambiguous AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.ElementsMatch(t,
		[]string{"Expenses:Insurance", "Liabilities:Insurance"},
		ambiguous.Candidates)
}

// A full path must stay unique even when a leaf elsewhere shares the
// same leaf name.
func TestResolveFullPathBeatsSharedLeafName(t *testing.T) {
	tree := sampleTree(t)

	current, err := tree.Resolve("Current Assets")
	require.NoError(t, err)
	addAccount(t, tree, "Insurance", model.AccountTypeAsset, current.ID)

	a, err := tree.Resolve("Assets:Current Assets:Insurance")
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeAsset, a.Type)

	a, err = tree.Resolve("Expenses:Insurance")
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeExpense, a.Type)
}

// An exact full-path match wins outright, even when a suffix elsewhere
// would also match.
func TestResolveExactFullPathBeatsSuffix(t *testing.T) {
	tree := sampleTree(t)

	expenses, err := tree.Resolve("Expenses")
	require.NoError(t, err)
	addAccount(t, tree, "Equity", model.AccountTypeExpense, expenses.ID)

	a, err := tree.Resolve("Equity")
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeEquity, a.Type)
	assert.Empty(t, a.ParentID)
}

func TestResolveEmptyReference(t *testing.T) {
	tree := sampleTree(t)
	_, err := tree.Resolve("   ")
	var notFound NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
