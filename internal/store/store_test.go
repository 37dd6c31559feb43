package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2c2e/gnucash-cli/internal/book"
	"github.com/p2c2e/gnucash-cli/internal/logger"
	"github.com/p2c2e/gnucash-cli/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), logger.Nop())
}

func testTree(t *testing.T) (*book.Tree, map[string]string) {
	t.Helper()
	tree := book.NewTree()
	ids := make(map[string]string)
	add := func(name string, typ model.AccountType, parent string) {
		a := &model.Account{ID: uuid.NewString(), Name: name, Type: typ, Currency: "USD", ParentID: ids[parent]}
		require.NoError(t, tree.Add(a))
		ids[name] = a.ID
	}
	add("Assets", model.AccountTypeAsset, "")
	add("Checking", model.AccountTypeAsset, "Assets")
	add("Equity", model.AccountTypeEquity, "")
	return tree, ids
}

func TestTreeRoundTrip(t *testing.T) {
	s := newStore(t)
	tree, ids := testTree(t)

	checking, _ := tree.Get(ids["Checking"])
	checking.Balance = dec("2500")
	checking.Description = "Main checking"

	require.NoError(t, s.SaveTree(tree))

	got, err := s.LoadTree()
	require.NoError(t, err)
	assert.Equal(t, tree.Len(), got.Len())

	a, err := got.Resolve("Assets:Checking")
	require.NoError(t, err)
	assert.Equal(t, ids["Checking"], a.ID)
	assert.True(t, a.Balance.Equal(dec("2500")))
	assert.Equal(t, "Main checking", a.Description)
	assert.Equal(t, model.AccountTypeAsset, a.Type)
}

func TestLoadTreeMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.LoadTree()
	var perr PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func sampleTx(id string, date time.Time, amount string) model.Transaction {
	return model.Transaction{
		ID:          id,
		Date:        date,
		Description: "test " + id,
		Splits: []model.Split{
			{AccountID: "acct-a", Amount: dec(amount).Neg(), Currency: "USD"},
			{AccountID: "acct-b", Amount: dec(amount), Currency: "USD"},
		},
	}
}

func TestAppendAndListTransactions(t *testing.T) {
	s := newStore(t)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendTransaction(sampleTx("2025-06-001", day, "100")))
	require.NoError(t, s.AppendTransaction(sampleTx("2025-06-002", day.AddDate(0, 0, 1), "200")))

	txs, err := s.ListTransactions(TxFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "2025-06-001", txs[0].ID)
	assert.Len(t, txs[0].Splits, 2)
	assert.True(t, txs[0].Splits[1].Amount.Equal(dec("100")))
	assert.Equal(t, "test 2025-06-001", txs[0].Description)
	assert.True(t, txs[0].Total().IsZero())
}

func TestListTransactionsFilter(t *testing.T) {
	s := newStore(t)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		entryID := fmt.Sprintf("2025-06-%03d", i)
		require.NoError(t, s.AppendTransaction(sampleTx(entryID, day.AddDate(0, 0, i), "10")))
	}

	txs, err := s.ListTransactions(TxFilter{From: day.AddDate(0, 0, 3)})
	require.NoError(t, err)
	assert.Len(t, txs, 3)

	txs, err = s.ListTransactions(TxFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	// Limit keeps the newest entries.
	assert.Equal(t, day.AddDate(0, 0, 5), txs[1].Date)
}

func TestListTransactionsEmpty(t *testing.T) {
	s := newStore(t)
	txs, err := s.ListTransactions(TxFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestEntryIDs(t *testing.T) {
	s := newStore(t)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendTransaction(sampleTx("2025-06-001", day, "50")))

	ids, err := s.EntryIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-001"}, ids)
}

func TestBackupAndPurge(t *testing.T) {
	s := newStore(t)
	tree, _ := testTree(t)
	require.NoError(t, s.SaveTree(tree))
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendTransaction(sampleTx("2025-06-001", day, "100")))

	old := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

	oldDir, err := s.Backup(old)
	require.NoError(t, err)
	_, err = s.Backup(recent)
	require.NoError(t, err)

	// Backed-up files are real copies.
	_, err = os.Stat(filepath.Join(oldDir, "book.yaml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(oldDir, "journal.csv"))
	require.NoError(t, err)

	deleted, err := s.PurgeBackups(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, old.Format("20060102150405"), deleted[0])

	_, err = os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err))
}
