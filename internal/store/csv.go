package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

// Header is the CSV header for journal.csv. One row per split; splits
// of one transaction share an entry_id.
const Header = "entry_id,date,description,account_id,amount,currency,memo"

const (
	numFields   = 7
	dateFormat  = "2006-01-02"
	colEntryID  = 0
	colDate     = 1
	colDesc     = 2
	colAcctID   = 3
	colAmount   = 4
	colCurrency = 5
	colMemo     = 6
)

// MarshalTransaction converts a transaction to CSV rows, one per split.
func MarshalTransaction(tx model.Transaction) [][]string {
	rows := make([][]string, 0, len(tx.Splits))
	for _, s := range tx.Splits {
		row := make([]string, numFields)
		row[colEntryID] = tx.ID
		row[colDate] = tx.Date.Format(dateFormat)
		row[colDesc] = tx.Description
		row[colAcctID] = s.AccountID
		row[colAmount] = s.Amount.String()
		row[colCurrency] = s.Currency
		row[colMemo] = s.Memo
		rows = append(rows, row)
	}
	return rows
}

// ReadTransactions reads a journal.csv stream, grouping split rows back
// into transactions in file order.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var txs []model.Transaction
	index := make(map[string]int)
	for i, rec := range records[1:] {
		entryID := rec[colEntryID]

		date, err := time.Parse(dateFormat, rec[colDate])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[colDate], err)
		}
		amount, err := decimal.NewFromString(rec[colAmount])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[colAmount], err)
		}

		split := model.Split{
			AccountID: rec[colAcctID],
			Amount:    amount,
			Currency:  rec[colCurrency],
			Memo:      rec[colMemo],
		}

		if pos, seen := index[entryID]; seen {
			txs[pos].Splits = append(txs[pos].Splits, split)
			continue
		}
		index[entryID] = len(txs)
		txs = append(txs, model.Transaction{
			ID:          entryID,
			Date:        date,
			Description: rec[colDesc],
			Splits:      []model.Split{split},
		})
	}
	return txs, nil
}

// AppendRows appends pre-marshaled rows to a journal writer (no header).
func AppendRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// WriteHeader writes the journal.csv header line.
func WriteHeader(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return cw.Error()
}
