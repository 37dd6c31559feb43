package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one interpreted command in the audit log: what the user
// typed, what it was interpreted as, and how it ended.
type Entry struct {
	Timestamp time.Time
	Input     string
	Command   string
	EntryID   string
	Outcome   string
}

// Header is the CSV header for audit.csv.
const Header = "timestamp,input,command,entry_id,outcome"

const (
	numFields    = 5
	auditFile    = "audit.csv"
	colTimestamp = 0
	colInput     = 1
	colCommand   = 2
	colEntryID   = 3
	colOutcome   = 4
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colInput] = e.Input
	row[colCommand] = e.Command
	row[colEntryID] = e.EntryID
	row[colOutcome] = e.Outcome
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp: ts,
		Input:     record[colInput],
		Command:   record[colCommand],
		EntryID:   record[colEntryID],
		Outcome:   record[colOutcome],
	}, nil
}

// Append writes entries to <bookDir>/audit.csv, creating the file and
// header if needed.
func Append(bookDir string, entries []Entry) error {
	if err := os.MkdirAll(bookDir, 0o755); err != nil {
		return fmt.Errorf("creating book dir: %w", err)
	}

	path := filepath.Join(bookDir, auditFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <bookDir>/audit.csv. Returns an empty
// slice if the file does not exist.
func Read(bookDir string) ([]Entry, error) {
	path := filepath.Join(bookDir, auditFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
