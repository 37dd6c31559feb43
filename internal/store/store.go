package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/p2c2e/gnucash-cli/internal/book"
	"github.com/p2c2e/gnucash-cli/internal/model"
)

const (
	treeFile    = "book.yaml"
	journalFile = "journal.csv"
	backupsDir  = "backups"
)

// PersistenceError reports a failed store operation. The in-memory
// book state it was asked to persist is untouched.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// Store persists a book as plain files in one directory: book.yaml for
// the chart of accounts and journal.csv for the append-only transaction
// log.
type Store struct {
	dir string
	log zerolog.Logger
}

// New creates a Store rooted at dir.
func New(dir string, log zerolog.Logger) *Store {
	return &Store{dir: dir, log: log}
}

// Dir returns the book directory.
func (s *Store) Dir() string { return s.dir }

// treeNode is the YAML shape of one account in book.yaml.
type treeNode struct {
	ID           string          `yaml:"id"`
	Name         string          `yaml:"name"`
	Type         string          `yaml:"type"`
	Currency     string          `yaml:"currency"`
	Description  string          `yaml:"description,omitempty"`
	Balance      decimal.Decimal `yaml:"balance"`
	Namespace    string          `yaml:"namespace,omitempty"`
	InitialPrice decimal.Decimal `yaml:"initial_price,omitempty"`
	Children     []treeNode      `yaml:"children,omitempty"`
}

// SaveTree writes the full chart of accounts to book.yaml.
func (s *Store) SaveTree(tree *book.Tree) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return PersistenceError{Op: "creating book dir", Path: s.dir, Err: err}
	}

	var encode func(a *model.Account) treeNode
	encode = func(a *model.Account) treeNode {
		n := treeNode{
			ID:           a.ID,
			Name:         a.Name,
			Type:         string(a.Type),
			Currency:     a.Currency,
			Description:  a.Description,
			Balance:      a.Balance,
			Namespace:    a.Namespace,
			InitialPrice: a.InitialPrice,
		}
		for _, c := range tree.Children(a.ID) {
			n.Children = append(n.Children, encode(c))
		}
		return n
	}

	var nodes []treeNode
	for _, root := range tree.Roots() {
		nodes = append(nodes, encode(root))
	}

	data, err := yaml.Marshal(nodes)
	if err != nil {
		return PersistenceError{Op: "marshaling tree", Path: treeFile, Err: err}
	}

	path := filepath.Join(s.dir, treeFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return PersistenceError{Op: "writing tree", Path: path, Err: err}
	}
	s.log.Debug().Int("accounts", tree.Len()).Str("path", path).Msg("saved chart of accounts")
	return nil
}

// LoadTree reads book.yaml back into a Tree.
func (s *Store) LoadTree() (*book.Tree, error) {
	path := filepath.Join(s.dir, treeFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, PersistenceError{Op: "reading tree", Path: path, Err: err}
	}

	var nodes []treeNode
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, PersistenceError{Op: "parsing tree", Path: path, Err: err}
	}

	tree := book.NewTree()
	var decode func(n treeNode, parentID string) error
	decode = func(n treeNode, parentID string) error {
		typ, err := model.ParseAccountType(n.Type)
		if err != nil {
			return fmt.Errorf("account %q: %w", n.Name, err)
		}
		a := &model.Account{
			ID:           n.ID,
			Name:         n.Name,
			Type:         typ,
			Currency:     n.Currency,
			Description:  n.Description,
			ParentID:     parentID,
			Balance:      n.Balance,
			Namespace:    n.Namespace,
			InitialPrice: n.InitialPrice,
		}
		if err := tree.Add(a); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := decode(c, n.ID); err != nil {
				return err
			}
		}
		return nil
	}
	for _, n := range nodes {
		if err := decode(n, ""); err != nil {
			return nil, PersistenceError{Op: "loading tree", Path: path, Err: err}
		}
	}
	return tree, nil
}

// AppendTransaction appends a committed transaction to journal.csv as
// one atomic write (single O_APPEND write, header created with the
// file).
func (s *Store) AppendTransaction(tx model.Transaction) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return PersistenceError{Op: "creating book dir", Path: s.dir, Err: err}
	}

	path := filepath.Join(s.dir, journalFile)
	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return PersistenceError{Op: "opening journal", Path: path, Err: err}
	}
	defer f.Close()

	if isNew {
		if err := WriteHeader(f); err != nil {
			return PersistenceError{Op: "writing journal header", Path: path, Err: err}
		}
	}
	if err := AppendRows(f, MarshalTransaction(tx)); err != nil {
		return PersistenceError{Op: "appending transaction", Path: path, Err: err}
	}
	s.log.Debug().Str("entry_id", tx.ID).Int("splits", len(tx.Splits)).Msg("appended transaction")
	return nil
}

// TxFilter narrows ListTransactions results. Zero bounds are
// unbounded; Limit 0 means no limit.
type TxFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// ListTransactions reads all committed transactions, oldest first,
// applying the filter. With a limit, the newest matching transactions
// are returned.
func (s *Store) ListTransactions(filter TxFilter) ([]model.Transaction, error) {
	path := filepath.Join(s.dir, journalFile)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, PersistenceError{Op: "opening journal", Path: path, Err: err}
	}
	defer f.Close()

	txs, err := ReadTransactions(f)
	if err != nil {
		return nil, PersistenceError{Op: "reading journal", Path: path, Err: err}
	}

	var out []model.Transaction
	for _, tx := range txs {
		if !filter.From.IsZero() && tx.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && tx.Date.After(filter.To) {
			continue
		}
		out = append(out, tx)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out, nil
}

// EntryIDs returns the ids of all committed transactions.
func (s *Store) EntryIDs() ([]string, error) {
	txs, err := s.ListTransactions(TxFilter{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	return ids, nil
}
