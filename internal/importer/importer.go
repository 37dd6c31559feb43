package importer

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/p2c2e/gnucash-cli/internal/book"
	"github.com/p2c2e/gnucash-cli/internal/model"
)

// Document is the declarative bulk-import format: a recursive account
// hierarchy. Node types are inherited from the parent when absent;
// root-level nodes must declare one of the top-level types.
type Document struct {
	Currency string `yaml:"currency,omitempty"`
	Accounts []Node `yaml:"accounts"`
}

// Node is one account in the import hierarchy.
type Node struct {
	Name           string          `yaml:"name"`
	Type           string          `yaml:"type,omitempty"`
	Description    string          `yaml:"description,omitempty"`
	InitialBalance decimal.Decimal `yaml:"initial_balance,omitempty"`
	BalanceDate    string          `yaml:"balance_date,omitempty"`
	Namespace      string          `yaml:"namespace,omitempty"`
	InitialPrice   decimal.Decimal `yaml:"initial_price,omitempty"`
	Children       []Node          `yaml:"children,omitempty"`
}

// Opening is one opening balance to post after the hierarchy is built.
type Opening struct {
	AccountID string
	Balance   decimal.Decimal
	Date      time.Time
}

const dateLayout = "2006-01-02"

// Parse reads an import document from r.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading import document: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing import document: %w", err)
	}
	return &doc, nil
}

// ParseFile reads an import document from a file.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import document: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Apply builds the document's hierarchy into the tree and returns the
// opening balances to post. The whole document is validated before any
// account is added. newID supplies fresh account ids.
func Apply(doc *Document, tree *book.Tree, defaultCurrency string, newID func() string) ([]Opening, error) {
	currency := doc.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	for i := range doc.Accounts {
		if err := check(doc.Accounts[i], "", true); err != nil {
			return nil, err
		}
	}

	var openings []Opening
	var add func(n Node, parentID string, parentType model.AccountType) error
	add = func(n Node, parentID string, parentType model.AccountType) error {
		typ := parentType
		if n.Type != "" {
			t, err := model.ParseAccountType(n.Type)
			if err != nil {
				return err
			}
			typ = t
		}

		a := &model.Account{
			ID:           newID(),
			Name:         n.Name,
			Type:         typ,
			Currency:     currency,
			Description:  n.Description,
			ParentID:     parentID,
			Namespace:    n.Namespace,
			InitialPrice: n.InitialPrice,
		}
		if err := tree.Add(a); err != nil {
			return err
		}

		if !n.InitialBalance.IsZero() {
			date := time.Time{}
			if n.BalanceDate != "" {
				date, _ = time.Parse(dateLayout, n.BalanceDate)
			}
			openings = append(openings, Opening{AccountID: a.ID, Balance: n.InitialBalance, Date: date})
		}

		for _, c := range n.Children {
			if err := add(c, a.ID, typ); err != nil {
				return err
			}
		}
		return nil
	}

	for _, n := range doc.Accounts {
		if err := add(n, "", ""); err != nil {
			return nil, err
		}
	}
	return openings, nil
}

// check validates one node and its subtree without touching the tree.
// Root nodes must carry an explicit type; children under a STOCK parent
// must re-declare theirs.
func check(n Node, parentType string, isRoot bool) error {
	if n.Name == "" {
		return fmt.Errorf("import node has no name")
	}

	typ := parentType
	if n.Type != "" {
		t, err := model.ParseAccountType(n.Type)
		if err != nil {
			return err
		}
		typ = string(t)
	} else {
		if isRoot {
			return model.InvalidAccountTypeError{Type: "", Reason: fmt.Sprintf("root node %q must declare a type", n.Name)}
		}
		if parentType == string(model.AccountTypeStock) {
			return model.InvalidAccountTypeError{Type: "", Reason: fmt.Sprintf("node %q under a STOCK parent must declare a type", n.Name)}
		}
	}

	if n.BalanceDate != "" {
		if _, err := time.Parse(dateLayout, n.BalanceDate); err != nil {
			return fmt.Errorf("node %q: parsing balance_date %q: %w", n.Name, n.BalanceDate, err)
		}
	}

	for _, c := range n.Children {
		if err := check(c, typ, false); err != nil {
			return err
		}
	}
	return nil
}

// ExportTemplate renders the tree back into an importable document:
// structure and account properties, without balances or history.
func ExportTemplate(tree *book.Tree, currency string) *Document {
	var encode func(a *model.Account) Node
	encode = func(a *model.Account) Node {
		n := Node{
			Name:         a.Name,
			Type:         string(a.Type),
			Description:  a.Description,
			Namespace:    a.Namespace,
			InitialPrice: a.InitialPrice,
		}
		for _, c := range tree.Children(a.ID) {
			n.Children = append(n.Children, encode(c))
		}
		return n
	}

	doc := &Document{Currency: currency}
	for _, root := range tree.Roots() {
		doc.Accounts = append(doc.Accounts, encode(root))
	}
	return doc
}

// WriteTemplate writes an export document as YAML.
func WriteTemplate(w io.Writer, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling template: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing template: %w", err)
	}
	return nil
}

// Sample returns the starter chart of accounts seeded by init: the
// five top-level types with common child accounts and two funded
// asset accounts.
func Sample() *Document {
	return &Document{
		Accounts: []Node{
			{
				Name: "Assets", Type: "ASSET", Description: "Asset accounts",
				Children: []Node{
					{
						Name: "Current Assets",
						Children: []Node{
							{Name: "Checking Account", InitialBalance: decimal.NewFromInt(2500)},
							{Name: "Savings Account", InitialBalance: decimal.NewFromInt(10000)},
						},
					},
				},
			},
			{
				Name: "Liabilities", Type: "LIABILITY", Description: "Liability accounts",
				Children: []Node{
					{Name: "Credit Card"},
				},
			},
			{
				Name: "Income", Type: "INCOME", Description: "Income accounts",
				Children: []Node{
					{Name: "Salary"},
				},
			},
			{
				Name: "Expenses", Type: "EXPENSE", Description: "Expense accounts",
				Children: []Node{
					{Name: "Groceries"},
					{Name: "Utilities"},
				},
			},
			{Name: "Equity", Type: "EQUITY", Description: "Equity accounts"},
		},
	}
}
