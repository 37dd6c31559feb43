package book

import (
	"fmt"
	"strings"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

// Tree is the chart of accounts: an ownership arena keyed by stable
// account ids. Parents reference children by ordered id lists, so the
// structure cannot form pointer cycles and roll-up stays a simple
// recursion.
type Tree struct {
	accounts map[string]*model.Account
	rootIDs  []string
}

// NewTree returns an empty chart of accounts.
func NewTree() *Tree {
	return &Tree{accounts: make(map[string]*model.Account)}
}

// Add inserts an account. The parent (if any) must already exist, the
// type must be valid, and no sibling may share the name
// (case-insensitive).
func (t *Tree) Add(acct *model.Account) error {
	if acct.ID == "" {
		return fmt.Errorf("account %q has no id", acct.Name)
	}
	if acct.Name == "" {
		return fmt.Errorf("account %s has no name", acct.ID)
	}
	if strings.Contains(acct.Name, model.PathSeparator) {
		return fmt.Errorf("account name %q contains %q", acct.Name, model.PathSeparator)
	}
	if _, err := model.ParseAccountType(string(acct.Type)); err != nil {
		return err
	}
	if _, exists := t.accounts[acct.ID]; exists {
		return fmt.Errorf("duplicate account id %s", acct.ID)
	}

	siblings := t.rootIDs
	if acct.ParentID != "" {
		parent, ok := t.accounts[acct.ParentID]
		if !ok {
			return fmt.Errorf("parent account %s not found", acct.ParentID)
		}
		siblings = parent.ChildIDs
	}
	for _, sid := range siblings {
		if strings.EqualFold(t.accounts[sid].Name, acct.Name) {
			return fmt.Errorf("account name %q already used by a sibling", acct.Name)
		}
	}

	acct.ChildIDs = nil
	t.accounts[acct.ID] = acct
	if acct.ParentID == "" {
		t.rootIDs = append(t.rootIDs, acct.ID)
	} else {
		parent := t.accounts[acct.ParentID]
		parent.ChildIDs = append(parent.ChildIDs, acct.ID)
	}
	return nil
}

// Get returns an account by id.
func (t *Tree) Get(id string) (*model.Account, bool) {
	a, ok := t.accounts[id]
	return a, ok
}

// Roots returns the top-level accounts in insertion order.
func (t *Tree) Roots() []*model.Account {
	out := make([]*model.Account, 0, len(t.rootIDs))
	for _, id := range t.rootIDs {
		out = append(out, t.accounts[id])
	}
	return out
}

// RootOfType returns the first top-level account of the given type.
func (t *Tree) RootOfType(typ model.AccountType) (*model.Account, bool) {
	for _, id := range t.rootIDs {
		if t.accounts[id].Type == typ {
			return t.accounts[id], true
		}
	}
	return nil, false
}

// Children returns an account's children in order.
func (t *Tree) Children(id string) []*model.Account {
	a, ok := t.accounts[id]
	if !ok {
		return nil
	}
	out := make([]*model.Account, 0, len(a.ChildIDs))
	for _, cid := range a.ChildIDs {
		out = append(out, t.accounts[cid])
	}
	return out
}

// Len returns the number of accounts in the tree.
func (t *Tree) Len() int {
	return len(t.accounts)
}

// Segments returns the name segments from the top-level ancestor down
// to the account.
func (t *Tree) Segments(id string) ([]string, error) {
	var segs []string
	for cur := id; cur != ""; {
		a, ok := t.accounts[cur]
		if !ok {
			return nil, fmt.Errorf("account %s not found", cur)
		}
		segs = append(segs, a.Name)
		cur = a.ParentID
	}
	// Reverse: collected leaf-first.
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs, nil
}

// PathOf returns the full colon-delimited path of an account, computed
// on demand by walking ownership up to the top level.
func (t *Tree) PathOf(id string) (string, error) {
	segs, err := t.Segments(id)
	if err != nil {
		return "", err
	}
	return strings.Join(segs, model.PathSeparator), nil
}

// Walk visits every account depth-first in child order, top-level
// accounts first.
func (t *Tree) Walk(fn func(a *model.Account)) {
	var visit func(id string)
	visit = func(id string) {
		a := t.accounts[id]
		fn(a)
		for _, cid := range a.ChildIDs {
			visit(cid)
		}
	}
	for _, id := range t.rootIDs {
		visit(id)
	}
}

// Accounts returns all accounts in depth-first order.
func (t *Tree) Accounts() []*model.Account {
	out := make([]*model.Account, 0, len(t.accounts))
	t.Walk(func(a *model.Account) { out = append(out, a) })
	return out
}

// isDescendant reports whether candidate is id itself or inside its
// subtree.
func (t *Tree) isDescendant(id, candidate string) bool {
	if id == candidate {
		return true
	}
	a, ok := t.accounts[id]
	if !ok {
		return false
	}
	for _, cid := range a.ChildIDs {
		if t.isDescendant(cid, candidate) {
			return true
		}
	}
	return false
}

// Move reparents an account under a new parent. The new parent must
// not be inside the moved subtree, and the account's name must stay
// unique among its new siblings.
func (t *Tree) Move(id, newParentID string) error {
	a, ok := t.accounts[id]
	if !ok {
		return fmt.Errorf("account %s not found", id)
	}
	parent, ok := t.accounts[newParentID]
	if !ok {
		return fmt.Errorf("parent account %s not found", newParentID)
	}
	if t.isDescendant(id, newParentID) {
		return fmt.Errorf("cannot move %q under its own subtree", a.Name)
	}
	for _, sid := range parent.ChildIDs {
		if strings.EqualFold(t.accounts[sid].Name, a.Name) {
			return fmt.Errorf("account name %q already used by a sibling", a.Name)
		}
	}

	// Detach from the old parent (or the top level).
	if a.ParentID == "" {
		t.rootIDs = removeID(t.rootIDs, id)
	} else {
		old := t.accounts[a.ParentID]
		old.ChildIDs = removeID(old.ChildIDs, id)
	}

	a.ParentID = newParentID
	parent.ChildIDs = append(parent.ChildIDs, id)
	return nil
}

// SetCurrencyAll rewrites every account's currency code.
func (t *Tree) SetCurrencyAll(code string) {
	t.Walk(func(a *model.Account) { a.Currency = code })
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
