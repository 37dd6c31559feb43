package book

import (
	"fmt"
	"sort"
	"strings"

	"github.com/p2c2e/gnucash-cli/internal/model"
)

// NotFoundError reports a reference that matched no account.
type NotFoundError struct {
	Reference string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("account %q not found", e.Reference)
}

// AmbiguousError reports a reference that matched more than one
// account. Candidates carries the full paths so the caller can show
// the user what to disambiguate between.
type AmbiguousError struct {
	Reference  string
	Candidates []string
}

func (e AmbiguousError) Error() string {
	return fmt.Sprintf("account %q is ambiguous: %s", e.Reference, strings.Join(e.Candidates, ", "))
}

// Resolve maps a text reference (full or partial colon-delimited path)
// to exactly one account, in order:
//
//  1. exact full-path match (case-sensitive)
//  2. case-insensitive full-path match, if unique
//  3. case-insensitive trailing-segment match ("Checking" matches
//     "Assets:Checking"), if unique
//
// Ambiguity is never resolved by guessing.
func (t *Tree) Resolve(reference string) (*model.Account, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return nil, NotFoundError{Reference: reference}
	}
	refSegs := strings.Split(ref, model.PathSeparator)
	for i := range refSegs {
		refSegs[i] = strings.TrimSpace(refSegs[i])
	}

	var ciMatches []*model.Account
	var suffixMatches []*model.Account
	for _, a := range t.Accounts() {
		segs, err := t.Segments(a.ID)
		if err != nil {
			return nil, err
		}
		if len(segs) == len(refSegs) {
			if equalSegments(segs, refSegs, false) {
				return a, nil // tier 1: exact
			}
			if equalSegments(segs, refSegs, true) {
				ciMatches = append(ciMatches, a)
			}
		}
		if len(segs) > len(refSegs) && equalSegments(segs[len(segs)-len(refSegs):], refSegs, true) {
			suffixMatches = append(suffixMatches, a)
		}
	}

	if len(ciMatches) == 1 {
		return ciMatches[0], nil
	}
	candidates := append(ciMatches, suffixMatches...)
	switch len(candidates) {
	case 0:
		return nil, NotFoundError{Reference: reference}
	case 1:
		return candidates[0], nil
	default:
		paths := make([]string, len(candidates))
		for i, a := range candidates {
			paths[i], _ = t.PathOf(a.ID)
		}
		sort.Strings(paths)
		return nil, AmbiguousError{Reference: reference, Candidates: paths}
	}
}

func equalSegments(a, b []string, fold bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if fold {
			if !strings.EqualFold(a[i], b[i]) {
				return false
			}
		} else if a[i] != b[i] {
			return false
		}
	}
	return true
}
