package oracle

import (
	"context"

	"github.com/vanallenlab/almanac/internal/category"
)

// attributeKey is the memo key category for attribute-name lookups.
// It cannot collide with a real category value.
const attributeKey = category.Category(-1)

type memoKey struct {
	cat  category.Category
	text string
}

// Memo remembers answers for the lifetime of one interpretation. It is not
// safe for concurrent use; create one per call. Keys are case-folded the
// way the inner oracle folds. Errors are not remembered.
type Memo struct {
	inner Oracle
	fold  Folding
	seen  map[memoKey]bool
}

// NewMemo wraps inner with a fresh, empty memo.
func NewMemo(inner Oracle) *Memo {
	return &Memo{
		inner: inner,
		fold:  FoldingOf(inner),
		seen:  make(map[memoKey]bool),
	}
}

// Exists implements Oracle.
func (m *Memo) Exists(ctx context.Context, c category.Category, candidate string) (bool, error) {
	return m.lookup(memoKey{cat: c, text: m.fold.Key(candidate)}, func() (bool, error) {
		return m.inner.Exists(ctx, c, candidate)
	})
}

// ExistsAttributeName implements Oracle.
func (m *Memo) ExistsAttributeName(ctx context.Context, candidate string) (bool, error) {
	return m.lookup(memoKey{cat: attributeKey, text: m.fold.Key(candidate)}, func() (bool, error) {
		return m.inner.ExistsAttributeName(ctx, candidate)
	})
}

func (m *Memo) lookup(key memoKey, fetch func() (bool, error)) (bool, error) {
	if ok, hit := m.seen[key]; hit {
		return ok, nil
	}
	ok, err := fetch()
	if err != nil {
		return false, err
	}
	m.seen[key] = ok
	return ok, nil
}

// Folding implements Folder.
func (m *Memo) Folding() Folding {
	return m.fold
}

// Len returns how many distinct answers the memo holds.
func (m *Memo) Len() int {
	return len(m.seen)
}
