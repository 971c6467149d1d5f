package oracle

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/vanallenlab/almanac/internal/category"
)

// Shared coalesces identical lookups that are in flight at the same time,
// typically from concurrent search requests hitting the same popular
// terms. It holds no results once a lookup returns. Safe for concurrent
// use.
type Shared struct {
	inner Oracle
	fold  Folding
	group singleflight.Group
}

// NewShared wraps inner.
func NewShared(inner Oracle) *Shared {
	return &Shared{inner: inner, fold: FoldingOf(inner)}
}

// Folding implements Folder.
func (s *Shared) Folding() Folding {
	return s.fold
}

// Exists implements Oracle.
func (s *Shared) Exists(ctx context.Context, c category.Category, candidate string) (bool, error) {
	key := fmt.Sprintf("%s\x00%s", c, s.fold.Key(candidate))
	return s.do(key, func() (bool, error) {
		return s.inner.Exists(ctx, c, candidate)
	})
}

// ExistsAttributeName implements Oracle.
func (s *Shared) ExistsAttributeName(ctx context.Context, candidate string) (bool, error) {
	key := "attribute-name\x00" + s.fold.Key(candidate)
	return s.do(key, func() (bool, error) {
		return s.inner.ExistsAttributeName(ctx, candidate)
	})
}

func (s *Shared) do(key string, fetch func() (bool, error)) (bool, error) {
	v, err, _ := s.group.Do(key, func() (any, error) {
		return fetch()
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
