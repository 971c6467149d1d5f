package oracle

import (
	"context"
	"time"

	"github.com/vanallenlab/almanac/internal/category"
)

// Recorder receives one observation per oracle lookup.
// metrics.Metrics implements it.
type Recorder interface {
	ObserveLookup(kind string, found bool, err error, elapsed time.Duration)
}

// Instrumented reports every lookup to a Recorder.
type Instrumented struct {
	inner Oracle
	rec   Recorder
}

// NewInstrumented wraps inner.
func NewInstrumented(inner Oracle, rec Recorder) *Instrumented {
	return &Instrumented{inner: inner, rec: rec}
}

// Exists implements Oracle.
func (i *Instrumented) Exists(ctx context.Context, c category.Category, candidate string) (bool, error) {
	start := time.Now()
	ok, err := i.inner.Exists(ctx, c, candidate)
	i.rec.ObserveLookup(c.String(), ok, err, time.Since(start))
	return ok, err
}

// Folding implements Folder.
func (i *Instrumented) Folding() Folding {
	return FoldingOf(i.inner)
}

// ExistsAttributeName implements Oracle.
func (i *Instrumented) ExistsAttributeName(ctx context.Context, candidate string) (bool, error) {
	start := time.Now()
	ok, err := i.inner.ExistsAttributeName(ctx, candidate)
	i.rec.ObserveLookup("attribute-name", ok, err, time.Since(start))
	return ok, err
}
