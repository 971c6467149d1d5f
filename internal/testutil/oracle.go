package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/vanallenlab/almanac/internal/category"
)

// Call records one lookup made against an Oracle.
type Call struct {
	Kind      string // category name, or "attribute-name"
	Candidate string
}

// Oracle is an in-memory existence oracle for tests.
//
// Matching is exact and case-insensitive, like the default SQL mapping.
// Every lookup is recorded so tests can assert on lookup counts.
//
// Thread-safety: Oracle is safe for concurrent use.
type Oracle struct {
	mu         sync.Mutex
	values     map[category.Category][]string
	attributes []string
	calls      []Call

	// Err, when set, is returned by every lookup whose candidate equals
	// FailOn (or by every lookup when FailOn is empty).
	Err    error
	FailOn string
}

// NewOracle creates an empty oracle that matches nothing.
func NewOracle() *Oracle {
	return &Oracle{values: make(map[category.Category][]string)}
}

// With adds values to the backing column of c and returns the oracle for
// chaining.
func (o *Oracle) With(c category.Category, values ...string) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[c] = append(o.values[c], values...)
	return o
}

// WithAttributeNames adds attribute definition names.
func (o *Oracle) WithAttributeNames(names ...string) *Oracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attributes = append(o.attributes, names...)
	return o
}

// Exists implements oracle.Oracle.
func (o *Oracle) Exists(_ context.Context, c category.Category, candidate string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, Call{Kind: c.String(), Candidate: candidate})
	if err := o.failure(candidate); err != nil {
		return false, err
	}
	return containsFold(o.values[c], candidate), nil
}

// ExistsAttributeName implements oracle.Oracle.
func (o *Oracle) ExistsAttributeName(_ context.Context, candidate string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, Call{Kind: "attribute-name", Candidate: candidate})
	if err := o.failure(candidate); err != nil {
		return false, err
	}
	return containsFold(o.attributes, candidate), nil
}

// Calls returns a copy of the recorded lookups in order.
func (o *Oracle) Calls() []Call {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Call, len(o.calls))
	copy(out, o.calls)
	return out
}

// Reset forgets recorded lookups.
func (o *Oracle) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = nil
}

func (o *Oracle) failure(candidate string) error {
	if o.Err == nil {
		return nil
	}
	if o.FailOn == "" || strings.EqualFold(o.FailOn, candidate) {
		return o.Err
	}
	return nil
}

func containsFold(values []string, candidate string) bool {
	for _, v := range values {
		if strings.EqualFold(v, candidate) {
			return true
		}
	}
	return false
}
