package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/interpret"
	"github.com/vanallenlab/almanac/internal/testutil"
)

// Harness runs scenarios against an in-memory knowledgebase.
type Harness struct {
	oracle      *testutil.Oracle
	interpreter *interpret.Interpreter
	logger      *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the interpreter.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New builds a harness for the knowledgebase and config of s.
func New(s *Scenario, opts ...Option) (*Harness, error) {
	cfg, err := s.Config.ResolveConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	h := &Harness{
		oracle: s.Knowledgebase.Oracle(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.interpreter = interpret.New(h.oracle,
		interpret.WithResolveConfig(cfg),
		interpret.WithLogger(h.logger),
	)
	return h, nil
}

// Oracle builds the in-memory oracle holding the knowledgebase values.
func (k Knowledgebase) Oracle() *testutil.Oracle {
	return testutil.NewOracle().
		With(category.Feature, k.Feature...).
		With(category.Disease, k.Disease...).
		With(category.Therapy, k.Therapy...).
		With(category.Pred, k.Pred...).
		WithAttributeNames(k.AttributeNames...)
}

// Run executes a scenario and returns the result.
//
// Each step is interpreted against a fresh lookup log, compared with its
// expectations, and then checked against every assertion. The returned
// error is non-nil only when the scenario cannot run at all; failed
// expectations are reported through Result.Errors.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Result, error) {
	h, err := New(s, opts...)
	if err != nil {
		return nil, err
	}
	return h.Run(ctx, s)
}

// Run executes s with the harness.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	result := NewResult()

	for i, step := range s.Steps {
		h.oracle.Reset()
		q, err := h.interpreter.Interpret(ctx, step.Query)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		lookups := len(h.oracle.Calls())

		result.Steps = append(result.Steps, StepResult{
			Query:      step.Query,
			Rendered:   q.String(),
			Categories: q.MarshalMap(),
			Lookups:    lookups,
		})

		for _, msg := range compareExpect(step.Expect, q) {
			result.AddError(fmt.Sprintf("step %d (%q): %s", i, step.Query, msg))
		}

		for _, a := range s.Assertions {
			if err := h.evaluate(ctx, a, q, lookups); err != nil {
				result.AddError(fmt.Sprintf("step %d (%q): %s", i, step.Query, err))
			}
		}
	}

	return result, nil
}

// compareExpect reports every category of expect whose phrases differ
// from q. Category names were checked when the scenario was parsed.
func compareExpect(expect map[string][]string, q *interpret.Query) []string {
	names := make([]string, 0, len(expect))
	for name := range expect {
		names = append(names, name)
	}
	slices.Sort(names)

	var msgs []string
	for _, name := range names {
		var c category.Category
		if err := c.UnmarshalText([]byte(name)); err != nil {
			msgs = append(msgs, err.Error())
			continue
		}
		want := expect[name]
		if want == nil {
			want = []string{}
		}
		if got := q.Phrases(c); !slices.Equal(got, want) {
			msgs = append(msgs, fmt.Sprintf("%s: expected %q, got %q", name, want, got))
		}
	}
	return msgs
}
