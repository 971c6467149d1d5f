package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult lists structural problems found in a Select.
type ValidationResult struct {
	// OK is true when Problems is empty.
	OK bool

	// Problems describes each defect, in traversal order.
	Problems []string
}

// Err returns nil when the result is OK and an error joining every
// problem otherwise.
func (r ValidationResult) Err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("invalid query: %s", strings.Join(r.Problems, "; "))
}

// Validate checks that a Select can be compiled by every backend.
//
// Rules:
//  1. Tables are named, and aliases are unique within one scope
//  2. Column lists are explicit (no empty list, no "*")
//  3. Every predicate names its columns; Equals has a value
//  4. And / Or have at least one operand; joins have an ON condition
//  5. Like has non-empty text
//
// Validate is a pure function with no side effects.
func Validate(sel Select) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateSelect(sel)
	return ValidationResult{
		OK:       len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateSelect(sel Select) {
	if len(sel.Columns) == 0 {
		v.addProblem("select has no columns")
	}
	for _, c := range sel.Columns {
		if strings.TrimSpace(c) == "" || c == "*" {
			v.addProblem("select column %q is not an explicit column", c)
		}
	}
	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}
	v.validateSources(sel.From, sel.Joins)
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validateSources(from Table, joins []Join) {
	seen := make(map[string]bool, len(joins)+1)
	check := func(t Table) {
		if strings.TrimSpace(t.Name) == "" {
			v.addProblem("table has no name")
			return
		}
		if seen[t.Ref()] {
			v.addProblem("table reference %q used twice", t.Ref())
		}
		seen[t.Ref()] = true
	}

	check(from)
	for _, j := range joins {
		check(j.Table)
		if j.On == nil {
			v.addProblem("join of %q has no ON condition", j.Table.Name)
			continue
		}
		v.validatePredicate(j.On)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Equals:
		v.requireColumn("equals", pred.Column)
		if pred.Value == nil {
			v.addProblem("equals on %q has no value", pred.Column)
		}
	case ColumnEquals:
		v.requireColumn("column equals", pred.Left)
		v.requireColumn("column equals", pred.Right)
	case Like:
		v.requireColumn("like", pred.Column)
		if pred.Text == "" {
			v.addProblem("like on %q has empty text", pred.Column)
		}
		if pred.Mode != MatchExact && pred.Mode != MatchContains {
			v.addProblem("like on %q has unknown mode %d", pred.Column, int(pred.Mode))
		}
	case And:
		v.validateOperands("and", pred.Predicates)
	case Or:
		v.validateOperands("or", pred.Predicates)
	case Exists:
		v.validateSources(pred.From, pred.Joins)
		if pred.Filter == nil {
			v.addProblem("exists over %q has no filter", pred.From.Name)
			return
		}
		v.validatePredicate(pred.Filter)
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) requireColumn(kind, column string) {
	if strings.TrimSpace(column) == "" {
		v.addProblem("%s has no column", kind)
	}
}

func (v *validator) validateOperands(kind string, preds []Predicate) {
	if len(preds) == 0 {
		v.addProblem("%s has no operands", kind)
		return
	}
	for _, p := range preds {
		v.validatePredicate(p)
	}
}
