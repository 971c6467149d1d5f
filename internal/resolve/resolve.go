package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/lexer"
	"github.com/vanallenlab/almanac/internal/oracle"
)

// WindowPolicy decides which suffix window is tried first.
type WindowPolicy int

const (
	// Longest tries the whole run first.
	Longest WindowPolicy = iota
	// Shortest tries the last token alone first.
	Shortest
)

// String returns the config spelling of the policy.
func (p WindowPolicy) String() string {
	switch p {
	case Longest:
		return "longest"
	case Shortest:
		return "shortest"
	default:
		return fmt.Sprintf("WindowPolicy(%d)", int(p))
	}
}

// ParseWindowPolicy parses "longest" or "shortest", case-insensitively.
// The empty string selects Longest.
func ParseWindowPolicy(s string) (WindowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "longest":
		return Longest, nil
	case "shortest":
		return Shortest, nil
	default:
		return Longest, fmt.Errorf("unknown window policy %q (want longest or shortest)", s)
	}
}

// Config controls tie-breaking.
type Config struct {
	// Precedence lists the searchable categories in the order they are
	// tried. Empty means category.DefaultPrecedence.
	Precedence []category.Category

	// Window selects which suffix window is tried first.
	Window WindowPolicy
}

// DefaultConfig returns the default precedence with the Longest policy.
func DefaultConfig() Config {
	return Config{
		Precedence: append([]category.Category(nil), category.DefaultPrecedence...),
		Window:     Longest,
	}
}

// Match is one successful resolution.
type Match struct {
	Category category.Category
	Phrase   string
	// Consumed is the number of tokens, counted from the end of the run,
	// that make up Phrase.
	Consumed int
}

// Resolver resolves token runs against an oracle.
//
// Thread-safety: a Resolver holds no mutable state of its own and is as
// safe for concurrent use as its oracle.
type Resolver struct {
	oracle     oracle.Oracle
	precedence []category.Category
	window     WindowPolicy
}

// New creates a Resolver. Non-searchable categories in cfg.Precedence are
// ignored.
func New(o oracle.Oracle, cfg Config) *Resolver {
	precedence := make([]category.Category, 0, len(cfg.Precedence))
	for _, c := range cfg.Precedence {
		if c.Searchable() {
			precedence = append(precedence, c)
		}
	}
	if len(precedence) == 0 {
		precedence = append(precedence, category.DefaultPrecedence...)
	}
	return &Resolver{oracle: o, precedence: precedence, window: cfg.Window}
}

// Precedence returns a copy of the category order in use.
func (r *Resolver) Precedence() []category.Category {
	return append([]category.Category(nil), r.precedence...)
}

// Suffix finds the first suffix window of toks, in window-policy order,
// whose joined text exists in one of cats. With no cats the full
// precedence order is used. An empty run never matches.
func (r *Resolver) Suffix(ctx context.Context, toks []lexer.Token, cats ...category.Category) (Match, bool, error) {
	if len(toks) == 0 {
		return Match{}, false, nil
	}
	if len(cats) == 0 {
		cats = r.precedence
	}

	n := len(toks)
	for i := 0; i < n; i++ {
		size := n - i
		if r.window == Shortest {
			size = i + 1
		}
		phrase := lexer.Join(toks[n-size:])
		c, ok, err := r.first(ctx, phrase, cats)
		if err != nil {
			return Match{}, false, err
		}
		if ok {
			return Match{Category: c, Phrase: phrase, Consumed: size}, true, nil
		}
	}
	return Match{}, false, nil
}

// Classify tests one phrase against every category in precedence order.
// It returns category.Unknown and false when nothing matches.
func (r *Resolver) Classify(ctx context.Context, phrase string) (category.Category, bool, error) {
	return r.first(ctx, phrase, r.precedence)
}

// Attribute checks the name half of an attribute token against the
// attribute definitions. The value is not validated. A hit yields the
// whole "Name:Value" text as the phrase.
func (r *Resolver) Attribute(ctx context.Context, tok lexer.Token) (Match, bool, error) {
	if tok.Attr == nil || strings.TrimSpace(tok.Attr.Name) == "" {
		return Match{}, false, nil
	}
	ok, err := r.oracle.ExistsAttributeName(ctx, tok.Attr.Name)
	if err != nil {
		return Match{}, false, fmt.Errorf("resolve attribute name %q: %w", tok.Attr.Name, err)
	}
	if !ok {
		return Match{}, false, nil
	}
	return Match{Category: category.Attribute, Phrase: tok.Text, Consumed: 1}, true, nil
}

func (r *Resolver) first(ctx context.Context, phrase string, cats []category.Category) (category.Category, bool, error) {
	if strings.TrimSpace(phrase) == "" {
		return category.Unknown, false, nil
	}
	for _, c := range cats {
		if !c.Searchable() {
			continue
		}
		ok, err := r.oracle.Exists(ctx, c, phrase)
		if err != nil {
			return category.Unknown, false, fmt.Errorf("resolve %s %q: %w", c, phrase, err)
		}
		if ok {
			return c, true, nil
		}
	}
	return category.Unknown, false, nil
}
