// Package interpret turns a unified search string into a categorized query.
//
// Interpretation runs two passes over the lexer's tokens. The formal pass
// walks tokens left to right and acts on every [tag]. Untagged tokens wait
// in a pending buffer. When a tag names a searchable category the tagged
// token and the bare tokens right before it are resolved together, longest
// suffix first, so that
//
//	Invasive Breast Carcinoma[disease]
//
// yields one disease phrase. Pending tokens not claimed by a tag go to the
// informal pass, which grows an aggregate left to right and emits whenever
// a suffix of the aggregate names something in the knowledgebase. A quoted
// phrase counts as one token of the aggregate.
//
// Every token lands in exactly one entry. Text that resolves nowhere is
// assigned to category.Unknown one token at a time. Malformed input never
// fails; only oracle errors do.
package interpret

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/lexer"
	"github.com/vanallenlab/almanac/internal/oracle"
	"github.com/vanallenlab/almanac/internal/resolve"
)

// Interpreter interprets search strings against an oracle.
//
// Thread-safety: Interpret allocates all of its state per call. An
// Interpreter is safe for concurrent use when its oracle is.
type Interpreter struct {
	oracle  oracle.Oracle
	cfg     resolve.Config
	tagMiss TagMiss
	logger  *slog.Logger
}

// TagMiss decides what a searchable tag on a bare token claims when no
// window ending at that token exists in the tagged category.
type TagMiss int

const (
	// TagMissToken claims the tagged token alone. The bare run before it
	// goes to the informal pass.
	TagMissToken TagMiss = iota
	// TagMissRun claims the whole bare run ending at the tagged token, so
	// foo bar[disease] yields the disease phrase "foo bar".
	TagMissRun
)

// String returns the config spelling of the policy.
func (m TagMiss) String() string {
	switch m {
	case TagMissToken:
		return "token"
	case TagMissRun:
		return "run"
	default:
		return fmt.Sprintf("TagMiss(%d)", int(m))
	}
}

// ParseTagMiss parses "token" or "run", case-insensitively. The empty
// string selects TagMissToken.
func ParseTagMiss(s string) (TagMiss, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "token":
		return TagMissToken, nil
	case "run":
		return TagMissRun, nil
	default:
		return TagMissToken, fmt.Errorf("unknown tag miss policy %q (want token or run)", s)
	}
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger used for debug traces.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithResolveConfig sets precedence and window policy.
func WithResolveConfig(cfg resolve.Config) Option {
	return func(i *Interpreter) {
		i.cfg = cfg
	}
}

// WithTagMiss sets what a tag claims when its phrase is not found.
func WithTagMiss(m TagMiss) Option {
	return func(i *Interpreter) {
		i.tagMiss = m
	}
}

// New creates an Interpreter over o.
func New(o oracle.Oracle, opts ...Option) *Interpreter {
	i := &Interpreter{
		oracle: o,
		cfg:    resolve.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret categorizes s. The returned query always holds every category
// key. The error is non-nil only when the oracle fails, in which case the
// query is nil.
func (i *Interpreter) Interpret(ctx context.Context, s string) (*Query, error) {
	toks := lexer.Tokenize(s)
	memo := oracle.NewMemo(i.oracle)
	run := &pass{
		resolver: resolve.New(memo, i.cfg),
		tagMiss:  i.tagMiss,
		query:    newQuery(s, len(toks)),
	}

	if err := run.formal(ctx, toks); err != nil {
		return nil, err
	}

	i.logger.DebugContext(ctx, "interpreted search",
		"raw", s,
		"tokens", len(toks),
		"entries", len(run.query.Entries),
		"lookups", memo.Len(),
	)
	return run.query, nil
}

// pass holds the state of one interpretation.
type pass struct {
	resolver *resolve.Resolver
	tagMiss  TagMiss
	query    *Query
}

func (p *pass) formal(ctx context.Context, toks []lexer.Token) error {
	var pending []lexer.Token

	for _, tok := range toks {
		if !tok.Tagged {
			pending = append(pending, tok)
			continue
		}

		c, ok := category.Parse(tok.Tag)
		switch {
		case !ok:
			if err := p.informal(ctx, pending); err != nil {
				return err
			}
			p.query.add(category.Unknown, tok)

		case c == category.Attribute:
			if err := p.informal(ctx, pending); err != nil {
				return err
			}
			if tok.Attr != nil {
				p.query.add(category.Attribute, tok)
			} else {
				p.query.add(category.Unknown, tok)
			}

		case !tok.Bare():
			// Quotes and attribute pairs are explicit phrase boundaries.
			if err := p.informal(ctx, pending); err != nil {
				return err
			}
			p.query.add(c, tok)

		default:
			if err := p.tagged(ctx, c, pending, tok); err != nil {
				return err
			}
		}
		pending = nil
	}

	return p.informal(ctx, pending)
}

// tagged resolves a bare token tagged with searchable category c together
// with the trailing bare tokens of pending.
func (p *pass) tagged(ctx context.Context, c category.Category, pending []lexer.Token, tok lexer.Token) error {
	start := len(pending)
	for start > 0 && pending[start-1].Bare() {
		start--
	}
	window := make([]lexer.Token, 0, len(pending)-start+1)
	window = append(window, pending[start:]...)
	window = append(window, tok)

	m, ok, err := p.resolver.Suffix(ctx, window, c)
	if err != nil {
		return err
	}

	consumed := 1
	switch {
	case ok:
		consumed = m.Consumed
	case p.tagMiss == TagMissRun:
		consumed = len(window)
	}
	// The window always ends with tok, so consumed-1 tokens come from
	// pending.
	cut := len(pending) - (consumed - 1)
	if err := p.informal(ctx, pending[:cut]); err != nil {
		return err
	}
	claimed := append(append([]lexer.Token(nil), pending[cut:]...), tok)
	p.query.add(c, claimed...)
	return nil
}

// informal assigns untagged tokens by growing an aggregate left to right.
// A quoted phrase joins the aggregate as a single token and is never split.
// Attribute pairs close the aggregate.
func (p *pass) informal(ctx context.Context, toks []lexer.Token) error {
	var agg []lexer.Token

	for _, tok := range toks {
		if tok.Attr != nil {
			if err := p.attribute(ctx, agg, tok); err != nil {
				return err
			}
			agg = nil
			continue
		}

		agg = append(agg, tok)
		m, ok, err := p.resolver.Suffix(ctx, agg)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		cut := len(agg) - m.Consumed
		p.query.unknown(agg[:cut])
		p.query.add(m.Category, agg[cut:]...)
		agg = nil
	}

	p.query.unknown(agg)
	return nil
}

// attribute flushes the aggregate and resolves an untagged attribute pair
// on its own.
func (p *pass) attribute(ctx context.Context, agg []lexer.Token, tok lexer.Token) error {
	p.query.unknown(agg)

	m, ok, err := p.resolver.Attribute(ctx, tok)
	if err != nil {
		return err
	}
	if ok {
		p.query.add(m.Category, tok)
	} else {
		p.query.unknown([]lexer.Token{tok})
	}
	return nil
}
