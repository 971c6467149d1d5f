// Package lexer splits a unified search string into tokens.
//
// The lexer is purely lexical. It knows about whitespace, quotes, the
// Attribute:Value colon and trailing [category] tags, and nothing about
// which categories exist or what the knowledgebase holds.
//
// Grammar, informally:
//
//	query   = { space | token | tag }
//	token   = (quoted | bare) [ ":" value ] [ tag ]
//	value   = quoted | bare
//	quoted  = '"' ... '"' | "'" ... "'"   (missing close quote runs to end)
//	bare    = run of non-space characters up to '[' (and up to ':' for names)
//	tag     = "[" ... "]"                   (missing close bracket runs to end)
//
// A tag binds to the token right before it when that token has no tag yet,
// with or without whitespace in between. A tag with nothing to bind to
// (start of input, or the previous token is already tagged as in
// "x[a][b]") is kept as a literal bare token so no input is dropped.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Pair is the two halves of an Attribute:Value token.
type Pair struct {
	Name  string
	Value string
}

// Token is one lexical unit of a search string.
type Token struct {
	// Text is the token's literal text with quotes stripped. Attribute
	// tokens keep the "Name:Value" form.
	Text string

	// Quoted is true when the whole token was a quoted phrase.
	Quoted bool

	// Attr is set for Attribute:Value compounds.
	Attr *Pair

	// Tag is the raw text between the brackets of a bound [tag].
	Tag    string
	Tagged bool

	// Start and End are byte offsets into the NFC-normalized input,
	// covering the token and its tag.
	Start int
	End   int
}

// Bare reports whether the token is a plain word: not quoted and not an
// attribute pair. Only bare tokens are merged into multi-word phrases by
// the formal pass.
func (t Token) Bare() bool {
	return !t.Quoted && t.Attr == nil
}

// String renders the token roughly as it was typed, for diagnostics.
func (t Token) String() string {
	var b strings.Builder
	if t.Quoted {
		b.WriteString(`"` + t.Text + `"`)
	} else {
		b.WriteString(t.Text)
	}
	if t.Tagged {
		b.WriteString("[" + t.Tag + "]")
	}
	return b.String()
}

// Join returns the texts of toks separated by single spaces.
func Join(toks []Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// Tokenize splits s into tokens. It never fails: an empty or blank input
// yields an empty, non-nil slice. Empty quoted phrases ("" or '') are
// discarded together with any tag attached to them.
func Tokenize(s string) []Token {
	l := &lexer{src: norm.NFC.String(s)}
	return l.run()
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) run() []Token {
	tokens := []Token{}
	for {
		l.skipSpace()
		if l.eof() {
			return tokens
		}

		start := l.pos
		if l.peek() == '[' {
			tag := l.readTag()
			if n := len(tokens); n > 0 && !tokens[n-1].Tagged {
				tokens[n-1].Tag = tag
				tokens[n-1].Tagged = true
				tokens[n-1].End = l.pos
				continue
			}
			tokens = append(tokens, Token{Text: l.src[start:l.pos], Start: start, End: l.pos})
			continue
		}

		tok := l.readToken()
		if !l.eof() && l.peek() == '[' {
			tok.Tag = l.readTag()
			tok.Tagged = true
		}
		tok.Start = start
		tok.End = l.pos
		if tok.Text == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
}

// readToken reads a quoted or bare token and an optional ":value" suffix.
// It always consumes at least one byte.
func (l *lexer) readToken() Token {
	var tok Token
	var name string
	if q := l.peek(); q == '"' || q == '\'' {
		name = l.readQuoted(q)
		tok.Quoted = true
	} else {
		name = l.readBare(true)
	}

	if l.eof() || l.peek() != ':' {
		tok.Text = name
		return tok
	}

	l.pos++ // ':'
	var value string
	if q := l.peekOK(); q == '"' || q == '\'' {
		value = l.readQuoted(q)
	} else {
		value = l.readBare(false)
	}
	tok.Quoted = false
	tok.Attr = &Pair{Name: name, Value: value}
	tok.Text = name + ":" + value
	return tok
}

// readQuoted consumes a quoted run starting at the opening quote q. The
// content is trimmed at both ends; internal whitespace is kept.
func (l *lexer) readQuoted(q byte) string {
	l.pos++ // opening quote
	end := strings.IndexByte(l.src[l.pos:], q)
	if end < 0 {
		text := l.src[l.pos:]
		l.pos = len(l.src)
		return strings.TrimSpace(text)
	}
	text := l.src[l.pos : l.pos+end]
	l.pos += end + 1
	return strings.TrimSpace(text)
}

// readBare consumes non-space runes up to '[' and, when stopAtColon is
// set, up to the first ':'. Quote characters inside a bare run are
// literal, so "Crohn's" stays one word.
func (l *lexer) readBare(stopAtColon bool) string {
	start := l.pos
	for !l.eof() {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if unicode.IsSpace(r) || r == '[' || (stopAtColon && r == ':') {
			break
		}
		l.pos += size
	}
	return l.src[start:l.pos]
}

// readTag consumes "[...]" and returns the text between the brackets.
func (l *lexer) readTag() string {
	l.pos++ // '['
	end := strings.IndexByte(l.src[l.pos:], ']')
	if end < 0 {
		tag := l.src[l.pos:]
		l.pos = len(l.src)
		return tag
	}
	tag := l.src[l.pos : l.pos+end]
	l.pos += end + 1
	return tag
}

func (l *lexer) skipSpace() {
	for !l.eof() {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.src)
}

func (l *lexer) peek() byte {
	return l.src[l.pos]
}

// peekOK is peek that returns 0 at end of input.
func (l *lexer) peekOK() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}
