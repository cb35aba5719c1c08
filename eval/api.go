package eval

import (
	"io"
	"strings"
)

// ParseExpr parses src as a single expression (no statement forms, no
// bag commands). Used for `${...}` template interpolations and for
// reading canonical value text back in (Bag.Load, the bbolt
// snapshotter).
func ParseExpr(src string) (Expression, error) {
	p := NewParser(strings.NewReader(src))
	expr, err := p.parseExpression(powLowest)
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, unexpected(p.curr())
	}
	return expr, nil
}

// ParsePattern parses src as a single pattern.
func ParsePattern(src string) (Pattern, error) {
	p := NewParser(strings.NewReader(src))
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, unexpected(p.curr())
	}
	return pat, nil
}

// Parse parses r as one top-level statement (possibly a `;`-joined
// sequence, possibly a bag command).
func Parse(r io.Reader) (Statement, error) {
	return NewParser(r).Parse()
}

// ParseString is Parse over an in-memory source string.
func ParseString(src string) (Statement, error) {
	return Parse(strings.NewReader(src))
}
