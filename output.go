// Package damasc is the embeddable core of the Damasc expression,
// pattern, and bag/query language: a Session ties the lexer/parser,
// evaluator, pattern matcher and bag store together behind a single
// Eval call, the way an embedder (CLI, HTTP front-end, WASM binding)
// wants to consume it.
package damasc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/midbel/damasc/bag"
	"github.com/midbel/damasc/eval"
	"github.com/midbel/damasc/query"
)

// Output is one result of evaluating a single statement: a plain
// value, the bindings produced by a pattern match, a bare
// acknowledgement, a bag-command status line, one row of a query, or
// an error. Exactly one of these is produced per statement — a
// sequence or a query produces one Output per sub-statement or row.
type Output interface {
	String() string
}

// ValueOutput is the result of a bare expression statement.
type ValueOutput struct {
	Value eval.Value
}

func (o ValueOutput) String() string { return o.Value.String() }

// Binding is one name bound by a pattern match, in left-to-right
// first-occurrence order.
type Binding struct {
	Name  string
	Value eval.Value
}

// MatchOutput is the result of `p = e` or `let p = e`.
type MatchOutput struct {
	Bindings []Binding
}

func (o MatchOutput) String() string {
	var b strings.Builder
	for i, bind := range o.Bindings {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = %s", bind.Name, bind.Value.String())
	}
	return b.String()
}

// OkOutput acknowledges a command with no payload (.clear).
type OkOutput struct{}

func (OkOutput) String() string { return "OK" }

// StatusOutput is a bag command's textual status line (INSERTED n, NO,
// DELETED n, BAG name, ...) or an .inspect/.pattern AST dump.
type StatusOutput struct {
	Text string
}

func (o StatusOutput) String() string { return o.Text }

// QueryRowOutput is one row yielded by .query/.queryx.
type QueryRowOutput struct {
	Value eval.Value
}

func (o QueryRowOutput) String() string { return o.Value.String() }

// ErrorOutput reports a failed statement. Kind is a short domain-level
// name (UnboundIdentifier, TypeMismatch, NoMatch, BagError, QueryError,
// ParseError, ...); Message is the underlying error text.
type ErrorOutput struct {
	Kind    string
	Message string
}

func (o ErrorOutput) String() string { return fmt.Sprintf("%s: %s", o.Kind, o.Message) }

// errorOutput classifies err into an ErrorOutput by the sentinel or
// type it wraps. Each eval/bag/query error kind is a distinct sentinel,
// so the cases below are mutually exclusive by construction.
func errorOutput(err error) ErrorOutput {
	var perr *eval.ParseError
	kind := "Error"
	switch {
	case errors.As(err, &perr):
		kind = "ParseError"
	case errors.Is(err, eval.ErrUnboundIdentifier):
		kind = "UnboundIdentifier"
	case errors.Is(err, eval.ErrTypeMismatch):
		kind = "TypeMismatch"
	case errors.Is(err, eval.ErrArithmetic):
		kind = "ArithmeticError"
	case errors.Is(err, eval.ErrIndexOutOfRange):
		kind = "IndexOutOfRange"
	case errors.Is(err, eval.ErrMissingKey):
		kind = "MissingKey"
	case errors.Is(err, eval.ErrCast):
		kind = "CastError"
	case errors.Is(err, eval.ErrBadArity):
		kind = "BadArity"
	case errors.Is(err, eval.ErrDuplicateKey):
		kind = "DuplicateObjectKey"
	case errors.Is(err, eval.ErrNoMatch):
		kind = "NoMatch"
	case errors.Is(err, bag.ErrBag):
		kind = "BagError"
	case errors.Is(err, query.ErrQuery):
		kind = "QueryError"
	}
	return ErrorOutput{Kind: kind, Message: err.Error()}
}
