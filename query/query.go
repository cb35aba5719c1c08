// Package query implements the lazy Cartesian-join query engine that
// drives .query/.queryx: joining a small, fixed sequence of
// patterns against a bag's journal under distinct or with-repetition
// index semantics.
package query

import (
	"errors"
	"fmt"

	"github.com/midbel/damasc/eval"
)

// ErrQuery wraps arity and bag-state errors raised outside of
// pattern-matching itself: too many patterns, or an evaluation error
// (other than NoMatch) inside a predicate or projection.
var ErrQuery = errors.New("query error")

// MaxPatterns is the correctness safeguard against accidental
// combinatorial blowups: a join of more than this many patterns is
// rejected at construction time (the parser enforces the same bound up
// front, per spec.md §9).
const MaxPatterns = 6

// Query describes one .query/.queryx join.
type Query struct {
	Patterns   []eval.Pattern
	Projection eval.Expression // nil: yield the array of matched journal values
	Predicate  eval.Expression // nil: no filter
	Limit      int64           // 0: unbounded
	Repeat     bool            // true: with-repetition (queryx), may reuse a journal index
}

// Row is one yielded result: the environment produced by matching every
// pattern (bindings from all positions, left to right, later positions
// re-affirming shared names), plus the projected value.
type Row struct {
	Env   *eval.Env
	Value eval.Value
}

// Cursor is a pull-based iterator over a Query's results against a
// fixed journal snapshot. It retains only per-depth index state and the
// accumulated environment, never materialising the full Cartesian
// product; dropping the cursor is how a caller cancels mid-enumeration.
type Cursor struct {
	q       *Query
	journal []eval.Value

	env       []*eval.Env // env[d] is accumulated through depth d; env[0] is the base
	next      []int       // next[d] is the next journal index to try at depth d
	committed []int       // committed[d] is the journal index matched at depth d
	used      []bool      // used[j] true if journal index j is taken by some depth (distinct mode)

	depth   int
	started bool
	done    bool
	yielded int64
}

// New returns a cursor ready to enumerate q against journal, starting
// from base.
func New(q *Query, journal []eval.Value, base *eval.Env) (*Cursor, error) {
	if len(q.Patterns) == 0 {
		return nil, fmt.Errorf("%w: query has no patterns", ErrQuery)
	}
	if len(q.Patterns) > MaxPatterns {
		return nil, fmt.Errorf("%w: query has %d patterns, limit is %d", ErrQuery, len(q.Patterns), MaxPatterns)
	}
	n := len(q.Patterns)
	c := &Cursor{
		q:         q,
		journal:   journal,
		env:       make([]*eval.Env, n+1),
		next:      make([]int, n),
		committed: make([]int, n),
		used:      make([]bool, len(journal)),
	}
	c.env[0] = base
	if len(journal) == 0 {
		c.done = true
	}
	return c, nil
}

// Next advances the cursor and returns the next matching row. The
// second return is false once the stream (or the query's limit) is
// exhausted.
func (c *Cursor) Next() (Row, bool, error) {
	for {
		if c.done {
			return Row{}, false, nil
		}
		if c.q.Limit > 0 && c.yielded >= c.q.Limit {
			c.done = true
			return Row{}, false, nil
		}
		ok, err := c.advance()
		if err != nil {
			c.done = true
			return Row{}, false, err
		}
		if !ok {
			c.done = true
			return Row{}, false, nil
		}
		env := c.env[len(c.q.Patterns)]
		if c.q.Predicate != nil {
			res, err := eval.EvalExpr(c.q.Predicate, env)
			if err != nil {
				c.done = true
				return Row{}, false, fmt.Errorf("%w: predicate: %s", ErrQuery, err)
			}
			b, isBool := res.(eval.Bool)
			if !isBool || !bool(b) {
				continue
			}
		}
		val := c.tuple()
		if c.q.Projection != nil {
			val, err = eval.EvalExpr(c.q.Projection, env)
			if err != nil {
				c.done = true
				return Row{}, false, fmt.Errorf("%w: projection: %s", ErrQuery, err)
			}
		}
		c.yielded++
		return Row{Env: env, Value: val}, true, nil
	}
}

// tuple is the default projection when none is given: the array of
// values chosen at each depth, in pattern order.
func (c *Cursor) tuple() eval.Value {
	items := make([]eval.Value, len(c.committed))
	for d, j := range c.committed {
		items[d] = c.journal[j]
	}
	return eval.NewArray(items...)
}

// advance drives the depth-first search to the next leaf: a journal
// index assignment for every pattern that matches, consuming exactly
// one journal slot per pattern in distinct mode. It backtracks on
// NoMatch or an exhausted depth, and returns false once the whole
// search space is exhausted.
func (c *Cursor) advance() (bool, error) {
	n := len(c.q.Patterns)
	if !c.started {
		c.started = true
		c.depth = 0
		c.next[0] = 0
	} else if !c.q.Repeat {
		// Resume the search from the leaf we just reported: next[depth]
		// already points past the index we committed there, so release
		// that index for the remaining choices at this and shallower depths.
		c.used[c.committed[c.depth]] = false
	}
	for c.depth >= 0 {
		j := c.next[c.depth]
		if j >= len(c.journal) {
			if c.depth == 0 {
				return false, nil
			}
			c.depth--
			if !c.q.Repeat {
				c.used[c.committed[c.depth]] = false
			}
			c.next[c.depth] = c.committed[c.depth] + 1
			continue
		}
		c.next[c.depth] = j + 1
		if !c.q.Repeat && c.used[j] {
			continue
		}
		env, err := eval.Match(c.q.Patterns[c.depth], c.journal[j], c.env[c.depth])
		if err != nil {
			if errors.Is(err, eval.ErrNoMatch) {
				continue
			}
			return false, fmt.Errorf("%w: %s", ErrQuery, err)
		}
		c.env[c.depth+1] = env
		c.committed[c.depth] = j
		if !c.q.Repeat {
			c.used[j] = true
		}
		if c.depth == n-1 {
			return true, nil
		}
		c.depth++
		c.next[c.depth] = 0
	}
	return false, nil
}

// Collect drains the cursor into a slice, mostly useful for tests and
// for the session façade's non-streaming callers.
func Collect(c *Cursor) ([]Row, error) {
	var rows []Row
	for {
		row, ok, err := c.Next()
		if err != nil {
			return rows, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}
