package bag

import (
	"bufio"
	"fmt"
	"io"

	"github.com/midbel/damasc/eval"
)

// Bag is a named multiset of Values. The journal is the insertion-order
// backing store: a value's multiplicity is however many times it
// appears in the journal. There is no separate counts map — delete and
// pop scan the journal directly, and the query engine (package query)
// reads it through Entries for its Cartesian enumeration.
type Bag struct {
	Name   string
	Schema *Schema

	entries []eval.Value
}

func New(name string) *Bag {
	return &Bag{Name: name}
}

// Entries returns the journal in insertion order. The caller must treat
// it as read-only; Bag never hands out its backing slice.
func (b *Bag) Entries() []eval.Value {
	return append([]eval.Value(nil), b.entries...)
}

func (b *Bag) Len() int { return len(b.entries) }

// appendRaw appends v to the journal without schema validation, used by
// Load and the bbolt snapshotter, both of which restore already-valid
// data rather than accept fresh user input.
func (b *Bag) appendRaw(v eval.Value) {
	b.entries = append(b.entries, v)
}

// Insert is all-or-nothing: every value must pass the schema (if any),
// and the batch must fit under the schema's limit, before any of them
// is appended.
func (b *Bag) Insert(values []eval.Value) (int, error) {
	if b.Schema != nil && b.Schema.HasLimit {
		if int64(len(b.entries)+len(values)) > b.Schema.Limit {
			return 0, fmt.Errorf("%w: insert would exceed limit of %d", ErrBag, b.Schema.Limit)
		}
	}
	for _, v := range values {
		if err := b.Schema.validate(v); err != nil {
			return 0, err
		}
	}
	b.entries = append(b.entries, values...)
	return len(values), nil
}

// Delete scans the journal in insertion order, removing up to limit
// values that match pattern and (if present) satisfy predicate. limit
// <= 0 means unbounded.
func (b *Bag) Delete(pattern eval.Pattern, predicate eval.Expression, limit int64) (int, error) {
	kept := make([]eval.Value, 0, len(b.entries))
	var removed int
	for _, v := range b.entries {
		if limit > 0 && int64(removed) >= limit {
			kept = append(kept, v)
			continue
		}
		match, matched, err := tryMatch(pattern, predicate, v)
		if err != nil {
			return removed, err
		}
		_ = match
		if matched {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	b.entries = kept
	return removed, nil
}

// Update scans the journal in insertion order, replacing up to limit
// values that match pattern and (if present) satisfy predicate with
// projection evaluated in the match environment. All-or-nothing against
// the bag's own schema: if any replacement value fails validation, the
// journal is left untouched.
func (b *Bag) Update(pattern eval.Pattern, projection eval.Expression, predicate eval.Expression, limit int64) (int, error) {
	next := append([]eval.Value(nil), b.entries...)
	var changed int
	for i, v := range b.entries {
		if limit > 0 && int64(changed) >= limit {
			break
		}
		env, matched, err := tryMatch(pattern, predicate, v)
		if err != nil {
			return 0, err
		}
		if !matched {
			continue
		}
		nv, err := eval.EvalExpr(projection, env)
		if err != nil {
			return 0, fmt.Errorf("%w: change projection: %s", ErrBag, err)
		}
		if err := b.Schema.validate(nv); err != nil {
			return 0, err
		}
		next[i] = nv
		changed++
	}
	b.entries = next
	return changed, nil
}

// Pop removes one occurrence of value if present, reporting whether it
// found one. A miss is not an error: popping an absent value simply
// removes nothing.
func (b *Bag) Pop(value eval.Value) bool {
	for i, v := range b.entries {
		if v.Equal(value) {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

func tryMatch(pattern eval.Pattern, predicate eval.Expression, v eval.Value) (*eval.Env, bool, error) {
	env, err := eval.Match(pattern, v, eval.EmptyEnv())
	if err != nil {
		return nil, false, nil
	}
	if predicate == nil {
		return env, true, nil
	}
	res, err := eval.EvalExpr(predicate, env)
	if err != nil {
		return nil, false, fmt.Errorf("%w: delete predicate: %s", ErrBag, err)
	}
	b, ok := res.(eval.Bool)
	return env, ok && bool(b), nil
}

// Dump writes the journal as newline-delimited canonical value text, one
// entry per line.
func (b *Bag) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, v := range b.entries {
		if _, err := bw.WriteString(v.String()); err != nil {
			return fmt.Errorf("%w: %s", ErrBag, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("%w: %s", ErrBag, err)
		}
	}
	return bw.Flush()
}

// Load appends every value decoded from r's newline-delimited canonical
// text to the journal. Loading always appends; duplicates are
// permitted and the schema is not re-checked (a dump is already-valid
// data, not fresh user input).
func (b *Bag) Load(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	var n int
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		expr, err := eval.ParseExpr(line)
		if err != nil {
			return n, fmt.Errorf("%w: line %d: %s", ErrBag, n+1, err)
		}
		v, err := eval.EvalExpr(expr, eval.EmptyEnv())
		if err != nil {
			return n, fmt.Errorf("%w: line %d: %s", ErrBag, n+1, err)
		}
		b.appendRaw(v)
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("%w: %s", ErrBag, err)
	}
	return n, nil
}
