package damasc

import (
	"fmt"
	"os"
	"strings"

	"github.com/midbel/damasc/bag"
	"github.com/midbel/damasc/eval"
	"github.com/midbel/damasc/query"
)

// Session owns one session environment and one bag set, and is the
// single entry point an embedder (CLI, HTTP handler, WASM export)
// drives. Nothing here is safe for concurrent use: per spec.md §5, an
// embedder that needs thread safety wraps a Session in its own mutex.
type Session struct {
	env  *eval.Env
	bags *bag.Set
}

func NewSession() *Session {
	return &Session{
		env:  eval.EmptyEnv(),
		bags: bag.NewSet(),
	}
}

// Bags exposes the session's bag set, mainly so a CLI can checkpoint it
// through a bag.BoltSnapshotter at startup/shutdown.
func (s *Session) Bags() *bag.Set { return s.bags }

// Eval parses source as one top-level statement (possibly a `;`-joined
// sequence, possibly a single bag command) and runs it, returning one
// Output per leaf statement executed (more than one for a sequence or
// a query). A statement that fails never mutates the session
// environment or bag state; it contributes a single ErrorOutput and, if
// it was one arm of a sequence, execution of the sequence stops there.
func (s *Session) Eval(source string) []Output {
	stmt, err := eval.ParseString(source)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	return s.run(stmt)
}

func (s *Session) run(stmt eval.Statement) []Output {
	switch st := stmt.(type) {
	case eval.SeqStmt:
		var out []Output
		for _, sub := range st.Stmts {
			rows := s.run(sub)
			out = append(out, rows...)
			if len(rows) > 0 {
				if _, failed := rows[len(rows)-1].(ErrorOutput); failed {
					break
				}
			}
		}
		return out
	case eval.ExprStmt, eval.AssignStmt:
		return s.runExec(st)
	default:
		return s.runBag(st)
	}
}

func (s *Session) runExec(stmt eval.Statement) []Output {
	v, next, err := eval.Exec(stmt, s.env)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	asn, isAssign := stmt.(eval.AssignStmt)
	if !isAssign {
		return []Output{ValueOutput{Value: v}}
	}
	bindings := bindingsOf(asn.Pattern, next)
	if asn.Bind {
		// `let p = e`: the match's bindings become part of the session
		// environment for statements that follow.
		s.env = next
	}
	// Bare `p = e`: display the bindings but leave the session
	// environment as it was — they do not persist.
	return []Output{MatchOutput{Bindings: bindings}}
}

func (s *Session) runBag(stmt eval.Statement) []Output {
	switch st := stmt.(type) {
	case eval.BagStmt:
		return s.runBagStmt(st)
	case eval.InsertStmt:
		return s.runInsert(st)
	case eval.QueryStmt:
		return s.runQuery(st)
	case eval.DeleteStmt:
		return s.runDelete(st)
	case eval.PopStmt:
		return s.runPop(st)
	case eval.ChangeStmt:
		return s.runChange(st)
	case eval.MoveStmt:
		return s.runMove(st)
	case eval.DumpStmt:
		return s.runDump(st)
	case eval.LoadStmt:
		return s.runLoad(st)
	case eval.InspectStmt:
		return s.runInspect(st)
	case eval.PatternStmt:
		return []Output{StatusOutput{Text: fmt.Sprintf("%#v", st.Pattern)}}
	case eval.ClearStmt:
		return []Output{OkOutput{}}
	default:
		return []Output{errorOutput(fmt.Errorf("%T: unsupported statement", stmt))}
	}
}

func (s *Session) runBagStmt(st eval.BagStmt) []Output {
	if st.Name == "" {
		return []Output{StatusOutput{Text: s.bags.CurrentName()}}
	}
	if !bag.ValidName(st.Name) {
		return []Output{errorOutput(fmt.Errorf("%w: invalid bag name %q", bag.ErrBag, st.Name))}
	}
	if !st.HasSchema {
		s.bags.Switch(st.Name)
		return []Output{StatusOutput{Text: "BAG " + st.Name}}
	}
	schema := &bag.Schema{Pattern: st.Pattern, Predicate: st.Predicate}
	if st.Limit != nil {
		v, err := eval.EvalExpr(st.Limit, s.env)
		if err != nil {
			return []Output{errorOutput(err)}
		}
		n, ok := v.(eval.Int)
		if !ok {
			return []Output{errorOutput(fmt.Errorf("%w: limit must be Integer", bag.ErrBag))}
		}
		schema.HasLimit = true
		schema.Limit = int64(n)
	}
	if _, err := s.bags.Create(st.Name, schema); err != nil {
		return []Output{errorOutput(err)}
	}
	return []Output{StatusOutput{Text: "BAG " + st.Name}}
}

func (s *Session) runInsert(st eval.InsertStmt) []Output {
	cur := s.bags.Current()
	values := make([]eval.Value, len(st.Exprs))
	for i, e := range st.Exprs {
		v, err := eval.EvalExpr(e, s.env)
		if err != nil {
			return []Output{errorOutput(err)}
		}
		values[i] = v
	}
	n, err := cur.Insert(values)
	if err != nil {
		return []Output{StatusOutput{Text: "NO"}}
	}
	return []Output{StatusOutput{Text: fmt.Sprintf("INSERTED %d", n)}}
}

func (s *Session) runQuery(st eval.QueryStmt) []Output {
	limit, err := s.evalLimit(st.Limit, query.ErrQuery)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	q := &query.Query{
		Patterns:   st.Patterns,
		Projection: st.Projection,
		Predicate:  st.Predicate,
		Limit:      limit,
		Repeat:     st.Repeat,
	}
	cur, err := query.New(q, s.bags.Current().Entries(), s.env)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	rows, err := query.Collect(cur)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	out := make([]Output, len(rows))
	for i, r := range rows {
		out[i] = QueryRowOutput{Value: r.Value}
	}
	return out
}

func (s *Session) runDelete(st eval.DeleteStmt) []Output {
	limit, err := s.evalLimit(st.Limit, bag.ErrBag)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	n, err := s.bags.Current().Delete(st.Pattern, st.Predicate, limit)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	return []Output{StatusOutput{Text: fmt.Sprintf("DELETED %d", n)}}
}

func (s *Session) runPop(st eval.PopStmt) []Output {
	v, err := eval.EvalExpr(st.Expr, s.env)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	if s.bags.Current().Pop(v) {
		return []Output{StatusOutput{Text: "POPPED 1"}}
	}
	return []Output{StatusOutput{Text: "POPPED 0"}}
}

func (s *Session) runChange(st eval.ChangeStmt) []Output {
	limit, err := s.evalLimit(st.Limit, bag.ErrBag)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	n, err := s.bags.Current().Update(st.Pattern, st.Projection, st.Predicate, limit)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	return []Output{StatusOutput{Text: fmt.Sprintf("UPDATED %d", n)}}
}

func (s *Session) runMove(st eval.MoveStmt) []Output {
	limit, err := s.evalLimit(st.Limit, bag.ErrBag)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	n, err := s.bags.Transfer(st.ToBag, st.Pattern, st.Projection, st.Predicate, limit)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	return []Output{StatusOutput{Text: fmt.Sprintf("MOVED %d", n)}}
}

// evalLimit evaluates a bag command's optional `limit N` clause, used by
// every command that bounds how many journal entries it touches.
func (s *Session) evalLimit(expr eval.Expression, sentinel error) (int64, error) {
	if expr == nil {
		return 0, nil
	}
	v, err := eval.EvalExpr(expr, s.env)
	if err != nil {
		return 0, err
	}
	n, ok := v.(eval.Int)
	if !ok {
		return 0, fmt.Errorf("%w: limit must be Integer", sentinel)
	}
	return int64(n), nil
}

func (s *Session) runDump(st eval.DumpStmt) []Output {
	if !bag.ValidName(st.Name) {
		return []Output{errorOutput(fmt.Errorf("%w: invalid file name %q", bag.ErrBag, st.Name))}
	}
	f, err := os.Create(st.Name + ".bag")
	if err != nil {
		return []Output{errorOutput(fmt.Errorf("%w: %s", bag.ErrBag, err))}
	}
	defer f.Close()
	if err := s.bags.Current().Dump(f); err != nil {
		return []Output{errorOutput(err)}
	}
	return []Output{StatusOutput{Text: "DUMPED " + st.Name}}
}

func (s *Session) runLoad(st eval.LoadStmt) []Output {
	if !bag.ValidName(st.Name) {
		return []Output{errorOutput(fmt.Errorf("%w: invalid file name %q", bag.ErrBag, st.Name))}
	}
	f, err := os.Open(st.Name + ".bag")
	if err != nil {
		return []Output{errorOutput(fmt.Errorf("%w: %s", bag.ErrBag, err))}
	}
	defer f.Close()
	n, err := s.bags.Current().Load(f)
	if err != nil {
		return []Output{errorOutput(err)}
	}
	return []Output{StatusOutput{Text: fmt.Sprintf("LOADED %d", n)}}
}

func (s *Session) runInspect(st eval.InspectStmt) []Output {
	return []Output{StatusOutput{Text: inspect(st.Expr)}}
}

// inspect renders an Expression tree as a compact one-line dump for
// .inspect (.pattern formats its Pattern the same way inline). It uses
// fmt's %#v struct formatting rather
// than building a bespoke pretty-printer: there is no parser for this
// output, unlike the canonical value text format, so it owes nothing to
// the round-trip requirement.
func inspect(e eval.Expression) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%#v", e)
	return b.String()
}
