package eval

import "fmt"

// Exec runs one of the non-bag statement forms (a bare expression, a
// pattern assignment, or a `;`-joined sequence of either) against e,
// returning the value of the last statement executed and the
// environment as extended by any bindings introduced along the way.
//
// Bag commands (BagStmt, InsertStmt, QueryStmt, ...) are not handled
// here: they need a *bag.Set to run against, so the session façade
// dispatches them directly rather than routing them through Exec.
func Exec(stmt Statement, e *Env) (Value, *Env, error) {
	switch s := stmt.(type) {
	case ExprStmt:
		v, err := EvalExpr(s.Expr, e)
		return v, e, err
	case AssignStmt:
		v, err := EvalExpr(s.Expr, e)
		if err != nil {
			return nil, e, err
		}
		var next *Env
		if s.Bind {
			next, err = MatchBind(s.Pattern, v, e)
		} else {
			next, err = Match(s.Pattern, v, e)
		}
		if err != nil {
			return nil, e, err
		}
		return v, next, nil
	case SeqStmt:
		var (
			last Value = Null{}
			cur        = e
			err  error
		)
		for _, sub := range s.Stmts {
			last, cur, err = Exec(sub, cur)
			if err != nil {
				return nil, e, err
			}
		}
		return last, cur, nil
	default:
		return nil, e, fmt.Errorf("%T: not a statement Exec handles, needs bag dispatch", stmt)
	}
}
