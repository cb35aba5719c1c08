package bag

import (
	"fmt"

	"github.com/midbel/damasc/eval"
)

// Schema is the optional (pattern, predicate?, limit?) triple attached
// to a bag at creation time, constraining what Insert accepts.
type Schema struct {
	Pattern   eval.Pattern
	Predicate eval.Expression // nil if absent
	HasLimit  bool
	Limit     int64
}

// validate checks v against the schema, returning nil on success or an
// error describing why v was rejected. The match environment is used
// only to evaluate the predicate and is discarded afterwards.
func (s *Schema) validate(v eval.Value) error {
	if s == nil {
		return nil
	}
	env, err := eval.Match(s.Pattern, v, eval.EmptyEnv())
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBag, err)
	}
	if s.Predicate == nil {
		return nil
	}
	res, err := eval.EvalExpr(s.Predicate, env)
	if err != nil {
		return fmt.Errorf("%w: schema predicate: %s", ErrBag, err)
	}
	ok, isBool := res.(eval.Bool)
	if !isBool || !bool(ok) {
		return fmt.Errorf("%w: schema predicate rejected value", ErrBag)
	}
	return nil
}
