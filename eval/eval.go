package eval

import (
	"fmt"

	"github.com/midbel/damasc/env"
)

// Env is the environment type threaded through evaluation and matching:
// a persistent mapping from identifier name to Value.
type Env = env.Env[Value]

func EmptyEnv() *Env { return env.Empty[Value]() }

// EvalExpr evaluates a single expression in e, producing a Value or an
// error. It never mutates e.
func EvalExpr(expr Expression, e *Env) (Value, error) {
	switch n := expr.(type) {
	case LiteralExpr:
		return n.Value, nil
	case TypeLiteralExpr:
		return TypeVal{Of: n.Of}, nil
	case IdentExpr:
		v, err := e.Resolve(n.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnboundIdentifier, n.Name)
		}
		return v, nil
	case ArrayExpr:
		return evalArray(n, e)
	case ObjectExpr:
		return evalObject(n, e)
	case UnaryExpr:
		return evalUnary(n, e)
	case BinaryExpr:
		return evalBinary(n, e)
	case LogicalExpr:
		return evalLogical(n, e)
	case MemberExpr:
		return evalMember(n, e)
	case DotExpr:
		return evalDot(n, e)
	case CallExpr:
		return evalCall(n, e)
	case TypeOfExpr:
		v, err := EvalExpr(n.Expr, e)
		if err != nil {
			return nil, err
		}
		return TypeVal{Of: v.Tag()}, nil
	case IsTypeExpr:
		return evalIsType(n, e)
	case CastExpr:
		return evalCast(n, e)
	case TemplateExpr:
		return evalTemplate(n, e)
	default:
		return nil, fmt.Errorf("%T: unsupported expression", expr)
	}
}

func evalArray(n ArrayExpr, e *Env) (Value, error) {
	var items []Value
	for _, el := range n.Elems {
		v, err := EvalExpr(el.Expr, e)
		if err != nil {
			return nil, err
		}
		if !el.Spread {
			items = append(items, v)
			continue
		}
		arr, ok := v.(Array)
		if !ok {
			return nil, fmt.Errorf("%w: spread of %s requires Array", ErrTypeMismatch, v.Tag())
		}
		items = append(items, arr.Items()...)
	}
	return NewArray(items...), nil
}

func evalObject(n ObjectExpr, e *Env) (Value, error) {
	obj := Object{}
	for _, prop := range n.Props {
		switch {
		case prop.Spread != nil:
			v, err := EvalExpr(prop.Spread, e)
			if err != nil {
				return nil, err
			}
			src, ok := v.(Object)
			if !ok {
				return nil, fmt.Errorf("%w: spread of %s requires Object", ErrTypeMismatch, v.Tag())
			}
			for _, k := range src.Keys() {
				val, _ := src.Get(k)
				obj = obj.with(k, val)
			}
		case prop.Shorthand != "":
			v, err := e.Resolve(prop.Shorthand)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrUnboundIdentifier, prop.Shorthand)
			}
			obj = obj.with(prop.Shorthand, v)
		default:
			key, err := evalPropKey(prop.Key, e)
			if err != nil {
				return nil, err
			}
			val, err := EvalExpr(prop.Value, e)
			if err != nil {
				return nil, err
			}
			obj = obj.with(key, val)
		}
	}
	return obj, nil
}

func evalPropKey(k PropKey, e *Env) (string, error) {
	if !k.isComputed() {
		return k.Static, nil
	}
	v, err := EvalExpr(k.Computed, e)
	if err != nil {
		return "", err
	}
	s, ok := v.(String)
	if !ok {
		return "", fmt.Errorf("%w: computed key requires String, got %s", ErrTypeMismatch, v.Tag())
	}
	return string(s), nil
}

func evalUnary(n UnaryExpr, e *Env) (Value, error) {
	v, err := EvalExpr(n.Expr, e)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case Not:
		b, ok := v.(Bool)
		if !ok {
			return nil, fmt.Errorf("%w: ! requires Boolean operand, got %s", ErrTypeMismatch, v.Tag())
		}
		return !b, nil
	case Sub:
		i, ok := v.(Int)
		if !ok {
			return nil, fmt.Errorf("%w: unary - requires Integer operand, got %s", ErrTypeMismatch, v.Tag())
		}
		if i == -1<<63 {
			return nil, fmt.Errorf("%w: integer overflow in negation", ErrArithmetic)
		}
		return -i, nil
	default:
		return nil, fmt.Errorf("%s: unsupported unary operator", tokenName(n.Op))
	}
}

func evalBinary(n BinaryExpr, e *Env) (Value, error) {
	left, err := EvalExpr(n.Left, e)
	if err != nil {
		return nil, err
	}
	right, err := EvalExpr(n.Right, e)
	if err != nil {
		return nil, err
	}
	return evalBinaryOp(n.Op, left, right)
}

// evalBinaryOp does the actual dispatch; split from evalBinary to keep
// the arithmetic cases (which share one error path) from the
// comparison/equality/membership cases.
func evalBinaryOp(op rune, left, right Value) (Value, error) {
	switch op {
	case Add, Sub, Mul, Div, Pow:
		li, ok := left.(Arithmetic)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires Integer operands, got %s", ErrTypeMismatch, tokenName(op), left.Tag())
		}
		switch op {
		case Add:
			return li.Add(right)
		case Sub:
			return li.Sub(right)
		case Mul:
			return li.Mul(right)
		case Div:
			return li.Div(right)
		default:
			return li.Pow(right)
		}
	case Lt, Le, Gt, Ge:
		li, ok := left.(Int)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires Integer operands, got %s", ErrTypeMismatch, tokenName(op), left.Tag())
		}
		ri, ok := right.(Int)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires Integer operands, got %s", ErrTypeMismatch, tokenName(op), right.Tag())
		}
		switch op {
		case Lt:
			return Bool(li < ri), nil
		case Le:
			return Bool(li <= ri), nil
		case Gt:
			return Bool(li > ri), nil
		default:
			return Bool(li >= ri), nil
		}
	case Eq:
		return Bool(left.Equal(right)), nil
	case Ne:
		return Bool(!left.Equal(right)), nil
	case KwIn:
		key, ok := left.(String)
		if !ok {
			return nil, fmt.Errorf("%w: in requires a String left operand, got %s", ErrTypeMismatch, left.Tag())
		}
		obj, ok := right.(Object)
		if !ok {
			return nil, fmt.Errorf("%w: in requires an Object right operand, got %s", ErrTypeMismatch, right.Tag())
		}
		return Bool(obj.Has(string(key))), nil
	default:
		return nil, fmt.Errorf("%s: unsupported binary operator", tokenName(op))
	}
}

func evalLogical(n LogicalExpr, e *Env) (Value, error) {
	left, err := EvalExpr(n.Left, e)
	if err != nil {
		return nil, err
	}
	lb, ok := left.(Bool)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires Boolean operands, got %s", ErrTypeMismatch, tokenName(n.Op), left.Tag())
	}
	if n.Op == And && !bool(lb) {
		return Bool(false), nil
	}
	if n.Op == Or && bool(lb) {
		return Bool(true), nil
	}
	right, err := EvalExpr(n.Right, e)
	if err != nil {
		return nil, err
	}
	rb, ok := right.(Bool)
	if !ok {
		return nil, fmt.Errorf("%w: %s requires Boolean operands, got %s", ErrTypeMismatch, tokenName(n.Op), right.Tag())
	}
	return rb, nil
}

func evalMember(n MemberExpr, e *Env) (Value, error) {
	target, err := EvalExpr(n.Target, e)
	if err != nil {
		return nil, err
	}
	idx, err := EvalExpr(n.Index, e)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case Array:
		i, ok := idx.(Int)
		if !ok {
			return nil, fmt.Errorf("%w: array index must be Integer, got %s", ErrTypeMismatch, idx.Tag())
		}
		return t.at(int64(i))
	case String:
		i, ok := idx.(Int)
		if !ok {
			return nil, fmt.Errorf("%w: string index must be Integer, got %s", ErrTypeMismatch, idx.Tag())
		}
		return t.runeAt(int64(i))
	case Object:
		k, ok := idx.(String)
		if !ok {
			return nil, fmt.Errorf("%w: object index must be String, got %s", ErrTypeMismatch, idx.Tag())
		}
		v, ok := t.Get(string(k))
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, k)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s is not indexable", ErrTypeMismatch, target.Tag())
	}
}

func evalDot(n DotExpr, e *Env) (Value, error) {
	target, err := EvalExpr(n.Target, e)
	if err != nil {
		return nil, err
	}
	obj, ok := target.(Object)
	if !ok {
		return nil, fmt.Errorf("%w: . access requires Object, got %s", ErrTypeMismatch, target.Tag())
	}
	v, ok := obj.Get(n.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, n.Name)
	}
	return v, nil
}

func evalCall(n CallExpr, e *Env) (Value, error) {
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := EvalExpr(a, e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return callBuiltin(n.Name, args)
}

func evalIsType(n IsTypeExpr, e *Env) (Value, error) {
	v, err := EvalExpr(n.Expr, e)
	if err != nil {
		return nil, err
	}
	ofv, err := EvalExpr(n.Of, e)
	if err != nil {
		return nil, err
	}
	t, ok := ofv.(TypeVal)
	if !ok {
		return nil, fmt.Errorf("%w: is requires a Type operand, got %s", ErrTypeMismatch, ofv.Tag())
	}
	return Bool(v.Tag() == t.Of), nil
}

func evalCast(n CastExpr, e *Env) (Value, error) {
	v, err := EvalExpr(n.Expr, e)
	if err != nil {
		return nil, err
	}
	ofv, err := EvalExpr(n.Of, e)
	if err != nil {
		return nil, err
	}
	t, ok := ofv.(TypeVal)
	if !ok {
		return nil, fmt.Errorf("%w: as requires a Type operand, got %s", ErrTypeMismatch, ofv.Tag())
	}
	return castTo(v, t.Of)
}

func castTo(v Value, to Tag) (Value, error) {
	if v.Tag() == to {
		return v, nil
	}
	switch to {
	case TagString:
		switch x := v.(type) {
		case Int:
			return String(x.String()), nil
		case Bool:
			return String(x.String()), nil
		}
	case TagInt:
		if s, ok := v.(String); ok {
			n, err := parseIntStrict(string(s))
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a valid Integer", ErrCast, string(s))
			}
			return Int(n), nil
		}
	case TagBool:
		if s, ok := v.(String); ok {
			switch string(s) {
			case "true":
				return Bool(true), nil
			case "false":
				return Bool(false), nil
			}
			return nil, fmt.Errorf("%w: %q is not a valid Boolean", ErrCast, string(s))
		}
	}
	return nil, fmt.Errorf("%w: cannot cast %s to %s", ErrCast, v.Tag(), to)
}

func evalTemplate(n TemplateExpr, e *Env) (Value, error) {
	var out []byte
	for _, c := range n.Chunks {
		if c.Expr == nil {
			out = append(out, c.Text...)
			continue
		}
		v, err := EvalExpr(c.Expr, e)
		if err != nil {
			return nil, err
		}
		s, err := castTo(v, TagString)
		if err != nil {
			return nil, err
		}
		out = append(out, string(s.(String))...)
	}
	return String(out), nil
}
