package eval

import "fmt"

// callBuiltin dispatches the two free functions the grammar recognizes
// by name: length(x) and type(x). type(x) is ordinarily rewritten to a
// TypeOfExpr by the parser, but a call with the wrong arity falls
// through to here so it still fails with ErrBadArity rather than a
// parser-time surprise.
func callBuiltin(name string, args []Value) (Value, error) {
	switch name {
	case "length":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: length wants 1 argument, got %d", ErrBadArity, len(args))
		}
		switch v := args[0].(type) {
		case String:
			return Int(v.length()), nil
		case Array:
			return Int(v.Len()), nil
		case Object:
			return Int(v.Len()), nil
		default:
			return nil, fmt.Errorf("%w: length requires String, Array or Object, got %s", ErrTypeMismatch, v.Tag())
		}
	case "type":
		return nil, fmt.Errorf("%w: type wants 1 argument, got %d", ErrBadArity, len(args))
	default:
		return nil, fmt.Errorf("%s: unknown function", name)
	}
}
