package eval

import "fmt"

// Match attempts to match pat against v starting from e, returning the
// extended environment on success. On failure it returns ErrNoMatch (or
// a wrapping of it) and the original e is left usable: Match never
// returns a partially-extended environment. A repeated capture name
// must structurally equal its prior binding (re-affirmation); this is
// the mode used by query patterns and bare `p = e` assignment.
func Match(pat Pattern, v Value, e *Env) (*Env, error) {
	return match(pat, v, e, false)
}

// MatchBind is Match, except a capture always introduces a fresh
// binding that shadows any existing one instead of re-affirming it.
// This is the mode `let p = e` uses.
func MatchBind(pat Pattern, v Value, e *Env) (*Env, error) {
	return match(pat, v, e, true)
}

func match(pat Pattern, v Value, e *Env, fresh bool) (*Env, error) {
	switch p := pat.(type) {
	case DiscardPattern:
		return e, nil
	case TypedDiscardPattern:
		if v.Tag() != p.Of {
			return nil, fmt.Errorf("%w: expected %s, got %s", ErrNoMatch, p.Of, v.Tag())
		}
		return e, nil
	case CapturePattern:
		return bind(e, p.Name, v, fresh)
	case TypedCapturePattern:
		if v.Tag() != p.Of {
			return nil, fmt.Errorf("%w: expected %s, got %s", ErrNoMatch, p.Of, v.Tag())
		}
		return bind(e, p.Name, v, fresh)
	case LiteralPattern:
		if !p.Value.Equal(v) {
			return nil, fmt.Errorf("%w: %s does not equal %s", ErrNoMatch, v, p.Value)
		}
		return e, nil
	case ArrayPattern:
		return matchArray(p, v, e, fresh)
	case ObjectPattern:
		return matchObject(p, v, e, fresh)
	default:
		return nil, fmt.Errorf("%T: unsupported pattern", pat)
	}
}

// bind binds name to v in e. In re-affirm mode (fresh=false), a name
// already bound in e must structurally equal v instead of shadowing it;
// in fresh mode the new binding always shadows.
func bind(e *Env, name string, v Value, fresh bool) (*Env, error) {
	if !fresh {
		if prior, err := e.Resolve(name); err == nil {
			if !prior.Equal(v) {
				return nil, fmt.Errorf("%w: %s rebound to a different value", ErrNoMatch, name)
			}
			return e, nil
		}
	}
	return e.Extend(name, v), nil
}

func matchArray(p ArrayPattern, v Value, e *Env, fresh bool) (*Env, error) {
	arr, ok := v.(Array)
	if !ok {
		return nil, fmt.Errorf("%w: array pattern requires Array, got %s", ErrNoMatch, v.Tag())
	}
	items := arr.Items()
	if len(items) < len(p.Items) {
		return nil, fmt.Errorf("%w: array has %d elements, pattern names %d", ErrNoMatch, len(items), len(p.Items))
	}
	if p.Rest == RestExact && len(items) != len(p.Items) {
		return nil, fmt.Errorf("%w: array has %d elements, pattern wants exactly %d", ErrNoMatch, len(items), len(p.Items))
	}
	cur := e
	for i, item := range p.Items {
		var err error
		cur, err = match(item.Pattern, items[i], cur, fresh)
		if err != nil {
			return nil, err
		}
	}
	if p.Rest == RestCollect {
		rest := NewArray(items[len(p.Items):]...)
		var err error
		cur, err = bind(cur, p.RestName, rest, fresh)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func matchObject(p ObjectPattern, v Value, e *Env, fresh bool) (*Env, error) {
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("%w: object pattern requires Object, got %s", ErrNoMatch, v.Tag())
	}
	cur := e
	named := make(map[string]bool, len(p.Items))
	for _, item := range p.Items {
		key, err := evalPropKey(item.Key, cur)
		if err != nil {
			return nil, err
		}
		named[key] = true
		val, ok := obj.Get(key)
		if !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrNoMatch, key)
		}
		cur, err = match(item.Pattern, val, cur, fresh)
		if err != nil {
			return nil, err
		}
	}
	switch p.Rest {
	case RestExact:
		if obj.Len() != len(named) {
			return nil, fmt.Errorf("%w: object has %d keys, pattern names %d", ErrNoMatch, obj.Len(), len(named))
		}
	case RestCollect:
		var keys []string
		var values []Value
		for _, k := range obj.Keys() {
			if named[k] {
				continue
			}
			v, _ := obj.Get(k)
			keys = append(keys, k)
			values = append(values, v)
		}
		rest := NewObject(keys, values)
		var err error
		cur, err = bind(cur, p.RestName, rest, fresh)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}
