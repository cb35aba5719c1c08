// Package env implements the persistent identifier environment shared by
// the evaluator and the pattern matcher.
package env

import (
	"errors"
	"fmt"
)

// ErrNotDefined is returned by Resolve when an identifier has no binding
// anywhere in the environment chain.
var ErrNotDefined = errors.New("identifier not defined")

// Env is an immutable mapping from identifier name to a value of type T.
// Extend never mutates the receiver: it returns a new Env with one extra
// binding, so a failed match or a discarded assignment can simply drop the
// extended environment and keep using the original.
type Env[T any] struct {
	parent *Env[T]
	name   string
	value  T
	empty  bool
}

// Empty returns an environment with no bindings.
func Empty[T any]() *Env[T] {
	return &Env[T]{empty: true}
}

// Extend binds name to value in e, returning a new environment. The
// receiver, and anything still holding a reference to it, is unaffected.
func (e *Env[T]) Extend(name string, value T) *Env[T] {
	return &Env[T]{
		parent: e,
		name:   name,
		value:  value,
	}
}

// Resolve walks the environment chain from the most recent binding
// outward, returning the first binding found for name.
func (e *Env[T]) Resolve(name string) (T, error) {
	for cur := e; cur != nil && !cur.empty; cur = cur.parent {
		if cur.name == name {
			return cur.value, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s: %w", name, ErrNotDefined)
}

// Has reports whether name is bound anywhere in the chain.
func (e *Env[T]) Has(name string) bool {
	_, err := e.Resolve(name)
	return err == nil
}
