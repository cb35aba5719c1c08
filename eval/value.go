package eval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Tag identifies the variant of a Value. It is itself a first-class
// Value (see TypeVal) so that expressions like `type(x) is Type` and
// `x is Integer` can be written in the language.
type Tag int

const (
	TagNull Tag = iota
	TagBool
	TagInt
	TagString
	TagArray
	TagObject
	TagType
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "Null"
	case TagBool:
		return "Boolean"
	case TagInt:
		return "Integer"
	case TagString:
		return "String"
	case TagArray:
		return "Array"
	case TagObject:
		return "Object"
	case TagType:
		return "Type"
	default:
		return "?"
	}
}

// tagByName resolves the type keyword spelling used in the grammar
// (Null, Boolean, Integer, String, Array, Object, Type) back to a Tag.
func tagByName(name string) (Tag, bool) {
	switch name {
	case "Null":
		return TagNull, true
	case "Boolean":
		return TagBool, true
	case "Integer":
		return TagInt, true
	case "String":
		return TagString, true
	case "Array":
		return TagArray, true
	case "Object":
		return TagObject, true
	case "Type":
		return TagType, true
	default:
		return 0, false
	}
}

// Value is the immutable, tagged-union JSON-like value that every
// expression evaluates to and every pattern matches against.
type Value interface {
	Tag() Tag
	Equal(Value) bool
	String() string
}

// Arithmetic is implemented only by Int: the language's non-goals rule
// out floating point and bitwise operators, so arithmetic is a narrow
// capability interface rather than something every Value must answer.
type Arithmetic interface {
	Add(Value) (Value, error)
	Sub(Value) (Value, error)
	Mul(Value) (Value, error)
	Div(Value) (Value, error)
	Pow(Value) (Value, error)
}

// Ordered is implemented by Int and String. The evaluator's <, <=, >,
// >= accept Integer operands only and do not dispatch through it.
type Ordered interface {
	Less(Value) (bool, error)
}

type Null struct{}

func (Null) Tag() Tag { return TagNull }
func (Null) String() string { return "null" }
func (Null) Equal(other Value) bool {
	_, ok := other.(Null)
	return ok
}

type Bool bool

func (Bool) Tag() Tag { return TagBool }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }
func (b Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && o == b
}

type Int int64

func (Int) Tag() Tag { return TagInt }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Equal(other Value) bool {
	o, ok := other.(Int)
	return ok && o == i
}

func (i Int) Add(other Value) (Value, error) {
	o, ok := other.(Int)
	if !ok {
		return nil, typeMismatch("+", i, other)
	}
	sum := i + o
	if (o > 0 && sum < i) || (o < 0 && sum > i) {
		return nil, fmt.Errorf("%w: integer overflow in addition", ErrArithmetic)
	}
	return sum, nil
}

func (i Int) Sub(other Value) (Value, error) {
	o, ok := other.(Int)
	if !ok {
		return nil, typeMismatch("-", i, other)
	}
	diff := i - o
	if (o < 0 && diff < i) || (o > 0 && diff > i) {
		return nil, fmt.Errorf("%w: integer overflow in subtraction", ErrArithmetic)
	}
	return diff, nil
}

func (i Int) Mul(other Value) (Value, error) {
	o, ok := other.(Int)
	if !ok {
		return nil, typeMismatch("*", i, other)
	}
	if i == 0 || o == 0 {
		return Int(0), nil
	}
	if i == -1<<63 && o == -1 {
		return nil, fmt.Errorf("%w: integer overflow in multiplication", ErrArithmetic)
	}
	prod := i * o
	if prod/o != i {
		return nil, fmt.Errorf("%w: integer overflow in multiplication", ErrArithmetic)
	}
	return prod, nil
}

func (i Int) Div(other Value) (Value, error) {
	o, ok := other.(Int)
	if !ok {
		return nil, typeMismatch("/", i, other)
	}
	if o == 0 {
		return nil, fmt.Errorf("%w: division by zero", ErrArithmetic)
	}
	if i == -1<<63 && o == -1 {
		return nil, fmt.Errorf("%w: integer overflow in division", ErrArithmetic)
	}
	return i / o, nil
}

func (i Int) Pow(other Value) (Value, error) {
	o, ok := other.(Int)
	if !ok {
		return nil, typeMismatch("^", i, other)
	}
	if o < 0 {
		return nil, fmt.Errorf("%w: negative exponent", ErrArithmetic)
	}
	result := Int(1)
	base := i
	for n := o; n > 0; n-- {
		next, err := result.Mul(base)
		if err != nil {
			return nil, err
		}
		result = next.(Int)
	}
	return result, nil
}

func (i Int) Less(other Value) (bool, error) {
	o, ok := other.(Int)
	if !ok {
		return false, typeMismatch("<", i, other)
	}
	return i < o, nil
}

type String string

func (String) Tag() Tag { return TagString }
func (s String) String() string { return quoteString(string(s)) }
func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == s
}

func (s String) Less(other Value) (bool, error) {
	o, ok := other.(String)
	if !ok {
		return false, typeMismatch("<", s, other)
	}
	return s < o, nil
}

// runeAt returns the one-character string at codepoint index i, applying
// the spec's negative-index rule.
func (s String) runeAt(i int64) (Value, error) {
	runes := []rune(string(s))
	idx, err := resolveIndex(i, len(runes))
	if err != nil {
		return nil, err
	}
	return String(runes[idx]), nil
}

func (s String) length() int {
	return len([]rune(string(s)))
}

// Array is an ordered, immutable sequence of Values.
type Array struct {
	items []Value
}

func NewArray(items ...Value) Array {
	return Array{items: append([]Value(nil), items...)}
}

func (Array) Tag() Tag { return TagArray }

func (a Array) Len() int { return len(a.items) }

func (a Array) Items() []Value {
	return append([]Value(nil), a.items...)
}

func (a Array) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for _, v := range a.items {
		b.WriteString(v.String())
		b.WriteString(", ")
	}
	b.WriteByte(']')
	return b.String()
}

func (a Array) Equal(other Value) bool {
	o, ok := other.(Array)
	if !ok || len(o.items) != len(a.items) {
		return false
	}
	for i := range a.items {
		if !a.items[i].Equal(o.items[i]) {
			return false
		}
	}
	return true
}

func (a Array) at(i int64) (Value, error) {
	idx, err := resolveIndex(i, len(a.items))
	if err != nil {
		return nil, err
	}
	return a.items[idx], nil
}

// resolveIndex applies the spec's negative-index convention: i in
// [-length, length) maps to length+i, anything else is out of range.
func resolveIndex(i int64, length int) (int, error) {
	idx := i
	if idx < 0 {
		idx += int64(length)
	}
	if idx < 0 || idx >= int64(length) {
		return 0, fmt.Errorf("%w: index %d out of range for length %d", ErrIndexOutOfRange, i, length)
	}
	return int(idx), nil
}

// entry is one key/value pair of an Object, in insertion order.
type entry struct {
	key   string
	value Value
}

// Object is an ordered, immutable mapping from string keys to Values.
// Insertion order is preserved for display; equality ignores order.
type Object struct {
	entries []entry
}

// NewObject builds an Object from keys/values in the given order,
// keeping the first-seen slot for a repeated key but the last-seen
// value, per the spec's last-wins deduplication rule.
func NewObject(keys []string, values []Value) Object {
	var o Object
	for i, k := range keys {
		o = o.with(k, values[i])
	}
	return o
}

func (o Object) with(key string, value Value) Object {
	entries := make([]entry, len(o.entries))
	copy(entries, o.entries)
	for i := range entries {
		if entries[i].key == key {
			entries[i].value = value
			return Object{entries: entries}
		}
	}
	entries = append(entries, entry{key: key, value: value})
	return Object{entries: entries}
}

func (Object) Tag() Tag { return TagObject }

func (o Object) Len() int { return len(o.entries) }

func (o Object) Keys() []string {
	keys := make([]string, len(o.entries))
	for i, e := range o.entries {
		keys[i] = e.key
	}
	return keys
}

func (o Object) Get(key string) (Value, bool) {
	for _, e := range o.entries {
		if e.key == key {
			return e.value, true
		}
	}
	return nil, false
}

func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

func (o Object) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for _, e := range o.entries {
		b.WriteString(formatKey(e.key))
		b.WriteString(": ")
		b.WriteString(e.value.String())
		b.WriteString(", ")
	}
	b.WriteByte('}')
	return b.String()
}

func formatKey(key string) string {
	if isIdentifier(key) {
		return key
	}
	return quoteString(key)
}

func (o Object) Equal(other Value) bool {
	p, ok := other.(Object)
	if !ok || len(p.entries) != len(o.entries) {
		return false
	}
	for _, e := range o.entries {
		v, ok := p.Get(e.key)
		if !ok || !v.Equal(e.value) {
			return false
		}
	}
	return true
}

// TypeVal is a first-class value representing a type tag, the result of
// `type(x)` and the operand of `is`/`as`.
type TypeVal struct {
	Of Tag
}

func (TypeVal) Tag() Tag { return TagType }
func (t TypeVal) String() string { return t.Of.String() }
func (t TypeVal) Equal(other Value) bool {
	o, ok := other.(TypeVal)
	return ok && o.Of == t.Of
}

func typeMismatch(op string, left, right Value) error {
	return fmt.Errorf("%w: %s requires %s operand, got %s", ErrTypeMismatch, op, left.Tag(), right.Tag())
}

// sortedKeys returns a sorted copy of keys: a deterministic key order
// independent of insertion order.
func sortedKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}
