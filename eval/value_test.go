package eval

import "testing"

func TestIntArithmeticOverflow(t *testing.T) {
	max := Int(1<<63 - 1)
	min := Int(-1 << 63)
	cases := []struct {
		name string
		fn   func() (Value, error)
	}{
		{"add", func() (Value, error) { return max.Add(Int(1)) }},
		{"sub", func() (Value, error) { return min.Sub(Int(1)) }},
		{"div", func() (Value, error) { return min.Div(Int(-1)) }},
		{"mul", func() (Value, error) { return min.Mul(Int(-1)) }},
		{"pow", func() (Value, error) { return Int(3).Pow(Int(40)) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := c.fn(); err == nil {
				t.Fatalf("expected overflow error, got none")
			}
		})
	}
}

func TestIntDivTruncatesTowardZero(t *testing.T) {
	v, err := Int(-7).Div(Int(2))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.(Int) != -3 {
		t.Fatalf("got %v, want -3", v)
	}
}

func TestIntPow(t *testing.T) {
	v, err := Int(2).Pow(Int(10))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.(Int) != 1024 {
		t.Fatalf("got %v, want 1024", v)
	}
}

func TestIntPowNegativeExponentRejected(t *testing.T) {
	if _, err := Int(2).Pow(Int(-1)); err == nil {
		t.Fatal("expected error for negative exponent")
	}
}

func TestArrayEqualIgnoresNothingOrderMatters(t *testing.T) {
	a := NewArray(Int(1), Int(2))
	b := NewArray(Int(2), Int(1))
	if a.Equal(b) {
		t.Fatal("arrays with same elements in different order must not be equal")
	}
	c := NewArray(Int(1), Int(2))
	if !a.Equal(c) {
		t.Fatal("arrays with same elements in same order must be equal")
	}
}

func TestObjectEqualIgnoresOrder(t *testing.T) {
	a := NewObject([]string{"x", "y"}, []Value{Int(1), Int(2)})
	b := NewObject([]string{"y", "x"}, []Value{Int(2), Int(1)})
	if !a.Equal(b) {
		t.Fatal("objects with same key/value pairs in different order must be equal")
	}
}

func TestObjectLastWinsOnDuplicateKey(t *testing.T) {
	o := NewObject([]string{"x", "x"}, []Value{Int(1), Int(2)})
	if o.Len() != 1 {
		t.Fatalf("got %d entries, want 1", o.Len())
	}
	v, ok := o.Get("x")
	if !ok || v.(Int) != 2 {
		t.Fatalf("got %v, want 2 (last write wins)", v)
	}
}

func TestArrayNegativeIndex(t *testing.T) {
	a := NewArray(Int(10), Int(20), Int(30))
	v, err := a.at(-1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.(Int) != 30 {
		t.Fatalf("got %v, want 30", v)
	}
}

func TestArrayIndexOutOfRange(t *testing.T) {
	a := NewArray(Int(1))
	if _, err := a.at(5); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestStringLength(t *testing.T) {
	s := String("héllo")
	if s.length() != 5 {
		t.Fatalf("got %d, want 5 codepoints", s.length())
	}
}
