package bag

import (
	"strings"
	"testing"

	"github.com/midbel/damasc/eval"
)

func mustExpr(t *testing.T, src string) eval.Expression {
	t.Helper()
	e, err := eval.ParseExpr(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return e
}

func mustValue(t *testing.T, src string) eval.Value {
	t.Helper()
	v, err := eval.EvalExpr(mustExpr(t, src), eval.EmptyEnv())
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func TestInsertAllOrNothing(t *testing.T) {
	b := New("t")
	n, err := b.Insert([]eval.Value{mustValue(t, "1"), mustValue(t, "0")})
	if err != nil || n != 2 {
		t.Fatalf("insert: n=%d err=%v", n, err)
	}
	if b.Len() != 2 {
		t.Fatalf("len = %d, want 2", b.Len())
	}
}

func TestInsertSchemaRejectsWholeBatch(t *testing.T) {
	pat, err := eval.ParsePattern("_ is Integer")
	if err != nil {
		t.Fatal(err)
	}
	b := New("t")
	b.Schema = &Schema{Pattern: pat}
	_, err = b.Insert([]eval.Value{mustValue(t, "1"), mustValue(t, `"nope"`)})
	if err == nil {
		t.Fatal("expected schema rejection")
	}
	if b.Len() != 0 {
		t.Fatalf("batch partially applied: len = %d", b.Len())
	}
}

func TestPopMissIsNotError(t *testing.T) {
	b := New("t")
	if b.Pop(mustValue(t, "99")) {
		t.Fatal("pop on empty bag reported a hit")
	}
}

func TestInsertDeleteSymmetry(t *testing.T) {
	b := New("t")
	v := mustValue(t, `"x"`)
	if _, err := b.Insert([]eval.Value{v, v, mustValue(t, "1")}); err != nil {
		t.Fatal(err)
	}
	pat, err := eval.ParsePattern(`_ is String`)
	if err != nil {
		t.Fatal(err)
	}
	n, err := b.Delete(pat, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("deleted %d, want 2", n)
	}
	if b.Len() != 1 {
		t.Fatalf("len = %d, want 1", b.Len())
	}
}

func TestDeleteRespectsLimit(t *testing.T) {
	b := New("t")
	if _, err := b.Insert([]eval.Value{mustValue(t, "1"), mustValue(t, "1"), mustValue(t, "1")}); err != nil {
		t.Fatal(err)
	}
	pat, _ := eval.ParsePattern("_ is Integer")
	n, err := b.Delete(pat, nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || b.Len() != 1 {
		t.Fatalf("n=%d len=%d, want n=2 len=1", n, b.Len())
	}
}

func TestDumpLoadRoundTrip(t *testing.T) {
	b := New("t")
	if _, err := b.Insert([]eval.Value{mustValue(t, "1"), mustValue(t, `"a"`), mustValue(t, "[1, 2, ]")}); err != nil {
		t.Fatal(err)
	}
	var buf strings.Builder
	if err := b.Dump(&buf); err != nil {
		t.Fatal(err)
	}

	loaded := New("t2")
	n, err := loaded.Load(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || loaded.Len() != 3 {
		t.Fatalf("n=%d len=%d, want 3 and 3", n, loaded.Len())
	}
	orig, restored := b.Entries(), loaded.Entries()
	for i := range orig {
		if !orig[i].Equal(restored[i]) {
			t.Fatalf("entry %d: %s != %s", i, orig[i], restored[i])
		}
	}
}

func TestUpdateReplacesMatchingEntries(t *testing.T) {
	b := New("t")
	if _, err := b.Insert([]eval.Value{mustValue(t, "1"), mustValue(t, "2"), mustValue(t, "3")}); err != nil {
		t.Fatal(err)
	}
	pat, _ := eval.ParsePattern("x is Integer")
	n, err := b.Update(pat, mustExpr(t, "x + 10"), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("changed %d, want 3", n)
	}
	got := b.Entries()
	want := []eval.Value{mustValue(t, "11"), mustValue(t, "12"), mustValue(t, "13")}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("entry %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestUpdateRespectsLimit(t *testing.T) {
	b := New("t")
	if _, err := b.Insert([]eval.Value{mustValue(t, "1"), mustValue(t, "1"), mustValue(t, "1")}); err != nil {
		t.Fatal(err)
	}
	pat, _ := eval.ParsePattern("x is Integer")
	n, err := b.Update(pat, mustExpr(t, "x + 1"), nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("changed %d, want 2", n)
	}
	got := b.Entries()
	if got[0].(eval.Int) != 2 || got[1].(eval.Int) != 2 || got[2].(eval.Int) != 1 {
		t.Fatalf("got %v, want [2 2 1]", got)
	}
}

func TestUpdateSchemaRejectionLeavesJournalUntouched(t *testing.T) {
	pat, err := eval.ParsePattern("_ is Integer")
	if err != nil {
		t.Fatal(err)
	}
	b := New("t")
	b.Schema = &Schema{Pattern: pat}
	if _, err := b.Insert([]eval.Value{mustValue(t, "1"), mustValue(t, "2")}); err != nil {
		t.Fatal(err)
	}
	all, _ := eval.ParsePattern("x")
	_, err = b.Update(all, mustExpr(t, `"nope"`), nil, 0)
	if err == nil {
		t.Fatal("expected schema rejection")
	}
	got := b.Entries()
	if !got[0].Equal(mustValue(t, "1")) || !got[1].Equal(mustValue(t, "2")) {
		t.Fatalf("journal mutated on rejected change: %v", got)
	}
}

func TestSetImplicitInitBag(t *testing.T) {
	s := NewSet()
	if s.CurrentName() != "init" {
		t.Fatalf("current = %q, want init", s.CurrentName())
	}
	if _, ok := s.Get("init"); !ok {
		t.Fatal("init bag missing")
	}
}

func TestSetCreateRejectsDuplicate(t *testing.T) {
	s := NewSet()
	if _, err := s.Create("users", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create("users", nil); err == nil {
		t.Fatal("expected duplicate-bag error")
	}
}

func TestValidName(t *testing.T) {
	cases := map[string]bool{"users": true, "a_b": true, "User": false, "a1": false, "": false}
	for name, want := range cases {
		if got := ValidName(name); got != want {
			t.Errorf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}
