package query

import (
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

func mustPattern(t *testing.T, src string) eval.Pattern {
	t.Helper()
	p, err := eval.ParsePattern(src)
	if err != nil {
		t.Fatalf("parse pattern %q: %v", src, err)
	}
	return p
}

func collectStrings(t *testing.T, rows []Row) []string {
	t.Helper()
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Value.String()
	}
	return out
}

func TestDistinctVsWithRepetitionRowCounts(t *testing.T) {
	journal := []eval.Value{mustValue(t, "1"), mustValue(t, "0")}
	cases := []struct {
		name      string
		repeat    bool
		wantRows  []string
		wantCount int
	}{
		{"distinct", false, []string{"[1, 0, ]", "[0, 1, ]"}, 2},
		{"with-repetition", true, nil, 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := &Query{Patterns: []eval.Pattern{mustPattern(t, "a"), mustPattern(t, "b")}, Repeat: c.repeat}
			cur, err := New(q, journal, eval.EmptyEnv())
			if err != nil {
				t.Fatal(err)
			}
			rows, err := Collect(cur)
			if err != nil {
				t.Fatal(err)
			}
			got := collectStrings(t, rows)
			if len(got) != c.wantCount {
				t.Fatalf("got %d rows, want %d: %v", len(got), c.wantCount, got)
			}
			for i := range c.wantRows {
				if got[i] != c.wantRows[i] {
					t.Errorf("row %d: got %s, want %s", i, got[i], c.wantRows[i])
				}
			}
		})
	}
}

func TestReaffirmingPatternAcrossPositions(t *testing.T) {
	journal := []eval.Value{mustValue(t, "5"), mustValue(t, "5"), mustValue(t, "6")}
	q := &Query{Patterns: []eval.Pattern{mustPattern(t, "x"), mustPattern(t, "x")}}
	c, err := New(q, journal, eval.EmptyEnv())
	if err != nil {
		t.Fatal(err)
	}
	rows, err := Collect(c)
	if err != nil {
		t.Fatal(err)
	}
	// Only the two index-5/index-5 pairings (in both orders) satisfy x==x;
	// pairing either 5 with the 6 never matches.
	for _, r := range rows {
		a, _ := r.Env.Resolve("x")
		_ = a
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %v", len(rows), collectStrings(t, rows))
	}
}

func TestProjectionAndLimit(t *testing.T) {
	journal := []eval.Value{mustValue(t, "1"), mustValue(t, "2"), mustValue(t, "3")}
	q := &Query{
		Patterns:   []eval.Pattern{mustPattern(t, "a")},
		Projection: mustExpr(t, "a * 10"),
		Limit:      2,
	}
	c, err := New(q, journal, eval.EmptyEnv())
	if err != nil {
		t.Fatal(err)
	}
	rows, err := Collect(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Value.String() != "10" || rows[1].Value.String() != "20" {
		t.Fatalf("got %v", collectStrings(t, rows))
	}
}

func TestPredicateFiltersRows(t *testing.T) {
	journal := []eval.Value{mustValue(t, "1"), mustValue(t, "2"), mustValue(t, "3"), mustValue(t, "4")}
	q := &Query{
		Patterns:  []eval.Pattern{mustPattern(t, "a")},
		Predicate: mustExpr(t, "a > 2"),
	}
	c, err := New(q, journal, eval.EmptyEnv())
	if err != nil {
		t.Fatal(err)
	}
	rows, err := Collect(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %v", len(rows), collectStrings(t, rows))
	}
}

func TestEmptyJournalYieldsNothing(t *testing.T) {
	q := &Query{Patterns: []eval.Pattern{mustPattern(t, "a")}}
	c, err := New(q, nil, eval.EmptyEnv())
	if err != nil {
		t.Fatal(err)
	}
	rows, err := Collect(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestTooManyPatternsRejected(t *testing.T) {
	pats := make([]eval.Pattern, MaxPatterns+1)
	for i := range pats {
		pats[i] = mustPattern(t, "_")
	}
	_, err := New(&Query{Patterns: pats}, []eval.Value{mustValue(t, "1")}, eval.EmptyEnv())
	if err == nil {
		t.Fatal("expected arity error")
	}
}

func TestQueryDeterminism(t *testing.T) {
	journal := []eval.Value{mustValue(t, "1"), mustValue(t, "2")}
	run := func() []string {
		q := &Query{Patterns: []eval.Pattern{mustPattern(t, "a"), mustPattern(t, "b")}}
		c, err := New(q, journal, eval.EmptyEnv())
		if err != nil {
			t.Fatal(err)
		}
		rows, err := Collect(c)
		if err != nil {
			t.Fatal(err)
		}
		return collectStrings(t, rows)
	}
	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("nondeterministic row counts: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("nondeterministic order at %d: %v vs %v", i, first, second)
		}
	}
}
