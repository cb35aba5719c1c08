package eval

import "testing"

func mustPattern(t *testing.T, src string) Pattern {
	t.Helper()
	p, err := ParsePattern(src)
	if err != nil {
		t.Fatalf("parse pattern %q: %s", src, err)
	}
	return p
}

func mustValueSrc(t *testing.T, src string) Value {
	t.Helper()
	v, err := EvalExpr(mustExprSrc(t, src), EmptyEnv())
	if err != nil {
		t.Fatalf("eval %q: %s", src, err)
	}
	return v
}

func mustExprSrc(t *testing.T, src string) Expression {
	t.Helper()
	e, err := ParseExpr(src)
	if err != nil {
		t.Fatalf("parse expr %q: %s", src, err)
	}
	return e
}

func TestMatchCaptureBindsName(t *testing.T) {
	pat := mustPattern(t, "x")
	env, err := Match(pat, Int(5), EmptyEnv())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	v, err := env.Resolve("x")
	if err != nil || v.(Int) != 5 {
		t.Fatalf("got %v, %v, want 5, nil", v, err)
	}
}

func TestMatchTypedCaptureRejectsWrongType(t *testing.T) {
	pat := mustPattern(t, "x is String")
	if _, err := Match(pat, Int(5), EmptyEnv()); err == nil {
		t.Fatal("expected no-match error for wrong type")
	}
}

func TestMatchReaffirmationRequiresEqualValue(t *testing.T) {
	pat := mustPattern(t, "x")
	env, err := Match(pat, Int(5), EmptyEnv())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := Match(pat, Int(5), env); err != nil {
		t.Fatalf("re-affirming the same value should succeed: %s", err)
	}
	if _, err := Match(pat, Int(6), env); err == nil {
		t.Fatal("re-affirming a different value should fail")
	}
}

func TestMatchBindAlwaysShadows(t *testing.T) {
	pat := mustPattern(t, "x")
	env, err := MatchBind(pat, Int(5), EmptyEnv())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	env, err = MatchBind(pat, Int(99), env)
	if err != nil {
		t.Fatalf("MatchBind should always shadow, got error: %s", err)
	}
	v, _ := env.Resolve("x")
	if v.(Int) != 99 {
		t.Fatalf("got %v, want 99", v)
	}
}

func TestMatchArrayRestExact(t *testing.T) {
	pat := mustPattern(t, "[a,b]")
	if _, err := Match(pat, mustValueSrc(t, "[1,2,3]"), EmptyEnv()); err == nil {
		t.Fatal("expected rest-exact mismatch on extra element")
	}
	env, err := Match(pat, mustValueSrc(t, "[1,2]"), EmptyEnv())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	a, _ := env.Resolve("a")
	b, _ := env.Resolve("b")
	if a.(Int) != 1 || b.(Int) != 2 {
		t.Fatalf("got a=%v b=%v", a, b)
	}
}

func TestMatchArrayRestCollect(t *testing.T) {
	pat := mustPattern(t, "[a, ...rest]")
	env, err := Match(pat, mustValueSrc(t, "[1,2,3]"), EmptyEnv())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	rest, _ := env.Resolve("rest")
	arr := rest.(Array)
	if arr.Len() != 2 {
		t.Fatalf("got rest len %d, want 2", arr.Len())
	}
}

func TestMatchNestedArrayObjectDestructure(t *testing.T) {
	pat := mustPattern(t, "[_,{x,...},...]")
	v := mustValueSrc(t, `["foo",{x:5,y:8},true]`)
	env, err := Match(pat, v, EmptyEnv())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	x, err := env.Resolve("x")
	if err != nil || x.(Int) != 5 {
		t.Fatalf("got %v, %v, want 5, nil", x, err)
	}
}

func TestMatchObjectRestDiscardIgnoresExtraKeys(t *testing.T) {
	pat := mustPattern(t, "{x,...}")
	env, err := Match(pat, mustValueSrc(t, `{x:1,y:2,z:3}`), EmptyEnv())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	x, _ := env.Resolve("x")
	if x.(Int) != 1 {
		t.Fatalf("got %v, want 1", x)
	}
}

func TestMatchObjectMissingKeyFails(t *testing.T) {
	pat := mustPattern(t, "{x}")
	if _, err := Match(pat, mustValueSrc(t, `{y:1}`), EmptyEnv()); err == nil {
		t.Fatal("expected no-match error for missing key")
	}
}

func TestMatchObjectSingleShorthandEnforcesType(t *testing.T) {
	pat := mustPattern(t, "{age is Integer}")
	if _, err := Match(pat, mustValueSrc(t, `{age: "not a number"}`), EmptyEnv()); err == nil {
		t.Fatal("expected no-match error: age is not an Integer")
	}
	env, err := Match(pat, mustValueSrc(t, `{age: 42}`), EmptyEnv())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	age, err := env.Resolve("age")
	if err != nil || age.(Int) != 42 {
		t.Fatalf("got %v, %v, want 42, nil", age, err)
	}
}

func TestMatchLiteralPattern(t *testing.T) {
	pat := mustPattern(t, "42")
	if _, err := Match(pat, Int(42), EmptyEnv()); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := Match(pat, Int(7), EmptyEnv()); err == nil {
		t.Fatal("expected no-match error")
	}
}
