package damasc

import "github.com/midbel/damasc/eval"

// names collects the capture names a pattern introduces, left to
// right, depth first, each name once at its first occurrence — the
// order MatchOutput displays bindings in.
func names(pat eval.Pattern) []string {
	var out []string
	seen := map[string]bool{}
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	var walk func(eval.Pattern)
	walk = func(p eval.Pattern) {
		switch p := p.(type) {
		case eval.CapturePattern:
			add(p.Name)
		case eval.TypedCapturePattern:
			add(p.Name)
		case eval.ArrayPattern:
			for _, item := range p.Items {
				walk(item.Pattern)
			}
			if p.Rest == eval.RestCollect {
				add(p.RestName)
			}
		case eval.ObjectPattern:
			for _, item := range p.Items {
				walk(item.Pattern)
			}
			if p.Rest == eval.RestCollect {
				add(p.RestName)
			}
		}
	}
	walk(pat)
	return out
}

// bindingsOf resolves every name in pat against env, in pattern order.
func bindingsOf(pat eval.Pattern, env *eval.Env) []Binding {
	ns := names(pat)
	out := make([]Binding, 0, len(ns))
	for _, n := range ns {
		v, err := env.Resolve(n)
		if err != nil {
			continue
		}
		out = append(out, Binding{Name: n, Value: v})
	}
	return out
}
