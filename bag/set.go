package bag

import (
	"fmt"
	"regexp"

	"github.com/midbel/damasc/eval"
)

var nameRe = regexp.MustCompile(`^[a-z_]+$`)

// ValidName reports whether name satisfies the bag/file naming grammar
// `[a-z_]+` used by .bag, .dump and .load.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// Set is the process-wide collection of bags plus the name of the
// current one. The bag named "init" exists implicitly from the moment
// a Set is created.
type Set struct {
	current string
	bags    map[string]*Bag
}

func NewSet() *Set {
	return &Set{
		current: "init",
		bags:    map[string]*Bag{"init": New("init")},
	}
}

// Current returns the bag currently selected.
func (s *Set) Current() *Bag {
	return s.bags[s.current]
}

// CurrentName returns the name of the bag currently selected.
func (s *Set) CurrentName() string {
	return s.current
}

// Switch selects name as current, creating an unconstrained bag under
// that name if it does not already exist.
func (s *Set) Switch(name string) *Bag {
	b, ok := s.bags[name]
	if !ok {
		b = New(name)
		s.bags[name] = b
	}
	s.current = name
	return b
}

// Create makes a new, schema-constrained bag and selects it. It fails
// if a bag by that name already exists, constrained or not.
func (s *Set) Create(name string, schema *Schema) (*Bag, error) {
	if _, ok := s.bags[name]; ok {
		return nil, fmt.Errorf("%w: bag %q already exists", ErrBag, name)
	}
	b := New(name)
	b.Schema = schema
	s.bags[name] = b
	s.current = name
	return b, nil
}

// Get looks up a bag by name without switching to it.
func (s *Set) Get(name string) (*Bag, bool) {
	b, ok := s.bags[name]
	return b, ok
}

// Transfer scans the current bag for up to limit values matching
// pattern and (if present) satisfying predicate, reshapes each with
// projection (identity if nil), and moves them into the bag named
// toName. All-or-nothing across both bags: every reshaped value is
// validated against toName's schema before either bag is mutated, and
// a missing toName is an error rather than an implicit bag creation
// (unlike Switch, which a bare .bag command uses to create on demand).
func (s *Set) Transfer(toName string, pattern eval.Pattern, projection eval.Expression, predicate eval.Expression, limit int64) (int, error) {
	dst, ok := s.Get(toName)
	if !ok {
		return 0, fmt.Errorf("%w: bag %q does not exist", ErrBag, toName)
	}
	src := s.Current()
	if dst == src {
		return 0, fmt.Errorf("%w: cannot move into the current bag", ErrBag)
	}

	var kept, moved []eval.Value
	for _, v := range src.entries {
		if limit > 0 && int64(len(moved)) >= limit {
			kept = append(kept, v)
			continue
		}
		env, matched, err := tryMatch(pattern, predicate, v)
		if err != nil {
			return 0, err
		}
		if !matched {
			kept = append(kept, v)
			continue
		}
		nv := v
		if projection != nil {
			nv, err = eval.EvalExpr(projection, env)
			if err != nil {
				return 0, fmt.Errorf("%w: move projection: %s", ErrBag, err)
			}
		}
		if err := dst.Schema.validate(nv); err != nil {
			return 0, err
		}
		moved = append(moved, nv)
	}

	src.entries = kept
	dst.entries = append(dst.entries, moved...)
	return len(moved), nil
}

// Names returns every bag name in the set, in no particular order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.bags))
	for n := range s.bags {
		names = append(names, n)
	}
	return names
}
