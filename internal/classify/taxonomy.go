package classify

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Rule maps classification keywords to a tag. A raw classification matches
// the rule when it equals the tag or contains one of the keywords.
type Rule struct {
	Tag      string   `koanf:"tag" yaml:"tag"`
	Keywords []string `koanf:"keywords" yaml:"keywords"`
}

// Taxonomy resolves raw classification strings into tags. It is an immutable
// value passed to the components that need it.
type Taxonomy struct {
	rules       []foldedRule
	distributed []string
	elevator    map[string]bool
	fold        cases.Caser
}

type foldedRule struct {
	tag      string
	folded   string
	keywords []string
}

// New builds a taxonomy. distributed lists keywords of loads spread along the
// run; elevatorTags lists tags fed to the elevator calculator.
func New(rules []Rule, distributed []string, elevatorTags []string) *Taxonomy {
	t := &Taxonomy{
		elevator: make(map[string]bool, len(elevatorTags)),
		fold:     cases.Fold(),
	}
	for _, r := range rules {
		fr := foldedRule{tag: r.Tag, folded: t.fold.String(r.Tag)}
		for _, k := range r.Keywords {
			if k = strings.TrimSpace(k); k != "" {
				fr.keywords = append(fr.keywords, t.fold.String(k))
			}
		}
		t.rules = append(t.rules, fr)
	}
	for _, k := range distributed {
		if k = strings.TrimSpace(k); k != "" {
			t.distributed = append(t.distributed, t.fold.String(k))
		}
	}
	for _, tag := range elevatorTags {
		t.elevator[tag] = true
	}
	return t
}

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	return New(DefaultRules(), DefaultDistributed(), []string{"elevators"})
}

// DefaultRules returns the built-in classification rules, Russian and English
// keywords side by side.
func DefaultRules() []Rule {
	return []Rule{
		{Tag: "apartments", Keywords: []string{"квартир", "apartment"}},
		{Tag: "elevators", Keywords: []string{"лифт", "elevator", "lift"}},
		{Tag: "cooling", Keywords: []string{"кондицион", "холод", "cooling", "chiller"}},
		{Tag: "ventilation", Keywords: []string{"вентил", "ventilation", "fan"}},
		{Tag: "pumps", Keywords: []string{"насос", "pump"}},
		{Tag: "lighting", Keywords: []string{"освещ", "lighting", "light"}},
		{Tag: "heating", Keywords: []string{"обогрев", "heating"}},
	}
}

// DefaultDistributed returns keywords of loads distributed along the run.
func DefaultDistributed() []string {
	return []string{"освещ", "lighting", "обогрев", "heating cable"}
}

// Resolve returns the tag of a raw classification. Exact tag names win over
// keyword matches; rules are tried in order. ok is false for unknown input.
func (t *Taxonomy) Resolve(raw string) (tag string, ok bool) {
	f := t.fold.String(strings.TrimSpace(raw))
	if f == "" {
		return "", false
	}
	for _, r := range t.rules {
		if r.folded == f {
			return r.tag, true
		}
	}
	for _, r := range t.rules {
		for _, k := range r.keywords {
			if strings.Contains(f, k) {
				return r.tag, true
			}
		}
	}
	return "", false
}

// Distributed reports whether raw names a load distributed along its run.
func (t *Taxonomy) Distributed(raw string) bool {
	f := t.fold.String(raw)
	for _, k := range t.distributed {
		if strings.Contains(f, k) {
			return true
		}
	}
	return false
}

// Elevator reports whether tag feeds the elevator calculator.
func (t *Taxonomy) Elevator(tag string) bool {
	return t.elevator[tag]
}

// Tags returns all known tags, sorted.
func (t *Taxonomy) Tags() []string {
	out := make([]string, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r.tag)
	}
	sort.Strings(out)
	return out
}
