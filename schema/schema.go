// Package schema holds the fixed catalog of SEO parameters evaluated by the
// engine. The catalog is pure data: each parameter names its category, scope,
// aggregation weight and evaluation rule. It is loaded once at startup and
// never mutated.
package schema

import (
	"fmt"
	"strings"
)

// Version identifies the catalog revision. Site results record the version
// they were produced with; comparisons across versions are rejected.
const Version = "1.0"

// Category groups parameters for scoring and the radar view.
type Category string

const (
	Technical Category = "Technical"
	Content   Category = "Content"
	Authority Category = "Authority"
	EEAT      Category = "E-E-A-T"
	YMYL      Category = "YMYL"
	Mobile    Category = "Mobile"
	India     Category = "India"
)

// Categories lists every category in display order.
var Categories = []Category{Technical, Content, Authority, EEAT, YMYL, Mobile, India}

// Scope says where a parameter is evaluated.
type Scope int

const (
	// ScopePage parameters are evaluated against each crawled page and
	// averaged across the site.
	ScopePage Scope = iota
	// ScopeSite parameters are evaluated once from site-wide evidence
	// (probes, cross-page digests).
	ScopeSite
)

// Kind selects the normalization policy for a rule.
type Kind int

const (
	// KindBool normalizes a pass/fail observation to 0 or 100.
	KindBool Kind = iota
	// KindRange scores a numeric observation linearly between Lo and Hi.
	KindRange
	// KindEnum maps a categorical token through a fixed lookup table.
	KindEnum
)

// Rule is the evaluation policy for one parameter. The rule set is closed:
// every parameter uses exactly one of the three kinds.
type Rule struct {
	Kind        Kind
	Invert      bool    // KindBool: observing the signal counts against the site
	Lo, Hi      float64 // KindRange bounds in display units
	LowerBetter bool    // KindRange: smaller observations score higher
	Levels      map[string]float64
	Unit        string // display suffix for numeric observations
}

// Value is one evaluated observation, interpreted per the rule's kind.
type Value struct {
	Bool bool
	Num  float64
	Str  string
}

// Normalize maps an observation onto the 0-100 scale.
func (r Rule) Normalize(v Value) float64 {
	switch r.Kind {
	case KindBool:
		if v.Bool != r.Invert {
			return 100
		}
		return 0
	case KindRange:
		if r.Hi == r.Lo {
			if (v.Num >= r.Hi) != r.LowerBetter {
				return 100
			}
			return 0
		}
		frac := (v.Num - r.Lo) / (r.Hi - r.Lo)
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		if r.LowerBetter {
			frac = 1 - frac
		}
		return frac * 100
	case KindEnum:
		if score, ok := r.Levels[strings.ToLower(v.Str)]; ok {
			return score
		}
		return 50
	}
	return 0
}

// Parameter is one entry in the catalog.
type Parameter struct {
	ID       string
	Label    string
	Category Category
	Scope    Scope
	Weight   float64
	Rule     Rule
}

// Schema is the loaded, indexed catalog.
type Schema struct {
	params []Parameter
	index  map[string]int
}

// Load builds the catalog index. It panics on catalog defects (duplicate or
// empty IDs, non-positive weights) since those are programmer errors, not
// runtime conditions.
func Load() *Schema {
	s := &Schema{
		params: catalog,
		index:  make(map[string]int, len(catalog)),
	}
	for i, p := range catalog {
		if p.ID == "" {
			panic(fmt.Sprintf("schema: parameter %d has empty id", i))
		}
		if _, dup := s.index[p.ID]; dup {
			panic(fmt.Sprintf("schema: duplicate parameter id %q", p.ID))
		}
		if p.Weight <= 0 {
			panic(fmt.Sprintf("schema: parameter %q has non-positive weight", p.ID))
		}
		s.index[p.ID] = i
	}
	return s
}

// Params returns the catalog in its fixed order. Callers must not mutate it.
func (s *Schema) Params() []Parameter {
	return s.params
}

// Get looks a parameter up by ID.
func (s *Schema) Get(id string) (Parameter, bool) {
	i, ok := s.index[id]
	if !ok {
		return Parameter{}, false
	}
	return s.params[i], true
}

// Len reports the catalog size.
func (s *Schema) Len() int {
	return len(s.params)
}
