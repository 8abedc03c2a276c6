package schema

import "testing"

func TestLoadCatalog(t *testing.T) {
	s := Load()

	if s.Len() != 100 {
		t.Fatalf("Expected 100 catalog parameters, got %d", s.Len())
	}

	seen := make(map[string]bool)
	valid := make(map[Category]bool)
	for _, c := range Categories {
		valid[c] = true
	}

	for _, p := range s.Params() {
		if seen[p.ID] {
			t.Errorf("Duplicate parameter id %q", p.ID)
		}
		seen[p.ID] = true

		if p.Label == "" {
			t.Errorf("Parameter %q has no label", p.ID)
		}
		if p.Weight <= 0 {
			t.Errorf("Parameter %q has non-positive weight %f", p.ID, p.Weight)
		}
		if !valid[p.Category] {
			t.Errorf("Parameter %q has unknown category %q", p.ID, p.Category)
		}
		if p.Rule.Kind == KindEnum && len(p.Rule.Levels) == 0 {
			t.Errorf("Enum parameter %q has no levels", p.ID)
		}
		if p.Rule.Kind == KindRange && p.Rule.Hi < p.Rule.Lo {
			t.Errorf("Range parameter %q has inverted bounds", p.ID)
		}
	}
}

func TestGet(t *testing.T) {
	s := Load()

	p, ok := s.Get("irdai_registration")
	if !ok {
		t.Fatal("Expected to find irdai_registration")
	}
	if p.Category != YMYL {
		t.Errorf("Expected irdai_registration in YMYL category, got %s", p.Category)
	}

	if _, ok := s.Get("no_such_parameter"); ok {
		t.Error("Expected lookup miss for unknown id")
	}
}

func TestNormalizeBool(t *testing.T) {
	r := Rule{Kind: KindBool}
	if got := r.Normalize(Value{Bool: true}); got != 100 {
		t.Errorf("Expected pass to score 100, got %f", got)
	}
	if got := r.Normalize(Value{Bool: false}); got != 0 {
		t.Errorf("Expected fail to score 0, got %f", got)
	}

	inv := Rule{Kind: KindBool, Invert: true}
	if got := inv.Normalize(Value{Bool: true}); got != 0 {
		t.Errorf("Expected inverted pass to score 0, got %f", got)
	}
	if got := inv.Normalize(Value{Bool: false}); got != 100 {
		t.Errorf("Expected inverted fail to score 100, got %f", got)
	}
}

func TestNormalizeRange(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		num  float64
		want float64
	}{
		{"midpoint", Rule{Kind: KindRange, Lo: 0, Hi: 100}, 50, 50},
		{"below lo clamps", Rule{Kind: KindRange, Lo: 10, Hi: 20}, 5, 0},
		{"above hi clamps", Rule{Kind: KindRange, Lo: 10, Hi: 20}, 25, 100},
		{"lower better midpoint", Rule{Kind: KindRange, Lo: 1, Hi: 5, LowerBetter: true}, 3, 50},
		{"lower better fast", Rule{Kind: KindRange, Lo: 1, Hi: 5, LowerBetter: true}, 0.5, 100},
		{"lower better slow", Rule{Kind: KindRange, Lo: 1, Hi: 5, LowerBetter: true}, 9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rule.Normalize(Value{Num: tt.num})
			if got != tt.want {
				t.Errorf("Normalize(%f) = %f, want %f", tt.num, got, tt.want)
			}
		})
	}
}

func TestNormalizeEnum(t *testing.T) {
	r := Rule{Kind: KindEnum, Levels: map[string]float64{"low": 100, "high": 25}}

	if got := r.Normalize(Value{Str: "Low"}); got != 100 {
		t.Errorf("Expected case-insensitive level lookup to score 100, got %f", got)
	}
	if got := r.Normalize(Value{Str: "bogus"}); got != 50 {
		t.Errorf("Expected unknown token to score neutral 50, got %f", got)
	}
}

func TestNormalizeBounded(t *testing.T) {
	s := Load()
	samples := []Value{
		{Bool: true}, {Bool: false},
		{Num: -1e9}, {Num: 0}, {Num: 1e9},
		{Str: ""}, {Str: "weird"},
	}
	for _, p := range s.Params() {
		for _, v := range samples {
			got := p.Rule.Normalize(v)
			if got < 0 || got > 100 {
				t.Errorf("Parameter %q normalized %v outside 0-100: %f", p.ID, v, got)
			}
		}
	}
}
