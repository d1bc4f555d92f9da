package domain

import "testing"

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1   string
		v2   string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.0.1", "1.0.0", 1},
		{"1.0", "1.0.0", 0},
		{"2.0", "1.9.9", 1},
		{"v1.2.3", "1.2.3", 0},
		{"V1.2.3", "1.2.3", 0},
		{"1.2", "1.10", -1},
		{"1.0.0-beta", "1.0.0", -1},
		{"1.0.0-alpha", "1.0.0-beta", -1},
		{"0.5.3+mc1.20.1", "0.5.3+mc1.20.1", 0},
		{"abc", "abd", -1},
		{"release", "1.0", -1},
		{"", "", 0},
	}

	for _, tt := range tests {
		got := CompareVersions(tt.v1, tt.v2)
		if got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.want)
		}
	}
}

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		current string
		new     string
		want    bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.0.1", "1.0.0", false},
		{"1.0.0", "1.0.0", false},
		{"1.0", "2.0", true},
	}

	for _, tt := range tests {
		got := IsNewerVersion(tt.current, tt.new)
		if got != tt.want {
			t.Errorf("IsNewerVersion(%q, %q) = %v, want %v", tt.current, tt.new, got, tt.want)
		}
	}
}

func TestGameVersionKey(t *testing.T) {
	tests := []struct {
		v    string
		rule GameVersionRule
		want string
	}{
		{"1.20.1", MatchMinor, "1.20"},
		{"1.20.1", MatchMajor, "1"},
		{"1.20.1", MatchExact, "1.20.1"},
		{"1.20.0", MatchExact, "1.20"},
		{"1.20", MatchMinor, "1.20"},
		{"2", MatchMinor, "2.0"},
		{"24w14a", MatchExact, "24-w14a"},
		{"snapshot", MatchMinor, ""},
	}

	for _, tt := range tests {
		got := GameVersionKey(tt.v, tt.rule)
		if got != tt.want {
			t.Errorf("GameVersionKey(%q, %v) = %q, want %q", tt.v, tt.rule, got, tt.want)
		}
	}
}

func TestGameVersionsIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		rule GameVersionRule
		want bool
	}{
		{"minor same family", []string{"1.20.1"}, []string{"1.20.4"}, MatchMinor, true},
		{"minor different", []string{"1.20.1"}, []string{"1.19.2"}, MatchMinor, false},
		{"major same", []string{"1.20.1"}, []string{"1.19.2"}, MatchMajor, true},
		{"exact", []string{"1.20.1"}, []string{"1.20.4", "1.20.1"}, MatchExact, true},
		{"exact miss", []string{"1.20.1"}, []string{"1.20.4"}, MatchExact, false},
		{"empty", nil, []string{"1.20.1"}, MatchMajor, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GameVersionsIntersect(tt.a, tt.b, tt.rule); got != tt.want {
				t.Errorf("GameVersionsIntersect(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestConstraint_Satisfied(t *testing.T) {
	tests := []struct {
		constraint string
		version    string
		want       bool
	}{
		{"", "1.0", true},
		{"*", "0.0.1", true},
		{">=1.2", "1.2.0", true},
		{">=1.2", "1.1.9", false},
		{">=1.2 <2", "1.9", true},
		{">=1.2 <2", "2.0", false},
		{"~1.20", "1.20.4", true},
		{"~1.20", "1.21", false},
		{"^2.1", "2.9", true},
		{"^2.1", "3.0", false},
		{"1.20.x", "1.20.6", true},
		{"1.20.x", "1.21", false},
		{"[1.0,2.0)", "1.5", true},
		{"[1.0,2.0)", "2.0", false},
		{"(1.0,2.0]", "1.0", false},
		{"(1.0,2.0]", "2.0", true},
		{"[40,)", "47.1.0", true},
		{"[1.0,1.1),[1.2,)", "1.1.5", false},
		{"[1.0,1.1),[1.2,)", "1.3", true},
		{"[1.5]", "1.5", true},
		{"1.0 || 2.0", "2.0", true},
		{"1.0", "1.0.0", true},
		{"!=1.0", "1.0", false},
		// Stray brackets after a range fail closed without dropping the range
		{"[1.0,2.0)]", "1.5", true},
		{"[1.0,2.0)]", "2.5", false},
		{"[1.0,2.0),)", "1.5", true},
		{"[1.0,2.0),)", "3.0", false},
		{"[1.0,2.0)) 3.0", "3.0", false},
		{"[]", "1.0", false},
	}

	for _, tt := range tests {
		got := ParseConstraint(tt.constraint).Satisfied(tt.version)
		if got != tt.want {
			t.Errorf("ParseConstraint(%q).Satisfied(%q) = %v, want %v", tt.constraint, tt.version, got, tt.want)
		}
	}
}

func TestParseConstraint_Malformed(t *testing.T) {
	for _, c := range []string{"[1.0,2.0)]", "[1.0,2.0),)", "(", "[", "]", ")", "[)", "[1.0,", ",]", "[1.0],]]", "||]"} {
		t.Run(c, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("ParseConstraint(%q) panicked: %v", c, r)
				}
			}()
			ParseConstraint(c).Satisfied("1.0")
		})
	}
}
