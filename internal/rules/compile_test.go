// internal/rules/compile_test.go
package rules

import (
	"errors"
	"testing"

	"github.com/pkgnorm/pkgnorm/internal/types"
)

func sp(s string) *string { return &s }
func ip(n int) *int       { return &n }

func TestCompile_NormalizesConditionSets(t *testing.T) {
	rs, err := Compile([]types.Rule{
		{
			Name:     []string{"foo", "bar"},
			Ver:      []string{"1.0"},
			Category: []string{"devel"},
			Family:   []string{"freebsd", "openbsd"},
		},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if rs.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", rs.Len())
	}

	rule := &rs.rules[0]
	if !rule.Names["foo"] || !rule.Names["bar"] || len(rule.Names) != 2 {
		t.Errorf("Names = %v, want {foo, bar}", rule.Names)
	}
	if !rule.Vers["1.0"] {
		t.Errorf("Vers = %v, want {1.0}", rule.Vers)
	}
	if !rule.Families["openbsd"] {
		t.Errorf("Families = %v, want {freebsd, openbsd}", rule.Families)
	}
}

func TestCompile_AbsentConditionsStayNil(t *testing.T) {
	rs, err := Compile([]types.Rule{{Ignore: true}})
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	rule := &rs.rules[0]
	if rule.Names != nil || rule.Vers != nil || rule.Categories != nil || rule.Families != nil {
		t.Errorf("absent condition sets not nil: %+v", rule)
	}
	if rule.NamePat != nil || rule.VerPat != nil || rule.HasLonger {
		t.Errorf("absent pattern conditions not nil: %+v", rule)
	}
}

func TestCompile_PatternAnchoring(t *testing.T) {
	rs, err := Compile([]types.Rule{{NamePat: sp("lib(.*)")}})
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	pat := rs.rules[0].NamePat

	tests := []struct {
		name string
		want bool
	}{
		{"libfoo", true},
		{"lib", true},
		{"xlibfoo", false}, // start anchor
		{"", false},
	}
	for _, tt := range tests {
		if got := pat.MatchString(tt.name); got != tt.want {
			t.Errorf("MatchString(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	// End anchor is implicit: a prefix-only pattern must not match a longer name.
	rs, err = Compile([]types.Rule{{NamePat: sp("lib")}})
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if rs.rules[0].NamePat.MatchString("libfoo") {
		t.Error("pattern \"lib\" matched \"libfoo\", end anchor missing")
	}
}

func TestCompile_AnchoringPreservesCaptureIndices(t *testing.T) {
	// The anchor wrapper must be non-capturing so authored $1 still refers to
	// the first authored group.
	rs, err := Compile([]types.Rule{{NamePat: sp("lib(.*)"), SetName: sp("$1")}})
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	groups := rs.rules[0].NamePat.FindStringSubmatch("libfoo")
	if len(groups) != 2 || groups[1] != "foo" {
		t.Errorf("FindStringSubmatch(libfoo) = %v, want [libfoo foo]", groups)
	}
}

func TestCompile_MalformedPattern(t *testing.T) {
	_, err := Compile([]types.Rule{{NamePat: sp("lib(")}})
	if err == nil {
		t.Fatal("Compile() error = nil, want pattern error")
	}
	if !errors.Is(err, types.ErrInvalidRuleSet) {
		t.Errorf("error = %v, want ErrInvalidRuleSet", err)
	}
	if !errors.Is(err, types.ErrBadPattern) {
		t.Errorf("error = %v, want ErrBadPattern", err)
	}

	_, err = Compile([]types.Rule{{VerPat: sp("[")}})
	if !errors.Is(err, types.ErrBadPattern) {
		t.Errorf("verpat error = %v, want ErrBadPattern", err)
	}
}

func TestCompile_CaptureRefValidation(t *testing.T) {
	tests := []struct {
		name    string
		rule    types.Rule
		wantErr error
	}{
		{
			name: "in-range reference",
			rule: types.Rule{NamePat: sp("lib(.*)"), SetName: sp("$1")},
		},
		{
			name: "whole-match reference always valid",
			rule: types.Rule{SetName: sp("prefix-$0")},
		},
		{
			name:    "reference beyond group count",
			rule:    types.Rule{NamePat: sp("lib(.*)"), SetName: sp("$2")},
			wantErr: types.ErrBadCaptureRef,
		},
		{
			name:    "group reference without namepat",
			rule:    types.Rule{SetName: sp("$1")},
			wantErr: types.ErrBadCaptureRef,
		},
		{
			name: "multi-digit reference",
			rule: types.Rule{NamePat: sp("(a)(b)(c)(d)(e)(f)(g)(h)(i)(j)(k)"), SetName: sp("$11")},
		},
		{
			name:    "multi-digit reference out of range",
			rule:    types.Rule{NamePat: sp("(a)(b)"), SetName: sp("$12")},
			wantErr: types.ErrBadCaptureRef,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]types.Rule{tt.rule})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Compile() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCompile_EmptyNameList(t *testing.T) {
	_, err := Compile([]types.Rule{{Name: []string{}}})
	if !errors.Is(err, types.ErrEmptyNameList) {
		t.Errorf("Compile() error = %v, want ErrEmptyNameList", err)
	}
}

func TestCompile_SourceTextPrefersAuthoredPretty(t *testing.T) {
	rs, err := Compile([]types.Rule{{Name: []string{"foo"}, Pretty: "{name: foo}"}})
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if got := rs.rules[0].SourceText; got != "{name: foo}" {
		t.Errorf("SourceText = %q, want {name: foo}", got)
	}
}

func TestCompile_SourceTextCanonicalFallback(t *testing.T) {
	rs, err := Compile([]types.Rule{{
		Name:    []string{"foo"},
		SetName: sp("bar"),
		Last:    true,
	}})
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	want := "{name: [foo], last: true, setname: bar}"
	if got := rs.rules[0].SourceText; got != want {
		t.Errorf("SourceText = %q, want %q", got, want)
	}
}

func TestCompile_EmptyRuleSet(t *testing.T) {
	rs, err := Compile(nil)
	if err != nil {
		t.Fatalf("Compile(nil) error = %v, want nil", err)
	}
	if rs.Len() != 0 || len(rs.Packs()) != 0 {
		t.Errorf("empty set: Len() = %d, packs = %d, want 0, 0", rs.Len(), len(rs.Packs()))
	}
}
