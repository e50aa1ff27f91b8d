// internal/rules/load_test.go
package rules

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pkgnorm/pkgnorm/internal/types"
)

func TestParseRules_ScalarAndListForms(t *testing.T) {
	doc := []byte(`
- name: firefox
  setname: firefox-esr
- name: [foo, bar]
  family: freebsd
- category:
    - devel
    - lang
`)
	rules, err := ParseRules(doc)
	if err != nil {
		t.Fatalf("ParseRules() error = %v, want nil", err)
	}
	if len(rules) != 3 {
		t.Fatalf("len(rules) = %d, want 3", len(rules))
	}

	if !reflect.DeepEqual(rules[0].Name, []string{"firefox"}) {
		t.Errorf("rule 0 Name = %v, want [firefox]", rules[0].Name)
	}
	if rules[0].SetName == nil || *rules[0].SetName != "firefox-esr" {
		t.Errorf("rule 0 SetName = %v, want firefox-esr", rules[0].SetName)
	}
	if !reflect.DeepEqual(rules[1].Name, []string{"foo", "bar"}) {
		t.Errorf("rule 1 Name = %v, want [foo, bar]", rules[1].Name)
	}
	if !reflect.DeepEqual(rules[1].Family, []string{"freebsd"}) {
		t.Errorf("rule 1 Family = %v, want [freebsd]", rules[1].Family)
	}
	if !reflect.DeepEqual(rules[2].Category, []string{"devel", "lang"}) {
		t.Errorf("rule 2 Category = %v, want [devel, lang]", rules[2].Category)
	}
}

func TestParseRules_PresenceFlags(t *testing.T) {
	doc := []byte(`
- family: freebsd
  ignore: true
- name: foo
  last: yes
- name: bar
  unignore:
`)
	rules, err := ParseRules(doc)
	if err != nil {
		t.Fatalf("ParseRules() error = %v, want nil", err)
	}
	if !rules[0].Ignore {
		t.Error("rule 0 Ignore = false, want presence flag set")
	}
	if !rules[1].Last {
		t.Error("rule 1 Last = false, want presence flag set")
	}
	// Presence counts regardless of value, including an empty one.
	if !rules[2].Unignore {
		t.Error("rule 2 Unignore = false, want presence flag set")
	}
}

func TestParseRules_ReplaceInNameOrder(t *testing.T) {
	doc := []byte(`
- replaceinname:
    a: b
    b: c
    "-": "_"
`)
	rules, err := ParseRules(doc)
	if err != nil {
		t.Fatalf("ParseRules() error = %v, want nil", err)
	}
	want := []types.ReplacePair{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "-", To: "_"}}
	if !reflect.DeepEqual(rules[0].ReplaceInName, want) {
		t.Errorf("ReplaceInName = %v, want %v (authored order)", rules[0].ReplaceInName, want)
	}
}

func TestParseRules_VerLonger(t *testing.T) {
	rules, err := ParseRules([]byte("- verlonger: 2\n"))
	if err != nil {
		t.Fatalf("ParseRules() error = %v, want nil", err)
	}
	if rules[0].VerLonger == nil || *rules[0].VerLonger != 2 {
		t.Errorf("VerLonger = %v, want 2", rules[0].VerLonger)
	}

	_, err = ParseRules([]byte("- verlonger: lots\n"))
	if !errors.Is(err, types.ErrInvalidRuleSet) {
		t.Errorf("non-integer verlonger error = %v, want ErrInvalidRuleSet", err)
	}
}

func TestParseRules_PrettyCapturesAuthoredShape(t *testing.T) {
	doc := []byte(`
- name: firefox
  setname: firefox-esr
- name: [a, b]
  replaceinname:
    x: y
`)
	rules, err := ParseRules(doc)
	if err != nil {
		t.Fatalf("ParseRules() error = %v, want nil", err)
	}
	if got := rules[0].Pretty; got != "{name: firefox, setname: firefox-esr}" {
		t.Errorf("Pretty = %q, want scalar kept scalar", got)
	}
	if got := rules[1].Pretty; got != "{name: [a, b], replaceinname: {x: y}}" {
		t.Errorf("Pretty = %q, want authored list and mapping", got)
	}
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown field", "- nmae: typo\n", types.ErrUnknownRuleField},
		{"not a sequence", "name: foo\n", types.ErrInvalidRuleSet},
		{"rule not a mapping", "- just-a-string\n", types.ErrInvalidRule},
		{"unparseable yaml", "- name: [unclosed\n", types.ErrInvalidRuleSet},
		{"replaceinname not a mapping", "- replaceinname: [a, b]\n", types.ErrInvalidRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.doc))
			if err == nil {
				t.Fatal("ParseRules() error = nil, want error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, types.ErrInvalidRuleSet) {
				t.Errorf("error = %v, must always wrap ErrInvalidRuleSet", err)
			}
		})
	}
}

func TestParseRules_EmptyDocument(t *testing.T) {
	rules, err := ParseRules(nil)
	if err != nil {
		t.Fatalf("ParseRules(nil) error = %v, want nil", err)
	}
	if len(rules) != 0 {
		t.Errorf("len(rules) = %d, want 0", len(rules))
	}
}

func TestNewRuleSetFromText_EndToEnd(t *testing.T) {
	rs, err := NewRuleSetFromText([]byte(`
- family: freebsd
  ignore: true
- name: Foo
  setname: foo
`))
	if err != nil {
		t.Fatalf("NewRuleSetFromText() error = %v, want nil", err)
	}

	pkg := types.Package{Name: "Foo", Version: "1.0", Category: "x", Family: "freebsd"}
	rs.Transform(&pkg)
	if pkg.EffName != "foo" || !pkg.Ignore {
		t.Errorf("got effname=%q ignore=%v, want foo/true", pkg.EffName, pkg.Ignore)
	}
}

func TestNewRuleSetFromText_CompileFailureIsFatal(t *testing.T) {
	_, err := NewRuleSetFromText([]byte("- namepat: \"broken(\"\n"))
	if !errors.Is(err, types.ErrInvalidRuleSet) {
		t.Errorf("error = %v, want ErrInvalidRuleSet", err)
	}
}

func TestNewRuleSetFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	doc := "- name: Foo\n  setname: foo\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	rs, err := NewRuleSetFromFile(path)
	if err != nil {
		t.Fatalf("NewRuleSetFromFile() error = %v, want nil", err)
	}
	if rs.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rs.Len())
	}

	_, err = NewRuleSetFromFile(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, types.ErrInvalidRuleSet) {
		t.Errorf("missing file error = %v, want ErrInvalidRuleSet", err)
	}
}
