// internal/rules/apply.go
package rules

import (
	"strconv"
	"strings"
)

/*
 * Rule application.
 *
 * Computes the effects of a matched rule: the flag set and the new package
 * name. Pure given its inputs; the driver threads the returned name into
 * subsequent matching.
 *
 * Name transformation order is fixed: setname, then replaceinname, then
 * tolowername. Each stage feeds the next.
 *
 * setname asymmetry: capture-based $N substitution activates only when the
 * rule's namepat matches the current name at apply time. When it does not
 * match (or the rule has no namepat), only literal $0 tokens are substituted,
 * with the current name verbatim. The asymmetry is part of the rule document
 * contract and is covered by apply_test.go.
 */

// Effects is the flag outcome of applying one matched rule.
type Effects struct {
	Ignore      bool
	Unignore    bool
	IgnoreVer   bool
	UnignoreVer bool
	Last        bool
}

// Apply computes the rule's effects for a package with the given current name
// and version, returning the flags and the transformed name. The version is
// part of the application contract but no current action reads it.
func (r *CompiledRule) Apply(name, version string) (Effects, string) {
	effects := Effects{
		Ignore:      r.Ignore,
		Unignore:    r.Unignore,
		IgnoreVer:   r.IgnoreVer,
		UnignoreVer: r.UnignoreVer,
		Last:        r.Last,
	}

	if r.HasSetName {
		name = r.substituteName(name)
	}

	for _, pair := range r.Replace {
		name = strings.ReplaceAll(name, pair.From, pair.To)
	}

	if r.ToLower {
		name = strings.ToLower(name)
	}

	return effects, name
}

// substituteName expands the setname template against the current name.
func (r *CompiledRule) substituteName(name string) string {
	var groups []string
	if r.NamePat != nil {
		groups = r.NamePat.FindStringSubmatch(name)
	}

	if groups != nil {
		return dollarRef.ReplaceAllStringFunc(r.SetName, func(ref string) string {
			n, _ := strconv.Atoi(ref[1:])
			return groups[n] // in range: checked at compile time
		})
	}

	// Fallback: pattern absent or did not match. Only literal $0 expands, to
	// the unmatched current name.
	return strings.ReplaceAll(r.SetName, "$0", name)
}
