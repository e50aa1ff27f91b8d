// internal/rules/match.go
package rules

import "strings"

/*
 * Rule matching.
 *
 * A rule matches when every condition it declares holds against the package's
 * current attributes; absent conditions are vacuously true. Conditions are
 * checked cheapest-to-priciest in the fixed order family, category, name,
 * namepat, ver, verpat, verlonger, short-circuiting on the first failure.
 *
 * Matching reads the *current* name — the one produced by earlier rules in
 * the sequence — never the package's original name. The driver owns that
 * threading; Matches itself is a pure predicate.
 */

// Matches reports whether the rule's conditions all hold for a package with
// the given current name and original version, category and family.
func (r *CompiledRule) Matches(name, version, category, family string) bool {
	if r.Families != nil && !r.Families[family] {
		return false
	}
	if r.Categories != nil && !r.Categories[category] {
		return false
	}
	if r.Names != nil && !r.Names[name] {
		return false
	}
	if r.NamePat != nil && !r.NamePat.MatchString(name) {
		return false
	}
	if r.Vers != nil && !r.Vers[version] {
		return false
	}
	if r.VerPat != nil && !r.VerPat.MatchString(version) {
		return false
	}
	if r.HasLonger && versionComponents(version) <= r.VerLonger {
		return false
	}
	return true
}

// versionComponents counts dot-separated version components. "1.2.3" has
// three; the empty version has one (the empty component), matching a plain
// split on dots.
func versionComponents(version string) int {
	return strings.Count(version, ".") + 1
}
