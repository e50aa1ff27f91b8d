// internal/rules/unused.go
package rules

/*
 * Rule set diagnostics.
 *
 * UnusedRules supports offline rule document auditing: after a corpus of
 * packages has been processed, a rule whose conditions never held is likely
 * stale (the package it targeted was renamed upstream or dropped). Not used
 * during normal evaluation.
 */

// UnusedRules returns the authored source text of every rule that matched no
// package so far, in rule document order.
func (rs *RuleSet) UnusedRules() []string {
	var unused []string
	for i := range rs.rules {
		if rs.rules[i].matches.Load() == 0 {
			unused = append(unused, rs.rules[i].SourceText)
		}
	}
	return unused
}

// MatchCount reports how many times rule i matched. Diagnostics only.
func (rs *RuleSet) MatchCount(i int) int64 {
	return rs.rules[i].matches.Load()
}
