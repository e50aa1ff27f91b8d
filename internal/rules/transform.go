// internal/rules/transform.go
package rules

import "github.com/pkgnorm/pkgnorm/internal/types"

/*
 * Transformation driver.
 *
 * Walks the packs in authored order and applies matching rules cumulatively
 * to one package. Later rules — and later pack preconditions — see the name
 * as renamed by earlier rules, so a rename can steer the package into a pack
 * it would not have entered under its original name. A rule with the last
 * flag stops everything once its effects are applied.
 *
 * Evaluation is bounded and pure: one pass over the rules, no I/O, no
 * allocation beyond name strings produced by application. A skipped pack
 * never touches its rules' match counters.
 *
 * Counter modes (batch throughput): Transform bumps the per-rule atomic
 * counters directly. Workers that want to stay off shared cache lines use
 * NewCounters/TransformCounted per goroutine and MergeCounters at the batch
 * barrier; both modes feed the same UnusedRules diagnostics.
 */

// Transform applies the rule set to one package, filling EffName and the
// ignore flags. Safe for concurrent use.
func (rs *RuleSet) Transform(pkg *types.Package) {
	rs.transform(pkg, nil)
}

// Counters is a worker-local match counter block, index-aligned with the
// rule sequence.
type Counters []int64

// NewCounters returns a zeroed counter block sized for this rule set.
func (rs *RuleSet) NewCounters() Counters {
	return make(Counters, len(rs.rules))
}

// TransformCounted is Transform with match counts recorded in local counters
// instead of the shared atomics. The caller owns handing the block to exactly
// one goroutine and merging it back.
func (rs *RuleSet) TransformCounted(pkg *types.Package, counters Counters) {
	rs.transform(pkg, counters)
}

// MergeCounters folds a worker-local counter block into the shared per-rule
// counters. Call once per block, after the worker is done with it.
func (rs *RuleSet) MergeCounters(counters Counters) {
	for i, n := range counters {
		if n != 0 {
			rs.rules[i].matches.Add(n)
		}
	}
}

func (rs *RuleSet) transform(pkg *types.Package, counters Counters) {
	name := pkg.Name

	for _, pack := range rs.packs {
		if !pack.Precondition.Holds(name) {
			continue
		}

		for _, i := range pack.Rules {
			rule := &rs.rules[i]
			if !rule.Matches(name, pkg.Version, pkg.Category, pkg.Family) {
				continue
			}

			if counters != nil {
				counters[i]++
			} else {
				rule.matches.Add(1)
			}

			var effects Effects
			effects, name = rule.Apply(name, pkg.Version)

			if effects.Ignore {
				pkg.Ignore = true
			}
			if effects.Unignore {
				pkg.Ignore = false
			}
			if effects.IgnoreVer {
				pkg.IgnoreVersion = true
			}
			if effects.UnignoreVer {
				pkg.IgnoreVersion = false
			}

			if effects.Last {
				pkg.EffName = name
				return
			}
		}
	}

	pkg.EffName = name
}
