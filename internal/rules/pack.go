// internal/rules/pack.go
package rules

import "strings"

/*
 * Rule packing.
 *
 * Partitions the compiled rule sequence into contiguous packs, each guarded by
 * a cheap precondition over the package's current name. Consecutive rules that
 * all declare exact-name conditions share one NameInSet pack keyed on the
 * union of their name sets: when the current name is not in the union, the
 * whole pack is skipped with a single map lookup. A rule without a name
 * condition can never be skipped and forms its own Always pack.
 *
 * Packing is purely an optimization. Concatenating the packs' rule index
 * slices in order reproduces 0..len(rules)-1 exactly, so packed evaluation is
 * observably identical to scanning every rule in authored order (pack_test.go
 * holds this as a property).
 */

// PreconditionKind discriminates the two pack guard variants.
type PreconditionKind int

const (
	// Always marks a pack that is entered unconditionally.
	Always PreconditionKind = iota
	// NameInSet marks a pack entered only when the package's current name is
	// a member of the pack's name union.
	NameInSet
)

// Precondition is an explicit, inspectable pack guard. No captured state: the
// two variants are a kind tag and an optional name set.
type Precondition struct {
	Kind  PreconditionKind
	Names map[string]bool // nil unless Kind == NameInSet
}

// Holds reports whether a pack guarded by p must be entered for the given
// current package name.
func (p Precondition) Holds(name string) bool {
	if p.Kind == Always {
		return true
	}
	return p.Names[name]
}

// String renders the guard for pack inspection output.
func (p Precondition) String() string {
	if p.Kind == Always {
		return "always"
	}
	return "name in {" + strings.Join(sortedKeys(p.Names), ", ") + "}"
}

// Pack is an ordered contiguous run of the original rule sequence sharing one
// precondition. Rules holds indices into the RuleSet's rule slice.
type Pack struct {
	Precondition Precondition
	Rules        []int
}

// Packs exposes the packing for inspection and tests. Callers must not
// mutate the returned slices.
func (rs *RuleSet) Packs() []Pack {
	return rs.packs
}

// buildPacks scans the compiled rules once, merging consecutive name-guarded
// rules and emitting singleton Always packs for the rest. Each rule lands in
// exactly one pack, in authored order.
func buildPacks(rules []CompiledRule) []Pack {
	var packs []Pack

	var union map[string]bool
	var run []int
	flush := func() {
		if len(run) > 0 {
			packs = append(packs, Pack{
				Precondition: Precondition{Kind: NameInSet, Names: union},
				Rules:        run,
			})
		}
		union = nil
		run = nil
	}

	for i := range rules {
		if rules[i].Names != nil {
			if union == nil {
				union = make(map[string]bool)
			}
			for name := range rules[i].Names {
				union[name] = true
			}
			run = append(run, i)
			continue
		}

		flush()
		packs = append(packs, Pack{
			Precondition: Precondition{Kind: Always},
			Rules:        []int{i},
		})
	}
	flush()

	return packs
}
