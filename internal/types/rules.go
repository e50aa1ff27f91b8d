package types

/*
 * Declarative rule document types.
 *
 * Rule is the authored form of a normalization rule, one entry of the ordered
 * rule document. internal/rules compiles it into its matching structure; this
 * package only describes the shape.
 *
 * Field conventions:
 *   - nil slice / nil pointer = condition or action not declared
 *   - Name et al. are already scalar-or-list normalized by the loader; a
 *     non-nil empty Name slice is rejected at compile time
 *   - Pretty carries the authored rendering for diagnostics; when empty (rules
 *     built in code rather than loaded), compilation renders a canonical form
 */

// ReplacePair is one literal substring replacement of a replaceinname action.
// Pair order is the authored mapping order and is significant.
type ReplacePair struct {
	From string
	To   string
}

// Rule is a single declarative rule: a precondition over package attributes
// plus the actions applied when it holds. A rule with no conditions matches
// every package.
type Rule struct {
	// Conditions
	Name      []string // exact current-name match, any of
	Ver       []string // exact version match, any of
	Category  []string // exact category match, any of
	Family    []string // exact origin family match, any of
	NamePat   *string  // full-string name pattern (ASCII regex)
	VerPat    *string  // full-string version pattern (ASCII regex)
	VerLonger *int     // version must have more than N dot-components

	// Actions
	Ignore        bool
	Unignore      bool
	IgnoreVer     bool
	UnignoreVer   bool
	Last          bool
	SetName       *string       // rename template with $0/$N placeholders
	ReplaceInName []ReplacePair // ordered literal substring replacements
	ToLowerName   bool

	// Pretty is the human-readable rendering of the rule as authored,
	// captured before any normalization. Diagnostics only.
	Pretty string
}
