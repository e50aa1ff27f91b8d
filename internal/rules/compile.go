// internal/rules/compile.go
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pkgnorm/pkgnorm/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles an ordered sequence of types.Rule into an immutable RuleSet:
 * condition sets, anchored ASCII regexps, a captured source rendering and a
 * zeroed match counter per rule, plus the evaluation packs built by pack.go.
 *
 * Compilation workflow per rule:
 *   1. Capture the source text (authored Pretty, or canonical rendering)
 *   2. Convert name/ver/category/family lists to membership sets
 *   3. Compile namepat/verpat as ^(?:pat)$ — explicit start anchor because Go
 *      regexps are unanchored, non-capturing group so authored capture indices
 *      survive, end anchor per the rule document contract
 *   4. Validate setname capture references against namepat's group count
 *
 * Any failure aborts construction with types.ErrInvalidRuleSet: an engine
 * never starts with a partially usable rule document.
 */

// CompiledRule is a single rule pre-processed for evaluation. Immutable after
// compilation except the match counter.
type CompiledRule struct {
	Names      map[string]bool
	Vers       map[string]bool
	Categories map[string]bool
	Families   map[string]bool
	NamePat    *regexp.Regexp
	VerPat     *regexp.Regexp
	VerLonger  int
	HasLonger  bool

	Ignore      bool
	Unignore    bool
	IgnoreVer   bool
	UnignoreVer bool
	Last        bool
	SetName     string
	HasSetName  bool
	Replace     []types.ReplacePair
	ToLower     bool

	// SourceText is the rule as authored, for diagnostics only.
	SourceText string

	// matches counts evaluations where the rule's conditions held. Atomic so
	// a RuleSet is shareable across workers without extra synchronization.
	matches atomic.Int64
}

// RuleSet is a compiled, packed rule sequence ready for evaluation. Safe for
// concurrent use by multiple goroutines; only the per-rule match counters
// mutate after construction.
type RuleSet struct {
	rules []CompiledRule
	packs []Pack
}

// Len returns the number of compiled rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// dollarRef locates $N placeholders in setname templates. Matches the
// original rule document dialect: ASCII digits, no braces.
var dollarRef = regexp.MustCompile(`\$([0-9]+)`)

// Compile builds a RuleSet from an ordered rule sequence. The returned set
// evaluates rules in exactly the given order; packing is transparent.
func Compile(specs []types.Rule) (*RuleSet, error) {
	rs := &RuleSet{
		rules: make([]CompiledRule, len(specs)),
	}

	for i := range specs {
		if err := compileRule(&specs[i], &rs.rules[i]); err != nil {
			return nil, fmt.Errorf("%w: rule %d %s: %w", types.ErrInvalidRuleSet, i, rs.rules[i].SourceText, err)
		}
	}

	rs.packs = buildPacks(rs.rules)
	return rs, nil
}

// compileRule fills one CompiledRule from its declarative form.
func compileRule(spec *types.Rule, out *CompiledRule) error {
	// Source text comes first: diagnostics must show the rule as authored,
	// not the compiled shape.
	out.SourceText = spec.Pretty
	if out.SourceText == "" {
		out.SourceText = renderRule(spec)
	}

	if spec.Name != nil {
		if len(spec.Name) == 0 {
			return fmt.Errorf("%w: %w", types.ErrInvalidRule, types.ErrEmptyNameList)
		}
		out.Names = toSet(spec.Name)
	}
	out.Vers = toSet(spec.Ver)
	out.Categories = toSet(spec.Category)
	out.Families = toSet(spec.Family)

	var err error
	if out.NamePat, err = compilePattern(spec.NamePat); err != nil {
		return fmt.Errorf("%w: namepat: %w", types.ErrInvalidRule, err)
	}
	if out.VerPat, err = compilePattern(spec.VerPat); err != nil {
		return fmt.Errorf("%w: verpat: %w", types.ErrInvalidRule, err)
	}

	if spec.VerLonger != nil {
		out.VerLonger = *spec.VerLonger
		out.HasLonger = true
	}

	out.Ignore = spec.Ignore
	out.Unignore = spec.Unignore
	out.IgnoreVer = spec.IgnoreVer
	out.UnignoreVer = spec.UnignoreVer
	out.Last = spec.Last
	out.Replace = spec.ReplaceInName
	out.ToLower = spec.ToLowerName

	if spec.SetName != nil {
		out.SetName = *spec.SetName
		out.HasSetName = true
		if err := checkCaptureRefs(out.SetName, out.NamePat); err != nil {
			return fmt.Errorf("%w: setname %q: %w", types.ErrInvalidRule, out.SetName, err)
		}
	}

	return nil
}

// compilePattern compiles an optional rule pattern with full-string anchoring.
// Go's Perl character classes are ASCII-only, matching the document contract.
func compilePattern(pat *string) (*regexp.Regexp, error) {
	if pat == nil {
		return nil, nil
	}
	re, err := regexp.Compile("^(?:" + *pat + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", types.ErrBadPattern, *pat, err)
	}
	return re, nil
}

// checkCaptureRefs rejects setname templates whose $N references exceed what
// namepat can produce. $0 is always valid (whole match, or the unmatched name
// in the fallback path). Construction-time check keeps Apply total.
func checkCaptureRefs(template string, namePat *regexp.Regexp) error {
	groups := 0
	if namePat != nil {
		groups = namePat.NumSubexp()
	}
	for _, m := range dollarRef.FindAllStringSubmatch(template, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n > groups {
			return fmt.Errorf("%w: $%s with %d group(s)", types.ErrBadCaptureRef, m[1], groups)
		}
	}
	return nil
}

// toSet converts a normalized list condition to a membership set. Nil stays
// nil: an absent condition is vacuously true.
func toSet(values []string) map[string]bool {
	if values == nil {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// renderRule produces a canonical pretty rendering of a rule built in code,
// for rules that did not pass through the document loader. Fixed field order;
// scalar-or-list fields render as lists (the authored shape is gone by now).
func renderRule(spec *types.Rule) string {
	var fields []string

	addList := func(key string, values []string) {
		if values != nil {
			fields = append(fields, key+": ["+strings.Join(values, ", ")+"]")
		}
	}
	addStr := func(key string, value *string) {
		if value != nil {
			fields = append(fields, key+": "+*value)
		}
	}
	addFlag := func(key string, set bool) {
		if set {
			fields = append(fields, key+": true")
		}
	}

	addList("name", spec.Name)
	addList("ver", spec.Ver)
	addList("category", spec.Category)
	addList("family", spec.Family)
	addStr("namepat", spec.NamePat)
	addStr("verpat", spec.VerPat)
	if spec.VerLonger != nil {
		fields = append(fields, "verlonger: "+strconv.Itoa(*spec.VerLonger))
	}
	addFlag("ignore", spec.Ignore)
	addFlag("unignore", spec.Unignore)
	addFlag("ignorever", spec.IgnoreVer)
	addFlag("unignorever", spec.UnignoreVer)
	addFlag("last", spec.Last)
	addStr("setname", spec.SetName)
	if spec.ReplaceInName != nil {
		pairs := make([]string, 0, len(spec.ReplaceInName))
		for _, p := range spec.ReplaceInName {
			pairs = append(pairs, p.From+": "+p.To)
		}
		fields = append(fields, "replaceinname: {"+strings.Join(pairs, ", ")+"}")
	}
	addFlag("tolowername", spec.ToLowerName)

	return "{" + strings.Join(fields, ", ") + "}"
}

// sortedKeys returns set members in lexical order, for stable test output and
// pack inspection.
func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
