// internal/rules/load.go
package rules

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pkgnorm/pkgnorm/internal/types"
)

/*
 * Rule document loading.
 *
 * The rule document is a YAML sequence of rule mappings. Decoding goes
 * through yaml.Node rather than struct tags for three document properties a
 * plain unmarshal cannot honor:
 *   - name/ver/category/family accept a scalar or a sequence
 *   - flag fields (ignore, last, ...) are presence flags regardless of value
 *   - replaceinname is an ordered mapping; map[string]string would shuffle it
 *
 * The loader also captures each rule's Pretty text from the node before any
 * normalization, so diagnostics show the rule exactly as authored. Unknown
 * fields and malformed values fail the whole document: construction is all
 * or nothing.
 */

// LoadRules reads and parses a YAML rule document from a file.
func LoadRules(path string) ([]types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidRuleSet, err)
	}
	return ParseRules(data)
}

// ParseRules parses a YAML rule document into its declarative form. Rule
// order is preserved; an empty document yields an empty sequence.
func ParseRules(data []byte) ([]types.Rule, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidRuleSet, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return []types.Rule{}, nil
	}

	root := deref(doc.Content[0])
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: document is not a rule sequence (line %d)", types.ErrInvalidRuleSet, root.Line)
	}

	rules := make([]types.Rule, 0, len(root.Content))
	for i, node := range root.Content {
		rule, err := parseRule(deref(node))
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", types.ErrInvalidRuleSet, i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// NewRuleSetFromFile loads, parses and compiles a rule document file.
func NewRuleSetFromFile(path string) (*RuleSet, error) {
	specs, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return Compile(specs)
}

// NewRuleSetFromText parses and compiles an in-memory rule document.
func NewRuleSetFromText(text []byte) (*RuleSet, error) {
	specs, err := ParseRules(text)
	if err != nil {
		return nil, err
	}
	return Compile(specs)
}

// parseRule decodes one rule mapping node.
func parseRule(node *yaml.Node) (types.Rule, error) {
	var rule types.Rule

	if node.Kind != yaml.MappingNode {
		return rule, fmt.Errorf("%w: not a mapping (line %d)", types.ErrInvalidRule, node.Line)
	}

	var pretty []string

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := deref(node.Content[i+1])
		pretty = append(pretty, key+": "+renderNode(value))

		var err error
		switch key {
		case "name":
			rule.Name, err = scalarOrList(value)
		case "ver":
			rule.Ver, err = scalarOrList(value)
		case "category":
			rule.Category, err = scalarOrList(value)
		case "family":
			rule.Family, err = scalarOrList(value)
		case "namepat":
			rule.NamePat, err = scalarString(value)
		case "verpat":
			rule.VerPat, err = scalarString(value)
		case "verlonger":
			rule.VerLonger, err = scalarInt(value)
		case "setname":
			rule.SetName, err = scalarString(value)
		case "replaceinname":
			rule.ReplaceInName, err = orderedPairs(value)
		case "ignore":
			rule.Ignore = true
		case "unignore":
			rule.Unignore = true
		case "ignorever":
			rule.IgnoreVer = true
		case "unignorever":
			rule.UnignoreVer = true
		case "last":
			rule.Last = true
		case "tolowername":
			rule.ToLowerName = true
		default:
			err = fmt.Errorf("%w: %q (line %d)", types.ErrUnknownRuleField, key, node.Content[i].Line)
		}
		if err != nil {
			return rule, err
		}
	}

	rule.Pretty = "{" + strings.Join(pretty, ", ") + "}"
	return rule, nil
}

// scalarOrList normalizes a scalar-or-sequence condition field to a non-nil
// string list.
func scalarOrList(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		values := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			item = deref(item)
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: list item is not a scalar (line %d)", types.ErrInvalidRule, item.Line)
			}
			values = append(values, item.Value)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("%w: expected scalar or list (line %d)", types.ErrInvalidRule, node.Line)
	}
}

func scalarString(node *yaml.Node) (*string, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%w: expected scalar (line %d)", types.ErrInvalidRule, node.Line)
	}
	v := node.Value
	return &v, nil
}

func scalarInt(node *yaml.Node) (*int, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%w: expected integer (line %d)", types.ErrInvalidRule, node.Line)
	}
	n, err := strconv.Atoi(node.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: expected integer, got %q (line %d)", types.ErrInvalidRule, node.Value, node.Line)
	}
	return &n, nil
}

// orderedPairs decodes a replaceinname mapping preserving authored pair order.
func orderedPairs(node *yaml.Node) ([]types.ReplacePair, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected mapping (line %d)", types.ErrInvalidRule, node.Line)
	}
	pairs := make([]types.ReplacePair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := deref(node.Content[i])
		value := deref(node.Content[i+1])
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: replaceinname entries must be scalars (line %d)", types.ErrInvalidRule, key.Line)
		}
		pairs = append(pairs, types.ReplacePair{From: key.Value, To: value.Value})
	}
	return pairs, nil
}

// renderNode produces the compact authored rendering used for Pretty text.
func renderNode(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			items = append(items, renderNode(deref(item)))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case yaml.MappingNode:
		items := make([]string, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			items = append(items, deref(node.Content[i]).Value+": "+renderNode(deref(node.Content[i+1])))
		}
		return "{" + strings.Join(items, ", ") + "}"
	default:
		return ""
	}
}

// deref follows YAML alias nodes to their anchor target.
func deref(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
