package types

import "errors"

// Sentinel errors for pkgnorm operations.
var (
	// ErrInvalidRuleSet indicates the rule document as a whole is unusable
	// (unparseable document or any invalid rule). Engine construction fails
	// with this error and nothing is processed.
	ErrInvalidRuleSet = errors.New("invalid rule set")

	// ErrInvalidRule indicates a single rule failed compilation.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrUnknownRuleField indicates a rule declares a field the engine does
	// not recognize.
	ErrUnknownRuleField = errors.New("unknown rule field")

	// ErrBadPattern indicates a namepat/verpat regular expression failed to
	// compile.
	ErrBadPattern = errors.New("malformed pattern")

	// ErrBadCaptureRef indicates a setname template references a capture
	// group the rule's namepat cannot produce.
	ErrBadCaptureRef = errors.New("setname references capture group beyond namepat")

	// ErrEmptyNameList indicates a rule declares a name condition with no
	// names in it.
	ErrEmptyNameList = errors.New("name condition is empty")

	// ErrNoPackages indicates a normalization run found nothing to process.
	ErrNoPackages = errors.New("no packages to process")
)
