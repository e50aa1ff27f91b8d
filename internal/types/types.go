// Package types provides domain models shared across pkgnorm components.
//
// Wire-format agnostic: YAML decoding of the rule document lives in
// internal/rules, database row mapping in internal/core/db. This package holds
// the hand-written types both sides agree on, plus sentinel errors and run
// identifiers.
package types

// Package is one third-party package metadata record passing through the
// normalization engine. Name, Version, Category and Family are the immutable
// inputs; EffName, Ignore and IgnoreVersion are written by the engine.
type Package struct {
	Name     string `json:"name" db:"name"`
	Version  string `json:"version" db:"version"`
	Category string `json:"category" db:"category"`
	Family   string `json:"family" db:"family"`

	EffName       string `json:"effname,omitempty" db:"effname"`
	Ignore        bool   `json:"ignore,omitempty" db:"ignore_package"`
	IgnoreVersion bool   `json:"ignore_version,omitempty" db:"ignore_version"`
}
