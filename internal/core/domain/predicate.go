package domain

import (
	"strings"
)

// Predicate is a condition over the build target.
type Predicate interface {
	// Matches reports whether the predicate holds for p.
	Matches(p Platform) bool
	// String renders the predicate for diagnostics.
	String() string
}

// Always is a predicate that holds for every platform.
type Always struct{}

// Matches always returns true.
func (Always) Matches(Platform) bool { return true }

func (Always) String() string { return "always" }

// SettingEquals holds when one platform setting equals Value, ignoring case.
type SettingEquals struct {
	Setting Setting
	Value   string
}

// Matches compares the platform setting against the expected value.
func (s SettingEquals) Matches(p Platform) bool {
	return strings.EqualFold(p.Get(s.Setting), s.Value)
}

func (s SettingEquals) String() string {
	return string(s.Setting) + "==" + s.Value
}

// OSIs is shorthand for an operating system equality predicate.
func OSIs(os string) Predicate {
	return SettingEquals{Setting: SettingOS, Value: os}
}

// AllOf holds when every member holds. An empty AllOf always holds.
type AllOf []Predicate

// Matches reports whether all members match.
func (a AllOf) Matches(p Platform) bool {
	for _, pred := range a {
		if !pred.Matches(p) {
			return false
		}
	}
	return true
}

func (a AllOf) String() string {
	return join(a, " && ")
}

// AnyOf holds when at least one member holds. An empty AnyOf never holds.
type AnyOf []Predicate

// Matches reports whether any member matches.
func (a AnyOf) Matches(p Platform) bool {
	for _, pred := range a {
		if pred.Matches(p) {
			return true
		}
	}
	return false
}

func (a AnyOf) String() string {
	return join(a, " || ")
}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

// Matches inverts the wrapped predicate.
func (n Not) Matches(p Platform) bool {
	return !n.Predicate.Matches(p)
}

func (n Not) String() string {
	return "!(" + n.Predicate.String() + ")"
}

func join(preds []Predicate, sep string) string {
	if len(preds) == 0 {
		return "()"
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
