package domain

import (
	"cmp"
	"path"
	"slices"
	"strconv"

	"go.trai.ch/zerr"
)

// ValueKind identifies the primitive held by an OptionValue.
type ValueKind int

const (
	// KindString is a free-form string value.
	KindString ValueKind = iota
	// KindBool is a boolean value.
	KindBool
	// KindInt is an integer value.
	KindInt
)

// OptionValue is a primitive option value.
type OptionValue struct {
	kind ValueKind
	str  string
	b    bool
	i    int64
}

// StringValue wraps a string.
func StringValue(s string) OptionValue { return OptionValue{kind: KindString, str: s} }

// BoolValue wraps a boolean.
func BoolValue(b bool) OptionValue { return OptionValue{kind: KindBool, b: b} }

// IntValue wraps an integer.
func IntValue(i int64) OptionValue { return OptionValue{kind: KindInt, i: i} }

// Kind returns the primitive kind.
func (v OptionValue) Kind() ValueKind { return v.kind }

// Bool returns the boolean payload and whether the value is a boolean.
func (v OptionValue) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Equal reports whether two values hold the same primitive.
func (v OptionValue) Equal(o OptionValue) bool {
	return v == o
}

// String renders the value in option form. Booleans render as True/False.
func (v OptionValue) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	default:
		return v.str
	}
}

// CMakeString renders the value in CMake cache form. Booleans render as ON/OFF.
func (v OptionValue) CMakeString() string {
	if v.kind == KindBool {
		if v.b {
			return "ON"
		}
		return "OFF"
	}
	return v.String()
}

// MarshalYAML renders the underlying primitive.
func (v OptionValue) MarshalYAML() (any, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindInt:
		return v.i, nil
	default:
		return v.str, nil
	}
}

// OptionOverride sets one option on the packages matching TargetPackage.
type OptionOverride struct {
	// TargetPackage is an identifier or a glob over identifiers, such as "boost/*".
	TargetPackage string      `yaml:"package"`
	Option        string      `yaml:"option"`
	Value         OptionValue `yaml:"value"`
}

// Key returns the (package, option) pair that must be unique across active rules.
func (o OptionOverride) Key() string {
	return o.TargetPackage + ":" + o.Option
}

// AppliesTo reports whether the override targets the given identifier.
func (o OptionOverride) AppliesTo(identifier string) bool {
	if o.TargetPackage == identifier {
		return true
	}
	ok, err := path.Match(o.TargetPackage, identifier)
	return err == nil && ok
}

func (o OptionOverride) String() string {
	return o.Key() + "=" + o.Value.String()
}

// OverlayRule binds a set of overrides to a platform condition.
type OverlayRule struct {
	Name      string
	Condition Predicate
	Overrides []OptionOverride
}

// Overlays is an ordered list of overlay rules.
type Overlays []OverlayRule

// Apply merges the overrides of every rule whose condition holds for platform.
// Any (package, option) pair set by more than one source is a conflict, even when
// the values agree. The result is sorted by package then option.
func (rules Overlays) Apply(platform Platform) ([]OptionOverride, error) {
	type origin struct {
		rule     string
		override OptionOverride
	}
	seen := make(map[string]origin)
	var merged []OptionOverride

	for i, rule := range rules {
		if rule.Condition != nil && !rule.Condition.Matches(platform) {
			continue
		}
		name := rule.Name
		if name == "" {
			name = "overlay[" + strconv.Itoa(i) + "]"
		}

		for _, o := range rule.Overrides {
			if prev, exists := seen[o.Key()]; exists {
				err := zerr.With(zerr.Wrap(ErrConflictingOverride, "option set by more than one active rule"), "package", o.TargetPackage)
				err = zerr.With(err, "option", o.Option)
				err = zerr.With(err, "first", prev.rule+" ("+prev.override.Value.String()+")")
				return nil, zerr.With(err, "second", name+" ("+o.Value.String()+")")
			}
			seen[o.Key()] = origin{rule: name, override: o}
			merged = append(merged, o)
		}
	}

	SortOverrides(merged)
	return merged, nil
}

// SortOverrides orders overrides by package then option.
func SortOverrides(overrides []OptionOverride) {
	slices.SortFunc(overrides, func(a, b OptionOverride) int {
		return cmp.Or(
			cmp.Compare(a.TargetPackage, b.TargetPackage),
			cmp.Compare(a.Option, b.Option),
		)
	})
}
