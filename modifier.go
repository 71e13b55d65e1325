// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"strings"

	"github.com/samber/oops"
)

// MatchModifier selects the comparison a field predicate applies to each
// compare-value. The zero value is plain equality.
type MatchModifier int

// The match modifiers of the Sigma modifier syntax.
// See https://sigmahq.io/docs/basics/modifiers.html
const (
	MatchEquals MatchModifier = iota
	MatchContains
	MatchStartsWith
	MatchEndsWith
	MatchGt
	MatchGte
	MatchLt
	MatchLte
	MatchRegex
	MatchCIDR
)

var matchModifierNames = map[MatchModifier]string{
	MatchEquals:     "equals",
	MatchContains:   "contains",
	MatchStartsWith: "startswith",
	MatchEndsWith:   "endswith",
	MatchGt:         "gt",
	MatchGte:        "gte",
	MatchLt:         "lt",
	MatchLte:        "lte",
	MatchRegex:      "re",
	MatchCIDR:       "cidr",
}

func (m MatchModifier) String() string { return matchModifierNames[m] }

// ValueTransformer selects the preprocessing applied to a field's
// compare-values at construction time.
type ValueTransformer int

// The value transformers of the Sigma modifier syntax.
const (
	TransformNone ValueTransformer = iota
	TransformBase64
	TransformBase64Offset
	TransformWindash
)

// Utf16Variant selects the UTF-16 widening applied before base64 encoding.
// Endian-unspecified requests (utf16, wide) are rejected at parse time.
type Utf16Variant int

// The UTF-16 flavors.
const (
	Utf16None Utf16Variant = iota
	Utf16LE
	Utf16BE
)

// Modifier is the parsed form of a field name's pipe-separated suffixes.
type Modifier struct {
	// MatchAll distributes the comparison over the value list with AND
	// instead of OR.
	MatchAll bool
	// FieldRef treats compare-values as names of other fields in the same
	// event rather than literals.
	FieldRef bool
	// Cased suppresses case folding on string comparisons.
	Cased bool
	// Exists, when non-nil, turns the predicate into a presence check. The
	// polarity is taken from the field's single boolean value.
	Exists *bool

	Match     MatchModifier
	Transform ValueTransformer
	Utf16     Utf16Variant
}

var matchModifierBySuffix = map[string]MatchModifier{
	"contains":   MatchContains,
	"startswith": MatchStartsWith,
	"endswith":   MatchEndsWith,
	"gt":         MatchGt,
	"gte":        MatchGte,
	"lt":         MatchLt,
	"lte":        MatchLte,
	"re":         MatchRegex,
	"cidr":       MatchCIDR,
}

var transformBySuffix = map[string]ValueTransformer{
	"base64":       TransformBase64,
	"base64offset": TransformBase64Offset,
	"windash":      TransformWindash,
}

// parseFieldName splits a "name|mod1|mod2" field key into the bare field
// name and its parsed modifier, validating the combination.
func parseFieldName(s string) (string, Modifier, error) {
	parts := strings.Split(s, "|")
	name := parts[0]

	var mod Modifier
	var matchSuffix, transformSuffix, utf16Suffix string
	existsSeen := false

	for _, raw := range parts[1:] {
		suffix := strings.ToLower(raw)
		switch {
		case suffix == "all":
			mod.MatchAll = true
		case suffix == "fieldref":
			mod.FieldRef = true
		case suffix == "cased":
			mod.Cased = true
		case suffix == "exists":
			existsSeen = true
			placeholder := false
			mod.Exists = &placeholder
		case suffix == "utf16le" || suffix == "utf16be":
			if utf16Suffix != "" {
				return "", Modifier{}, conflictErr(utf16Suffix, suffix)
			}
			utf16Suffix = suffix
			if suffix == "utf16le" {
				mod.Utf16 = Utf16LE
			} else {
				mod.Utf16 = Utf16BE
			}
		case suffix == "utf16" || suffix == "wide":
			return "", Modifier{}, oops.Code(CodeAmbiguousUtf16Modifier).
				Errorf("the modifier %q is ambiguous and therefore unsupported; use utf16le or utf16be instead", raw)
		default:
			if m, ok := matchModifierBySuffix[suffix]; ok {
				if matchSuffix != "" {
					return "", Modifier{}, conflictErr(matchSuffix, suffix)
				}
				matchSuffix = suffix
				mod.Match = m
				break
			}
			if t, ok := transformBySuffix[suffix]; ok {
				if transformSuffix != "" {
					return "", Modifier{}, conflictErr(transformSuffix, suffix)
				}
				transformSuffix = suffix
				mod.Transform = t
				break
			}
			return "", Modifier{}, oops.Code(CodeUnknownModifier).
				Errorf("unknown field modifier %q provided", raw)
		}
	}

	if mod.Utf16 != Utf16None && mod.Transform != TransformBase64 && mod.Transform != TransformBase64Offset {
		return "", Modifier{}, oops.Code(CodeUtf16WithoutBase64).
			Errorf("UTF16 encoding requested but no base64 or base64offset modifier provided")
	}
	if (mod.Match == MatchRegex || mod.Match == MatchCIDR) && mod.Transform != TransformNone {
		return "", Modifier{}, oops.Code(CodeStandaloneViolation).
			Errorf("the modifier %q must not be combined with value transformers", matchSuffix)
	}
	if existsSeen && (mod.MatchAll || mod.FieldRef || mod.Cased ||
		mod.Match != MatchEquals || mod.Transform != TransformNone || mod.Utf16 != Utf16None) {
		return "", Modifier{}, oops.Code(CodeExistsNotStandalone).
			Errorf("the exists modifier must not be combined with other modifiers")
	}

	return name, mod, nil
}

func conflictErr(first, second string) error {
	return oops.Code(CodeConflictingModifiers).
		Errorf("the field modifiers %q and %q are conflicting", first, second)
}
