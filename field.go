// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"net/netip"

	"github.com/dlclark/regexp2"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Field is a named predicate: a field name, a list of compare-values and a
// modifier. Values are preprocessed at construction: CIDRs parsed, regexes
// compiled, base64 and windash expansions applied.
type Field struct {
	Name     string
	Values   []Value
	Modifier Modifier

	// patterns caches wildcard compare-values compiled to regexes so
	// repeated evaluation does not recompile.
	patterns *patternCache
}

// NewField builds a field from a "name|mod1|mod2" key and its
// compare-values, running modifier validation and value preprocessing.
func NewField(nameWithModifiers string, values []Value) (*Field, error) {
	name, mod, err := parseFieldName(nameWithModifiers)
	if err != nil {
		return nil, err
	}
	f := &Field{
		Name:     name,
		Values:   values,
		Modifier: mod,
		patterns: newPatternCache(),
	}
	if err := f.bootstrap(); err != nil {
		return nil, err
	}
	return f, nil
}

// fieldFromNode builds a field from a YAML mapping entry. The value is a
// scalar, a null, or a sequence of scalars.
func fieldFromNode(name string, node *yaml.Node) (*Field, error) {
	node = resolveNode(node)
	var values []Value
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := valueFromNode(node)
		if err != nil {
			return nil, err
		}
		values = []Value{v}
	case yaml.SequenceNode:
		values = make([]Value, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolveNode(item)
			if item.Kind != yaml.ScalarNode {
				return nil, oops.Code(CodeInvalidYAML).
					Errorf("provided YAML is not a valid field representation: %s", nodeKindName(item))
			}
			v, err := valueFromNode(item)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
	default:
		return nil, oops.Code(CodeInvalidYAML).
			Errorf("provided YAML is not a valid field representation: %s", nodeKindName(node))
	}
	return NewField(name, values)
}

// bootstrap validates the value list against the modifier and replaces it
// with its preprocessed form.
func (f *Field) bootstrap() error {
	if len(f.Values) == 0 {
		return oops.Code(CodeEmptyValues).Errorf("no values provided for field %q", f.Name)
	}

	if f.Modifier.Exists != nil {
		if len(f.Values) != 1 || f.Values[0].Kind() != KindBoolean {
			return oops.Code(CodeInvalidValueForExists).
				Errorf("the exists modifier takes exactly one boolean value")
		}
		polarity := f.Values[0].b
		f.Modifier.Exists = &polarity
	}

	switch f.Modifier.Match {
	case MatchContains, MatchStartsWith, MatchEndsWith:
		for _, v := range f.Values {
			if v.Kind() != KindString {
				return oops.Code(CodeInvalidValueForStringModifier).
					Errorf("the modifiers contains, startswith and endswith must be used with string values, got %s", v.Kind())
			}
		}
	case MatchCIDR:
		for i, v := range f.Values {
			prefix, err := parseCIDR(v.String())
			if err != nil {
				return oops.Code(CodeIPParsing).Wrapf(err, "parsing IP network %q", v.String())
			}
			f.Values[i] = cidrValue(prefix)
		}
	case MatchRegex:
		for i, v := range f.Values {
			re, err := regexp2.Compile(v.String(), regexp2.None)
			if err != nil {
				return oops.Code(CodeRegexParsing).Wrapf(err, "compiling regular expression %q", v.String())
			}
			f.Values[i] = regexValue(re)
		}
	}

	switch f.Modifier.Transform {
	case TransformBase64:
		encoded := make([]Value, 0, len(f.Values))
		for _, v := range f.Values {
			encoded = append(encoded, StringValue(encodeBase64(v.String(), f.Modifier.Utf16)))
		}
		f.Values = encoded
	case TransformBase64Offset:
		expanded := make([]Value, 0, 3*len(f.Values))
		for _, v := range f.Values {
			for _, s := range encodeBase64Offset(v.String(), f.Modifier.Utf16) {
				expanded = append(expanded, StringValue(s))
			}
		}
		f.Values = expanded
	case TransformWindash:
		expanded := make([]Value, 0, len(f.Values))
		for _, v := range f.Values {
			for _, s := range windashVariations(v.String()) {
				expanded = append(expanded, StringValue(s))
			}
		}
		f.Values = expanded
	}

	return nil
}

// parseCIDR parses an IP network in prefix notation; a bare address is
// accepted as a single-host prefix.
func parseCIDR(s string) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(s)
	if err == nil {
		return prefix, nil
	}
	addr, addrErr := netip.ParseAddr(s)
	if addrErr != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// Evaluate checks the predicate against an event.
func (f *Field) Evaluate(event *Event) bool {
	raw, ok := event.Get(f.Name)
	if !ok {
		return f.Modifier.Exists != nil && !*f.Modifier.Exists
	}

	if f.Modifier.Exists != nil && *f.Modifier.Exists {
		return true
	}

	// Matching against sequences and nested maps is unsupported; only a
	// scalar resolved via the field name (possibly a dotted path) matches.
	target, isScalar := raw.(Value)
	if !isScalar {
		return false
	}

	if len(f.Values) == 0 {
		// Cannot happen after bootstrap, but if it somehow does the key
		// exists and the field carries no further conditions.
		return true
	}

	target = foldValue(target, f.Modifier.Cased)

	for _, val := range f.Values {
		var cmp Value
		if f.Modifier.FieldRef {
			// The compare-value names another field in the same event.
			ref, ok := event.Get(val.String())
			if !ok {
				continue
			}
			scalar, isScalar := ref.(Value)
			if !isScalar {
				continue
			}
			cmp = foldValue(scalar, f.Modifier.Cased)
		} else {
			cmp = foldValue(val, f.Modifier.Cased)
		}

		fired := f.compare(target, cmp)
		if fired && !f.Modifier.MatchAll {
			return true
		}
		if !fired && f.Modifier.MatchAll {
			return false
		}
	}
	// Nothing fired without match_all, or everything fired with it.
	return f.Modifier.MatchAll
}

func (f *Field) compare(target, cmp Value) bool {
	switch f.Modifier.Match {
	case MatchContains:
		return f.matchString(modeContains, target, cmp)
	case MatchStartsWith:
		return f.matchString(modeStartsWith, target, cmp)
	case MatchEndsWith:
		return f.matchString(modeEndsWith, target, cmp)
	case MatchGt:
		c, ok := target.compareTo(cmp)
		return ok && c > 0
	case MatchGte:
		c, ok := target.compareTo(cmp)
		return ok && c >= 0
	case MatchLt:
		c, ok := target.compareTo(cmp)
		return ok && c < 0
	case MatchLte:
		c, ok := target.compareTo(cmp)
		return ok && c <= 0
	case MatchRegex:
		return cmp.regexMatch(target.String())
	case MatchCIDR:
		return cmp.cidrContains(target.String())
	default:
		if f.Modifier.FieldRef {
			// Field-to-field comparison is strict equality, no wildcards.
			return cmp.Equal(target)
		}
		return f.isEqual(target, cmp)
	}
}

func (f *Field) matchString(mode matchMode, target, cmp Value) bool {
	if target.Kind() != KindString || cmp.Kind() != KindString {
		return false
	}
	return matchStringMode(mode, target.str, cmp.str, f.patterns)
}

// isEqual is plain equality, except that string compare-values containing
// unescaped wildcards match as a fully anchored glob.
func (f *Field) isEqual(target, cmp Value) bool {
	if target.Kind() == KindString && cmp.Kind() == KindString && hasUnescapedWildcard(cmp.str) {
		return f.patterns.matchWildcard(modeExact, cmp.str, target.str)
	}
	return target.Equal(cmp)
}
