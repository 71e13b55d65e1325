// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
)

// ValueKind discriminates the scalar types a Value can carry.
type ValueKind int

// The supported value kinds. Equality and ordering are strictly typed:
// Int(3), Unsigned(3), Float(3.0) and String("3") are four different values.
const (
	KindString ValueKind = iota
	KindInt
	KindUnsigned
	KindFloat
	KindBoolean
	KindNull
	KindRegex
	KindCIDR
)

var valueKindNames = [...]string{
	"string",
	"int",
	"unsigned",
	"float",
	"boolean",
	"null",
	"regex",
	"cidr",
}

func (k ValueKind) String() string {
	if k >= 0 && int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Value is a tagged scalar: a rule compare-value or an event field value.
// Compiled artifacts (regexes, CIDR prefixes) live in the same tagged type
// so a field's value list can hold literals and compiled values side by side.
type Value struct {
	kind ValueKind
	str  string
	i    int64
	u    uint64
	f    float64
	b    bool
	re   *regexp2.Regexp
	cidr netip.Prefix
}

// StringValue returns a Value holding s.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// IntValue returns a Value holding a signed 64-bit integer.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// UnsignedValue returns a Value holding an unsigned 64-bit integer.
func UnsignedValue(u uint64) Value { return Value{kind: KindUnsigned, u: u} }

// FloatValue returns a Value holding a 64-bit float.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: KindBoolean, b: b} }

// NullValue returns the null Value.
func NullValue() Value { return Value{kind: KindNull} }

func regexValue(re *regexp2.Regexp) Value { return Value{kind: KindRegex, re: re} }

func cidrValue(p netip.Prefix) Value { return Value{kind: KindCIDR, cidr: p} }

// NewValue converts a native Go scalar into a Value. nil maps to null;
// anything outside the supported scalar types is rendered as a string.
func NewValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return NullValue()
	case Value:
		return x
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint:
		return UnsignedValue(uint64(x))
	case uint8:
		return UnsignedValue(uint64(x))
	case uint16:
		return UnsignedValue(uint64(x))
	case uint32:
		return UnsignedValue(uint64(x))
	case uint64:
		return UnsignedValue(x)
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	default:
		return StringValue(fmt.Sprint(x))
	}
}

// Kind returns the value's type tag.
func (v Value) Kind() ValueKind { return v.kind }

// String renders the value in its natural textual form. Regexes render as
// their pattern source, CIDRs in prefix notation, null as "null".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUnsigned:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindRegex:
		return v.re.String()
	case KindCIDR:
		return v.cidr.String()
	default:
		return "null"
	}
}

// Equal reports strictly typed equality. Values of different kinds are never
// equal; regexes compare by pattern source; CIDR values never compare equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.i == other.i
	case KindUnsigned:
		return v.u == other.u
	case KindFloat:
		return v.f == other.f
	case KindBoolean:
		return v.b == other.b
	case KindRegex:
		return v.re.String() == other.re.String()
	case KindNull:
		return true
	default:
		return false
	}
}

// compareTo orders two values of the same kind. Cross-kind comparisons and
// kinds without an ordering (regex, CIDR) report ok=false, which makes the
// numeric predicates evaluate to false.
func (v Value) compareTo(other Value) (int, bool) {
	if v.kind != other.kind {
		return 0, false
	}
	switch v.kind {
	case KindString:
		return strings.Compare(v.str, other.str), true
	case KindInt:
		return cmpOrdered(v.i, other.i), true
	case KindUnsigned:
		return cmpOrdered(v.u, other.u), true
	case KindFloat:
		switch {
		case v.f < other.f:
			return -1, true
		case v.f > other.f:
			return 1, true
		case v.f == other.f:
			return 0, true
		default: // NaN on either side
			return 0, false
		}
	case KindBoolean:
		return cmpBool(v.b, other.b), true
	case KindNull:
		return 0, true
	default:
		return 0, false
	}
}

func cmpOrdered[T int64 | uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	default:
		return 1
	}
}

// regexMatch matches a compiled regex value against target. Non-regex
// values never match.
func (v Value) regexMatch(target string) bool {
	if v.kind != KindRegex {
		return false
	}
	ok, err := v.re.MatchString(target)
	return err == nil && ok
}

// cidrContains reports whether a CIDR value contains target parsed as an IP
// address. Unparsable addresses never match.
func (v Value) cidrContains(target string) bool {
	if v.kind != KindCIDR {
		return false
	}
	addr, err := netip.ParseAddr(target)
	if err != nil {
		return false
	}
	return v.cidr.Contains(addr)
}

// --- Wildcard matching ---

type matchMode int

const (
	modeExact matchMode = iota
	modeContains
	modeStartsWith
	modeEndsWith
)

// hasUnescapedWildcard reports whether the pattern contains a '*' or '?'
// that is not preceded by an escaping backslash. A backslash escapes the
// following character only when it is '*', '?' or '\'.
func hasUnescapedWildcard(pattern string) bool {
	rs := []rune(pattern)
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '\\':
			if i+1 < len(rs) && (rs[i+1] == '*' || rs[i+1] == '?' || rs[i+1] == '\\') {
				i++
			}
		case '*', '?':
			return true
		}
	}
	return false
}

// wildcardRegex translates a wildcard pattern into a regex. '*' becomes
// '.*', '?' becomes '.'; everything else is matched literally. Anchors are
// chosen by mode: exact patterns anchor both ends, prefix patterns the
// start, suffix patterns the end.
func wildcardRegex(mode matchMode, pattern string) string {
	var b strings.Builder
	if mode == modeExact || mode == modeStartsWith {
		b.WriteByte('^')
	}
	rs := []rune(pattern)
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		switch {
		case c == '\\' && i+1 < len(rs) && (rs[i+1] == '*' || rs[i+1] == '?' || rs[i+1] == '\\'):
			b.WriteString(regexp.QuoteMeta(string(rs[i+1])))
			i++
		case c == '*':
			b.WriteString(".*")
		case c == '?':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	if mode == modeExact || mode == modeEndsWith {
		b.WriteByte('$')
	}
	return b.String()
}

// patternCache maps raw wildcard patterns to compiled regexes. A rule is
// shared across concurrent evaluators, so the cache must tolerate
// concurrent reads with a safe first write; duplicate compiles on a race
// are harmless.
type patternCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp2.Regexp
}

func newPatternCache() *patternCache {
	return &patternCache{compiled: make(map[string]*regexp2.Regexp)}
}

func (c *patternCache) lookup(pattern string) *regexp2.Regexp {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.compiled[pattern]
}

func (c *patternCache) store(pattern string, re *regexp2.Regexp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compiled[pattern] = re
}

// matchWildcard matches target against a wildcard pattern, compiling and
// caching the pattern on first use. Patterns that fail to compile never
// match.
func (c *patternCache) matchWildcard(mode matchMode, pattern, target string) bool {
	re := c.lookup(pattern)
	if re == nil {
		compiled, err := regexp2.Compile(wildcardRegex(mode, pattern), regexp2.None)
		if err != nil {
			return false
		}
		c.store(pattern, compiled)
		re = compiled
	}
	ok, err := re.MatchString(target)
	return err == nil && ok
}

// matchStringMode matches target against pattern under the given mode.
// Patterns without wildcards use plain equality, substring, prefix or
// suffix checks; wildcarded patterns go through the regex cache.
func matchStringMode(mode matchMode, target, pattern string, cache *patternCache) bool {
	if hasUnescapedWildcard(pattern) {
		return cache.matchWildcard(mode, pattern, target)
	}
	switch mode {
	case modeContains:
		return strings.Contains(target, pattern)
	case modeStartsWith:
		return strings.HasPrefix(target, pattern)
	case modeEndsWith:
		return strings.HasSuffix(target, pattern)
	default:
		return target == pattern
	}
}

// foldValue lowercases string values unless the cased modifier suppressed
// folding. Non-string values pass through untouched.
func foldValue(v Value, cased bool) Value {
	if cased || v.kind != KindString {
		return v
	}
	return StringValue(strings.ToLower(v.str))
}
