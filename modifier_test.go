// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	o, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error, got %v", err)
	code, _ := o.Code().(string)
	return code
}

func TestParseFieldNameOnly(t *testing.T) {
	name, mod, err := parseFieldName("a")
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	assert.Equal(t, MatchEquals, mod.Match)
	assert.Equal(t, TransformNone, mod.Transform)
	assert.False(t, mod.MatchAll)
}

func TestParseFieldNameContains(t *testing.T) {
	name, mod, err := parseFieldName("hello|contains")
	require.NoError(t, err)
	assert.Equal(t, "hello", name)
	assert.Equal(t, MatchContains, mod.Match)
	assert.Equal(t, TransformNone, mod.Transform)
}

func TestParseFieldNameWindashContains(t *testing.T) {
	name, mod, err := parseFieldName("hello|windash|contains")
	require.NoError(t, err)
	assert.Equal(t, "hello", name)
	assert.Equal(t, MatchContains, mod.Match)
	assert.Equal(t, TransformWindash, mod.Transform)
}

func TestParseFieldNameBase64EndsWith(t *testing.T) {
	_, mod, err := parseFieldName("hello|base64|endswith")
	require.NoError(t, err)
	assert.Equal(t, MatchEndsWith, mod.Match)
	assert.Equal(t, TransformBase64, mod.Transform)
	assert.Equal(t, Utf16None, mod.Utf16)
}

func TestParseFieldNameBase64OffsetUtf16(t *testing.T) {
	_, mod, err := parseFieldName("hello|base64offset|utf16le|endswith")
	require.NoError(t, err)
	assert.Equal(t, MatchEndsWith, mod.Match)
	assert.Equal(t, TransformBase64Offset, mod.Transform)
	assert.Equal(t, Utf16LE, mod.Utf16)

	_, mod, err = parseFieldName("hello|base64|utf16be")
	require.NoError(t, err)
	assert.Equal(t, Utf16BE, mod.Utf16)
}

func TestParseFieldNameCaseInsensitiveSuffixes(t *testing.T) {
	_, mod, err := parseFieldName("hello|CONTAINS|All")
	require.NoError(t, err)
	assert.Equal(t, MatchContains, mod.Match)
	assert.True(t, mod.MatchAll)
}

func TestParseFieldNameFlags(t *testing.T) {
	_, mod, err := parseFieldName("f|fieldref|startswith")
	require.NoError(t, err)
	assert.True(t, mod.FieldRef)
	assert.Equal(t, MatchStartsWith, mod.Match)

	_, mod, err = parseFieldName("f|contains|cased")
	require.NoError(t, err)
	assert.True(t, mod.Cased)

	_, mod, err = parseFieldName("f|exists")
	require.NoError(t, err)
	require.NotNil(t, mod.Exists)
}

func TestParseFieldNameConflictingMatchModifiers(t *testing.T) {
	_, _, err := parseFieldName("f|contains|endswith")
	assert.Equal(t, CodeConflictingModifiers, errCode(t, err))

	_, _, err = parseFieldName("f|re|cidr")
	assert.Equal(t, CodeConflictingModifiers, errCode(t, err))

	_, _, err = parseFieldName("f|base64|windash")
	assert.Equal(t, CodeConflictingModifiers, errCode(t, err))
}

func TestParseFieldNameUnknownModifier(t *testing.T) {
	_, _, err := parseFieldName("f|bogus")
	assert.Equal(t, CodeUnknownModifier, errCode(t, err))
}

func TestParseFieldNameAmbiguousUtf16(t *testing.T) {
	_, _, err := parseFieldName("f|base64|utf16")
	assert.Equal(t, CodeAmbiguousUtf16Modifier, errCode(t, err))

	_, _, err = parseFieldName("f|base64|wide")
	assert.Equal(t, CodeAmbiguousUtf16Modifier, errCode(t, err))
}

func TestParseFieldNameUtf16WithoutBase64(t *testing.T) {
	_, _, err := parseFieldName("f|utf16le|contains")
	assert.Equal(t, CodeUtf16WithoutBase64, errCode(t, err))

	_, _, err = parseFieldName("f|utf16le|windash")
	assert.Equal(t, CodeUtf16WithoutBase64, errCode(t, err))
}

func TestParseFieldNameStandaloneViolation(t *testing.T) {
	_, _, err := parseFieldName("f|re|base64")
	assert.Equal(t, CodeStandaloneViolation, errCode(t, err))

	_, _, err = parseFieldName("f|cidr|windash")
	assert.Equal(t, CodeStandaloneViolation, errCode(t, err))
}

func TestParseFieldNameExistsNotStandalone(t *testing.T) {
	_, _, err := parseFieldName("f|exists|contains")
	assert.Equal(t, CodeExistsNotStandalone, errCode(t, err))

	_, _, err = parseFieldName("f|exists|all")
	assert.Equal(t, CodeExistsNotStandalone, errCode(t, err))

	_, _, err = parseFieldName("f|exists|base64")
	assert.Equal(t, CodeExistsNotStandalone, errCode(t, err))
}
