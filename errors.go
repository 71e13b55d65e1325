// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

// Error codes attached to every error this library returns. Callers branch
// on them via oops.AsOops(err).Code() instead of matching message text.
const (
	// Modifier parsing.
	CodeConflictingModifiers   = "CONFLICTING_MODIFIERS"
	CodeUnknownModifier        = "UNKNOWN_MODIFIER"
	CodeAmbiguousUtf16Modifier = "AMBIGUOUS_UTF16_MODIFIER"
	CodeUtf16WithoutBase64     = "UTF16_WITHOUT_BASE64"
	CodeStandaloneViolation    = "STANDALONE_VIOLATION"
	CodeExistsNotStandalone    = "EXISTS_NOT_STANDALONE"

	// Field construction.
	CodeInvalidValueForExists         = "INVALID_VALUE_FOR_EXISTS"
	CodeEmptyValues                   = "EMPTY_VALUES"
	CodeInvalidValueForStringModifier = "INVALID_VALUE_FOR_STRING_MODIFIER"
	CodeInvalidYAML                   = "INVALID_YAML"
	CodeInvalidFieldName              = "INVALID_FIELD_NAME"
	CodeIPParsing                     = "IP_PARSING"
	CodeRegexParsing                  = "REGEX_PARSING"

	// Condition parsing.
	CodeMissingClosingParenthesis = "MISSING_CLOSING_PARENTHESIS"
	CodeUnexpectedToken           = "UNEXPECTED_TOKEN"
	CodeInvalidOperator           = "INVALID_OPERATOR"
	CodeUndefinedIdentifiers      = "UNDEFINED_IDENTIFIERS"

	// Selection parsing.
	CodeSelectionContainsNoFields = "SELECTION_CONTAINS_NO_FIELDS"
	CodeMixedKeywordAndFieldlist  = "MIXED_KEYWORD_AND_FIELDLIST"
	CodeInvalidSelectionType      = "INVALID_SELECTION_TYPE"
	CodeInvalidKeywordSelection   = "INVALID_KEYWORD_SELECTION"

	// Event ingestion.
	CodeInvalidFieldValue = "INVALID_FIELD_VALUE"
	CodeInvalidEvent      = "INVALID_EVENT"
)
