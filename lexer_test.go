// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sel(name string) token { return token{kind: tokSelection, text: name} }

func TestTokenizeEmpty(t *testing.T) {
	assert.Empty(t, tokenize(""))
	assert.Empty(t, tokenize(" "))
	assert.Empty(t, tokenize("   "))
}

func TestTokenizeAndOr(t *testing.T) {
	tokens := tokenize(" selection_1 and selection_2   OR  selection_3 ")
	assert.Equal(t, []token{
		sel("selection_1"),
		{kind: tokAnd},
		sel("selection_2"),
		{kind: tokOr},
		sel("selection_3"),
	}, tokens)
}

func TestTokenizeOneOf(t *testing.T) {
	tokens := tokenize("selection_1 and 1 OF ms*")
	assert.Equal(t, []token{
		sel("selection_1"),
		{kind: tokAnd},
		{kind: tokOneOf, text: "ms*"},
	}, tokens)
}

func TestTokenizeAllOf(t *testing.T) {
	expected := []token{
		{kind: tokOpenParen},
		sel("selection_1"),
		{kind: tokAnd},
		sel("selection_2"),
		{kind: tokCloseParen},
		{kind: tokOr},
		{kind: tokAllOfThem},
	}
	assert.Equal(t, expected, tokenize("( selection_1 and selection_2 ) or all of them"))
	assert.Equal(t, expected, tokenize("( selection_1 and selection_2 ) or all   of   them"))
}

func TestTokenizeCollapsedQuantifier(t *testing.T) {
	tokens := tokenize("( selection_1 and selection_2 ) or aLL   oof thEm")
	assert.Equal(t, []token{
		{kind: tokOpenParen},
		sel("selection_1"),
		{kind: tokAnd},
		sel("selection_2"),
		{kind: tokCloseParen},
		{kind: tokOr},
		sel("aLL"),
		sel("oof"),
		sel("thEm"),
	}, tokens)
}

func TestTokenizeNoSpacesAroundParentheses(t *testing.T) {
	tokens := tokenize("(selection_1 and selection_2) or all of them")
	assert.Equal(t, []token{
		{kind: tokOpenParen},
		sel("selection_1"),
		{kind: tokAnd},
		sel("selection_2"),
		{kind: tokCloseParen},
		{kind: tokOr},
		{kind: tokAllOfThem},
	}, tokens)
}

func TestTokenizeFreeFormWords(t *testing.T) {
	tokens := tokenize(" write TargetLogonId from selection1 (if not selection2)")
	assert.Equal(t, []token{
		sel("write"),
		sel("TargetLogonId"),
		sel("from"),
		sel("selection1"),
		{kind: tokOpenParen},
		sel("if"),
		{kind: tokNot},
		sel("selection2"),
		{kind: tokCloseParen},
	}, tokens)
}

func TestTokenizeQuantifierVariants(t *testing.T) {
	assert.Equal(t, []token{{kind: tokOneOfThem}}, tokenize("1 of them"))
	assert.Equal(t, []token{{kind: tokOneOfThem}}, tokenize("1 OF THEM"))
	assert.Equal(t, []token{{kind: tokAllOf, text: "sel_*"}}, tokenize("all of sel_*"))
	assert.Equal(t, []token{{kind: tokOneOf, text: "filter_main_*"}}, tokenize("1 of filter_main_*"))
}

func TestTokenizeDanglingQuantifier(t *testing.T) {
	// A trailing "1" or "1 of" collapses to a plain selection token.
	assert.Equal(t, []token{sel("a"), {kind: tokAnd}, sel("1")}, tokenize("a and 1"))
	assert.Equal(t, []token{sel("a"), {kind: tokAnd}, sel("1")}, tokenize("a and 1 of"))
	assert.Equal(t, []token{sel("ALL"), sel("x")}, tokenize("ALL x"))
}

func TestLexerNextPeek(t *testing.T) {
	lx := newLexer("a and b")
	assert.Equal(t, sel("a"), lx.peek())
	assert.Equal(t, sel("a"), lx.next())
	assert.Equal(t, token{kind: tokAnd}, lx.next())
	assert.Equal(t, sel("b"), lx.next())
	assert.Equal(t, token{kind: tokEnd}, lx.next())
	assert.Equal(t, token{kind: tokEnd}, lx.next())
}
