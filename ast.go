// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"github.com/samber/oops"
)

// Ast is a node of the parsed condition expression. String renders the
// fully parenthesized form, which re-parses to the same structure.
type Ast interface {
	String() string
	isAst()
}

// SelectionExpr references a selection by its literal name.
type SelectionExpr struct{ Name string }

// OneOfExpr is a disjunction over the selections whose names match Pattern.
type OneOfExpr struct{ Pattern string }

// AllOfExpr is a conjunction over the selections whose names match Pattern.
type AllOfExpr struct{ Pattern string }

// OneOfThemExpr is a disjunction over all defined selections.
type OneOfThemExpr struct{}

// AllOfThemExpr is a conjunction over all defined selections.
type AllOfThemExpr struct{}

// NotExpr negates its operand.
type NotExpr struct{ Expr Ast }

// AndExpr is a conjunction of two operands.
type AndExpr struct{ Left, Right Ast }

// OrExpr is a disjunction of two operands.
type OrExpr struct{ Left, Right Ast }

func (SelectionExpr) isAst() {}
func (OneOfExpr) isAst()     {}
func (AllOfExpr) isAst()     {}
func (OneOfThemExpr) isAst() {}
func (AllOfThemExpr) isAst() {}
func (NotExpr) isAst()       {}
func (AndExpr) isAst()       {}
func (OrExpr) isAst()        {}

func (e SelectionExpr) String() string { return e.Name }
func (e OneOfExpr) String() string     { return "1 of " + e.Pattern }
func (e AllOfExpr) String() string     { return "all of " + e.Pattern }
func (OneOfThemExpr) String() string   { return "1 of them" }
func (AllOfThemExpr) String() string   { return "all of them" }
func (e NotExpr) String() string       { return "not (" + e.Expr.String() + ")" }
func (e AndExpr) String() string       { return "(" + e.Left.String() + " and " + e.Right.String() + ")" }
func (e OrExpr) String() string        { return "(" + e.Left.String() + " or " + e.Right.String() + ")" }

// Binding powers of the condition operators. Parentheses reset precedence.
const (
	bindingPowerOr  = 1
	bindingPowerAnd = 2
	bindingPowerNot = 3
)

// ParseCondition parses a condition expression into its AST.
func ParseCondition(input string) (Ast, error) {
	lx := newLexer(input)
	return parseTokenStream(lx, 0)
}

// parseTokenStream is a Pratt parser: parse a leaf (or prefix/group), then
// fold infix operators while their binding power holds.
func parseTokenStream(lx *lexer, minBindingPower int) (Ast, error) {
	var left Ast
	t := lx.next()
	switch t.kind {
	case tokSelection:
		left = SelectionExpr{Name: t.text}
	case tokOneOf:
		left = OneOfExpr{Pattern: t.text}
	case tokOneOfThem:
		left = OneOfThemExpr{}
	case tokAllOf:
		left = AllOfExpr{Pattern: t.text}
	case tokAllOfThem:
		left = AllOfThemExpr{}
	case tokOpenParen:
		inner, err := parseTokenStream(lx, 0)
		if err != nil {
			return nil, err
		}
		if lx.next().kind != tokCloseParen {
			return nil, oops.Code(CodeMissingClosingParenthesis).
				Errorf("missing closing parenthesis in condition")
		}
		left = inner
	case tokNot:
		operand, err := parseTokenStream(lx, bindingPowerNot)
		if err != nil {
			return nil, err
		}
		left = NotExpr{Expr: operand}
	default:
		return nil, oops.Code(CodeUnexpectedToken).
			Errorf("encountered unexpected token %q in condition", t.String())
	}

	for {
		var bp int
		var and bool
		switch p := lx.peek(); p.kind {
		case tokEnd, tokCloseParen:
			return left, nil
		case tokAnd:
			bp, and = bindingPowerAnd, true
		case tokOr:
			bp = bindingPowerOr
		default:
			return nil, oops.Code(CodeInvalidOperator).
				Errorf("encountered invalid operator %q in condition", p.String())
		}
		if bp < minBindingPower {
			return left, nil
		}
		lx.next()

		right, err := parseTokenStream(lx, bp)
		if err != nil {
			return nil, err
		}
		if and {
			left = AndExpr{Left: left, Right: right}
		} else {
			left = OrExpr{Left: left, Right: right}
		}
	}
}

// literalSelections collects the names of the literal selection leaves.
// Quantifier leaves are excluded; they tolerate zero matches.
func literalSelections(node Ast) map[string]struct{} {
	names := make(map[string]struct{})
	collectSelections(node, names)
	return names
}

func collectSelections(node Ast, acc map[string]struct{}) {
	switch n := node.(type) {
	case SelectionExpr:
		acc[n.Name] = struct{}{}
	case NotExpr:
		collectSelections(n.Expr, acc)
	case AndExpr:
		collectSelections(n.Left, acc)
		collectSelections(n.Right, acc)
	case OrExpr:
		collectSelections(n.Left, acc)
		collectSelections(n.Right, acc)
	}
}

// quantifierPatterns collects the glob patterns of OneOf/AllOf leaves.
func quantifierPatterns(node Ast, acc map[string]struct{}) {
	switch n := node.(type) {
	case OneOfExpr:
		acc[n.Pattern] = struct{}{}
	case AllOfExpr:
		acc[n.Pattern] = struct{}{}
	case NotExpr:
		quantifierPatterns(n.Expr, acc)
	case AndExpr:
		quantifierPatterns(n.Left, acc)
		quantifierPatterns(n.Right, acc)
	case OrExpr:
		quantifierPatterns(n.Left, acc)
		quantifierPatterns(n.Right, acc)
	}
}
