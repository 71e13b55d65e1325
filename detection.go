// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"sort"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Detection is the matching core of a rule: named selections combined by a
// condition expression. It is built once and evaluated many times; a built
// detection is immutable and safe to share across goroutines.
type Detection struct {
	selections map[string]*Selection
	condition  string
	ast        Ast

	// globs holds the quantifier patterns compiled at construction so
	// evaluation never recompiles. Patterns that fail to compile are
	// absent and match no selection.
	globs map[string]glob.Glob
}

// NewDetection builds a detection from parsed selections and a condition
// expression. Every literal selection name in the condition must exist.
func NewDetection(selections map[string]*Selection, condition string) (*Detection, error) {
	d := &Detection{
		selections: selections,
		condition:  condition,
	}
	if err := d.compile(); err != nil {
		return nil, err
	}
	return d, nil
}

// Selections returns the selection map.
func (d *Detection) Selections() map[string]*Selection { return d.selections }

// Condition returns the raw condition expression.
func (d *Detection) Condition() string { return d.condition }

// UnmarshalYAML decodes the detection block of a rule: the "condition" key
// holds the expression, every other key names a selection.
func (d *Detection) UnmarshalYAML(node *yaml.Node) error {
	node = resolveNode(node)
	if node.Kind != yaml.MappingNode {
		return oops.Code(CodeInvalidYAML).Errorf("detection must be a mapping")
	}

	d.selections = make(map[string]*Selection, len(node.Content)/2)
	conditionSeen := false

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := resolveNode(node.Content[i])
		value := node.Content[i+1]
		if key.Value == "condition" {
			if err := value.Decode(&d.condition); err != nil {
				return oops.Code(CodeInvalidYAML).Wrapf(err, "decoding condition")
			}
			conditionSeen = true
			continue
		}
		selection, err := selectionFromNode(value)
		if err != nil {
			return wrapSelectionErr(err, key.Value)
		}
		d.selections[key.Value] = selection
	}

	if !conditionSeen {
		return oops.Code(CodeInvalidYAML).Errorf("detection requires a condition")
	}
	return d.compile()
}

// wrapSelectionErr attaches the failing selection's name while keeping the
// original error code queryable.
func wrapSelectionErr(err error, name string) error {
	code := ""
	if o, ok := oops.AsOops(err); ok {
		code, _ = o.Code().(string)
	}
	return oops.Code(code).With("selection", name).Wrapf(err, "selection %q has an error", name)
}

// compile parses the condition, validates its literal selection names
// against the selection map, and pre-compiles quantifier globs.
func (d *Detection) compile() error {
	ast, err := ParseCondition(d.condition)
	if err != nil {
		return err
	}

	var missing []string
	for name := range literalSelections(ast) {
		if _, ok := d.selections[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return oops.Code(CodeUndefinedIdentifiers).
			Errorf("condition references undefined identifiers: %v", missing)
	}

	patterns := make(map[string]struct{})
	quantifierPatterns(ast, patterns)
	d.globs = make(map[string]glob.Glob, len(patterns))
	for pattern := range patterns {
		if g, err := glob.Compile(pattern); err == nil {
			d.globs[pattern] = g
		}
	}

	d.ast = ast
	return nil
}

// Evaluate walks the condition AST against an event, memoizing each
// selection's result so repeated references evaluate once.
func (d *Detection) Evaluate(event *Event) bool {
	memo := make(map[string]bool, len(d.selections))
	return d.eval(d.ast, event, memo)
}

func (d *Detection) eval(node Ast, event *Event, memo map[string]bool) bool {
	switch n := node.(type) {
	case SelectionExpr:
		return d.evalSelection(n.Name, event, memo)
	case OneOfExpr:
		g := d.globs[n.Pattern]
		if g == nil {
			return false
		}
		for name := range d.selections {
			if g.Match(name) && d.evalSelection(name, event, memo) {
				return true
			}
		}
		return false
	case AllOfExpr:
		g := d.globs[n.Pattern]
		if g == nil {
			return true
		}
		for name := range d.selections {
			if g.Match(name) && !d.evalSelection(name, event, memo) {
				return false
			}
		}
		return true
	case OneOfThemExpr:
		for name := range d.selections {
			if d.evalSelection(name, event, memo) {
				return true
			}
		}
		return false
	case AllOfThemExpr:
		for name := range d.selections {
			if !d.evalSelection(name, event, memo) {
				return false
			}
		}
		return true
	case NotExpr:
		return !d.eval(n.Expr, event, memo)
	case AndExpr:
		return d.eval(n.Left, event, memo) && d.eval(n.Right, event, memo)
	case OrExpr:
		return d.eval(n.Left, event, memo) || d.eval(n.Right, event, memo)
	default:
		return false
	}
}

func (d *Detection) evalSelection(name string, event *Event, memo map[string]bool) bool {
	if result, ok := memo[name]; ok {
		return result
	}
	selection, ok := d.selections[name]
	if !ok {
		// Cannot happen: compile rejects conditions referencing unknown
		// selections.
		return false
	}
	result := selection.Evaluate(event)
	memo[name] = result
	return result
}
