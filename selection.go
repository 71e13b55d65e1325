// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"strings"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// FieldGroup is a conjunction of fields: the YAML dictionary form of a
// selection, every entry of which must match.
type FieldGroup struct {
	Fields []*Field
}

func (g *FieldGroup) evaluate(event *Event) bool {
	for _, field := range g.Fields {
		if !field.Evaluate(event) {
			return false
		}
	}
	return true
}

func fieldGroupFromNode(node *yaml.Node) (*FieldGroup, error) {
	group := &FieldGroup{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := resolveNode(node.Content[i])
		if key.Kind != yaml.ScalarNode || key.Tag != "!!str" {
			return nil, oops.Code(CodeInvalidFieldName).
				Errorf("field names must be strings, got %q", key.Value)
		}
		field, err := fieldFromNode(key.Value, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		group.Fields = append(group.Fields, field)
	}
	return group, nil
}

// Selection is a named sub-predicate of a detection: either a keyword list
// searched across every value of the event, or an OR of field groups.
type Selection struct {
	keywords []string
	groups   []*FieldGroup
	keyword  bool
}

// IsKeyword reports whether this is a keyword selection.
func (s *Selection) IsKeyword() bool { return s.keyword }

// Keywords returns the keyword list of a keyword selection.
func (s *Selection) Keywords() []string { return s.keywords }

// Groups returns the field groups of a field selection.
func (s *Selection) Groups() []*FieldGroup { return s.groups }

// selectionFromNode builds a selection from its YAML value: a mapping is a
// single field group; a sequence is a keyword list when its first element
// is a scalar, otherwise a list of field groups.
func selectionFromNode(node *yaml.Node) (*Selection, error) {
	node = resolveNode(node)
	switch node.Kind {
	case yaml.MappingNode:
		group, err := fieldGroupFromNode(node)
		if err != nil {
			return nil, err
		}
		return &Selection{groups: []*FieldGroup{group}}, nil
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return nil, oops.Code(CodeSelectionContainsNoFields).
				Errorf("selection without fields detected")
		}
		if resolveNode(node.Content[0]).Kind == yaml.ScalarNode {
			return keywordSelectionFromNode(node)
		}
		groups := make([]*FieldGroup, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolveNode(item)
			if item.Kind != yaml.MappingNode {
				return nil, oops.Code(CodeMixedKeywordAndFieldlist).
					Errorf("mixing keyword selections and field lists is not supported")
			}
			group, err := fieldGroupFromNode(item)
			if err != nil {
				return nil, err
			}
			groups = append(groups, group)
		}
		return &Selection{groups: groups}, nil
	default:
		return nil, oops.Code(CodeInvalidSelectionType).
			Errorf("selection has invalid type; it must be a list or dictionary")
	}
}

func keywordSelectionFromNode(node *yaml.Node) (*Selection, error) {
	keywords := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		item = resolveNode(item)
		if item.Kind != yaml.ScalarNode {
			return nil, oops.Code(CodeInvalidKeywordSelection).
				Errorf("keywords must be string, number or boolean, got a %s", nodeKindName(item))
		}
		v, err := valueFromNode(item)
		if err != nil {
			return nil, err
		}
		switch v.Kind() {
		case KindString, KindInt, KindUnsigned, KindFloat, KindBoolean:
			keywords = append(keywords, v.String())
		default:
			return nil, oops.Code(CodeInvalidKeywordSelection).
				Errorf("keywords must be string, number or boolean, got %s", v.Kind())
		}
	}
	return &Selection{keywords: keywords, keyword: true}, nil
}

// Evaluate checks the selection against an event. Keyword selections match
// when any scalar value anywhere in the event contains any keyword as a
// byte-wise, case-sensitive substring; field selections match when any
// group's conjunction holds.
func (s *Selection) Evaluate(event *Event) bool {
	if s.keyword {
		return event.scanScalars(func(v Value) bool {
			text := v.String()
			for _, kw := range s.keywords {
				if strings.Contains(text, kw) {
					return true
				}
			}
			return false
		})
	}
	for _, group := range s.groups {
		if group.evaluate(event) {
			return true
		}
	}
	return false
}
