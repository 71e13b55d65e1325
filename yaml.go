// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"strconv"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// resolveNode follows alias nodes to their anchor.
func resolveNode(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func nodeKindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// valueFromNode converts a YAML scalar node into a Value. Integers that fit
// a signed 64-bit land in Int, larger ones in Unsigned; unrecognized scalar
// tags fall back to their string form.
func valueFromNode(node *yaml.Node) (Value, error) {
	if node.Kind != yaml.ScalarNode {
		return Value{}, oops.Code(CodeInvalidYAML).
			Errorf("provided YAML is not a valid field representation: %s", nodeKindName(node))
	}
	switch node.Tag {
	case "!!null":
		return NullValue(), nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return Value{}, oops.Code(CodeInvalidYAML).Errorf("invalid boolean %q", node.Value)
		}
		return BoolValue(b), nil
	case "!!int":
		if i, err := strconv.ParseInt(node.Value, 0, 64); err == nil {
			return IntValue(i), nil
		}
		if u, err := strconv.ParseUint(node.Value, 0, 64); err == nil {
			return UnsignedValue(u), nil
		}
		return Value{}, oops.Code(CodeInvalidYAML).Errorf("invalid integer %q", node.Value)
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return Value{}, oops.Code(CodeInvalidYAML).Errorf("invalid float %q", node.Value)
		}
		return FloatValue(f), nil
	default:
		return StringValue(node.Value), nil
	}
}
