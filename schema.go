// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
)

// JSONSchema describes the detection block for schema generation. The block
// is an open mapping: a required condition string plus arbitrarily named
// selections.
func (Detection) JSONSchema() *jsonschema.Schema {
	properties := jsonschema.NewProperties()
	properties.Set("condition", &jsonschema.Schema{
		Type:        "string",
		Description: "Boolean expression combining the named selections.",
	})
	return &jsonschema.Schema{
		Type:        "object",
		Description: "Named selections plus the condition that combines them.",
		Properties:  properties,
		Required:    []string{"condition"},
	}
}

// RuleSchema generates the JSON Schema of the rule file format.
func RuleSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Rule{})
	schema.Title = "Sigma rule"
	schema.Description = "A Sigma detection rule as consumed by sigmatch."

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Wrapf(err, "marshaling rule schema")
	}
	return data, nil
}
