// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Status declares the maturity of a rule.
type Status string

// The rule statuses of the Sigma rule specification.
const (
	// StatusStable marks a rule considered stable enough for production
	// systems or dashboards.
	StatusStable Status = "stable"
	// StatusTest marks a mostly stable rule that could require slight
	// adjustments depending on the environment.
	StatusTest Status = "test"
	// StatusExperimental marks a rule that could be noisy or produce false
	// positives but may identify interesting events.
	StatusExperimental Status = "experimental"
	// StatusDeprecated marks a rule replaced or covered by another one,
	// linked via the related attribute.
	StatusDeprecated Status = "deprecated"
	// StatusUnsupported marks a rule that cannot be used in its current
	// state.
	StatusUnsupported Status = "unsupported"
)

// Level describes the criticality of a triggered rule. Low and medium
// events are informative; high and critical events warrant immediate
// review.
type Level string

// The rule levels of the Sigma rule specification.
const (
	LevelInformational Level = "informational"
	LevelLow           Level = "low"
	LevelMedium        Level = "medium"
	LevelHigh          Level = "high"
	LevelCritical      Level = "critical"
)

// RelatedType describes the relationship between a rule and a referred
// rule.
type RelatedType string

// The relationship kinds of the related attribute.
const (
	RelatedDerived  RelatedType = "derived"
	RelatedObsolete RelatedType = "obsolete"
	RelatedMerged   RelatedType = "merged"
	RelatedRenamed  RelatedType = "renamed"
	RelatedSimilar  RelatedType = "similar"
)

// Related links a rule to another rule's identifier.
type Related struct {
	ID   string      `yaml:"id" json:"id"`
	Type RelatedType `yaml:"type" json:"type"`
}

// Logsource describes the log data a detection is meant to be applied to.
type Logsource struct {
	// Category selects all log files of a logical group, e.g. "antivirus"
	// or "webserver".
	Category string `yaml:"category" json:"category,omitempty"`
	// Product selects all log outputs of a product, e.g. "windows".
	Product string `yaml:"product" json:"product,omitempty"`
	// Service selects a more specific subset of logs, e.g. "sshd".
	Service string `yaml:"service" json:"service,omitempty"`
	// Definition describes the log source, including verbosity level or
	// required configuration.
	Definition string `yaml:"definition" json:"definition,omitempty"`
}

// Rule is a Sigma rule: metadata plus the detection that is matched
// against events. It follows the Sigma rule specification 2.0.0; see
// https://github.com/SigmaHQ/sigma-specification.
type Rule struct {
	// Title is a brief summary of what the rule detects.
	Title string `yaml:"title" json:"title"`
	// ID is a globally unique identifier, conventionally a version 4 UUID.
	ID string `yaml:"id" json:"id,omitempty"`
	// Name is a unique human-readable name usable instead of the ID.
	Name string `yaml:"name" json:"name,omitempty"`
	// Related references other rules this one derives from, obsoletes,
	// merges, renames or resembles.
	Related  []Related `yaml:"related" json:"related,omitempty"`
	Taxonomy string    `yaml:"taxonomy" json:"taxonomy,omitempty"`
	Status   Status    `yaml:"status" json:"status,omitempty"`
	// Description explains the malicious or suspicious activity the rule
	// can detect.
	Description string `yaml:"description" json:"description,omitempty"`
	// License of the rule in SPDX expression format.
	License string `yaml:"license" json:"license,omitempty"`
	// Author of the rule; multiple creators are comma separated.
	Author string `yaml:"author" json:"author,omitempty"`
	// References to the sources the rule was derived from.
	References []string `yaml:"references" json:"references,omitempty"`
	// Date of rule creation, ISO 8601 with separators.
	Date string `yaml:"date" json:"date,omitempty"`
	// Modified is the date of the last rule change.
	Modified  string    `yaml:"modified" json:"modified,omitempty"`
	Logsource Logsource `yaml:"logsource" json:"logsource"`
	// Detection holds the selections and the condition that together
	// decide whether an event matches.
	Detection Detection `yaml:"detection" json:"detection"`
	// Fields lists log fields interesting for further analysis.
	Fields []string `yaml:"fields" json:"fields,omitempty"`
	// FalsePositives lists known false positives that may occur.
	FalsePositives []string `yaml:"falsepositives" json:"falsepositives,omitempty"`
	Level          Level    `yaml:"level" json:"level,omitempty"`
	// Tags are namespaced, dot-separated, lower-case labels such as
	// attack.t1059.
	Tags []string `yaml:"tags" json:"tags,omitempty"`
	// Scope lists the intended application scopes of the rule.
	Scope []string `yaml:"scope" json:"scope,omitempty"`
	// CustomFields captures any keys outside the specification.
	CustomFields map[string]any `yaml:"-" json:"-"`
}

// ParseRule parses a rule from YAML.
func ParseRule(data []byte) (*Rule, error) {
	var rule Rule
	if err := yaml.Unmarshal(data, &rule); err != nil {
		if _, ok := oops.AsOops(err); ok {
			return nil, err
		}
		return nil, oops.Code(CodeInvalidYAML).Wrapf(err, "parsing rule YAML")
	}
	return &rule, nil
}

// IsMatch checks whether the event matches the rule's detection.
func (r *Rule) IsMatch(event *Event) bool {
	return r.Detection.Evaluate(event)
}

// UnmarshalYAML decodes the rule mapping, validating enumerated fields and
// capturing unknown keys into CustomFields.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	node = resolveNode(node)
	if node.Kind != yaml.MappingNode {
		return oops.Code(CodeInvalidYAML).Errorf("rule must be a mapping")
	}

	detectionSeen := false
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := resolveNode(node.Content[i]).Value
		value := node.Content[i+1]

		var err error
		switch key {
		case "title":
			err = decodeRuleField(value, &r.Title, key)
		case "id":
			err = decodeRuleField(value, &r.ID, key)
		case "name":
			err = decodeRuleField(value, &r.Name, key)
		case "related":
			err = decodeRuleField(value, &r.Related, key)
		case "taxonomy":
			err = decodeRuleField(value, &r.Taxonomy, key)
		case "status":
			err = decodeRuleField(value, &r.Status, key)
		case "description":
			err = decodeRuleField(value, &r.Description, key)
		case "license":
			err = decodeRuleField(value, &r.License, key)
		case "author":
			err = decodeRuleField(value, &r.Author, key)
		case "references":
			err = decodeRuleField(value, &r.References, key)
		case "date":
			err = decodeRuleField(value, &r.Date, key)
		case "modified":
			err = decodeRuleField(value, &r.Modified, key)
		case "logsource":
			err = decodeRuleField(value, &r.Logsource, key)
		case "detection":
			if err = value.Decode(&r.Detection); err != nil {
				return err
			}
			detectionSeen = true
		case "fields":
			err = decodeRuleField(value, &r.Fields, key)
		case "falsepositives":
			err = decodeRuleField(value, &r.FalsePositives, key)
		case "level":
			err = decodeRuleField(value, &r.Level, key)
		case "tags":
			err = decodeRuleField(value, &r.Tags, key)
		case "scope":
			err = decodeRuleField(value, &r.Scope, key)
		default:
			var custom any
			if err = decodeRuleField(value, &custom, key); err == nil {
				if r.CustomFields == nil {
					r.CustomFields = make(map[string]any)
				}
				r.CustomFields[key] = custom
			}
		}
		if err != nil {
			return err
		}
	}

	if !detectionSeen {
		return oops.Code(CodeInvalidYAML).Errorf("rule requires a detection")
	}
	return r.validate()
}

func decodeRuleField[T any](node *yaml.Node, dst *T, key string) error {
	if err := node.Decode(dst); err != nil {
		return oops.Code(CodeInvalidYAML).Wrapf(err, "decoding rule key %q", key)
	}
	return nil
}

func (r *Rule) validate() error {
	switch r.Status {
	case "", StatusStable, StatusTest, StatusExperimental, StatusDeprecated, StatusUnsupported:
	default:
		return oops.Code(CodeInvalidYAML).Errorf("unknown rule status %q", r.Status)
	}
	switch r.Level {
	case "", LevelInformational, LevelLow, LevelMedium, LevelHigh, LevelCritical:
	default:
		return oops.Code(CodeInvalidYAML).Errorf("unknown rule level %q", r.Level)
	}
	for _, related := range r.Related {
		switch related.Type {
		case RelatedDerived, RelatedObsolete, RelatedMerged, RelatedRenamed, RelatedSimilar:
		default:
			return oops.Code(CodeInvalidYAML).Errorf("unknown related type %q", related.Type)
		}
	}
	return nil
}
