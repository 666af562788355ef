package compliance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field tiers. Identity fields get error-severity rename recommendations;
// secondary fields only warn.
const (
	TierIdentity  = "identity"
	TierSecondary = "secondary"
)

// Rule is one target-schema field requirement.
type Rule struct {
	Name     string   `yaml:"name"`
	FHIRPath string   `yaml:"fhirPath"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required"`
	Example  string   `yaml:"example"`
	Pattern  string   `yaml:"pattern"`
	Tier     string   `yaml:"tier"`
	Aliases  []string `yaml:"aliases"`
}

// TargetSchema is the externally loaded rule table every harvested document
// is scored against. Changing the standard means editing the rule file, not
// this package.
type TargetSchema struct {
	Resource          string              `yaml:"resource"`
	Fields            []Rule              `yaml:"fields"`
	TypeCompatibility map[string][]string `yaml:"typeCompatibility"`
}

// LoadTargetSchema reads and validates a rule table from a YAML file.
func LoadTargetSchema(path string) (*TargetSchema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}
	var schema TargetSchema
	if err := yaml.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("decode rule table: %w", err)
	}
	if len(schema.Fields) == 0 {
		return nil, fmt.Errorf("rule table %s declares no fields", path)
	}
	for i, rule := range schema.Fields {
		if rule.Name == "" || rule.Type == "" {
			return nil, fmt.Errorf("rule table %s: field %d missing name or type", path, i)
		}
	}
	return &schema, nil
}

// compatibleTypes returns the declared types accepted for a target type. A
// type with no compatibility entry accepts only itself.
func (s *TargetSchema) compatibleTypes(targetType string) []string {
	if accepted, ok := s.TypeCompatibility[targetType]; ok {
		return accepted
	}
	return []string{targetType}
}
