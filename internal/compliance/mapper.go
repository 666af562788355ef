package compliance

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"governance-backend/internal/specdoc"
)

// Recommendation severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Recommendation tells a service owner how to bring one field in line with
// the target schema.
type Recommendation struct {
	FieldPath            string `json:"fieldPath"`
	CurrentType          string `json:"currentType"`
	RequiredTargetType   string `json:"requiredTargetType"`
	CurrentRequired      bool   `json:"currentRequired"`
	TargetRequired       bool   `json:"targetRequired"`
	TargetCompliantValue string `json:"targetCompliantValue"`
	SourceLineNumber     *int   `json:"sourceLineNumber"`
	Severity             string `json:"severity"`
	ActionText           string `json:"actionText"`
}

// documentField is one top-level property found in a harvested document.
type documentField struct {
	name         string
	declaredType string
	required     bool
}

// MapCompliance scores one document against the rule table. Every target
// field either passes silently or yields exactly one recommendation; the
// score is the percentage of silent fields, rounded to one decimal.
func MapCompliance(doc specdoc.Document, schema *TargetSchema) (float64, []Recommendation) {
	fields := topLevelFields(doc)

	var recommendations []Recommendation
	compliant := 0
	for _, rule := range schema.Fields {
		rec := evaluateRule(doc, rule, schema, fields)
		if rec == nil {
			compliant++
			continue
		}
		recommendations = append(recommendations, *rec)
	}

	score := 0.0
	if len(schema.Fields) > 0 {
		score = math.Round(1000.0*float64(compliant)/float64(len(schema.Fields))) / 10.0
	}
	return score, recommendations
}

func evaluateRule(doc specdoc.Document, rule Rule, schema *TargetSchema, fields map[string]documentField) *Recommendation {
	if field, ok := fields[rule.Name]; ok {
		if !typeMatches(field.declaredType, rule, schema) {
			return &Recommendation{
				FieldPath:            rule.FHIRPath,
				CurrentType:          field.declaredType,
				RequiredTargetType:   rule.Type,
				CurrentRequired:      field.required,
				TargetRequired:       rule.Required,
				TargetCompliantValue: rule.Example,
				SourceLineNumber:     sourceLine(doc.RawContent, field.name),
				Severity:             SeverityError,
				ActionText: fmt.Sprintf("Change %q from type %s to %s.",
					field.name, field.declaredType, rule.Type),
			}
		}
		return nil
	}

	if alias, field, ok := matchAlias(rule, fields); ok {
		severity := SeverityWarning
		if rule.Tier == TierIdentity {
			severity = SeverityError
		}
		rec := &Recommendation{
			FieldPath:            rule.FHIRPath,
			CurrentType:          field.declaredType,
			RequiredTargetType:   rule.Type,
			CurrentRequired:      field.required,
			TargetRequired:       rule.Required,
			TargetCompliantValue: rule.Example,
			SourceLineNumber:     sourceLine(doc.RawContent, alias),
			Severity:             severity,
			ActionText: fmt.Sprintf("Rename %q to the standard structure %s.",
				alias, rule.FHIRPath),
		}
		if !typeMatches(field.declaredType, rule, schema) {
			rec.Severity = SeverityError
			rec.ActionText = fmt.Sprintf("Map %q (type %s) onto %s with type %s.",
				alias, field.declaredType, rule.FHIRPath, rule.Type)
		}
		return rec
	}

	severity := SeverityWarning
	if rule.Required {
		severity = SeverityError
	}
	return &Recommendation{
		FieldPath:            rule.FHIRPath,
		CurrentType:          "missing",
		RequiredTargetType:   rule.Type,
		TargetRequired:       rule.Required,
		TargetCompliantValue: rule.Example,
		Severity:             severity,
		ActionText:           fmt.Sprintf("Add field %q of type %s.", rule.Name, rule.Type),
	}
}

// matchAlias finds the first configured alias present in the document.
// Aliases are checked in rule order so results are deterministic.
func matchAlias(rule Rule, fields map[string]documentField) (string, documentField, bool) {
	for _, alias := range rule.Aliases {
		if field, ok := fields[alias]; ok {
			return alias, field, true
		}
	}
	return "", documentField{}, false
}

func typeMatches(declaredType string, rule Rule, schema *TargetSchema) bool {
	for _, accepted := range schema.compatibleTypes(rule.Type) {
		if declaredType == accepted {
			return true
		}
	}
	return false
}

// topLevelFields collects the top-level properties of every named schema in
// the document. When a property name recurs across schemas, the occurrence
// in the alphabetically first schema wins.
func topLevelFields(doc specdoc.Document) map[string]documentField {
	fields := make(map[string]documentField)
	if !doc.ParseValid || doc.Tree == nil {
		return fields
	}
	names := append([]string(nil), doc.Tree.Names...)
	sort.Strings(names)
	for _, schemaName := range names {
		node := doc.Tree.Schemas[schemaName]
		if node == nil || node.Kind != specdoc.KindObject {
			continue
		}
		for _, prop := range node.PropOrder {
			if _, seen := fields[prop]; seen {
				continue
			}
			child := node.Properties[prop]
			fields[prop] = documentField{
				name:         prop,
				declaredType: child.Type,
				required:     node.Required[prop],
			}
		}
	}
	return fields
}

// sourceLine returns the 1-based line of the first occurrence of the field's
// key token in the raw document, or nil when it cannot be determined.
func sourceLine(raw, fieldName string) *int {
	if raw == "" || fieldName == "" {
		return nil
	}
	token := fmt.Sprintf("%q", fieldName)
	for i, line := range strings.Split(raw, "\n") {
		if strings.Contains(line, token) && strings.Contains(line, ":") {
			n := i + 1
			return &n
		}
	}
	return nil
}
