package analysis

import "regexp"

// Naming conventions a service's own field names are matched against. A
// service mixing more than one convention gets a structure issue.
const (
	conventionCamel  = "camelCase"
	conventionSnake  = "snake_case"
	conventionKebab  = "kebab-case"
	conventionPascal = "PascalCase"
)

var (
	camelPattern  = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
	snakePattern  = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	kebabPattern  = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	pascalPattern = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
)

// classifyConvention names the convention a field spelling commits to, or ""
// when the spelling is ambiguous (plain lowercase matches several patterns
// and signals nothing).
func classifyConvention(name string) string {
	hasUnderscore := false
	hasHyphen := false
	hasUpper := false
	for _, r := range name {
		switch {
		case r == '_':
			hasUnderscore = true
		case r == '-':
			hasHyphen = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		}
	}

	switch {
	case hasUnderscore && snakePattern.MatchString(name):
		return conventionSnake
	case hasHyphen && kebabPattern.MatchString(name):
		return conventionKebab
	case pascalPattern.MatchString(name):
		return conventionPascal
	case hasUpper && camelPattern.MatchString(name):
		return conventionCamel
	default:
		return ""
	}
}
