package analysis

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/camelcase"
	"gopkg.in/yaml.v3"
)

var separatorPattern = regexp.MustCompile(`[-_\s]+`)

// Tables holds the synonym lookup used to cluster field names across
// services. It is loaded once at cycle start and never mutated afterwards,
// so it is safe to share across goroutines.
type Tables struct {
	canonical map[string]string // normalized variant -> canonical concept name
}

type synonymsFile struct {
	Synonyms map[string][]string `yaml:"synonyms"`
}

// LoadTables reads the synonym configuration from a YAML file. The file maps
// each canonical concept name to the field-name variants that mean the same
// thing.
func LoadTables(path string) (*Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	var file synonymsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode synonyms: %w", err)
	}
	if len(file.Synonyms) == 0 {
		return nil, fmt.Errorf("synonyms table %s is empty", path)
	}
	return NewTables(file.Synonyms), nil
}

// NewTables builds a lookup from canonical name to variants. Variants are
// stored in normalized form so lookups are spelling-insensitive.
func NewTables(synonyms map[string][]string) *Tables {
	t := &Tables{canonical: make(map[string]string)}
	for canonical, variants := range synonyms {
		key := normalizeSpelling(canonical)
		t.canonical[key] = key
		for _, v := range variants {
			t.canonical[normalizeSpelling(v)] = key
		}
	}
	return t
}

// Normalize maps a raw field name to its canonical concept name. Names with
// no synonym entry normalize to their separator-collapsed lowercase form, so
// firstName and first_name still land in the same cluster.
func (t *Tables) Normalize(name string) string {
	key := normalizeSpelling(name)
	if canonical, ok := t.canonical[key]; ok {
		return canonical
	}
	return key
}

// normalizeSpelling collapses naming-convention differences: camelCase and
// PascalCase words are split, separators become single underscores, and the
// result is lowercased.
func normalizeSpelling(name string) string {
	words := camelcase.Split(name)
	joined := strings.Join(words, "_")
	joined = separatorPattern.ReplaceAllString(joined, "_")
	return strings.Trim(strings.ToLower(joined), "_")
}
