package specdoc

import (
	"reflect"
	"testing"
)

const sampleSpec = `{
  "openapi": "3.0.1",
  "paths": {
    "/donors": {
      "post": {
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {
                  "donorId": {"type": "string"}
                }
              }
            }
          }
        },
        "responses": {
          "200": {
            "content": {
              "application/json": {
                "schema": {"$ref": "#/components/schemas/Donor"}
              }
            }
          }
        }
      }
    }
  },
  "components": {
    "schemas": {
      "Donor": {
        "type": "object",
        "required": ["firstName"],
        "properties": {
          "firstName": {"type": "string"},
          "zip": {"type": "integer"},
          "address": {
            "type": "object",
            "properties": {
              "city": {"type": "string"}
            }
          },
          "tags": {
            "type": "array",
            "items": {"type": "string"}
          }
        }
      }
    }
  }
}`

func TestParseBuildsSchemaTree(t *testing.T) {
	tree, err := Parse([]byte(sampleSpec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	donor, ok := tree.Schemas["Donor"]
	if !ok {
		t.Fatalf("expected Donor schema, got names %v", tree.Names)
	}
	if donor.Kind != KindObject {
		t.Fatalf("expected object kind, got %v", donor.Kind)
	}
	if !donor.Required["firstName"] {
		t.Fatalf("expected firstName required")
	}
	if got := donor.Properties["zip"].Type; got != "integer" {
		t.Fatalf("expected zip type integer, got %q", got)
	}
	if got := donor.Properties["tags"].Type; got != "string[]" {
		t.Fatalf("expected tags type string[], got %q", got)
	}

	// Inline request body schema is collected; the $ref response is not duplicated.
	if _, ok := tree.Schemas["paths./donors.post.requestBody.application/json"]; !ok {
		t.Fatalf("expected inline request body schema, got names %v", tree.Names)
	}
}

func TestWalkVisitsLeavesDeterministically(t *testing.T) {
	tree, err := Parse([]byte(sampleSpec))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	collect := func() []string {
		var paths []string
		tree.Walk(func(path, name, declaredType string, required bool) {
			paths = append(paths, path+":"+declaredType)
		})
		return paths
	}

	first := collect()
	second := collect()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected deterministic walk, got %v then %v", first, second)
	}

	want := "Donor.address.city:string"
	found := false
	for _, p := range first {
		if p == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected nested leaf %q in %v", want, first)
	}
}

func TestParseRejectsMalformedDocument(t *testing.T) {
	if _, err := Parse([]byte(`{"openapi": `)); err == nil {
		t.Fatalf("expected parse error")
	}
}
