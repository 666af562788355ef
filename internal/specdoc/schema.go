package specdoc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind tags a schema tree node variant.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindArray
)

// Node is one node of a parsed schema tree. Exactly one of the variant
// fields is populated according to Kind.
type Node struct {
	Kind       Kind
	Type       string // effective declared type label, e.g. "string", "Identifier", "string[]"
	Format     string
	Pattern    string
	Properties map[string]*Node
	PropOrder  []string // sorted property names, for deterministic walks
	Required   map[string]bool
	Items      *Node
}

// Tree holds the named schema trees parsed from one API description document.
type Tree struct {
	Schemas map[string]*Node
	Names   []string // sorted schema names
}

// Parse decodes a raw OpenAPI JSON document into named schema trees. It
// collects component schemas plus inline request/response body schemas.
func Parse(raw []byte) (*Tree, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	tree := &Tree{Schemas: make(map[string]*Node)}

	if components, ok := doc["components"].(map[string]any); ok {
		if schemas, ok := components["schemas"].(map[string]any); ok {
			for name, def := range schemas {
				defMap, ok := def.(map[string]any)
				if !ok {
					continue
				}
				tree.Schemas[name] = buildNode(defMap)
			}
		}
	}

	if paths, ok := doc["paths"].(map[string]any); ok {
		collectPathSchemas(paths, tree.Schemas)
	}

	tree.Names = make([]string, 0, len(tree.Schemas))
	for name := range tree.Schemas {
		tree.Names = append(tree.Names, name)
	}
	sort.Strings(tree.Names)

	return tree, nil
}

// collectPathSchemas picks up inline object schemas declared directly on
// request and response bodies. Referenced component schemas are already in
// the schema map and are skipped here.
func collectPathSchemas(paths map[string]any, out map[string]*Node) {
	for path, pathDef := range paths {
		methods, ok := pathDef.(map[string]any)
		if !ok {
			continue
		}
		for method, methodDef := range methods {
			if strings.HasPrefix(method, "x-") {
				continue
			}
			op, ok := methodDef.(map[string]any)
			if !ok {
				continue
			}
			if body, ok := op["requestBody"].(map[string]any); ok {
				collectContentSchemas(body, fmt.Sprintf("paths.%s.%s.requestBody", path, method), out)
			}
			if responses, ok := op["responses"].(map[string]any); ok {
				for status, respDef := range responses {
					resp, ok := respDef.(map[string]any)
					if !ok {
						continue
					}
					collectContentSchemas(resp, fmt.Sprintf("paths.%s.%s.responses.%s", path, method, status), out)
				}
			}
		}
	}
}

func collectContentSchemas(container map[string]any, key string, out map[string]*Node) {
	content, ok := container["content"].(map[string]any)
	if !ok {
		return
	}
	for contentType, contentDef := range content {
		cd, ok := contentDef.(map[string]any)
		if !ok {
			continue
		}
		schema, ok := cd["schema"].(map[string]any)
		if !ok {
			continue
		}
		if _, isRef := schema["$ref"]; isRef {
			continue
		}
		node := buildNode(schema)
		if node.Kind == KindObject && len(node.Properties) > 0 {
			out[key+"."+contentType] = node
		}
	}
}

func buildNode(def map[string]any) *Node {
	if ref, ok := def["$ref"].(string); ok {
		return &Node{Kind: KindScalar, Type: refName(ref)}
	}

	typ, _ := def["type"].(string)

	if props, ok := def["properties"].(map[string]any); ok || typ == "object" {
		node := &Node{
			Kind:       KindObject,
			Type:       "object",
			Properties: make(map[string]*Node, len(props)),
			Required:   make(map[string]bool),
		}
		for name, propDef := range props {
			pd, ok := propDef.(map[string]any)
			if !ok {
				continue
			}
			node.Properties[name] = buildNode(pd)
			node.PropOrder = append(node.PropOrder, name)
		}
		sort.Strings(node.PropOrder)
		if required, ok := def["required"].([]any); ok {
			for _, r := range required {
				if name, ok := r.(string); ok {
					node.Required[name] = true
				}
			}
		}
		return node
	}

	if typ == "array" {
		node := &Node{Kind: KindArray, Type: "unknown[]"}
		if items, ok := def["items"].(map[string]any); ok {
			node.Items = buildNode(items)
			node.Type = node.Items.Type + "[]"
		}
		return node
	}

	if typ == "" {
		typ = "unknown"
	}
	node := &Node{Kind: KindScalar, Type: typ}
	if format, ok := def["format"].(string); ok {
		node.Format = format
	}
	if pattern, ok := def["pattern"].(string); ok {
		node.Pattern = pattern
	}
	return node
}

func refName(ref string) string {
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

// Visitor receives one call per leaf property during a walk. path is the
// full dotted path, name the leaf segment.
type Visitor func(path, name, declaredType string, required bool)

// Walk visits every leaf property of every schema in deterministic order.
func (t *Tree) Walk(visit Visitor) {
	for _, name := range t.Names {
		walkNode(t.Schemas[name], name, visit)
	}
}

func walkNode(node *Node, path string, visit Visitor) {
	if node == nil || node.Kind != KindObject {
		return
	}
	for _, prop := range node.PropOrder {
		child := node.Properties[prop]
		childPath := path + "." + prop
		switch {
		case child.Kind == KindObject:
			walkNode(child, childPath, visit)
		case child.Kind == KindArray && child.Items != nil && child.Items.Kind == KindObject:
			walkNode(child.Items, childPath+"[]", visit)
		default:
			visit(childPath, prop, child.Type, node.Required[prop])
		}
	}
}
