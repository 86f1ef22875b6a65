package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Function describes a structured-output contract: a named operation whose
// response must conform to the parameter schema.
type Function struct {
	Name        string
	Description string
	Parameters  Object
}

// Object is a JSON-schema object node with ordered properties.
type Object struct {
	Properties []Property
	Required   []string
}

// Property is one schema field. Exactly one of Items or Object is set for
// array and object types respectively.
type Property struct {
	Name        string
	Type        string
	Description string
	Enum        []string
	Items       *Property
	Object      *Object
}

// WithProperty returns a copy of the function with an extra top-level
// property appended, optionally marked required. Used for conditional blocks
// such as roll requests that only some prompts ask for.
func (f Function) WithProperty(p Property, required bool) Function {
	params := f.Parameters
	params.Properties = append(append([]Property{}, params.Properties...), p)
	if required {
		params.Required = append(append([]string{}, params.Required...), p.Name)
	}
	f.Parameters = params
	return f
}

// SchemaJSON renders the parameter schema as a JSON Schema document.
func (f Function) SchemaJSON() ([]byte, error) {
	rendered := renderObject(f.Parameters)
	data, err := json.Marshal(rendered)
	if err != nil {
		return nil, fmt.Errorf("render schema for %s: %w", f.Name, err)
	}
	return data, nil
}

func renderObject(o Object) map[string]any {
	properties := make(map[string]any, len(o.Properties))
	for _, p := range o.Properties {
		properties[p.Name] = renderProperty(p)
	}
	node := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(o.Required) > 0 {
		node["required"] = o.Required
	}
	return node
}

func renderProperty(p Property) map[string]any {
	node := map[string]any{"type": p.Type}
	if p.Description != "" {
		node["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		enum := make([]any, len(p.Enum))
		for i, v := range p.Enum {
			enum[i] = v
		}
		node["enum"] = enum
	}
	if p.Type == "array" && p.Items != nil {
		node["items"] = renderProperty(*p.Items)
	}
	if p.Type == "object" && p.Object != nil {
		rendered := renderObject(*p.Object)
		for key, value := range rendered {
			node[key] = value
		}
	}
	return node
}

// Validate checks a response payload against the function's schema.
func (f Function) Validate(payload json.RawMessage) error {
	schemaJSON, err := f.SchemaJSON()
	if err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	resource := fmt.Sprintf("inline://%s.json", f.Name)
	if err := compiler.AddResource(resource, bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("add schema resource for %s: %w", f.Name, err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", f.Name, err)
	}

	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return fmt.Errorf("%w: %s: not valid JSON: %v", ErrInvalidResponse, f.Name, err)
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, f.Name, err)
	}
	return nil
}

// StripCodeFence removes a surrounding markdown code fence from a model
// response, tolerating a language tag on the opening fence.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		head := strings.TrimSpace(trimmed[:idx])
		if head == "" || !strings.ContainsAny(head, " \t{[") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
