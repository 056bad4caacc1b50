package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
)

// ArgumentValidator compiles each tool's exported input schema once at
// registration time and validates call arguments against it.
type ArgumentValidator struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

// NewArgumentValidator creates an empty validator.
func NewArgumentValidator() *ArgumentValidator {
	return &ArgumentValidator{schemas: make(map[string]*jsonschema.Schema)}
}

// AddTool compiles and stores the schema for a tool definition.
func (v *ArgumentValidator) AddTool(def *tools.Definition) error {
	sch, err := CompileSchema(def)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.schemas[def.Name] = sch
	v.mu.Unlock()
	return nil
}

// Validate checks args against the compiled schema for name. Tools without a
// compiled schema pass.
func (v *ArgumentValidator) Validate(name string, args map[string]any) error {
	v.mu.RLock()
	sch, ok := v.schemas[name]
	v.mu.RUnlock()
	if !ok {
		return nil
	}

	if args == nil {
		args = map[string]any{}
	}
	normalized, err := normalizeJSON(args)
	if err != nil {
		return fmt.Errorf("Validate: %w", err)
	}
	if err := sch.Validate(normalized); err != nil {
		return fmt.Errorf("arguments for %s failed schema validation: %v", name, err)
	}
	return nil
}

// CompileSchema compiles the input schema of a tool definition.
func CompileSchema(def *tools.Definition) (*jsonschema.Schema, error) {
	schema, _ := def.Schema()["inputSchema"].(map[string]any)
	normalized, err := normalizeJSON(schema)
	if err != nil {
		return nil, fmt.Errorf("CompileSchema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", normalized); err != nil {
		return nil, fmt.Errorf("CompileSchema: %w", err)
	}
	sch, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("CompileSchema: %w", err)
	}
	return sch, nil
}

// normalizeJSON round-trips a value through encoding/json so that typed Go
// values (ints, custom types) become the plain representation the schema
// library expects.
func normalizeJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
