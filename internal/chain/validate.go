package chain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
	"go.uber.org/zap"
)

// SchemaSource resolves tool names to definitions for authoring-time
// validation. Implemented by the registry.
type SchemaSource interface {
	GetDefinition(name string) *tools.Definition
}

// ValidateAgainstRegistry checks a chain set against the registered tool
// catalog at load time: every required parameter of a target must have a
// mapping entry, and literal mapping values must satisfy the target's
// parameter schema. An unknown source_tool is a soft invariant — such steps
// never trigger — so it is only logged; an unknown target_tool is an error
// because the target could never be invoked.
func ValidateAgainstRegistry(chains []Chain, src SchemaSource, logger *zap.Logger) error {
	var errs []error

	for _, c := range chains {
		for si, s := range c.Steps {
			where := fmt.Sprintf("chain %q step %d", c.Name, si)

			if src.GetDefinition(s.SourceTool) == nil {
				logger.Warn("chain step references unknown source tool, it will never trigger",
					zap.String("chain", c.Name),
					zap.String("source_tool", s.SourceTool),
				)
			}

			for _, t := range s.Targets {
				def := src.GetDefinition(t.TargetTool)
				if def == nil {
					errs = append(errs, fmt.Errorf("%s: unknown target tool %q", where, t.TargetTool))
					continue
				}
				errs = append(errs, validateTarget(where, def, t)...)
			}
		}
	}

	return errors.Join(errs...)
}

func validateTarget(where string, def *tools.Definition, t Target) []error {
	var errs []error

	for _, p := range def.RequiredParams() {
		if _, ok := t.ArgumentMappings[p]; !ok {
			errs = append(errs, fmt.Errorf("%s: target %q missing mapping for required parameter %q",
				where, t.TargetTool, p))
		}
	}

	// Literal values can be checked now; path-sourced values only resolve
	// at trigger time.
	literals := make(map[string]any)
	for param, src := range t.ArgumentMappings {
		if src.Source == "" {
			literals[param] = src.Value
		}
	}
	if len(literals) == 0 {
		return errs
	}

	sch, err := compileLooseSchema(def)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: target %q: %w", where, t.TargetTool, err))
		return errs
	}
	normalized, err := normalizeJSON(literals)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: target %q: %w", where, t.TargetTool, err))
		return errs
	}
	if err := sch.Validate(normalized); err != nil {
		errs = append(errs, fmt.Errorf("%s: target %q literal mappings fail schema: %v",
			where, t.TargetTool, err))
	}
	return errs
}

// compileLooseSchema compiles the target tool's input schema without its
// required list, so partial literal mappings validate on their own.
func compileLooseSchema(def *tools.Definition) (*jsonschema.Schema, error) {
	schema, _ := def.Schema()["inputSchema"].(map[string]any)
	loose := make(map[string]any, len(schema))
	for k, v := range schema {
		if k == "required" {
			continue
		}
		loose[k] = v
	}

	normalized, err := normalizeJSON(loose)
	if err != nil {
		return nil, fmt.Errorf("compileLooseSchema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", normalized); err != nil {
		return nil, fmt.Errorf("compileLooseSchema: %w", err)
	}
	sch, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compileLooseSchema: %w", err)
	}
	return sch, nil
}

// normalizeJSON round-trips a value through encoding/json so typed Go values
// become the plain representation the schema library expects.
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
