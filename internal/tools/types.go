// Package tools defines the static description of callable tools: typed
// parameters, definitions, and the normalized result every handler returns.
package tools

import "context"

// ParamType is the semantic type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Parameter describes one typed parameter of a tool. Immutable once built.
type Parameter struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string
	Default     any
}

// Definition describes a callable tool. Definitions are built once at
// startup from static catalog declarations and never mutated at runtime.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
	Category    string

	// IsMutation is true when invoking the tool changes external state.
	IsMutation bool

	// RequiresCapability names the external service the tool depends on
	// (e.g. "radarr"). Empty for capability-independent tools.
	RequiresCapability string
}

// RequiredParams returns the names of parameters flagged required, in
// declaration order.
func (d *Definition) RequiredParams() []string {
	var req []string
	for _, p := range d.Parameters {
		if p.Required {
			req = append(req, p.Name)
		}
	}
	return req
}

// Schema returns the protocol representation of the tool: a JSON-Schema
// shaped input schema with properties and required derived from the
// parameter list.
func (d *Definition) Schema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	for _, p := range d.Parameters {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := d.RequiredParams(); len(req) > 0 {
		schema["required"] = req
	}

	return map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"inputSchema": schema,
	}
}

// Result is the normalized outcome of a handler invocation. Handlers never
// return Go errors across the registry boundary; failures are carried in
// Error/ErrorType so the protocol client can react at the tool level.
type Result struct {
	Success   bool   `json:"success"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
}

// Handler executes a tool call. Arguments are untyped at the protocol
// boundary; each handler validates its own inputs.
type Handler func(ctx context.Context, name string, args map[string]any) *Result

// Ok wraps a payload in a successful Result.
func Ok(payload any) *Result {
	return &Result{Success: true, Result: payload}
}

// Fail builds a failed Result with the given error type and message.
func Fail(errorType, message string) *Result {
	return &Result{Success: false, Error: message, ErrorType: errorType}
}
