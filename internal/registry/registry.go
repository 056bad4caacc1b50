// Package registry holds the tool catalog: every registered definition bound
// to its handler and capability, resolved by name at call time.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
	"go.uber.org/zap"
)

// Registration binds a tool definition to an executable handler plus the
// capability it was registered under. Registrations are created during
// server initialization and live for the process lifetime.
type Registration struct {
	Definition *tools.Definition
	Handler    tools.Handler
	Capability string
}

// Registry resolves tool names to registrations. Read-mostly after startup;
// the lock exists so tests can register concurrently with lookups.
type Registry struct {
	mu           sync.RWMutex
	byName       map[string]*Registration
	order        []string
	capabilities []string
	validator    *ArgumentValidator // nil unless strict argument checking is on
	logger       *zap.Logger
}

// New creates an empty Registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		byName: make(map[string]*Registration),
		logger: logger,
	}
}

// EnableStrictArgs turns on schema validation of call arguments for every
// tool registered afterwards. Must be called before Register.
func (r *Registry) EnableStrictArgs() {
	r.validator = NewArgumentValidator()
}

// Register associates every definition in defs with the given handler under
// the named capability. A duplicate tool name is a hard error: silently
// letting the last writer win would mask catalog collisions between
// capabilities.
func (r *Registry) Register(defs []tools.Definition, handler tools.Handler, capability string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range defs {
		def := &defs[i]
		if _, exists := r.byName[def.Name]; exists {
			return fmt.Errorf("Register: duplicate tool name %q", def.Name)
		}
		if r.validator != nil {
			if err := r.validator.AddTool(def); err != nil {
				return fmt.Errorf("Register: compile schema for %q: %w", def.Name, err)
			}
		}
		r.byName[def.Name] = &Registration{
			Definition: def,
			Handler:    handler,
			Capability: capability,
		}
		r.order = append(r.order, def.Name)
	}

	if capability != "" {
		r.capabilities = append(r.capabilities, capability)
	}
	r.logger.Info("registered tool catalog",
		zap.String("capability", capability),
		zap.Int("tools", len(defs)),
	)
	return nil
}

// ListSchemas returns one protocol schema per registered tool, in
// registration order.
func (r *Registry) ListSchemas() []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]map[string]any, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, r.byName[name].Definition.Schema())
	}
	return schemas
}

// GetDefinition returns the definition for a tool name, or nil if unknown.
func (r *Registry) GetDefinition(name string) *tools.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byName[name]
	if !ok {
		return nil
	}
	return reg.Definition
}

// Capabilities returns the capability names registered so far, in order.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.capabilities...)
}

// Execute looks up the handler for name and invokes it. An unknown tool is a
// tool-level failure, not a protocol error, so the client can react to it.
// Handler panics are normalized into failed results rather than allowed to
// tear down the read loop.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result *tools.Result) {
	r.mu.RLock()
	reg, ok := r.byName[name]
	r.mu.RUnlock()

	if !ok {
		return tools.Fail("unknown_tool", fmt.Sprintf("unknown tool: %s", name))
	}

	if r.validator != nil {
		if err := r.validator.Validate(name, args); err != nil {
			return tools.Fail("invalid_arguments", err.Error())
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panic",
				zap.String("tool_name", name),
				zap.Any("panic", rec),
			)
			result = tools.Fail("internal_error", fmt.Sprintf("handler panic: %v", rec))
		}
	}()

	res := reg.Handler(ctx, name, args)
	if res == nil {
		return tools.Fail("internal_error", "handler returned no result")
	}
	return res
}
