// Package chain implements conditional chain execution: declarative rules
// that match a completed tool call and invoke further tools with arguments
// derived from the triggering call's input and output.
package chain

// Operator is a trigger condition operator.
type Operator string

const (
	OpSuccess     Operator = "success"
	OpFailed      Operator = "failed"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpGT          Operator = "gt"
	OpLT          Operator = "lt"
	OpGTE         Operator = "gte"
	OpLTE         Operator = "lte"
	OpRegex       Operator = "regex"
)

// IsValid reports whether op is a recognised condition operator.
func (op Operator) IsValid() bool {
	switch op {
	case OpSuccess, OpFailed, OpIsEmpty, OpIsNotEmpty,
		OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGT, OpLT, OpGTE, OpLTE, OpRegex:
		return true
	}
	return false
}

// ExecutionMode controls how a target runs relative to its sibling targets.
type ExecutionMode string

const (
	ModeSequential ExecutionMode = "sequential"
	ModeParallel   ExecutionMode = "parallel"
)

// ValueSource declares where a target argument's value comes from: a path
// into the triggering call's output ("result", "result.<path>"), a path
// into its input ("input.<path>"), or a static literal. A source takes
// precedence; an empty source means the literal value applies.
type ValueSource struct {
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Value  any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Target declares a tool to invoke when its step's condition matches.
type Target struct {
	TargetTool       string                 `json:"target_tool" yaml:"target_tool"`
	Mode             ExecutionMode          `json:"execution_mode" yaml:"execution_mode"`
	Order            int                    `json:"order" yaml:"order"`
	ArgumentMappings map[string]ValueSource `json:"argument_mappings" yaml:"argument_mappings"`
	AIComment        string                 `json:"ai_comment,omitempty" yaml:"ai_comment,omitempty"`
}

// Step is one trigger rule within a chain. SourceTool referencing a tool
// name unknown to the registry is not an error; such steps simply never
// trigger.
type Step struct {
	ChainName      string   `json:"chain" yaml:"-"`
	ChainPriority  int      `json:"-" yaml:"-"`
	Order          int      `json:"order" yaml:"order"`
	SourceTool     string   `json:"source_tool" yaml:"source_tool"`
	Operator       Operator `json:"condition_operator" yaml:"condition_operator"`
	ConditionField string   `json:"condition_field,omitempty" yaml:"condition_field,omitempty"`
	ConditionValue string   `json:"condition_value,omitempty" yaml:"condition_value,omitempty"`
	Targets        []Target `json:"targets" yaml:"targets"`
	AIComment      string   `json:"ai_comment,omitempty" yaml:"ai_comment,omitempty"`
}

// Chain is a named, operator-authored collection of steps. Lower priority
// runs first when multiple chains apply to the same trigger. Read-only to
// the engine at evaluation time.
type Chain struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    int    `json:"priority" yaml:"priority"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Steps       []Step `json:"steps" yaml:"steps"`
}
