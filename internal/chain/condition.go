package chain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Trigger is the snapshot a step's condition is evaluated against: the
// triggering call's input arguments, its output, and the success flag.
type Trigger struct {
	Input   map[string]any
	Result  any
	Success bool
}

// EvalCondition reports whether the step's trigger condition is met.
// Returns an error only for malformed conditions (bad regex, unknown
// operator); the caller degrades those to "not met".
func EvalCondition(step *Step, trig *Trigger) (bool, error) {
	switch step.Operator {
	case OpSuccess:
		return trig.Success, nil
	case OpFailed:
		return !trig.Success, nil
	}

	field, found := resolveField(trig, step.ConditionField)

	switch step.Operator {
	case OpIsEmpty:
		// Missing path counts as empty.
		return !found || isEmpty(field), nil
	case OpIsNotEmpty:
		return found && !isEmpty(field), nil
	}

	// Remaining operators require the field to resolve.
	if !found {
		return false, nil
	}

	switch step.Operator {
	case OpEquals:
		return looseEquals(field, step.ConditionValue), nil
	case OpNotEquals:
		return !looseEquals(field, step.ConditionValue), nil
	case OpContains:
		return contains(field, step.ConditionValue), nil
	case OpNotContains:
		return !contains(field, step.ConditionValue), nil
	case OpGT, OpLT, OpGTE, OpLTE:
		return compareNumeric(step.Operator, field, step.ConditionValue), nil
	case OpRegex:
		re, err := regexp.Compile(step.ConditionValue)
		if err != nil {
			return false, fmt.Errorf("EvalCondition: invalid pattern %q: %w", step.ConditionValue, err)
		}
		return re.MatchString(coerceString(field)), nil
	}

	return false, fmt.Errorf("EvalCondition: unknown operator %q", step.Operator)
}

// resolveField resolves a condition field path. Paths are looked up inside
// the triggering tool's output first; paths spelled with an explicit
// "result." or "input." prefix resolve against the trigger snapshot, so
// both `items` and `result.items` reach the same field.
func resolveField(trig *Trigger, path string) (any, bool) {
	if v, ok := resolvePath(trig.Result, path); ok {
		return v, true
	}
	switch {
	case path == "result":
		return trig.Result, trig.Result != nil
	case strings.HasPrefix(path, "result."):
		return resolvePath(trig.Result, strings.TrimPrefix(path, "result."))
	case path == "input":
		return trig.Input, trig.Input != nil
	case strings.HasPrefix(path, "input."):
		return resolvePath(trig.Input, strings.TrimPrefix(path, "input."))
	case path == "success":
		return trig.Success, true
	}
	return nil, false
}

// resolvePath walks a dot-separated path through decoded JSON values: map
// keys and numeric slice indexes. An empty path resolves to the root.
func resolvePath(root any, path string) (any, bool) {
	if path == "" {
		return root, root != nil
	}

	current := root
	for _, seg := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			current = v[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// looseEquals compares numerically when both sides parse as numbers,
// otherwise by string representation.
func looseEquals(field any, want string) bool {
	if fNum, ok := coerceFloat(field); ok {
		if wNum, err := strconv.ParseFloat(want, 64); err == nil {
			return fNum == wNum
		}
	}
	return coerceString(field) == want
}

// contains checks substring membership for strings and element membership
// for arrays; other values are coerced to strings first.
func contains(field any, want string) bool {
	switch t := field.(type) {
	case []any:
		for _, el := range t {
			if looseEquals(el, want) {
				return true
			}
		}
		return false
	default:
		return strings.Contains(coerceString(field), want)
	}
}

// compareNumeric evaluates ordering operators. Non-numeric operands
// short-circuit to "condition not met" rather than erroring.
func compareNumeric(op Operator, field any, want string) bool {
	fNum, ok := coerceFloat(field)
	if !ok {
		return false
	}
	wNum, err := strconv.ParseFloat(want, 64)
	if err != nil {
		return false
	}

	switch op {
	case OpGT:
		return fNum > wNum
	case OpLT:
		return fNum < wNum
	case OpGTE:
		return fNum >= wNum
	case OpLTE:
		return fNum <= wNum
	}
	return false
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}
