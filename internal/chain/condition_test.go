package chain

import "testing"

func evalStep(t *testing.T, op Operator, field, value string, trig *Trigger) bool {
	t.Helper()
	met, err := EvalCondition(&Step{Operator: op, ConditionField: field, ConditionValue: value}, trig)
	if err != nil {
		t.Fatalf("EvalCondition failed: %v", err)
	}
	return met
}

func TestEvalCondition_Success(t *testing.T) {
	trig := &Trigger{Success: true}
	if !evalStep(t, OpSuccess, "", "", trig) {
		t.Fatal("success operator should match a successful call")
	}
	if evalStep(t, OpFailed, "", "", trig) {
		t.Fatal("failed operator should not match a successful call")
	}
}

func TestEvalCondition_IsEmpty(t *testing.T) {
	empty := &Trigger{Result: map[string]any{"items": []any{}}, Success: true}
	full := &Trigger{Result: map[string]any{"items": []any{"a"}}, Success: true}

	if !evalStep(t, OpIsEmpty, "items", "", empty) {
		t.Fatal("empty array should be is_empty")
	}
	if evalStep(t, OpIsEmpty, "items", "", full) {
		t.Fatal("non-empty array should not be is_empty")
	}
	if !evalStep(t, OpIsNotEmpty, "items", "", full) {
		t.Fatal("non-empty array should be is_not_empty")
	}

	// Missing path counts as empty, never as not-empty.
	if !evalStep(t, OpIsEmpty, "no.such.path", "", full) {
		t.Fatal("missing path should be is_empty")
	}
	if evalStep(t, OpIsNotEmpty, "no.such.path", "", full) {
		t.Fatal("missing path should not be is_not_empty")
	}
}

func TestEvalCondition_EqualsNumericCoercion(t *testing.T) {
	trig := &Trigger{Result: map[string]any{"count": 0.0}, Success: true}

	if !evalStep(t, OpEquals, "count", "0", trig) {
		t.Fatal("0.0 should equal \"0\"")
	}
	if !evalStep(t, OpEquals, "result.count", "0", trig) {
		t.Fatal("result.count spelling should resolve the same field")
	}
	if evalStep(t, OpNotEquals, "count", "0", trig) {
		t.Fatal("not_equals should be the negation of equals")
	}
}

func TestEvalCondition_EqualsStringFallback(t *testing.T) {
	trig := &Trigger{Result: map[string]any{"status": "downloading"}, Success: true}
	if !evalStep(t, OpEquals, "status", "downloading", trig) {
		t.Fatal("string equality should match")
	}
	if evalStep(t, OpEquals, "status", "paused", trig) {
		t.Fatal("different strings should not match")
	}
}

func TestEvalCondition_MissingFieldNeverMatches(t *testing.T) {
	trig := &Trigger{Result: map[string]any{"count": 1.0}, Success: true}
	for _, op := range []Operator{OpEquals, OpContains, OpGT, OpRegex} {
		if evalStep(t, op, "absent", "1", trig) {
			t.Fatalf("operator %s matched a missing field", op)
		}
	}
}

func TestEvalCondition_Contains(t *testing.T) {
	trig := &Trigger{Result: map[string]any{
		"title": "The Matrix Reloaded",
		"tags":  []any{"action", "scifi"},
	}, Success: true}

	if !evalStep(t, OpContains, "title", "Matrix", trig) {
		t.Fatal("substring should match")
	}
	if !evalStep(t, OpContains, "tags", "scifi", trig) {
		t.Fatal("array membership should match")
	}
	if evalStep(t, OpContains, "tags", "sci", trig) {
		t.Fatal("array membership is element equality, not substring")
	}
	if !evalStep(t, OpNotContains, "tags", "horror", trig) {
		t.Fatal("not_contains should match an absent element")
	}
}

func TestEvalCondition_NumericComparisons(t *testing.T) {
	trig := &Trigger{Result: map[string]any{"count": 5.0, "name": "plex"}, Success: true}

	cases := []struct {
		op    Operator
		value string
		want  bool
	}{
		{OpGT, "4", true},
		{OpGT, "5", false},
		{OpGTE, "5", true},
		{OpLT, "6", true},
		{OpLT, "5", false},
		{OpLTE, "5", true},
	}
	for _, c := range cases {
		if got := evalStep(t, c.op, "count", c.value, trig); got != c.want {
			t.Fatalf("%s %s: expected %v, got %v", c.op, c.value, c.want, got)
		}
	}

	// Non-numeric operand degrades to not-met, not an error.
	if evalStep(t, OpGT, "name", "3", trig) {
		t.Fatal("non-numeric field should never satisfy gt")
	}
}

func TestEvalCondition_Regex(t *testing.T) {
	trig := &Trigger{Result: map[string]any{"status": "queued-high"}, Success: true}
	if !evalStep(t, OpRegex, "status", "^queued-", trig) {
		t.Fatal("regex should match")
	}

	_, err := EvalCondition(&Step{Operator: OpRegex, ConditionField: "status", ConditionValue: "("}, trig)
	if err == nil {
		t.Fatal("invalid pattern should error")
	}
}

func TestEvalCondition_InputAndSuccessPaths(t *testing.T) {
	trig := &Trigger{
		Input:   map[string]any{"query": "dune"},
		Result:  map[string]any{"count": 2.0},
		Success: true,
	}
	if !evalStep(t, OpEquals, "input.query", "dune", trig) {
		t.Fatal("input.query should resolve against the call arguments")
	}
	if !evalStep(t, OpEquals, "success", "true", trig) {
		t.Fatal("success path should resolve the success flag")
	}
}

func TestResolvePath_ArrayIndex(t *testing.T) {
	root := map[string]any{
		"results": []any{
			map[string]any{"id": 603.0},
			map[string]any{"id": 604.0},
		},
	}
	v, ok := resolvePath(root, "results.1.id")
	if !ok {
		t.Fatal("expected path to resolve")
	}
	if v != 604.0 {
		t.Fatalf("expected 604, got %v", v)
	}

	if _, ok := resolvePath(root, "results.7.id"); ok {
		t.Fatal("out of range index should not resolve")
	}
}
