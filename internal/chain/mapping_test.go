package chain

import "testing"

func TestResolveArguments_Sources(t *testing.T) {
	trig := &Trigger{
		Input:  map[string]any{"query": "dune"},
		Result: map[string]any{"count": 2.0, "results": []any{"a", "b"}},
	}

	args := ResolveArguments(map[string]ValueSource{
		"total":   {Source: "result.count"},
		"items":   {Source: "result.results"},
		"query":   {Source: "input.query"},
		"whole":   {Source: "result"},
		"page":    {Value: 1.0},
		"literal": {Value: "trending"},
	}, trig)

	if args["total"] != 2.0 {
		t.Fatalf("expected total=2, got %v", args["total"])
	}
	if items, ok := args["items"].([]any); !ok || len(items) != 2 {
		t.Fatalf("unexpected items: %v", args["items"])
	}
	if args["query"] != "dune" {
		t.Fatalf("expected query=dune, got %v", args["query"])
	}
	if _, ok := args["whole"].(map[string]any); !ok {
		t.Fatalf("expected whole result object, got %v", args["whole"])
	}
	if args["page"] != 1.0 || args["literal"] != "trending" {
		t.Fatalf("unexpected literals: %v, %v", args["page"], args["literal"])
	}
}

func TestResolveArguments_UnresolvedPathOmitsParameter(t *testing.T) {
	trig := &Trigger{Result: map[string]any{"count": 2.0}}

	args := ResolveArguments(map[string]ValueSource{
		"present": {Source: "result.count"},
		"missing": {Source: "result.no.such.path"},
	}, trig)

	if len(args) != 1 {
		t.Fatalf("expected 1 argument, got %d: %v", len(args), args)
	}
	if _, ok := args["missing"]; ok {
		t.Fatal("unresolved path should omit the parameter, not set nil")
	}
}

func TestResolveArguments_EmptySourceMeansLiteral(t *testing.T) {
	args := ResolveArguments(map[string]ValueSource{
		"nothing": {},
	}, &Trigger{})

	if v, ok := args["nothing"]; !ok || v != nil {
		t.Fatalf("empty mapping should yield a nil literal, got %v (present=%v)", v, ok)
	}
}
