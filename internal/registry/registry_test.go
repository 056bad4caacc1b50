package registry

import (
	"context"
	"testing"

	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
	"go.uber.org/zap"
)

func okHandler(payload any) tools.Handler {
	return func(_ context.Context, _ string, _ map[string]any) *tools.Result {
		return tools.Ok(payload)
	}
}

func TestRegistry_RegisterAndExecute(t *testing.T) {
	r := New(zap.NewNop())
	defs := []tools.Definition{
		{Name: "plex_list_libraries", Category: "library"},
	}
	if err := r.Register(defs, okHandler("libraries"), "plex"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res := r.Execute(context.Background(), "plex_list_libraries", nil)
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Result != "libraries" {
		t.Fatalf("unexpected payload: %v", res.Result)
	}
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	r := New(zap.NewNop())
	defs := []tools.Definition{{Name: "radarr_get_queue"}}
	if err := r.Register(defs, okHandler(nil), "radarr"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := r.Register(defs, okHandler(nil), "sonarr"); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegistry_UnknownToolIsToolFailure(t *testing.T) {
	r := New(zap.NewNop())
	res := r.Execute(context.Background(), "no_such_tool", nil)
	if res.Success {
		t.Fatal("expected failure for unknown tool")
	}
	if res.ErrorType != "unknown_tool" {
		t.Fatalf("unexpected error type: %s", res.ErrorType)
	}
}

func TestRegistry_ListSchemasPreservesOrder(t *testing.T) {
	r := New(zap.NewNop())
	first := []tools.Definition{{Name: "overseerr_search_media"}, {Name: "overseerr_get_trending"}}
	second := []tools.Definition{{Name: "radarr_lookup_movie"}}
	if err := r.Register(first, okHandler(nil), "overseerr"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register(second, okHandler(nil), "radarr"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	schemas := r.ListSchemas()
	if len(schemas) != 3 {
		t.Fatalf("expected 3 schemas, got %d", len(schemas))
	}
	want := []string{"overseerr_search_media", "overseerr_get_trending", "radarr_lookup_movie"}
	for i, name := range want {
		if schemas[i]["name"] != name {
			t.Fatalf("schema %d: expected %s, got %v", i, name, schemas[i]["name"])
		}
	}

	caps := r.Capabilities()
	if len(caps) != 2 || caps[0] != "overseerr" || caps[1] != "radarr" {
		t.Fatalf("unexpected capabilities: %v", caps)
	}
}

func TestRegistry_HandlerPanicRecovered(t *testing.T) {
	r := New(zap.NewNop())
	defs := []tools.Definition{{Name: "exploding_tool"}}
	panicking := func(_ context.Context, _ string, _ map[string]any) *tools.Result {
		panic("boom")
	}
	if err := r.Register(defs, panicking, "test"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res := r.Execute(context.Background(), "exploding_tool", nil)
	if res.Success {
		t.Fatal("expected failure after panic")
	}
	if res.ErrorType != "internal_error" {
		t.Fatalf("unexpected error type: %s", res.ErrorType)
	}
}

func TestRegistry_NilHandlerResult(t *testing.T) {
	r := New(zap.NewNop())
	defs := []tools.Definition{{Name: "silent_tool"}}
	silent := func(_ context.Context, _ string, _ map[string]any) *tools.Result {
		return nil
	}
	if err := r.Register(defs, silent, "test"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res := r.Execute(context.Background(), "silent_tool", nil)
	if res.Success || res.ErrorType != "internal_error" {
		t.Fatalf("expected internal_error, got %+v", res)
	}
}

func TestRegistry_StrictArgsRejectsBadTypes(t *testing.T) {
	r := New(zap.NewNop())
	r.EnableStrictArgs()
	defs := []tools.Definition{
		{
			Name: "radarr_add_movie",
			Parameters: []tools.Parameter{
				{Name: "tmdb_id", Type: tools.TypeNumber, Required: true},
			},
		},
	}
	if err := r.Register(defs, okHandler(nil), "radarr"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res := r.Execute(context.Background(), "radarr_add_movie", map[string]any{"tmdb_id": "not a number"})
	if res.Success {
		t.Fatal("expected validation failure")
	}
	if res.ErrorType != "invalid_arguments" {
		t.Fatalf("unexpected error type: %s", res.ErrorType)
	}

	res = r.Execute(context.Background(), "radarr_add_movie", map[string]any{})
	if res.Success || res.ErrorType != "invalid_arguments" {
		t.Fatalf("expected missing required param to fail validation, got %+v", res)
	}

	res = r.Execute(context.Background(), "radarr_add_movie", map[string]any{"tmdb_id": 550.0})
	if !res.Success {
		t.Fatalf("expected valid arguments to pass: %+v", res)
	}
}
