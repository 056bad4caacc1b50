package tools

import "testing"

func TestDefinition_RequiredParams(t *testing.T) {
	def := Definition{
		Name: "radarr_add_movie",
		Parameters: []Parameter{
			{Name: "tmdb_id", Type: TypeNumber, Required: true},
			{Name: "quality_profile_id", Type: TypeNumber},
			{Name: "root_folder_path", Type: TypeString, Required: true},
		},
	}

	req := def.RequiredParams()
	if len(req) != 2 {
		t.Fatalf("expected 2 required params, got %d", len(req))
	}
	if req[0] != "tmdb_id" || req[1] != "root_folder_path" {
		t.Fatalf("unexpected required params: %v", req)
	}
}

func TestDefinition_Schema(t *testing.T) {
	def := Definition{
		Name:        "overseerr_search_media",
		Description: "Search for media.",
		Parameters: []Parameter{
			{Name: "query", Type: TypeString, Description: "Search term", Required: true},
			{Name: "filter", Type: TypeString, Enum: []string{"all", "movie", "tv"}, Default: "all"},
		},
	}

	schema := def.Schema()
	if schema["name"] != "overseerr_search_media" {
		t.Fatalf("unexpected name: %v", schema["name"])
	}

	input, ok := schema["inputSchema"].(map[string]any)
	if !ok {
		t.Fatal("expected inputSchema object")
	}
	if input["type"] != "object" {
		t.Fatalf("expected object input schema, got %v", input["type"])
	}

	props := input["properties"].(map[string]any)
	query := props["query"].(map[string]any)
	if query["type"] != "string" {
		t.Fatalf("expected string type for query, got %v", query["type"])
	}

	filter := props["filter"].(map[string]any)
	if filter["default"] != "all" {
		t.Fatalf("expected default for filter, got %v", filter["default"])
	}
	if enum, ok := filter["enum"].([]string); !ok || len(enum) != 3 {
		t.Fatalf("expected 3 enum values, got %v", filter["enum"])
	}

	required := input["required"].([]string)
	if len(required) != 1 || required[0] != "query" {
		t.Fatalf("unexpected required list: %v", required)
	}
}

func TestDefinition_SchemaNoRequired(t *testing.T) {
	def := Definition{Name: "plex_list_libraries"}
	schema := def.Schema()
	input := schema["inputSchema"].(map[string]any)
	if _, present := input["required"]; present {
		t.Fatal("required should be omitted when no parameter is required")
	}
}

func TestResultHelpers(t *testing.T) {
	ok := Ok(map[string]any{"count": 3})
	if !ok.Success || ok.Error != "" {
		t.Fatalf("unexpected success result: %+v", ok)
	}

	fail := Fail("upstream_error", "status 502")
	if fail.Success {
		t.Fatal("expected failure")
	}
	if fail.ErrorType != "upstream_error" || fail.Error != "status 502" {
		t.Fatalf("unexpected failure result: %+v", fail)
	}
}
