package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sharkhunterr/mcparr-sub000/internal/capability"
)

func overseerrClient(srv *httptest.Server) *capability.Client {
	return capability.NewClient("overseerr",
		capability.Config{BaseURL: srv.URL, APIKey: "secret"},
		OverseerrOptions())
}

func TestOverseerr_SearchMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "dune" {
			t.Errorf("unexpected query: %v", r.URL.Query())
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("page not forwarded: %v", r.URL.Query())
		}
		w.Write([]byte(`{"results":[{"id":438631},{"id":693134}]}`))
	}))
	defer srv.Close()

	_, handler := Overseerr(overseerrClient(srv))
	res := handler(context.Background(), "overseerr_search_media",
		map[string]any{"query": "dune", "page": 2.0})

	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}
	out := res.Result.(map[string]any)
	if out["count"] != 2 {
		t.Fatalf("expected count 2, got %v", out["count"])
	}
}

func TestOverseerr_SearchMediaEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	_, handler := Overseerr(overseerrClient(srv))
	res := handler(context.Background(), "overseerr_search_media", map[string]any{"query": "zzz"})

	if !res.Success {
		t.Fatalf("empty search is still a success: %+v", res)
	}
	out := res.Result.(map[string]any)
	if out["count"] != 0 {
		t.Fatalf("expected count 0, got %v", out["count"])
	}
}

func TestOverseerr_SearchMediaMissingQuery(t *testing.T) {
	_, handler := Overseerr(overseerrClient(httptest.NewServer(http.NotFoundHandler())))
	res := handler(context.Background(), "overseerr_search_media", map[string]any{})

	if res.Success || res.ErrorType != "invalid_arguments" {
		t.Fatalf("expected invalid_arguments, got %+v", res)
	}
}

func TestOverseerr_CreateRequestBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/request" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("body not json: %v", err)
		}
		if body["mediaType"] != "movie" || body["mediaId"].(float64) != 438631 {
			t.Errorf("unexpected body: %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7,"status":1}`))
	}))
	defer srv.Close()

	_, handler := Overseerr(overseerrClient(srv))
	res := handler(context.Background(), "overseerr_create_request",
		map[string]any{"media_type": "movie", "media_id": 438631.0})

	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}
}

func TestOverseerr_UpstreamFailureIsToolFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, handler := Overseerr(overseerrClient(srv))
	res := handler(context.Background(), "overseerr_get_trending", nil)

	if res.Success {
		t.Fatal("expected failure on 500")
	}
	if res.ErrorType != "upstream_error" {
		t.Fatalf("unexpected error type: %s", res.ErrorType)
	}
}

func TestOverseerr_DefinitionsAreMutationFlagged(t *testing.T) {
	defs, _ := Overseerr(overseerrClient(httptest.NewServer(http.NotFoundHandler())))

	byName := make(map[string]bool, len(defs))
	for _, d := range defs {
		byName[d.Name] = d.IsMutation
	}
	if !byName["overseerr_create_request"] {
		t.Fatal("create_request must be a mutation")
	}
	if byName["overseerr_search_media"] || byName["overseerr_get_trending"] {
		t.Fatal("read tools must not be mutations")
	}
}
