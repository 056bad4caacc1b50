package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
	"go.uber.org/zap"
)

// collectWriter buffers events for assertions.
type collectWriter struct {
	mu     sync.Mutex
	events []*Event
}

func (w *collectWriter) Write(event *Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, event)
}

func (w *collectWriter) Close() {}

func (w *collectWriter) all() []*Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Event(nil), w.events...)
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Create(context.Context, *Record) error              { return errors.New("db down") }
func (failingStore) Complete(context.Context, string, Completion) error { return errors.New("db down") }

func TestAuditor_SuccessfulCallLifecycle(t *testing.T) {
	store := NewMemoryStore()
	events := &collectWriter{}
	a := NewAuditor(store, events, zap.NewNop())
	ctx := context.Background()

	id := a.Start(ctx, "sess-1", "overseerr_search_media", map[string]any{"query": "dune"}, "media_discovery", false)
	if id == "" {
		t.Fatal("expected a record id")
	}

	rec := store.Get(id)
	if rec == nil {
		t.Fatal("record not created")
	}
	if rec.Status != StatusProcessing {
		t.Fatalf("expected processing, got %s", rec.Status)
	}
	if rec.Arguments != `{"query":"dune"}` {
		t.Fatalf("unexpected arguments json: %s", rec.Arguments)
	}

	res := tools.Ok(map[string]any{"count": 2})
	a.Complete(ctx, id, "sess-1", "overseerr_search_media", "media_discovery", res, 120*time.Millisecond)

	rec = store.Get(id)
	if rec.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", rec.Status)
	}
	if rec.CompletedAt == nil || rec.DurationMs != 120 {
		t.Fatalf("unexpected completion fields: %+v", rec)
	}
	if rec.Output != `{"count":2}` {
		t.Fatalf("unexpected output json: %s", rec.Output)
	}

	evs := events.all()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if !evs[0].Success || evs[0].ToolName != "overseerr_search_media" || evs[0].DurationMs != 120 {
		t.Fatalf("unexpected event: %+v", evs[0])
	}
}

func TestAuditor_FailedCallRecordsError(t *testing.T) {
	store := NewMemoryStore()
	a := NewAuditor(store, &collectWriter{}, zap.NewNop())
	ctx := context.Background()

	id := a.Start(ctx, "sess-1", "radarr_add_movie", nil, "media_management", true)
	res := tools.Fail("upstream_error", "status 502")
	a.Complete(ctx, id, "sess-1", "radarr_add_movie", "media_management", res, time.Millisecond)

	rec := store.Get(id)
	if rec.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", rec.Status)
	}
	if rec.Error != "status 502" || rec.ErrorType != "upstream_error" {
		t.Fatalf("unexpected error fields: %+v", rec)
	}
	if !rec.IsMutation {
		t.Fatal("mutation flag not persisted")
	}
}

func TestAuditor_StoreFailureNeverPropagates(t *testing.T) {
	events := &collectWriter{}
	a := NewAuditor(failingStore{}, events, zap.NewNop())
	ctx := context.Background()

	id := a.Start(ctx, "sess-1", "plex_list_libraries", nil, "library", false)
	if id != "" {
		t.Fatal("expected empty id when create fails")
	}

	// Completion with an empty id is a no-op on the store but the event
	// still flows.
	a.Complete(ctx, id, "sess-1", "plex_list_libraries", "library", tools.Ok(nil), time.Millisecond)
	if len(events.all()) != 1 {
		t.Fatal("expected event despite store failure")
	}
}

func TestAuditor_NilStoreDisablesPersistence(t *testing.T) {
	events := &collectWriter{}
	a := NewAuditor(nil, events, zap.NewNop())
	ctx := context.Background()

	id := a.Start(ctx, "sess-1", "plex_list_libraries", nil, "library", false)
	if id != "" {
		t.Fatal("expected empty id with nil store")
	}
	a.Complete(ctx, id, "sess-1", "plex_list_libraries", "library", tools.Ok(nil), time.Millisecond)
	if len(events.all()) != 1 {
		t.Fatal("expected event with nil store")
	}
}

func TestMemoryStore_CompleteMissingIDIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Complete(context.Background(), "missing", Completion{Status: StatusCompleted}); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
