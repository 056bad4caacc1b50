// Package audit records the lifecycle of tool invocations. Persistence
// failures here are always swallowed and logged: auditing must never be a
// single point of failure for the tool call itself.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
	"go.uber.org/zap"
)

// Status is the lifecycle state of a tool call record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Record is the audit trail of a single tool invocation. Created once when
// the call begins and updated exactly once on completion. References the
// tool by name, not by definition: definitions can change between calls
// without invalidating history.
type Record struct {
	ID          string
	SessionID   string
	ToolName    string
	Category    string
	IsMutation  bool
	Arguments   string // JSON
	Status      Status
	StartedAt   time.Time
	CompletedAt *time.Time
	DurationMs  int64
	Output      string // JSON, set on completed
	Error       string
	ErrorType   string
}

// Completion holds the fields applied when a record transitions out of
// processing.
type Completion struct {
	Status      Status
	CompletedAt time.Time
	DurationMs  int64
	Output      string
	Error       string
	ErrorType   string
}

// RecordStore persists call records. Complete is an update-by-id; stores
// treat a missing id as a no-op rather than an error.
type RecordStore interface {
	Create(ctx context.Context, rec *Record) error
	Complete(ctx context.Context, id string, comp Completion) error
}

// Auditor writes call records around tool execution. A nil store disables
// persistence; the event sink is always present (log fallback).
type Auditor struct {
	store  RecordStore
	events EventWriter
	logger *zap.Logger
}

// NewAuditor creates an Auditor. store may be nil.
func NewAuditor(store RecordStore, events EventWriter, logger *zap.Logger) *Auditor {
	return &Auditor{store: store, events: events, logger: logger}
}

// Start creates a record in processing state and returns its id. Returns an
// empty id when persistence is unavailable; the tool call proceeds
// regardless.
func (a *Auditor) Start(ctx context.Context, sessionID, toolName string, args map[string]any, category string, isMutation bool) string {
	if a.store == nil {
		return ""
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		argsJSON = []byte("{}")
	}

	rec := &Record{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		ToolName:   toolName,
		Category:   category,
		IsMutation: isMutation,
		Arguments:  string(argsJSON),
		Status:     StatusProcessing,
		StartedAt:  time.Now().UTC(),
	}

	if err := a.store.Create(ctx, rec); err != nil {
		a.logger.Warn("audit record create failed, call proceeds unaudited",
			zap.String("tool_name", toolName),
			zap.Error(err),
		)
		return ""
	}
	return rec.ID
}

// Complete transitions the record to completed or failed and emits an
// observability event. No-op on the record when recordID is empty.
func (a *Auditor) Complete(ctx context.Context, recordID, sessionID, toolName, category string, res *tools.Result, duration time.Duration) {
	durationMs := duration.Milliseconds()

	a.events.Write(&Event{
		RequestID:  recordID,
		SessionID:  sessionID,
		Timestamp:  time.Now().UTC(),
		ToolName:   toolName,
		Category:   category,
		Success:    res.Success,
		ErrorType:  res.ErrorType,
		DurationMs: durationMs,
	})

	if recordID == "" || a.store == nil {
		return
	}

	comp := Completion{
		CompletedAt: time.Now().UTC(),
		DurationMs:  durationMs,
	}
	if res.Success {
		comp.Status = StatusCompleted
		if out, err := json.Marshal(res.Result); err == nil {
			comp.Output = string(out)
		}
	} else {
		comp.Status = StatusFailed
		comp.Error = res.Error
		comp.ErrorType = res.ErrorType
	}

	if err := a.store.Complete(ctx, recordID, comp); err != nil {
		a.logger.Warn("audit record completion failed",
			zap.String("record_id", recordID),
			zap.String("tool_name", toolName),
			zap.Error(err),
		)
	}
}
