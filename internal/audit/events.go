package audit

import (
	"time"

	"go.uber.org/zap"
)

// EventWriter is the sink for per-call observability events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *Event)
	Close()
}

// Event is a single completed tool invocation, top-level or chain-triggered.
// Append-only; distinct from the mutable call record.
type Event struct {
	RequestID   string
	SessionID   string
	Timestamp   time.Time
	ToolName    string
	Category    string
	Success     bool
	ErrorType   string
	DurationMs  int64
	ChainDepth  int32
	TriggeredBy string // source tool name when chain-invoked, else empty
}

// LogWriter is a fallback EventWriter for deployments without ClickHouse.
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter creates a LogWriter that outputs events to the given logger.
func NewLogWriter(logger *zap.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (w *LogWriter) Write(event *Event) {
	w.logger.Info("tool_call_event",
		zap.String("request_id", event.RequestID),
		zap.String("session_id", event.SessionID),
		zap.String("tool_name", event.ToolName),
		zap.String("category", event.Category),
		zap.Bool("success", event.Success),
		zap.String("error_type", event.ErrorType),
		zap.Int64("duration_ms", event.DurationMs),
		zap.Int32("chain_depth", event.ChainDepth),
		zap.String("triggered_by", event.TriggeredBy),
	)
}

func (w *LogWriter) Close() {}
