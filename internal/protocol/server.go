// Package protocol implements the JSON-RPC 2.0 tool-calling protocol over
// newline-delimited JSON: one JSON object per line in, one per line out.
package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sharkhunterr/mcparr-sub000/internal/audit"
	"github.com/sharkhunterr/mcparr-sub000/internal/chain"
	"github.com/sharkhunterr/mcparr-sub000/internal/registry"
	"go.uber.org/zap"
)

const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

const maxLineBytes = 1024 * 1024

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server dispatches framed JSON-RPC messages to the tool registry and chain
// engine. One message is processed at a time per connection; there is no
// request pipelining.
type Server struct {
	registry *registry.Registry
	auditor  *audit.Auditor
	chains   *chain.Engine // nil disables chain evaluation
	name     string
	version  string
	logger   *zap.Logger

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// NewServer creates a Server with the given dependencies.
func NewServer(reg *registry.Registry, auditor *audit.Auditor, chains *chain.Engine, name, version string, logger *zap.Logger) *Server {
	return &Server{
		registry: reg,
		auditor:  auditor,
		chains:   chains,
		name:     name,
		version:  version,
		logger:   logger,
	}
}

// ServeStream runs the read loop for a single connection: one JSON object
// per input line, one response per output line. Returns nil on clean
// end-of-stream. A malformed line produces exactly one -32700 response and
// the loop continues.
func (s *Server) ServeStream(ctx context.Context, r io.Reader, w io.Writer) error {
	sess := NewSession()
	s.logger.Info("session started", zap.String("session_id", sess.ID))

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, maxLineBytes), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			// The id could not be recovered from the malformed line.
			s.writeResponse(w, jsonRPCResponse{
				JSONRPC: "2.0",
				ID:      nil,
				Error:   &rpcError{Code: codeParseError, Message: "Parse error"},
			})
			continue
		}

		s.writeResponse(w, s.dispatch(ctx, sess, req))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ServeStream: %w", err)
	}
	s.logger.Info("session ended", zap.String("session_id", sess.ID))
	return nil
}

// ListenAndServe accepts TCP connections and serves each on its own
// goroutine.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("protocol server listening", zap.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			s.logger.Error("accept failed", zap.Error(err))
			continue
		}
		go func() {
			defer conn.Close()
			if err := s.ServeStream(context.Background(), conn, conn); err != nil {
				s.logger.Warn("connection closed with error", zap.Error(err))
			}
		}()
	}
}

// Shutdown stops accepting connections.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.ln != nil {
		_ = s.ln.Close()
	}
}

func (s *Server) writeResponse(w io.Writer, resp jsonRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("response marshal failed", zap.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("response write failed", zap.Error(err))
	}
	if f, ok := w.(*bufio.Writer); ok {
		_ = f.Flush()
	}
}

// dispatch routes one request. Initialization ordering is deliberately not
// enforced: every method is dispatchable at any time.
func (s *Server) dispatch(ctx context.Context, sess *Session, req jsonRPCRequest) (resp jsonRPCResponse) {
	resp = jsonRPCResponse{JSONRPC: "2.0", ID: req.ID}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("dispatch panic",
				zap.String("method", req.Method),
				zap.Any("panic", rec),
			)
			resp = jsonRPCResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &rpcError{Code: codeInternalError, Message: fmt.Sprintf("Internal error: %v", rec)},
			}
		}
	}()

	switch req.Method {
	case "initialize":
		resp.Result = s.handleInitialize(sess, req.Params)
	case "tools/list":
		resp.Result = map[string]any{"tools": s.registry.ListSchemas()}
	case "tools/call":
		result, err := s.handleToolCall(ctx, sess, req.Params)
		if err != nil {
			resp.Error = &rpcError{Code: codeInternalError, Message: err.Error()}
			break
		}
		resp.Result = result
	case "ping":
		resp.Result = map[string]any{}
	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "Method not found"}
	}
	return resp
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

func (s *Server) handleInitialize(sess *Session, raw json.RawMessage) map[string]any {
	var params initializeParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err == nil {
			sess.ClientName = params.ClientInfo.Name
			sess.ClientVersion = params.ClientInfo.Version
		}
	}

	s.logger.Info("client initialized",
		zap.String("session_id", sess.ID),
		zap.String("client_name", sess.ClientName),
		zap.String("client_version", sess.ClientVersion),
	)

	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			// The tool set is fixed for the server's lifetime.
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":         s.name,
			"version":      s.version,
			"capabilities": s.registry.Capabilities(),
		},
	}
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// callPayload is the JSON body embedded as text in a tools/call response:
// the original tool result enriched with chain metadata.
type callPayload struct {
	Success bool               `json:"success"`
	Result  any                `json:"result,omitempty"`
	Chains  []chain.StepResult `json:"chains,omitempty"`
}

// handleToolCall is the core path: registry lookup, audit start, execution,
// audit completion, chain evaluation, response framing.
func (s *Server) handleToolCall(ctx context.Context, sess *Session, raw json.RawMessage) (map[string]any, error) {
	var params toolCallParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("invalid tools/call params: %w", err)
		}
	}

	var category string
	var isMutation bool
	if def := s.registry.GetDefinition(params.Name); def != nil {
		category = def.Category
		isMutation = def.IsMutation
	}

	recordID := s.auditor.Start(ctx, sess.ID, params.Name, params.Arguments, category, isMutation)

	start := time.Now()
	res := s.registry.Execute(ctx, params.Name, params.Arguments)
	duration := time.Since(start)

	s.auditor.Complete(ctx, recordID, sess.ID, params.Name, category, res, duration)

	if !res.Success {
		s.logger.Warn("tool call failed",
			zap.String("session_id", sess.ID),
			zap.String("tool_name", params.Name),
			zap.String("error_type", res.ErrorType),
			zap.String("error", res.Error),
		)
		return toolErrorContent(res.Error), nil
	}

	payload := callPayload{Success: true, Result: res.Result}
	if s.chains != nil {
		payload.Chains = s.chains.Evaluate(ctx, sess.ID, params.Name, params.Arguments, res)
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool payload: %w", err)
	}

	s.logger.Info("tool call completed",
		zap.String("session_id", sess.ID),
		zap.String("tool_name", params.Name),
		zap.Duration("duration", duration),
		zap.Int("chain_steps", len(payload.Chains)),
	)

	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
		"isError": false,
	}, nil
}

// toolErrorContent frames a tool-level failure. Tool failure is business
// level, not transport level, so it travels in a successful JSON-RPC
// envelope with isError set.
func toolErrorContent(message string) map[string]any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": "Error: " + message},
		},
		"isError": true,
	}
}
