package chain

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sharkhunterr/mcparr-sub000/internal/audit"
	"github.com/sharkhunterr/mcparr-sub000/internal/tools"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Executor runs a tool by name. Implemented by the registry; narrowed to an
// interface so engine tests can stub execution.
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]any) *tools.Result
}

const (
	defaultBudget   = 60 * time.Second
	defaultMaxDepth = 8
)

// Config bounds chain evaluation per top-level call.
type Config struct {
	Budget   time.Duration // total wall-clock budget, 0 = default
	MaxDepth int           // recursion depth limit, 0 = default
}

// Engine evaluates chain rules after a successful tool call and invokes
// matched targets. Failed calls never trigger chains.
type Engine struct {
	rules    RuleStore
	exec     Executor
	events   audit.EventWriter // nil disables event emission for targets
	budget   time.Duration
	maxDepth int
	logger   *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(rules RuleStore, exec Executor, events audit.EventWriter, cfg Config, logger *zap.Logger) *Engine {
	budget := cfg.Budget
	if budget == 0 {
		budget = defaultBudget
	}
	maxDepth := cfg.MaxDepth
	if maxDepth == 0 {
		maxDepth = defaultMaxDepth
	}
	return &Engine{
		rules:    rules,
		exec:     exec,
		events:   events,
		budget:   budget,
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// TargetResult records one target invocation within a matched step.
type TargetResult struct {
	Tool      string         `json:"tool"`
	AIComment string         `json:"ai_comment,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Skipped   string         `json:"skipped,omitempty"`
	Result    *tools.Result  `json:"result,omitempty"`
	Chained   []StepResult   `json:"chained,omitempty"`
}

// StepResult is the chain metadata accumulated for one matched step. It is
// attached alongside the original tool result, never replacing it.
type StepResult struct {
	Chain     string         `json:"chain"`
	StepOrder int            `json:"step_order"`
	AIComment string         `json:"ai_comment,omitempty"`
	Targets   []TargetResult `json:"targets"`
}

// runState tracks the set of tools already triggered within one top-level
// call. Shared across parallel targets and recursive evaluation, so access
// goes through tryVisit.
type runState struct {
	sessionID string
	mu        sync.Mutex
	visited   map[string]bool
}

// tryVisit marks name as triggered. Returns false if it already was: the
// data model permits cycles, so re-triggering is refused here.
func (st *runState) tryVisit(name string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.visited[name] {
		return false
	}
	st.visited[name] = true
	return true
}

// Evaluate matches the completed call against all enabled chain rules and
// invokes the targets of every step whose condition is met. Invoked only on
// success. Errors never propagate to the caller; a failing step degrades to
// "not triggered" and is logged.
func (e *Engine) Evaluate(ctx context.Context, sessionID, toolName string, input map[string]any, result *tools.Result) []StepResult {
	ctx, cancel := context.WithTimeout(ctx, e.budget)
	defer cancel()

	st := &runState{
		sessionID: sessionID,
		visited:   map[string]bool{toolName: true},
	}
	return e.evaluate(ctx, st, toolName, input, result, 0)
}

func (e *Engine) evaluate(ctx context.Context, st *runState, toolName string, input map[string]any, result *tools.Result, depth int) []StepResult {
	if depth >= e.maxDepth {
		e.logger.Warn("chain depth limit reached",
			zap.String("tool_name", toolName),
			zap.Int("depth", depth),
		)
		return nil
	}

	steps, err := e.rules.ListBySource(ctx, toolName)
	if err != nil {
		e.logger.Warn("chain rule lookup failed",
			zap.String("source_tool", toolName),
			zap.Error(err),
		)
		return nil
	}
	if len(steps) == 0 {
		return nil
	}

	trig := &Trigger{
		Input:   input,
		Result:  result.Result,
		Success: result.Success,
	}

	var out []StepResult
	for i := range steps {
		step := &steps[i]
		met, err := EvalCondition(step, trig)
		if err != nil {
			e.logger.Warn("chain condition evaluation failed, step not triggered",
				zap.String("chain", step.ChainName),
				zap.String("source_tool", step.SourceTool),
				zap.Error(err),
			)
			continue
		}
		if !met {
			continue
		}
		out = append(out, e.runStep(ctx, st, step, trig, depth))
	}
	return out
}

// runStep invokes a matched step's targets: sequential targets strictly in
// order, then parallel targets concurrently, joined before the step is
// considered complete.
func (e *Engine) runStep(ctx context.Context, st *runState, step *Step, trig *Trigger, depth int) StepResult {
	sr := StepResult{
		Chain:     step.ChainName,
		StepOrder: step.Order,
		AIComment: step.AIComment,
	}

	var sequential, parallel []Target
	for _, t := range step.Targets {
		if t.Mode == ModeParallel {
			parallel = append(parallel, t)
		} else {
			sequential = append(sequential, t)
		}
	}
	sort.SliceStable(sequential, func(i, j int) bool {
		return sequential[i].Order < sequential[j].Order
	})

	results := make([]TargetResult, 0, len(step.Targets))
	for _, t := range sequential {
		results = append(results, e.runTarget(ctx, st, step, t, trig, depth))
	}

	if len(parallel) > 0 {
		parResults := make([]TargetResult, len(parallel))
		var g errgroup.Group
		for i, t := range parallel {
			i, t := i, t
			g.Go(func() error {
				parResults[i] = e.runTarget(ctx, st, step, t, trig, depth)
				return nil
			})
		}
		g.Wait() //nolint:errcheck // target failures are carried in results
		results = append(results, parResults...)
	}

	sr.Targets = results
	return sr
}

// runTarget resolves the target's arguments, executes it through the same
// registry path as a direct call, and recursively evaluates its own chains
// on success. A failing target never aborts its siblings.
func (e *Engine) runTarget(ctx context.Context, st *runState, step *Step, t Target, trig *Trigger, depth int) TargetResult {
	tr := TargetResult{Tool: t.TargetTool, AIComment: t.AIComment}

	if !st.tryVisit(t.TargetTool) {
		e.logger.Warn("chain cycle guard fired",
			zap.String("chain", step.ChainName),
			zap.String("target_tool", t.TargetTool),
		)
		tr.Skipped = "cycle guard: tool already triggered for this request"
		return tr
	}
	if ctx.Err() != nil {
		tr.Skipped = "chain evaluation budget exhausted"
		return tr
	}

	args := ResolveArguments(t.ArgumentMappings, trig)
	tr.Arguments = args

	start := time.Now()
	res := e.exec.Execute(ctx, t.TargetTool, args)
	tr.Result = res

	if e.events != nil {
		e.events.Write(&audit.Event{
			RequestID:   uuid.New().String(),
			SessionID:   st.sessionID,
			Timestamp:   time.Now().UTC(),
			ToolName:    t.TargetTool,
			Success:     res.Success,
			ErrorType:   res.ErrorType,
			DurationMs:  time.Since(start).Milliseconds(),
			ChainDepth:  int32(depth + 1),
			TriggeredBy: step.SourceTool,
		})
	}

	if res.Success {
		tr.Chained = e.evaluate(ctx, st, t.TargetTool, args, res, depth+1)
	}
	return tr
}
