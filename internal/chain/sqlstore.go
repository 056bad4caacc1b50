package chain

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Dialect selects the SQL flavor for the rule store.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const (
	stepsQuery = `
		SELECT s.id, c.name, c.priority, s.step_order, s.source_tool,
		       s.condition_operator, s.condition_field, s.condition_value, s.ai_comment
		FROM tool_chain_steps s
		JOIN tool_chains c ON s.chain_id = c.id
		WHERE c.enabled AND s.source_tool = $1
		ORDER BY c.priority, s.step_order`

	targetsQuery = `
		SELECT target_tool, execution_mode, target_order, argument_mappings, ai_comment
		FROM tool_chain_step_targets
		WHERE step_id = $1
		ORDER BY target_order`
)

// SQLRuleStore loads chain rules from Postgres or SQLite, fronted by a TTL
// cache with stale-while-revalidate so rule edits show up without a restart
// and the hot path stays off the database.
type SQLRuleStore struct {
	db       *sql.DB
	qSteps   string
	qTargets string
	cache    *stepCache
	logger   *zap.Logger
}

// SQLRuleStoreConfig configures the SQLRuleStore.
type SQLRuleStoreConfig struct {
	DB       *sql.DB
	Dialect  Dialect
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// NewSQLRuleStore creates the store. For SQLite it also runs the idempotent
// schema migration; the Postgres schema is provisioned out of band.
func NewSQLRuleStore(cfg SQLRuleStoreConfig) (*SQLRuleStore, error) {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 60 * time.Second
	}

	s := &SQLRuleStore{
		db:       cfg.DB,
		qSteps:   stepsQuery,
		qTargets: targetsQuery,
		cache:    newStepCache(ttl),
		logger:   cfg.Logger,
	}

	if cfg.Dialect == DialectSQLite {
		s.qSteps = rebindQuestion(stepsQuery)
		s.qTargets = rebindQuestion(targetsQuery)
		if err := s.migrateSQLite(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// rebindQuestion converts $N placeholders to the ? style SQLite expects.
func rebindQuestion(query string) string {
	out := query
	for n := 1; n <= 9; n++ {
		out = strings.ReplaceAll(out, "$"+strconv.Itoa(n), "?")
	}
	return out
}

func (s *SQLRuleStore) migrateSQLite() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tool_chains (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			priority    INTEGER NOT NULL DEFAULT 100,
			enabled     INTEGER NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS tool_chain_steps (
			id                 TEXT PRIMARY KEY,
			chain_id           TEXT NOT NULL REFERENCES tool_chains(id),
			step_order         INTEGER NOT NULL DEFAULT 0,
			source_tool        TEXT NOT NULL,
			condition_operator TEXT NOT NULL,
			condition_field    TEXT NOT NULL DEFAULT '',
			condition_value    TEXT NOT NULL DEFAULT '',
			ai_comment         TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS tool_chain_step_targets (
			id                TEXT PRIMARY KEY,
			step_id           TEXT NOT NULL REFERENCES tool_chain_steps(id),
			target_tool       TEXT NOT NULL,
			execution_mode    TEXT NOT NULL DEFAULT 'sequential',
			target_order      INTEGER NOT NULL DEFAULT 0,
			argument_mappings TEXT NOT NULL DEFAULT '{}',
			ai_comment        TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_steps_source ON tool_chain_steps(source_tool);
		CREATE INDEX IF NOT EXISTS idx_targets_step ON tool_chain_step_targets(step_id);
	`)
	if err != nil {
		return fmt.Errorf("chain store: migrate: %w", err)
	}
	return nil
}

// ListBySource implements RuleStore with a cached read path.
func (s *SQLRuleStore) ListBySource(ctx context.Context, sourceTool string) ([]Step, error) {
	result := s.cache.get(sourceTool)
	if result.hit {
		if result.needsRefresh {
			go s.refreshInBackground(sourceTool)
		}
		return result.steps, nil
	}

	steps, err := s.fetchFromDB(ctx, sourceTool)
	if err != nil {
		return nil, fmt.Errorf("ListBySource: %w", err)
	}
	s.cache.set(sourceTool, steps)
	return steps, nil
}

func (s *SQLRuleStore) refreshInBackground(sourceTool string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	steps, err := s.fetchFromDB(ctx, sourceTool)
	if err != nil {
		s.logger.Warn("background chain rule refresh failed",
			zap.String("source_tool", sourceTool),
			zap.Error(err),
		)
		return
	}
	s.cache.set(sourceTool, steps)
}

func (s *SQLRuleStore) fetchFromDB(ctx context.Context, sourceTool string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx, s.qSteps, sourceTool)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type stepRow struct {
		id   string
		step Step
	}
	var stepRows []stepRow
	for rows.Next() {
		var r stepRow
		var op string
		if err := rows.Scan(
			&r.id, &r.step.ChainName, &r.step.ChainPriority, &r.step.Order,
			&r.step.SourceTool, &op, &r.step.ConditionField,
			&r.step.ConditionValue, &r.step.AIComment,
		); err != nil {
			return nil, err
		}
		r.step.Operator = Operator(op)
		stepRows = append(stepRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	steps := make([]Step, 0, len(stepRows))
	for _, r := range stepRows {
		targets, err := s.fetchTargets(ctx, r.id)
		if err != nil {
			return nil, err
		}
		r.step.Targets = targets
		steps = append(steps, r.step)
	}
	return steps, nil
}

func (s *SQLRuleStore) fetchTargets(ctx context.Context, stepID string) ([]Target, error) {
	rows, err := s.db.QueryContext(ctx, s.qTargets, stepID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var t Target
		var mode, mappings string
		if err := rows.Scan(&t.TargetTool, &mode, &t.Order, &mappings, &t.AIComment); err != nil {
			return nil, err
		}
		t.Mode = ExecutionMode(mode)
		if mappings != "" && mappings != "{}" {
			if err := json.Unmarshal([]byte(mappings), &t.ArgumentMappings); err != nil {
				return nil, fmt.Errorf("fetchTargets: argument_mappings for %s: %w", t.TargetTool, err)
			}
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
