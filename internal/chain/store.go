package chain

import (
	"context"
	"sort"
)

// RuleStore lists the enabled chain steps whose source tool matches the
// just-executed tool, ordered by (chain priority, step order).
type RuleStore interface {
	ListBySource(ctx context.Context, sourceTool string) ([]Step, error)
}

// MemoryRuleStore serves steps from a fixed set of chains held in memory.
// Backs the YAML file store and tests.
type MemoryRuleStore struct {
	bySource map[string][]Step
}

// NewMemoryRuleStore indexes the enabled steps of the given chains.
func NewMemoryRuleStore(chains []Chain) *MemoryRuleStore {
	bySource := make(map[string][]Step)
	for _, c := range chains {
		if !c.Enabled {
			continue
		}
		for _, s := range c.Steps {
			s.ChainName = c.Name
			s.ChainPriority = c.Priority
			bySource[s.SourceTool] = append(bySource[s.SourceTool], s)
		}
	}
	for src := range bySource {
		steps := bySource[src]
		sort.SliceStable(steps, func(i, j int) bool {
			if steps[i].ChainPriority != steps[j].ChainPriority {
				return steps[i].ChainPriority < steps[j].ChainPriority
			}
			return steps[i].Order < steps[j].Order
		})
	}
	return &MemoryRuleStore{bySource: bySource}
}

func (s *MemoryRuleStore) ListBySource(_ context.Context, sourceTool string) ([]Step, error) {
	return s.bySource[sourceTool], nil
}
