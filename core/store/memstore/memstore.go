// Package memstore is a pure in-memory RuleStore implementation: the
// hot path's initial seed in tests, and a drop-in substitute wherever a
// durable backend is unnecessary.
package memstore

import (
	"context"
	"sync"

	"github.com/mova-engine/rulekit/core/rkerr"
	"github.com/mova-engine/rulekit/core/rules"
	"github.com/mova-engine/rulekit/core/store"
)

// Store is a thread-safe, in-memory RuleStore.
type Store struct {
	mu         sync.RWMutex
	rules      map[string]rules.Rule
	rulesets   map[string]rules.RuleSet
	conditions map[string]rules.Condition
	actionsets map[string][]rules.ActionsetEntry
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		rules:      make(map[string]rules.Rule),
		rulesets:   make(map[string]rules.RuleSet),
		conditions: make(map[string]rules.Condition),
		actionsets: make(map[string][]rules.ActionsetEntry),
	}
}

var _ store.RuleStore = (*Store)(nil)

// SourceType reports this store as database-backed.
func (s *Store) SourceType() string { return "database" }

// SeedCondition inserts a Condition directly (test/bootstrap helper).
func (s *Store) SeedCondition(c rules.Condition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conditions[c.ConditionID] = c
}

// SeedActionset inserts an ActionsetEntry directly (test/bootstrap helper).
func (s *Store) SeedActionset(rulesetID string, e rules.ActionsetEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionsets[rulesetID] = append(s.actionsets[rulesetID], e)
}

func (s *Store) ListActiveRules(_ context.Context, filter store.Filter) ([]rules.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rules.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if filter.RulesetID != "" && r.RulesetID != filter.RulesetID {
			continue
		}
		if filter.RuleID != "" && r.RuleID != filter.RuleID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) ListActiveRulesets(_ context.Context, filter store.Filter) ([]rules.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rules.RuleSet, 0, len(s.rulesets))
	for _, rs := range s.rulesets {
		if filter.RulesetID != "" && rs.ID != filter.RulesetID {
			continue
		}
		if filter.Status != "" && rs.Status != filter.Status {
			continue
		}
		out = append(out, rs)
	}
	return out, nil
}

func (s *Store) ListConditions(_ context.Context) ([]rules.Condition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rules.Condition, 0, len(s.conditions))
	for _, c := range s.conditions {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) ListActionset(_ context.Context, rulesetID string) ([]rules.ActionsetEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rules.ActionsetEntry, len(s.actionsets[rulesetID]))
	copy(out, s.actionsets[rulesetID])
	return out, nil
}

// UpsertRule stores a rule. New writes are only accepted in structured
// form; flat-shaped input is rejected so the store never accumulates new
// flat rows.
func (s *Store) UpsertRule(_ context.Context, r rules.Rule) error {
	if r.IsFlat() {
		return rkerr.New(rkerr.CodeRuleInvalidType,
			"new rule writes must use the structured conditions form",
			map[string]interface{}{"rule_name": r.RuleName})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.RuleID] = r
	return nil
}

func (s *Store) DeleteRule(_ context.Context, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, ruleID)
	return nil
}

func (s *Store) UpsertRuleset(_ context.Context, rs rules.RuleSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rulesets[rs.ID] = rs
	return nil
}

func (s *Store) DeleteRuleset(_ context.Context, rulesetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rulesets, rulesetID)
	for _, r := range s.rules {
		if r.RulesetID == rulesetID {
			delete(s.rules, r.RuleID)
		}
	}
	delete(s.actionsets, rulesetID)
	return nil
}
