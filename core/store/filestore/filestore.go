// Package filestore is a JSON-file-backed RuleStore: rulesets are stored
// one-per-file under a root directory, reusing core/configmanager's
// bundle shapes for serialization and core/validator's JSON Schema gate
// before any document is trusted.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mova-engine/rulekit/core/configmanager"
	"github.com/mova-engine/rulekit/core/rkerr"
	"github.com/mova-engine/rulekit/core/rules"
	"github.com/mova-engine/rulekit/core/store"
	"github.com/mova-engine/rulekit/core/validator"
)

// Store is a JSON-file-backed RuleStore. Each ruleset lives in its own
// "<ruleset_id>.json" file under dir; a shared "conditions.json" holds the
// condition catalog.
type Store struct {
	mu  sync.RWMutex
	dir string
	v   *validator.Validator
	cm  *configmanager.Manager
}

// New constructs a filestore rooted at dir, loading the ruleset schema
// from schemaDir. dir is created if it does not yet exist.
func New(dir, schemaDir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	v, err := validator.NewValidator(schemaDir)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, v: v, cm: configmanager.NewManager()}, nil
}

var _ store.RuleStore = (*Store)(nil)

// SourceType reports this store as file-backed.
func (s *Store) SourceType() string { return "file" }

func (s *Store) rulesetPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) conditionsPath() string {
	return filepath.Join(s.dir, "conditions.json")
}

// ListActiveRulesets reads every "*.json" ruleset file in the store
// directory (excluding conditions.json) and returns those matching filter.
func (s *Store) ListActiveRulesets(_ context.Context, filter store.Filter) ([]rules.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	var out []rules.RuleSet
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == "conditions.json" || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		rs, err := s.readRuleset(entry.Name())
		if err != nil {
			continue
		}
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

// ListActiveRules flattens every matching ruleset's Rules.
func (s *Store) ListActiveRules(ctx context.Context, filter store.Filter) ([]rules.Rule, error) {
	rulesets, err := s.ListActiveRulesets(ctx, store.Filter{RulesetID: filter.RulesetID})
	if err != nil {
		return nil, err
	}
	var out []rules.Rule
	for _, rs := range rulesets {
		for _, r := range rs.Rules {
			if filter.RuleID != "" && r.RuleID != filter.RuleID {
				continue
			}
			if filter.Status != "" && r.Status != filter.Status {
				continue
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// ListActionset flattens every matching ruleset's Actionset.
func (s *Store) ListActionset(ctx context.Context, rulesetID string) ([]rules.ActionsetEntry, error) {
	rulesets, err := s.ListActiveRulesets(ctx, store.Filter{RulesetID: rulesetID})
	if err != nil {
		return nil, err
	}
	var out []rules.ActionsetEntry
	for _, rs := range rulesets {
		out = append(out, rs.Actionset...)
	}
	return out, nil
}

// ListConditions loads the shared condition catalog.
func (s *Store) ListConditions(_ context.Context) ([]rules.Condition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.conditionsPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conditions file: %w", err)
	}

	var configs []configmanager.ConditionConfigEntry
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse conditions file: %w", err)
	}
	return s.cm.ImportConditions(configs), nil
}

// UpsertRuleset validates rs against the ruleset JSON Schema before
// writing its file.
func (s *Store) UpsertRuleset(_ context.Context, rs rules.RuleSet) error {
	bundle := s.cm.ExportRuleSets([]rules.RuleSet{rs})[0]
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize ruleset: %w", err)
	}

	if valid, errs := s.v.ValidateBytes(data); !valid {
		return rkerr.New(rkerr.CodeValidationError, "ruleset failed schema validation",
			map[string]interface{}{"ruleset_id": rs.ID, "errors": errsToStrings(errs)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.rulesetPath(rs.ID), data, 0o644)
}

// DeleteRuleset removes a ruleset's file.
func (s *Store) DeleteRuleset(_ context.Context, rulesetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.rulesetPath(rulesetID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete ruleset file: %w", err)
	}
	return nil
}

// UpsertRule rewrites the owning ruleset's file with the rule merged in.
// New rule writes must use the structured conditions form; flat-shaped
// input is rejected.
func (s *Store) UpsertRule(ctx context.Context, r rules.Rule) error {
	if r.IsFlat() {
		return rkerr.New(rkerr.CodeRuleInvalidType,
			"new rule writes must use the structured conditions form",
			map[string]interface{}{"rule_name": r.RuleName})
	}

	rulesets, err := s.ListActiveRulesets(ctx, store.Filter{RulesetID: r.RulesetID})
	if err != nil {
		return err
	}
	if len(rulesets) == 0 {
		return rkerr.New(rkerr.CodeRulesetNotFound, "ruleset not found", map[string]interface{}{"ruleset_id": r.RulesetID})
	}

	rs := rulesets[0]
	replaced := false
	for i, existing := range rs.Rules {
		if existing.RuleID == r.RuleID {
			rs.Rules[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		rs.Rules = append(rs.Rules, r)
	}

	return s.UpsertRuleset(ctx, rs)
}

// DeleteRule removes a rule from its owning ruleset's file.
func (s *Store) DeleteRule(ctx context.Context, ruleID string) error {
	rulesets, err := s.ListActiveRulesets(ctx, store.Filter{})
	if err != nil {
		return err
	}
	for _, rs := range rulesets {
		for i, r := range rs.Rules {
			if r.RuleID == ruleID {
				rs.Rules = append(rs.Rules[:i], rs.Rules[i+1:]...)
				return s.UpsertRuleset(ctx, rs)
			}
		}
	}
	return nil
}

func (s *Store) readRuleset(filename string) (rules.RuleSet, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return rules.RuleSet{}, err
	}
	if valid, errs := s.v.ValidateBytes(data); !valid {
		return rules.RuleSet{}, fmt.Errorf("%s failed schema validation: %v", filename, errsToStrings(errs))
	}

	var config configmanager.RuleSetConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return rules.RuleSet{}, err
	}

	rulesets, errs := s.cm.ImportRuleSets([]configmanager.RuleSetConfig{config})
	if len(errs) > 0 {
		return rules.RuleSet{}, fmt.Errorf("%d validation errors importing %s", len(errs), filename)
	}
	if len(rulesets) == 0 {
		return rules.RuleSet{}, fmt.Errorf("no ruleset parsed from %s", filename)
	}
	return rulesets[0], nil
}

func errsToStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
