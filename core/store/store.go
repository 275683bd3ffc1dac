// Package store defines the RuleStore contract: the passive, durable
// collaborator the core depends on but never implements as a concrete
// database. Concrete implementations live in subpackages (memstore,
// filestore) following a repository/strategy pattern.
package store

import (
	"context"

	"github.com/mova-engine/rulekit/core/rules"
)

// Filter narrows a listing query. An empty Filter means "no restriction".
type Filter struct {
	RulesetID string
	RuleID    string
	Status    string
}

// RuleStore is the narrow interface the core depends on. Every operation
// is expected to be atomic and durable by the implementation; the core
// never assumes a particular backing technology.
type RuleStore interface {
	ListActiveRules(ctx context.Context, filter Filter) ([]rules.Rule, error)
	ListActiveRulesets(ctx context.Context, filter Filter) ([]rules.RuleSet, error)
	ListConditions(ctx context.Context) ([]rules.Condition, error)
	ListActionset(ctx context.Context, rulesetID string) ([]rules.ActionsetEntry, error)

	UpsertRule(ctx context.Context, r rules.Rule) error
	DeleteRule(ctx context.Context, ruleID string) error
	UpsertRuleset(ctx context.Context, rs rules.RuleSet) error
	DeleteRuleset(ctx context.Context, rulesetID string) error

	// SourceType reports "database" or "file", for observability on
	// validate_from_source's report.
	SourceType() string
}

// Reader is the narrower read-only slice of RuleStore the hot-reload
// controller's validate_from_source path needs: the same four read
// operations (read_rules_set, read_conditions_set, read_patterns,
// read_json in the original's naming) renamed to match Go conventions.
type Reader interface {
	ListActiveRules(ctx context.Context, filter Filter) ([]rules.Rule, error)
	ListActiveRulesets(ctx context.Context, filter Filter) ([]rules.RuleSet, error)
	ListConditions(ctx context.Context) ([]rules.Condition, error)
	ListActionset(ctx context.Context, rulesetID string) ([]rules.ActionsetEntry, error)
	SourceType() string
}
