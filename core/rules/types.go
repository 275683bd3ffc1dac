// Package rules implements the rule compiler: it lowers declarative
// Rule/Condition records into PreparedRule predicates ready for the
// evaluator in core/predicate.
package rules

import "time"

// Condition is an atomic, reusable boolean expression factored out of
// rules so multiple rules can share the same (attribute, operator, value).
type Condition struct {
	ConditionID string `json:"condition_id"`
	Attribute   string `json:"attribute"`
	Operator    string `json:"operator"`
	Value       string `json:"value"`
}

// Mode is the boolean combinator for a complex rule's condition list.
type Mode string

const (
	ModeAnd Mode = "and"
	ModeOr  Mode = "or"
)

// Conditions carries either the simple single-condition shape or the
// complex ordered-list-plus-mode shape.
type Conditions struct {
	Item  string   `json:"item,omitempty"`
	Items []string `json:"items,omitempty"`
	Mode  Mode     `json:"mode,omitempty"`
}

// Rule is the declarative record an operator authors. It accepts either
// the structured shape (Conditions references condition_ids) or the flat
// shape (Attribute/Operator/Constant inline, resolved at compile time
// against the known Condition set).
type Rule struct {
	RuleID     string     `json:"rule_id"`
	RuleName   string     `json:"rule_name"`
	RulesetID  string     `json:"ruleset_id"`
	Conditions Conditions `json:"conditions"`

	// Flat shape.
	Attribute string `json:"attribute,omitempty"`
	Operator  string `json:"condition,omitempty"`
	Constant  string `json:"constant,omitempty"`
	Message   string `json:"message,omitempty"`

	RulePoint    int     `json:"rule_point"`
	Weight       float64 `json:"weight"`
	Priority     int     `json:"priority"`
	ActionResult string  `json:"action_result"`
	Status       string  `json:"status"`
	Version      int     `json:"version"`
}

// IsFlat reports whether a rule was authored in the flat shape (no
// structured Conditions reference at all).
func (r Rule) IsFlat() bool {
	return r.Conditions.Item == "" && len(r.Conditions.Items) == 0
}

// RuleSet groups rules and owns its actionset.
type RuleSet struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Version     int              `json:"version"`
	Status      string           `json:"status"`
	IsDefault   bool             `json:"is_default"`
	TenantID    string           `json:"tenant_id"`
	Rules       []Rule           `json:"rules"`
	Actionset   []ActionsetEntry `json:"actionset"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ActionsetEntry maps a concatenated pattern of action tokens to a
// recommendation string.
type ActionsetEntry struct {
	RulesetID            string `json:"ruleset_id"`
	PatternKey           string `json:"pattern_key"`
	ActionRecommendation string `json:"action_recommendation"`
}

// PreparedRule is the compiler's output: a priority-sorted, evaluator-ready
// rule. The registry stores these; the hot path never recompiles.
type PreparedRule struct {
	RuleID       string
	RuleName     string
	Priority     int
	Predicate    Predicate
	RulePoint    int
	Weight       float64
	ActionResult string
}

// CalculatedPoints is rule_point * weight.
func (p PreparedRule) CalculatedPoints() float64 {
	return float64(p.RulePoint) * p.Weight
}

// Predicate is a compiled boolean expression over a fact map. It is kept
// opaque to this package's callers; core/predicate knows how to evaluate
// it against a fact map.
type Predicate struct {
	// Leaf is non-nil for an atomic condition.
	Leaf *Leaf
	// Mode/Children are non-nil/non-empty for a complex AND/OR predicate.
	Mode     Mode
	Children []Predicate
}

// Leaf is a single `attribute OP value` atomic boolean expression.
type Leaf struct {
	Attribute string
	Operator  string
	Value     string
}
