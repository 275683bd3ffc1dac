package rules

import (
	"fmt"
	"sort"

	"github.com/mova-engine/rulekit/core/rkerr"
)

// Compile lowers a single Rule, given the full set of known Conditions, into
// a PreparedRule. It is pure: no I/O, deterministic for identical inputs.
func Compile(r Rule, conditions map[string]Condition) (PreparedRule, error) {
	if r.RuleName == "" && r.RuleID == "" {
		return PreparedRule{}, rkerr.Compilation(rkerr.CodeRuleEmpty, "rule has no identifying name or id", nil)
	}

	pred, err := compilePredicate(r, conditions)
	if err != nil {
		return PreparedRule{}, err
	}

	return PreparedRule{
		RuleID:       r.RuleID,
		RuleName:     r.RuleName,
		Priority:     r.Priority,
		Predicate:    pred,
		RulePoint:    r.RulePoint,
		Weight:       r.Weight,
		ActionResult: r.ActionResult,
	}, nil
}

func compilePredicate(r Rule, conditions map[string]Condition) (Predicate, error) {
	if r.IsFlat() {
		return compileFlat(r, conditions)
	}
	return compileStructured(r, conditions)
}

// compileFlat resolves a flat rule's inline (attribute, operator, constant)
// triple against the known Condition set.
func compileFlat(r Rule, conditions map[string]Condition) (Predicate, error) {
	if r.Attribute == "" || r.Constant == "" {
		return Predicate{}, rkerr.Compilation(rkerr.CodeConditionEmpty,
			fmt.Sprintf("rule %q has an empty attribute or constant", r.RuleName),
			map[string]interface{}{"rule_name": r.RuleName})
	}

	for _, c := range conditions {
		if c.Attribute == r.Attribute && c.Operator == r.Operator && c.Value == r.Constant {
			return Predicate{Leaf: &Leaf{Attribute: c.Attribute, Operator: c.Operator, Value: c.Value}}, nil
		}
	}

	return Predicate{}, rkerr.Compilation(rkerr.CodeConditionNotFound,
		fmt.Sprintf("rule %q references condition (attribute=%q, operator=%q, constant=%q) that does not exist",
			r.RuleName, r.Attribute, r.Operator, r.Constant),
		map[string]interface{}{
			"rule_name": r.RuleName,
			"attribute": r.Attribute,
			"condition": r.Operator,
			"constant":  r.Constant,
		})
}

// compileStructured resolves a structured rule's condition_id reference(s)
// against the known Condition set.
func compileStructured(r Rule, conditions map[string]Condition) (Predicate, error) {
	if r.Conditions.Item == "" && len(r.Conditions.Items) == 0 {
		return Predicate{}, rkerr.Compilation(rkerr.CodeRuleEmptyConditions,
			fmt.Sprintf("rule %q has no conditions", r.RuleName),
			map[string]interface{}{"rule_name": r.RuleName})
	}

	if r.Conditions.Item != "" {
		cond, ok := conditions[r.Conditions.Item]
		if !ok {
			return Predicate{}, rkerr.Compilation(rkerr.CodeRuleMissingConditionIt,
				fmt.Sprintf("rule %q references unknown condition_id %q", r.RuleName, r.Conditions.Item),
				map[string]interface{}{"rule_name": r.RuleName, "condition_id": r.Conditions.Item})
		}
		return Predicate{Leaf: &Leaf{Attribute: cond.Attribute, Operator: cond.Operator, Value: cond.Value}}, nil
	}

	if r.Conditions.Mode != ModeAnd && r.Conditions.Mode != ModeOr {
		return Predicate{}, rkerr.Compilation(rkerr.CodeRuleMissingMode,
			fmt.Sprintf("rule %q has multiple conditions but no mode", r.RuleName),
			map[string]interface{}{"rule_name": r.RuleName})
	}

	children := make([]Predicate, 0, len(r.Conditions.Items))
	for _, id := range r.Conditions.Items {
		cond, ok := conditions[id]
		if !ok {
			return Predicate{}, rkerr.Compilation(rkerr.CodeConditionNotFound,
				fmt.Sprintf("rule %q references unknown condition_id %q", r.RuleName, id),
				map[string]interface{}{"rule_name": r.RuleName, "condition_id": id})
		}
		children = append(children, Predicate{Leaf: &Leaf{Attribute: cond.Attribute, Operator: cond.Operator, Value: cond.Value}})
	}

	return Predicate{Mode: r.Conditions.Mode, Children: children}, nil
}

// CompileRuleSet compiles every rule in a RuleSet against the given
// Condition set and returns the PreparedRule list sorted ascending by
// priority, the canonical evaluation order.
//
// If any rule fails to compile, no PreparedRules are returned: all errors
// are aggregated into one RULE_INVALID_CONDITIONS error rather than
// returning on the first failure, so a caller can report every offending
// rule name in one pass (used by reload validation).
func CompileRuleSet(rs RuleSet, conditions map[string]Condition) ([]PreparedRule, error) {
	if len(rs.Rules) == 0 {
		return nil, nil
	}

	prepared := make([]PreparedRule, 0, len(rs.Rules))
	var errs []error
	for _, r := range rs.Rules {
		p, err := Compile(r, conditions)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		prepared = append(prepared, p)
	}

	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, rkerr.Compilation(rkerr.CodeRuleInvalidConditions,
			fmt.Sprintf("%d rule(s) failed to compile", len(errs)),
			map[string]interface{}{"errors": msgs})
	}

	sort.SliceStable(prepared, func(i, j int) bool {
		if prepared[i].Priority != prepared[j].Priority {
			return prepared[i].Priority < prepared[j].Priority
		}
		return prepared[i].RuleID < prepared[j].RuleID
	})

	return prepared, nil
}
