package configmanager

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mova-engine/rulekit/core/rules"
)

// ExportRules converts domain Rules into their RuleConfig wire shape.
func (m *Manager) ExportRules(rs []rules.Rule) []RuleConfig {
	out := make([]RuleConfig, 0, len(rs))
	for _, r := range rs {
		out = append(out, RuleConfig{
			RuleID:    r.RuleID,
			RuleName:  r.RuleName,
			RulesetID: r.RulesetID,
			Conditions: RuleConditionsConfig{
				Item:  r.Conditions.Item,
				Items: r.Conditions.Items,
				Mode:  string(r.Conditions.Mode),
			},
			Attribute:    r.Attribute,
			Operator:     r.Operator,
			Constant:     r.Constant,
			Message:      r.Message,
			RulePoint:    r.RulePoint,
			Weight:       r.Weight,
			Priority:     r.Priority,
			ActionResult: r.ActionResult,
			Status:       r.Status,
			Version:      r.Version,
		})
	}
	return out
}

// ExportConditions converts domain Conditions into their wire shape.
func (m *Manager) ExportConditions(conds []rules.Condition) []ConditionConfigEntry {
	out := make([]ConditionConfigEntry, 0, len(conds))
	for _, c := range conds {
		out = append(out, ConditionConfigEntry{
			ConditionID: c.ConditionID,
			Attribute:   c.Attribute,
			Operator:    c.Operator,
			Value:       c.Value,
		})
	}
	return out
}

// ExportActionset converts domain ActionsetEntries into their wire shape.
func (m *Manager) ExportActionset(entries []rules.ActionsetEntry) []ActionsetEntryConfig {
	out := make([]ActionsetEntryConfig, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActionsetEntryConfig{
			RulesetID:            e.RulesetID,
			PatternKey:           e.PatternKey,
			ActionRecommendation: e.ActionRecommendation,
		})
	}
	return out
}

// ExportRuleSets converts domain RuleSets (including their owned rules and
// actionset) into their wire shape.
func (m *Manager) ExportRuleSets(rulesets []rules.RuleSet) []RuleSetConfig {
	out := make([]RuleSetConfig, 0, len(rulesets))
	for _, rs := range rulesets {
		out = append(out, RuleSetConfig{
			ID:        rs.ID,
			Name:      rs.Name,
			Version:   rs.Version,
			Status:    rs.Status,
			IsDefault: rs.IsDefault,
			TenantID:  rs.TenantID,
			Rules:     m.ExportRules(rs.Rules),
			Actionset: m.ExportActionset(rs.Actionset),
			CreatedAt: rs.CreatedAt,
			UpdatedAt: rs.UpdatedAt,
		})
	}
	return out
}

// ImportRules converts wire-shaped RuleConfigs back into domain Rules. It
// performs shape validation only (non-empty identifiers); full predicate
// validation happens at compile time (core/rules.CompileRuleSet).
func (m *Manager) ImportRules(configs []RuleConfig) ([]rules.Rule, []ImportError) {
	var out []rules.Rule
	var errs []ImportError

	for i, rc := range configs {
		if rc.RuleID == "" && rc.RuleName == "" {
			errs = append(errs, ImportError{
				Type:    "validation",
				Message: "rule has no rule_id or rule_name",
				Context: fmt.Sprintf("rules[%d]", i),
			})
			continue
		}

		out = append(out, rules.Rule{
			RuleID:    rc.RuleID,
			RuleName:  rc.RuleName,
			RulesetID: rc.RulesetID,
			Conditions: rules.Conditions{
				Item:  rc.Conditions.Item,
				Items: rc.Conditions.Items,
				Mode:  rules.Mode(rc.Conditions.Mode),
			},
			Attribute:    rc.Attribute,
			Operator:     rc.Operator,
			Constant:     rc.Constant,
			Message:      rc.Message,
			RulePoint:    rc.RulePoint,
			Weight:       rc.Weight,
			Priority:     rc.Priority,
			ActionResult: rc.ActionResult,
			Status:       rc.Status,
			Version:      rc.Version,
		})
	}

	return out, errs
}

// ImportConditions converts wire-shaped conditions back into the domain type.
func (m *Manager) ImportConditions(configs []ConditionConfigEntry) []rules.Condition {
	out := make([]rules.Condition, 0, len(configs))
	for _, c := range configs {
		out = append(out, rules.Condition{
			ConditionID: c.ConditionID,
			Attribute:   c.Attribute,
			Operator:    c.Operator,
			Value:       c.Value,
		})
	}
	return out
}

// ImportActionset converts wire-shaped actionset entries back into the
// domain type.
func (m *Manager) ImportActionset(configs []ActionsetEntryConfig) []rules.ActionsetEntry {
	out := make([]rules.ActionsetEntry, 0, len(configs))
	for _, e := range configs {
		out = append(out, rules.ActionsetEntry{
			RulesetID:            e.RulesetID,
			PatternKey:           e.PatternKey,
			ActionRecommendation: e.ActionRecommendation,
		})
	}
	return out
}

// ImportRuleSets converts wire-shaped RuleSetConfigs back into domain
// RuleSets.
func (m *Manager) ImportRuleSets(configs []RuleSetConfig) ([]rules.RuleSet, []ImportError) {
	var out []rules.RuleSet
	var errs []ImportError

	for i, rc := range configs {
		if rc.Name == "" {
			errs = append(errs, ImportError{
				Type:    "validation",
				Message: "ruleset has no name",
				Context: fmt.Sprintf("ruleSets[%d]", i),
			})
			continue
		}

		importedRules, ruleErrs := m.ImportRules(rc.Rules)
		for _, re := range ruleErrs {
			re.Context = fmt.Sprintf("ruleSets[%d]: %s -> %s", i, rc.Name, re.Context)
			errs = append(errs, re)
		}

		out = append(out, rules.RuleSet{
			ID:        rc.ID,
			Name:      rc.Name,
			Version:   rc.Version,
			Status:    rc.Status,
			IsDefault: rc.IsDefault,
			TenantID:  rc.TenantID,
			Rules:     importedRules,
			Actionset: m.ImportActionset(rc.Actionset),
			CreatedAt: rc.CreatedAt,
			UpdatedAt: rc.UpdatedAt,
		})
	}

	return out, errs
}

// ExportRulesBundle serializes rules, rulesets and conditions into a
// ConfigBundle in the requested format.
func (m *Manager) ExportRulesBundle(rs []rules.Rule, rulesets []rules.RuleSet, conds []rules.Condition, format ConfigFormat) ([]byte, error) {
	bundle := ConfigBundle{
		Metadata: ConfigMetadata{
			Version:     "1.0.0",
			Format:      string(format),
			GeneratedAt: time.Now(),
			Source:      "rulekit",
		},
		Rules:      m.ExportRules(rs),
		RuleSets:   m.ExportRuleSets(rulesets),
		Conditions: m.ExportConditions(conds),
	}

	switch format {
	case FormatJSON:
		return json.MarshalIndent(bundle, "", "  ")
	case FormatYAML:
		if exporter, exists := m.exporters[FormatYAML]; exists {
			return exporter.Export(&bundle)
		}
		return nil, fmt.Errorf("YAML exporter not available")
	case FormatHCL:
		if exporter, exists := m.exporters[FormatHCL]; exists {
			return exporter.Export(&bundle)
		}
		return nil, fmt.Errorf("HCL exporter not available")
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ImportRulesBundle deserializes a ConfigBundle and returns its rules,
// rulesets and conditions, aggregating any per-item validation errors.
func (m *Manager) ImportRulesBundle(data []byte, format ConfigFormat) (ImportResult, []rules.Rule, []rules.RuleSet, []rules.Condition, error) {
	var bundle ConfigBundle
	var err error

	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &bundle)
	case FormatYAML:
		if importer, exists := m.importers[FormatYAML]; exists {
			var bundlePtr *ConfigBundle
			bundlePtr, err = importer.Import(data)
			if err == nil {
				bundle = *bundlePtr
			}
		} else {
			err = fmt.Errorf("YAML importer not available")
		}
	case FormatHCL:
		if importer, exists := m.importers[FormatHCL]; exists {
			var bundlePtr *ConfigBundle
			bundlePtr, err = importer.Import(data)
			if err == nil {
				bundle = *bundlePtr
			}
		} else {
			err = fmt.Errorf("HCL importer not available")
		}
	default:
		return ImportResult{}, nil, nil, nil, fmt.Errorf("unsupported format: %s", format)
	}

	if err != nil {
		return ImportResult{}, nil, nil, nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	result := ImportResult{Success: true}

	importedRules, ruleErrs := m.ImportRules(bundle.Rules)
	result.Summary.Rules = len(importedRules)
	result.Imported += len(importedRules)
	result.Errors = append(result.Errors, ruleErrs...)

	importedRuleSets, rsErrs := m.ImportRuleSets(bundle.RuleSets)
	result.Summary.RuleSets = len(importedRuleSets)
	result.Imported += len(importedRuleSets)
	result.Errors = append(result.Errors, rsErrs...)

	importedConditions := m.ImportConditions(bundle.Conditions)
	result.Imported += len(importedConditions)

	if len(result.Errors) > 0 {
		result.Success = false
	}

	return result, importedRules, importedRuleSets, importedConditions, nil
}
