package configmanager

import (
	"time"
)

// ConfigFormat represents supported configuration formats
type ConfigFormat string

const (
	FormatJSON ConfigFormat = "json"
	FormatYAML ConfigFormat = "yaml"
	FormatHCL  ConfigFormat = "hcl"
)

// ImportMode represents how to handle existing configurations
type ImportMode string

const (
	ModeOverwrite ImportMode = "overwrite"
	ModeMerge     ImportMode = "merge"
	ModeValidate  ImportMode = "validate"
)

// ConfigMetadata represents metadata for configuration files
type ConfigMetadata struct {
	Version     string    `json:"version" yaml:"version"`
	Format      string    `json:"format" yaml:"format"`
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`
	Checksum    string    `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

// ConfigBundle represents a complete rule configuration export: every rule,
// ruleset and standalone condition reachable from the RuleStore.
type ConfigBundle struct {
	Metadata   ConfigMetadata         `json:"metadata" yaml:"metadata"`
	Rules      []RuleConfig           `json:"rules,omitempty" yaml:"rules,omitempty"`
	RuleSets   []RuleSetConfig        `json:"ruleSets,omitempty" yaml:"ruleSets,omitempty"`
	Conditions []ConditionConfigEntry `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// ExportOptions represents options for configuration export
type ExportOptions struct {
	Format   ConfigFormat `json:"format" yaml:"format"`
	Compress bool         `json:"compress" yaml:"compress"`
}

// ImportOptions represents options for configuration import
type ImportOptions struct {
	Format       ConfigFormat `json:"format" yaml:"format"`
	Mode         ImportMode   `json:"mode" yaml:"mode"`
	ValidateOnly bool         `json:"validateOnly" yaml:"validateOnly"`
	DryRun       bool         `json:"dryRun" yaml:"dryRun"`
	Overwrite    bool         `json:"overwrite" yaml:"overwrite"`
}

// ImportResult represents the result of configuration import
type ImportResult struct {
	Success  bool            `json:"success" yaml:"success"`
	Imported int             `json:"imported" yaml:"imported"`
	Skipped  int             `json:"skipped" yaml:"skipped"`
	Errors   []ImportError   `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []ImportWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Summary  ImportSummary   `json:"summary" yaml:"summary"`
}

// ImportError represents an error during import
type ImportError struct {
	Type    string `json:"type" yaml:"type"`
	Message string `json:"message" yaml:"message"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column  int    `json:"column,omitempty" yaml:"column,omitempty"`
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// ImportWarning represents a warning during import
type ImportWarning struct {
	Type    string `json:"type" yaml:"type"`
	Message string `json:"message" yaml:"message"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column  int    `json:"column,omitempty" yaml:"column,omitempty"`
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// ImportSummary represents a summary of import results
type ImportSummary struct {
	Rules      int `json:"rules" yaml:"rules"`
	RuleSets   int `json:"ruleSets" yaml:"ruleSets"`
	Conditions int `json:"conditions" yaml:"conditions"`
}

// RuleConfig represents a rule configuration for export/import. It mirrors
// rules.Rule field-for-field so filestore can round-trip through JSON/YAML/
// HCL without information loss.
type RuleConfig struct {
	RuleID       string               `json:"rule_id" yaml:"rule_id"`
	RuleName     string               `json:"rule_name" yaml:"rule_name"`
	RulesetID    string               `json:"ruleset_id" yaml:"ruleset_id"`
	Conditions   RuleConditionsConfig `json:"conditions" yaml:"conditions"`
	Attribute    string               `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Operator     string               `json:"condition,omitempty" yaml:"condition,omitempty"`
	Constant     string               `json:"constant,omitempty" yaml:"constant,omitempty"`
	Message      string               `json:"message,omitempty" yaml:"message,omitempty"`
	RulePoint    int                  `json:"rule_point" yaml:"rule_point"`
	Weight       float64              `json:"weight" yaml:"weight"`
	Priority     int                  `json:"priority" yaml:"priority"`
	ActionResult string               `json:"action_result" yaml:"action_result"`
	Status       string               `json:"status" yaml:"status"`
	Version      int                  `json:"version" yaml:"version"`
}

// RuleConditionsConfig mirrors rules.Conditions: either a single item or an
// ordered item list plus a combining mode.
type RuleConditionsConfig struct {
	Item  string   `json:"item,omitempty" yaml:"item,omitempty"`
	Items []string `json:"items,omitempty" yaml:"items,omitempty"`
	Mode  string   `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// ConditionConfigEntry mirrors rules.Condition for bundle export/import.
type ConditionConfigEntry struct {
	ConditionID string `json:"condition_id" yaml:"condition_id"`
	Attribute   string `json:"attribute" yaml:"attribute"`
	Operator    string `json:"operator" yaml:"operator"`
	Value       string `json:"value" yaml:"value"`
}

// ActionsetEntryConfig mirrors rules.ActionsetEntry for bundle export/import.
type ActionsetEntryConfig struct {
	RulesetID            string `json:"ruleset_id" yaml:"ruleset_id"`
	PatternKey           string `json:"pattern_key" yaml:"pattern_key"`
	ActionRecommendation string `json:"action_recommendation" yaml:"action_recommendation"`
}

// RuleSetConfig represents a ruleset configuration for export/import
type RuleSetConfig struct {
	ID        string                 `json:"id" yaml:"id"`
	Name      string                 `json:"name" yaml:"name"`
	Version   int                    `json:"version" yaml:"version"`
	Status    string                 `json:"status" yaml:"status"`
	IsDefault bool                   `json:"is_default" yaml:"is_default"`
	TenantID  string                 `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
	Rules     []RuleConfig           `json:"rules" yaml:"rules"`
	Actionset []ActionsetEntryConfig `json:"actionset,omitempty" yaml:"actionset,omitempty"`
	CreatedAt time.Time              `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt" yaml:"updatedAt"`
}
