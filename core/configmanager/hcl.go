package configmanager

import (
	"fmt"
	"io"
	"strings"
)

// HCLExporter implements ConfigExporter for HCL format
type HCLExporter struct{}

// Export exports a ConfigBundle to HCL format
func (e *HCLExporter) Export(bundle *ConfigBundle) ([]byte, error) {
	var builder strings.Builder
	if err := e.writeHCL(&builder, bundle); err != nil {
		return nil, err
	}
	return []byte(builder.String()), nil
}

// ExportToWriter exports a ConfigBundle to HCL format to an io.Writer
func (e *HCLExporter) ExportToWriter(bundle *ConfigBundle, w io.Writer) error {
	return e.writeHCL(w, bundle)
}

// writeHCL writes the configuration bundle in HCL format
func (e *HCLExporter) writeHCL(w io.Writer, bundle *ConfigBundle) error {
	if _, err := fmt.Fprintf(w, "# rulekit configuration export\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# Generated at: %s\n", bundle.Metadata.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# Version: %s\n", bundle.Metadata.Version); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# Source: %s\n\n", bundle.Metadata.Source); err != nil {
		return err
	}

	if len(bundle.RuleSets) > 0 {
		if _, err := fmt.Fprintf(w, "# Rulesets\n"); err != nil {
			return err
		}
		for _, rs := range bundle.RuleSets {
			if err := e.writeRuleSetHCL(w, rs); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "\n"); err != nil {
			return err
		}
	}

	if len(bundle.Rules) > 0 {
		if _, err := fmt.Fprintf(w, "# Standalone rules\n"); err != nil {
			return err
		}
		for _, r := range bundle.Rules {
			if err := e.writeRuleHCL(w, r, ""); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "\n"); err != nil {
			return err
		}
	}

	if len(bundle.Conditions) > 0 {
		if _, err := fmt.Fprintf(w, "# Conditions\n"); err != nil {
			return err
		}
		for _, c := range bundle.Conditions {
			if err := e.writeConditionHCL(w, c); err != nil {
				return err
			}
		}
	}

	return nil
}

// writeRuleSetHCL writes a ruleset, its rules and its actionset in HCL format
func (e *HCLExporter) writeRuleSetHCL(w io.Writer, rs RuleSetConfig) error {
	if _, err := fmt.Fprintf(w, "ruleset \"%s\" {\n", rs.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  name = \"%s\"\n", rs.Name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  version = %d\n", rs.Version); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  status = \"%s\"\n", rs.Status); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  is_default = %t\n", rs.IsDefault); err != nil {
		return err
	}
	if rs.TenantID != "" {
		if _, err := fmt.Fprintf(w, "  tenant_id = \"%s\"\n", rs.TenantID); err != nil {
			return err
		}
	}
	for _, r := range rs.Rules {
		if err := e.writeRuleHCL(w, r, "  "); err != nil {
			return err
		}
	}
	for _, a := range rs.Actionset {
		if _, err := fmt.Fprintf(w, "  actionset_entry {\n"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    pattern_key = \"%s\"\n", a.PatternKey); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    action_recommendation = \"%s\"\n", a.ActionRecommendation); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  }\n"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "}\n\n"); err != nil {
		return err
	}
	return nil
}

// writeRuleHCL writes a rule configuration in HCL format, indented by prefix
func (e *HCLExporter) writeRuleHCL(w io.Writer, r RuleConfig, prefix string) error {
	if _, err := fmt.Fprintf(w, "%srule \"%s\" {\n", prefix, r.RuleID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  rule_name = \"%s\"\n", prefix, r.RuleName); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  attribute = \"%s\"\n", prefix, r.Attribute); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  condition = \"%s\"\n", prefix, r.Operator); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  constant = \"%s\"\n", prefix, r.Constant); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  rule_point = %d\n", prefix, r.RulePoint); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  weight = %.2f\n", prefix, r.Weight); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  priority = %d\n", prefix, r.Priority); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  status = \"%s\"\n", prefix, r.Status); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s}\n\n", prefix); err != nil {
		return err
	}
	return nil
}

// writeConditionHCL writes a standalone condition configuration in HCL format
func (e *HCLExporter) writeConditionHCL(w io.Writer, condition ConditionConfigEntry) error {
	if _, err := fmt.Fprintf(w, "condition \"%s\" {\n", condition.ConditionID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  attribute = \"%s\"\n", condition.Attribute); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  operator = \"%s\"\n", condition.Operator); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  value = \"%s\"\n", condition.Value); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "}\n\n"); err != nil {
		return err
	}
	return nil
}

// GetFormat returns the format this exporter handles
func (e *HCLExporter) GetFormat() ConfigFormat {
	return FormatHCL
}

// HCLImporter implements ConfigImporter for HCL format
type HCLImporter struct{}

// Import imports configuration data from HCL format to a ConfigBundle
func (i *HCLImporter) Import(data []byte) (*ConfigBundle, error) {
	return nil, fmt.Errorf("HCL import is not yet implemented - please use JSON or YAML format")
}

// ImportFromReader imports configuration data from HCL format from an io.Reader
func (i *HCLImporter) ImportFromReader(r io.Reader) (*ConfigBundle, error) {
	return nil, fmt.Errorf("HCL import is not yet implemented - please use JSON or YAML format")
}

// GetFormat returns the format this importer handles
func (i *HCLImporter) GetFormat() ConfigFormat {
	return FormatHCL
}
