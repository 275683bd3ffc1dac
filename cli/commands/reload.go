package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	reloadRulesetID string
	reloadRuleID    string
	reloadForce     bool
	reloadValidate  bool
)

// ReloadCmd triggers a hot reload on a running server.
var ReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Trigger a hot reload from the RuleStore",
	RunE: func(cmd *cobra.Command, args []string) error {
		reqBody := map[string]interface{}{
			"ruleset_id": reloadRulesetID,
			"rule_id":    reloadRuleID,
			"force":      reloadForce,
			"validate":   reloadValidate,
		}

		resp, body, err := postJSON("/reload", reqBody)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			printIndentedJSON(body)
			return fmt.Errorf("reload failed: %s", resp.Status)
		}

		printIndentedJSON(body)
		return nil
	},
}

func init() {
	ReloadCmd.Flags().StringVar(&reloadRulesetID, "ruleset-id", "", "Reload only this ruleset (full reload if omitted)")
	ReloadCmd.Flags().StringVar(&reloadRuleID, "rule-id", "", "Reload only this rule (requires --ruleset-id)")
	ReloadCmd.Flags().BoolVar(&reloadForce, "force", false, "Force the reload even if unchanged")
	ReloadCmd.Flags().BoolVar(&reloadValidate, "validate", true, "Abort the reload if any rule fails to compile")
}
