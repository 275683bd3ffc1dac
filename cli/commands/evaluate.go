package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var (
	evalRulesetName string
	evalFactsFile   string
	evalABTestID    string
	evalAssignKey   string
	evalConsumerID  string
	evalDryRun      bool
)

// EvaluateCmd sends an evaluation request to a running server's /evaluate
// endpoint.
var EvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a fact map against a ruleset",
	Long:  `Evaluate reads a JSON fact map from a file and submits it to a running rulekit server for evaluation against a ruleset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var facts map[string]interface{}
		data, err := os.ReadFile(evalFactsFile)
		if err != nil {
			return fmt.Errorf("reading facts file: %w", err)
		}
		if err := json.Unmarshal(data, &facts); err != nil {
			return fmt.Errorf("parsing facts file: %w", err)
		}

		reqBody := map[string]interface{}{
			"ruleset_name":   evalRulesetName,
			"facts":          facts,
			"ab_test_id":     evalABTestID,
			"assignment_key": evalAssignKey,
			"consumer_id":    evalConsumerID,
			"dry_run":        evalDryRun,
		}

		resp, body, err := postJSON("/evaluate", reqBody)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			printIndentedJSON(body)
			return fmt.Errorf("evaluation failed: %s", resp.Status)
		}

		printIndentedJSON(body)
		return nil
	},
}

func init() {
	EvaluateCmd.Flags().StringVar(&evalRulesetName, "ruleset", "", "Ruleset name (default ruleset used if omitted)")
	EvaluateCmd.Flags().StringVar(&evalFactsFile, "facts", "", "Path to a JSON file containing the fact map")
	EvaluateCmd.Flags().StringVar(&evalABTestID, "ab-test", "", "A/B test id to assign a variant for")
	EvaluateCmd.Flags().StringVar(&evalAssignKey, "assignment-key", "", "Explicit A/B assignment key")
	EvaluateCmd.Flags().StringVar(&evalConsumerID, "consumer-id", "", "Consumer id for per-consumer usage tracking")
	EvaluateCmd.Flags().BoolVar(&evalDryRun, "dry-run", false, "Trace per-rule matches without recording an execution log")
	EvaluateCmd.MarkFlagRequired("facts")
}
