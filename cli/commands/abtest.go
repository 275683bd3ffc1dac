package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// ABTestCmd groups the A/B test lifecycle subcommands.
var ABTestCmd = &cobra.Command{
	Use:   "abtest",
	Short: "Create, start, stop and inspect A/B tests",
}

var (
	abCreateTestID          string
	abCreateRuleID          string
	abCreateRulesetID       string
	abCreateVariantAVersion int
	abCreateVariantBVersion int
	abCreateSplitA          float64
	abCreateSplitB          float64
	abCreateDurationHours   float64
	abCreateMinSampleSize   int
	abCreateConfidence      float64
)

var abCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new A/B test in draft status",
	RunE: func(cmd *cobra.Command, args []string) error {
		reqBody := map[string]interface{}{
			"test_id":           abCreateTestID,
			"rule_id":           abCreateRuleID,
			"ruleset_id":        abCreateRulesetID,
			"variant_a_version": abCreateVariantAVersion,
			"variant_b_version": abCreateVariantBVersion,
			"traffic_split_a":   abCreateSplitA,
			"traffic_split_b":   abCreateSplitB,
			"duration_hours":    abCreateDurationHours,
			"min_sample_size":   abCreateMinSampleSize,
			"confidence_level":  abCreateConfidence,
		}

		resp, body, err := postJSON("/abtest", reqBody)
		if err != nil {
			return err
		}
		printIndentedJSON(body)
		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("create failed: %s", resp.Status)
		}
		return nil
	},
}

var abStartCmd = &cobra.Command{
	Use:   "start <test-id>",
	Short: "Start a draft A/B test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, body, err := postJSON("/abtest/"+args[0]+"/start", map[string]interface{}{})
		if err != nil {
			return err
		}
		printIndentedJSON(body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("start failed: %s", resp.Status)
		}
		return nil
	},
}

var abStopWinningVariant string

var abStopCmd = &cobra.Command{
	Use:   "stop <test-id>",
	Short: "Stop a running A/B test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, body, err := postJSON("/abtest/"+args[0]+"/stop", map[string]interface{}{
			"winning_variant": abStopWinningVariant,
		})
		if err != nil {
			return err
		}
		printIndentedJSON(body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("stop failed: %s", resp.Status)
		}
		return nil
	},
}

var abMetricsCmd = &cobra.Command{
	Use:   "metrics <test-id>",
	Short: "Show an A/B test's per-variant metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, body, err := getJSON("/abtest/" + args[0] + "/metrics")
		if err != nil {
			return err
		}
		printIndentedJSON(body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("metrics request failed: %s", resp.Status)
		}
		return nil
	},
}

func init() {
	abCreateCmd.Flags().StringVar(&abCreateTestID, "test-id", "", "Test id (required)")
	abCreateCmd.Flags().StringVar(&abCreateRuleID, "rule-id", "", "Rule under test")
	abCreateCmd.Flags().StringVar(&abCreateRulesetID, "ruleset-id", "", "Owning ruleset id")
	abCreateCmd.Flags().IntVar(&abCreateVariantAVersion, "variant-a-version", 0, "Version number for variant A")
	abCreateCmd.Flags().IntVar(&abCreateVariantBVersion, "variant-b-version", 0, "Version number for variant B")
	abCreateCmd.Flags().Float64Var(&abCreateSplitA, "split-a", 0.5, "Traffic fraction routed to variant A")
	abCreateCmd.Flags().Float64Var(&abCreateSplitB, "split-b", 0.5, "Traffic fraction routed to variant B")
	abCreateCmd.Flags().Float64Var(&abCreateDurationHours, "duration-hours", 0, "Planned test duration in hours")
	abCreateCmd.Flags().IntVar(&abCreateMinSampleSize, "min-sample-size", 0, "Minimum sample size before stopping")
	abCreateCmd.Flags().Float64Var(&abCreateConfidence, "confidence-level", 0.95, "Required confidence level in (0,1]")
	abCreateCmd.MarkFlagRequired("test-id")

	abStopCmd.Flags().StringVar(&abStopWinningVariant, "winner", "", "Winning variant (A or B), if known")

	ABTestCmd.AddCommand(abCreateCmd)
	ABTestCmd.AddCommand(abStartCmd)
	ABTestCmd.AddCommand(abStopCmd)
	ABTestCmd.AddCommand(abMetricsCmd)
}
