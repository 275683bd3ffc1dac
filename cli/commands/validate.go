package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var validateRulesetID string

// ValidateCmd dry-run compiles the store's active rules without touching
// the registry.
var ValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Dry-run compile the store's active rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/validate"
		if validateRulesetID != "" {
			path += "?ruleset_id=" + validateRulesetID
		}

		resp, body, err := getJSON(path)
		if err != nil {
			return err
		}
		printIndentedJSON(body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("validation request failed: %s", resp.Status)
		}
		return nil
	},
}

func init() {
	ValidateCmd.Flags().StringVar(&validateRulesetID, "ruleset-id", "", "Validate only this ruleset")
}
