package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// StatusCmd reports the reload controller's and registry's current status.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reload controller and registry status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, body, err := getJSON("/status")
		if err != nil {
			return err
		}
		printIndentedJSON(body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status request failed: %s", resp.Status)
		}
		return nil
	},
}
