package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/output"
	"github.com/mj1618/inspector-cli/internal/protocol"
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Perform an accessibility action on a node",
	Long: `Perform an accessibility action on the node identified by --view-id or --hash.

Actions: CLICK, LONG_CLICK, FOCUS, CLEAR_FOCUS, SELECT, CLEAR_SELECTION,
ACCESSIBILITY_FOCUS, CLEAR_ACCESSIBILITY_FOCUS, SCROLL_FORWARD, SCROLL_BACKWARD,
COPY, PASTE, CUT, SET_TEXT (with --text), EXPAND, COLLAPSE, DISMISS.

Examples:
  inspector-cli action --view-id com.example:id/submit
  inspector-cli action --hash 123456789 --action LONG_CLICK
  inspector-cli action --view-id com.example:id/name --action SET_TEXT --text "Ada"`,
	Args: cobra.NoArgs,
	RunE: runAction,
}

func init() {
	rootCmd.AddCommand(actionCmd)
	actionCmd.Flags().String("action", "CLICK", "Action to perform")
	actionCmd.Flags().String("view-id", "", "Target node by resource ID")
	actionCmd.Flags().String("hash", "", "Target node by hash code")
	actionCmd.Flags().String("text", "", "Text argument for SET_TEXT")
}

func runAction(cmd *cobra.Command, args []string) error {
	action, _ := cmd.Flags().GetString("action")
	viewID, _ := cmd.Flags().GetString("view-id")
	hash, _ := cmd.Flags().GetString("hash")
	text, _ := cmd.Flags().GetString("text")

	client, closeFn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	pa := protocol.PerformAction{Action: action, ResourceID: viewID, HashCode: hash, Text: text}
	res, err := client.PerformAction(cmd.Context(), pa)
	if err != nil {
		return err
	}
	return printResult(pa, res)
}

// printResult prints an action, gesture or launch result and fails when the
// service reports success false.
func printResult(c protocol.Command, res *protocol.Result) error {
	if err := output.Print(output.ResultOutput{Command: c.Name(), Success: res.Success, Message: res.Message}); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%s failed: %s", c.Name(), res.Message)
	}
	return nil
}
