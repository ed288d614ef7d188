package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/batch"
	"github.com/mj1618/inspector-cli/internal/output"
)

var doCmd = &cobra.Command{
	Use:   "do",
	Short: "Execute multiple steps in a batch",
	Long: `Execute a sequence of steps from a YAML list on stdin.

Each step is a command name with its parameters as a map. Steps execute
sequentially over one connection, and by default execution stops on the first
error.

Supported step types: ping, find, action, gesture, launch, capture,
compare-bounds, wait, sleep, try, if-exists

Example:
  inspector-cli do <<'EOF'
  - launch: { package: com.example }
  - wait: { view-id: "com.example:id/login", timeout: 10 }
  - action: { view-id: "com.example:id/username", action: SET_TEXT, text: ada }
  - if-exists: { text: "Remember me" }
    then:
      - action: { view-id: "com.example:id/remember" }
  - try:
      - action: { view-id: "com.example:id/dismiss_banner" }
  - action: { view-id: "com.example:id/submit" }
  - find: { text: "Welcome", expect-count: 1 }
  EOF`,
	Args: cobra.NoArgs,
	RunE: runDo,
}

func init() {
	rootCmd.AddCommand(doCmd)
	doCmd.Flags().Bool("stop-on-error", true, "Stop execution on first error")
}

func runDo(cmd *cobra.Command, args []string) error {
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	steps, err := batch.ParseSteps(data)
	if err != nil {
		return err
	}

	client, closeFn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	runner := &batch.Runner{
		Client:      client,
		StopOnError: stopOnError,
		Log:         logger,
	}
	result := runner.Run(cmd.Context(), steps)
	if err := output.Print(result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("batch failed: %s", result.Error)
	}
	return nil
}
