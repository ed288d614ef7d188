package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/inspector-cli/internal/batch"
	"github.com/mj1618/inspector-cli/internal/output"
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find nodes by text, view ID, regex or properties",
	Long: `Find nodes on screen. Exactly one of --text, --view-id, --regex or --props selects
the query. --custom runs text and view ID lookups through the service's own tree
walker instead of the platform search, which is useful to compare the two.

Examples:
  inspector-cli find --text "Sign in"
  inspector-cli find --view-id com.example:id/submit --verbose
  inspector-cli find --regex "^Item [0-9]+$"
  inspector-cli find --props '{clickable: true, className: android.widget.Button}'`,
	Args: cobra.NoArgs,
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().String("text", "", "Match nodes whose text contains this string")
	findCmd.Flags().String("view-id", "", "Match nodes by resource ID")
	findCmd.Flags().String("regex", "", "Match node text against a regular expression")
	findCmd.Flags().String("props", "", "Match nodes with these properties (YAML or JSON map)")
	findCmd.Flags().Bool("custom", false, "Use the service's tree walker (text and view-id only)")
	findCmd.Flags().Bool("verbose", false, "Include verbose node properties")
	findCmd.Flags().Int("expect", -1, "Fail unless exactly this many nodes match")
}

// findParams converts the find flags into step params.
func findParams(cmd *cobra.Command) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	for _, name := range []string{"text", "view-id", "regex"} {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			params[name] = v
		}
	}
	if raw, _ := cmd.Flags().GetString("props"); raw != "" {
		var props map[string]interface{}
		if err := yaml.Unmarshal([]byte(raw), &props); err != nil {
			return nil, fmt.Errorf("invalid --props: %w", err)
		}
		params["props"] = props
	}
	if len(params) != 1 {
		return nil, fmt.Errorf("specify exactly one of --text, --view-id, --regex or --props")
	}
	custom, _ := cmd.Flags().GetBool("custom")
	verbose, _ := cmd.Flags().GetBool("verbose")
	params["custom"] = custom
	params["verbose"] = verbose
	return params, nil
}

func runFind(cmd *cobra.Command, args []string) error {
	params, err := findParams(cmd)
	if err != nil {
		return err
	}
	query, err := batch.FindParams(params)
	if err != nil {
		return err
	}
	expect, _ := cmd.Flags().GetInt("expect")

	client, closeFn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	found, err := client.Find(cmd.Context(), query)
	if err != nil {
		return err
	}
	if err := output.Print(output.FindOutput{
		Command: query.Name(),
		Success: found.Success,
		Message: found.Message,
		Count:   found.Count,
		Nodes:   found.Nodes,
	}); err != nil {
		return err
	}
	if !found.Success {
		return fmt.Errorf("%s failed: %s", query.Name(), found.Message)
	}
	if expect >= 0 && found.Count != expect {
		return fmt.Errorf("expected %d matches, got %d", expect, found.Count)
	}
	return nil
}
