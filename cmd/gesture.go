package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/protocol"
)

var gestureCmd = &cobra.Command{
	Use:   "gesture",
	Short: "Dispatch a gesture at screen coordinates",
	Long: `Dispatch a gesture at screen coordinates.

Types: TAP, CLICK, LONG_PRESS, LONG_CLICK, DOUBLE_TAP, SWIPE (with --end-x/--end-y),
SCROLL, SCROLL_UP, SCROLL_DOWN, SCROLL_LEFT, SCROLL_RIGHT.

Examples:
  inspector-cli gesture --x 540 --y 1200
  inspector-cli gesture --type SWIPE --x 540 --y 1800 --end-x 540 --end-y 400 --duration 300`,
	Args: cobra.NoArgs,
	RunE: runGesture,
}

func init() {
	rootCmd.AddCommand(gestureCmd)
	gestureCmd.Flags().String("type", protocol.GestureTap, "Gesture type")
	gestureCmd.Flags().Int("x", 0, "X coordinate")
	gestureCmd.Flags().Int("y", 0, "Y coordinate")
	gestureCmd.Flags().Int("end-x", 0, "End X coordinate for SWIPE")
	gestureCmd.Flags().Int("end-y", 0, "End Y coordinate for SWIPE")
	gestureCmd.Flags().Int("duration", 0, "Duration in ms")
}

// optionalInt returns nil unless the flag was set.
func optionalInt(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func gestureFromFlags(cmd *cobra.Command) protocol.PerformGesture {
	gestureType, _ := cmd.Flags().GetString("type")
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	return protocol.PerformGesture{
		GestureType: gestureType,
		X:           x,
		Y:           y,
		EndX:        optionalInt(cmd, "end-x"),
		EndY:        optionalInt(cmd, "end-y"),
		Duration:    optionalInt(cmd, "duration"),
	}
}

func runGesture(cmd *cobra.Command, args []string) error {
	g := gestureFromFlags(cmd)

	client, closeFn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := client.PerformGesture(cmd.Context(), g)
	if err != nil {
		return err
	}
	return printResult(g, res)
}
