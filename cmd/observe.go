package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/inspector"
	"github.com/mj1618/inspector-cli/internal/model"
	"github.com/mj1618/inspector-cli/internal/protocol"
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Watch for UI changes and stream diffs as JSONL",
	Long: `Continuously capture the accessibility tree and emit changes (added, removed,
changed nodes) as JSONL to stdout.

Each line is a JSON object representing one change event. No output is emitted
when the UI is stable. With --stable, the stable trees the service pushes after
the UI settles are diffed instead of polling.

Output is always JSONL regardless of the --format flag.

Use Ctrl+C or --duration to stop observing.`,
	Args: cobra.NoArgs,
	RunE: runObserve,
}

func init() {
	rootCmd.AddCommand(observeCmd)
	observeCmd.Flags().Duration("interval", time.Second, "Polling interval")
	observeCmd.Flags().Duration("duration", 0, "How long to observe (0 = until Ctrl+C)")
	observeCmd.Flags().Bool("stable", false, "Diff pushed stable trees instead of polling")
	observeCmd.Flags().Bool("visible-only", false, "Only include nodes visible to the user")
	observeCmd.Flags().Bool("ignore-bounds", false, "Ignore node position changes")
	observeCmd.Flags().Bool("ignore-focus", false, "Ignore focus changes")
}

// filterChanges drops ignored fields from changed nodes, and changed nodes
// left with no fields.
func filterChanges(changes []model.UIChange, ignoreBounds, ignoreFocus bool) []model.UIChange {
	var kept []model.UIChange
	for _, change := range changes {
		if change.Type == model.ChangeChanged {
			if ignoreBounds {
				delete(change.Changes, "bounds")
			}
			if ignoreFocus {
				delete(change.Changes, "focused")
			}
			if len(change.Changes) == 0 {
				continue
			}
		}
		kept = append(kept, change)
	}
	return kept
}

func runObserve(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")
	duration, _ := cmd.Flags().GetDuration("duration")
	stable, _ := cmd.Flags().GetBool("stable")
	visibleOnly, _ := cmd.Flags().GetBool("visible-only")
	ignoreBounds, _ := cmd.Flags().GetBool("ignore-bounds")
	ignoreFocus, _ := cmd.Flags().GetBool("ignore-focus")

	if interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	ctx := cmd.Context()
	client, hub, err := connectHub(cmd)
	if err != nil {
		return err
	}
	defer hub.Close()

	var trees <-chan *protocol.Envelope
	if stable {
		sub := hub.Subscribe(protocol.TypeStableTree)
		defer sub.Close()
		trees = sub.C
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)

	opts := inspector.CaptureOptions{VisibleOnly: visibleOnly}
	start := time.Now()

	// Initial capture to establish baseline
	tree, err := client.Capture(ctx, opts)
	if err != nil {
		return fmt.Errorf("initial capture failed: %w", err)
	}
	prevFlat := model.FlattenNodes(tree.Windows)

	enc.Encode(map[string]interface{}{
		"type":  "snapshot",
		"ts":    time.Now().Unix(),
		"count": len(prevFlat),
	})

	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}
	var tick <-chan time.Time
	if !stable {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	eventCount := 0
	emit := func(curr *model.Tree) {
		if visibleOnly {
			curr.Windows = model.FilterVisible(curr.Windows)
		}
		currFlat := model.FlattenNodes(curr.Windows)
		for _, change := range filterChanges(model.DiffNodes(prevFlat, currFlat), ignoreBounds, ignoreFocus) {
			enc.Encode(change)
			eventCount++
		}
		prevFlat = currFlat
	}
	emitError := func(err error) {
		enc.Encode(map[string]interface{}{
			"type":  "error",
			"ts":    time.Now().Unix(),
			"error": err.Error(),
		})
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-deadline:
			break loop
		case <-tick:
			curr, err := client.Capture(ctx, opts)
			if err != nil {
				if ctx.Err() != nil {
					break loop
				}
				emitError(err)
				continue
			}
			emit(curr)
		case env, ok := <-trees:
			if !ok {
				return hub.Err()
			}
			curr, err := env.Tree()
			if err != nil {
				emitError(err)
				continue
			}
			emit(curr)
		}
	}

	elapsed := time.Since(start)
	enc.Encode(map[string]interface{}{
		"type":    "done",
		"ts":      time.Now().Unix(),
		"elapsed": fmt.Sprintf("%.1fs", elapsed.Seconds()),
		"events":  eventCount,
	})
	return nil
}
