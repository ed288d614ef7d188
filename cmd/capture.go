package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/inspector"
	"github.com/mj1618/inspector-cli/internal/model"
	"github.com/mj1618/inspector-cli/internal/output"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture the full accessibility tree",
	Long: `Capture the full accessibility tree of every window on screen.

--save LABEL stores the capture so that a later --diff LABEL:TS can report what
changed. Old snapshots for the same label are removed after snapshot.max_age.

--check compares every node's declared child count with the children the
capture actually carries and exits non-zero on any mismatch.

Examples:
  inspector-cli capture
  inspector-cli capture --visible-only --depth 4
  inspector-cli capture --flat --text "Settings"
  inspector-cli capture --count
  inspector-cli capture --hash 218326784
  inspector-cli capture --view-id com.example:id/list --depth 2
  inspector-cli capture --check
  inspector-cli capture --save login
  inspector-cli capture --diff login:1760000000`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().Bool("not-important", false, "Include views not marked important for accessibility")
	captureCmd.Flags().Bool("visible-only", false, "Only include nodes visible to the user")
	captureCmd.Flags().Bool("flat", false, "Output a flat node list with paths")
	captureCmd.Flags().Bool("count", false, "Only output the node count")
	captureCmd.Flags().String("text", "", "Keep only subtrees containing this text")
	captureCmd.Flags().Int("depth", 0, "Max depth (0 = unlimited)")
	captureCmd.Flags().Int64("hash", 0, "Only output the subtree rooted at the node with this hash code")
	captureCmd.Flags().String("view-id", "", "Only output subtrees rooted at nodes with this resource ID")
	captureCmd.Flags().Bool("check", false, "Report nodes whose declared child count differs from their children")
	captureCmd.Flags().String("save", "", "Save the capture as a snapshot under this label")
	captureCmd.Flags().String("diff", "", "Diff against a saved snapshot (LABEL:TS)")
}

// parseSnapshotRef splits a LABEL:TS reference. The label may itself
// contain colons.
func parseSnapshotRef(ref string) (string, int64, error) {
	i := strings.LastIndex(ref, ":")
	if i <= 0 || i == len(ref)-1 {
		return "", 0, fmt.Errorf("invalid snapshot reference %q: want LABEL:TS", ref)
	}
	ts, err := strconv.ParseInt(ref[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid snapshot timestamp in %q: %w", ref, err)
	}
	return ref[:i], ts, nil
}

func runCapture(cmd *cobra.Command, args []string) error {
	notImportant, _ := cmd.Flags().GetBool("not-important")
	visibleOnly, _ := cmd.Flags().GetBool("visible-only")
	flat, _ := cmd.Flags().GetBool("flat")
	countOnly, _ := cmd.Flags().GetBool("count")
	text, _ := cmd.Flags().GetString("text")
	depth, _ := cmd.Flags().GetInt("depth")
	hashCode, _ := cmd.Flags().GetInt64("hash")
	viewID, _ := cmd.Flags().GetString("view-id")
	check, _ := cmd.Flags().GetBool("check")
	saveLabel, _ := cmd.Flags().GetString("save")
	diffRef, _ := cmd.Flags().GetString("diff")

	store := model.NewSnapshotStore(cfg.Snapshot.Dir)
	var prev *model.Tree
	var prevTS int64
	if diffRef != "" {
		label, ts, err := parseSnapshotRef(diffRef)
		if err != nil {
			return err
		}
		prev, err = store.Load(label, ts)
		if err != nil {
			return err
		}
		prevTS = ts
	}

	client, closeFn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	start := time.Now()
	tree, err := client.Capture(cmd.Context(), inspector.CaptureOptions{
		NotImportant: notImportant,
		VisibleOnly:  visibleOnly,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start).Milliseconds()
	ts := time.Now().Unix()
	logger.Debug().Int("nodes", tree.Count()).Int64("ms", elapsed).Msg("captured")

	if saveLabel != "" {
		if err := store.Save(saveLabel, ts, tree); err != nil {
			return err
		}
		store.Clean(saveLabel, cfg.Snapshot.MaxAge)
	}

	if check {
		mismatches := model.CheckChildCounts(tree.Windows)
		if mismatches == nil {
			mismatches = []model.ChildCountMismatch{}
		}
		if err := output.Print(output.CheckResult{TS: ts, Count: tree.Count(), Mismatches: mismatches}); err != nil {
			return err
		}
		if len(mismatches) > 0 {
			return fmt.Errorf("%d of %d nodes declare a child count that differs from their children", len(mismatches), tree.Count())
		}
		return nil
	}
	if prev != nil {
		changes := model.DiffNodes(model.FlattenNodes(prev.Windows), model.FlattenNodes(tree.Windows))
		if changes == nil {
			changes = []model.UIChange{}
		}
		return output.Print(output.DiffResult{Since: prevTS, TS: ts, Changes: changes})
	}
	if saveLabel != "" {
		return output.Print(output.SnapshotOutput{Label: saveLabel, TS: ts, Count: tree.Count()})
	}
	if countOnly {
		return output.Print(output.CountResult{TS: ts, Count: tree.Count()})
	}

	windows := model.SelectSubtrees(tree.Windows, hashCode, viewID)
	if hashCode != 0 && len(windows) == 0 {
		return fmt.Errorf("no node with hash code %d", hashCode)
	}
	if text != "" {
		windows = model.FilterByText(windows, text)
	}
	windows = model.LimitDepth(windows, depth)

	if flat {
		nodes := model.FlattenNodes(windows)
		return output.Print(output.CaptureFlatResult{
			URL: cfg.Service.URL, TS: ts, Count: len(nodes), ElapsedMS: elapsed, Nodes: nodes,
		})
	}
	return output.Print(output.CaptureResult{
		URL: cfg.Service.URL, TS: ts, Count: model.CountNodes(windows), ElapsedMS: elapsed, Windows: windows,
	})
}
