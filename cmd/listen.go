package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/diag"
	"github.com/mj1618/inspector-cli/internal/inspector"
	"github.com/mj1618/inspector-cli/internal/model"
	"github.com/mj1618/inspector-cli/internal/protocol"
)

const previewLimit = 1000

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print every message from the service with timing notes",
	Long: `Connect to the service and print every message it sends: accessibility events,
stable trees, results and pongs. UI-change events are timed against the next
stable tree, and manual captures report how long the tree took to arrive.

Type a command and press Enter:
  c  capture the tree
  p  ping
  q  quit`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, hub, err := connectHub(cmd)
	if err != nil {
		return err
	}
	defer hub.Close()

	sub := hub.Subscribe()
	defer sub.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Connected to %s\n", cfg.Service.URL)
	fmt.Fprintln(out, "Commands: c = capture, p = ping, q = quit")

	stop := make(chan struct{})
	defer close(stop)
	lines := make(chan string)
	go readLines(cmd.InOrStdin(), lines, stop)

	session := diag.NewSession()
	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-sub.C:
			if !ok {
				if err := hub.Err(); err != nil {
					return err
				}
				return nil
			}
			formatMessage(out, env, session.Observe(env))
		case line, ok := <-lines:
			if !ok {
				// stdin closed: keep listening until interrupted
				lines = nil
				continue
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "c":
				fmt.Fprintln(out, "Sending capture...")
				session.MarkCapture()
				go func() {
					if _, err := client.Capture(ctx, inspector.CaptureOptions{}); err != nil {
						logger.Warn().Err(err).Msg("capture failed")
					}
				}()
			case "p":
				fmt.Fprintln(out, "Sending ping...")
				go func() {
					if _, err := client.Ping(ctx); err != nil {
						logger.Warn().Err(err).Msg("ping failed")
					}
				}()
			case "q":
				fmt.Fprintln(out, "Closing connection...")
				return nil
			case "":
			default:
				fmt.Fprintf(out, "Unknown command: %s\n", line)
			}
		}
	}
}

func readLines(r io.Reader, lines chan<- string, stop <-chan struct{}) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-stop:
			return
		}
	}
}

// messageHeader returns the banner line for env.
func messageHeader(env *protocol.Envelope) string {
	switch env.Type {
	case protocol.TypeAccessibilityEvent:
		return "ACCESSIBILITY EVENT: " + env.String("eventType")
	case protocol.TypeStableTree:
		ts, _ := env.Field("timestamp")
		return fmt.Sprintf("STABLE TREE (ts: %s)", ts)
	case protocol.TypeTreeBeforeEvent:
		return "TREE BEFORE: " + env.String("eventType") + " [DEPRECATED]"
	case protocol.TypeTree:
		return "TREE MESSAGE"
	case protocol.TypeFindResult, protocol.TypeActionResult, protocol.TypeGestureResult, protocol.TypeLaunchResult:
		return "RESULT: " + string(env.Type)
	case protocol.TypePong:
		return "PONG"
	case protocol.TypeAnnouncement:
		return "ANNOUNCEMENT"
	}
	if t := env.String("type"); t != "" {
		return "OTHER: " + t
	}
	return "OTHER: NO TYPE"
}

// formatMessage writes one message in the listener's block format.
func formatMessage(w io.Writer, env *protocol.Envelope, note diag.Note) {
	header := messageHeader(env)
	if s := note.String(); s != "" {
		header += " " + s
	}
	fmt.Fprintf(w, "\n=== %s ===\n", header)

	switch env.Type {
	case protocol.TypeAccessibilityEvent:
		ev, err := env.Event()
		if err != nil {
			fmt.Fprintf(w, "Error processing message: %v\n", err)
			writePreview(w, env.Raw)
			break
		}
		writeEvent(w, ev)
	case protocol.TypeStableTree, protocol.TypeTreeBeforeEvent:
		tree, err := model.DecodeTree(env.Raw)
		if err != nil {
			fmt.Fprintf(w, "Error processing message: %v\n", err)
			writePreview(w, env.Raw)
			break
		}
		fmt.Fprintf(w, "Children count: %d\n", len(tree.Windows))
		fmt.Fprintf(w, "Node count: %d\n", tree.Count())
		if len(tree.Windows) > 0 {
			fmt.Fprintf(w, "First window: %s\n", tree.Windows[0].Label())
		}
	default:
		writePreview(w, env.Raw)
	}
	fmt.Fprintln(w, "==================")
}

func writePreview(w io.Writer, raw []byte) {
	fmt.Fprintf(w, "Length: %d\n", len(raw))
	if len(raw) > previewLimit {
		fmt.Fprintf(w, "JSON preview: %s...\n", raw[:previewLimit])
		return
	}
	fmt.Fprintf(w, "JSON preview: %s\n", raw)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func optInt(p *int) string {
	if p == nil {
		return "N/A"
	}
	return strconv.Itoa(*p)
}

func writeEvent(w io.Writer, ev *protocol.Event) {
	fmt.Fprintf(w, "Event: %s (ID: %d)\n", ev.EventType, ev.EventTypeID)
	fmt.Fprintf(w, "Package: %s\n", orNA(ev.PackageName))
	fmt.Fprintf(w, "Class: %s\n", orNA(ev.ClassName))
	fmt.Fprintf(w, "Timestamp: %d\n", ev.Timestamp)
	if len(ev.Text) > 0 {
		fmt.Fprintf(w, "Text: %q\n", ev.Text)
	}

	if src := ev.Source; src != nil {
		fmt.Fprintln(w, "Source Node:")
		fmt.Fprintf(w, "  Name: %s\n", orNA(src.Name))
		fmt.Fprintf(w, "  Text: '%s'\n", src.Text)
		fmt.Fprintf(w, "  Content Description: '%s'\n", src.ContentDescription)
		fmt.Fprintf(w, "  Resource ID: %s\n", orNA(src.ResourceID))
		if src.HashCode != 0 {
			fmt.Fprintf(w, "  Hash Code: %d\n", src.HashCode)
		}
	}

	switch ev.EventType {
	case "SCROLL_SEQUENCE_END":
		fmt.Fprintln(w, "Scroll Data:")
		fmt.Fprintf(w, "  Total X: %s\n", optInt(ev.TotalScrollX))
		fmt.Fprintf(w, "  Total Y: %s\n", optInt(ev.TotalScrollY))
		if n := len(ev.ScrollTimestamps); n > 0 {
			fmt.Fprintf(w, "  Event count: %d\n", n)
			if n > 1 {
				fmt.Fprintf(w, "  Duration: %dms\n", ev.ScrollDurationMillis())
			}
		}
	case "TEXT_SEQUENCE_END":
		fmt.Fprintln(w, "Text Input Data:")
		fmt.Fprintf(w, "  Session text: '%s'\n", ev.SessionText)
		fmt.Fprintf(w, "  Event count: %d\n", ev.TextEventCount)
		fmt.Fprintf(w, "  Paste events: %d\n", ev.PasteEventCount)
		if field := ev.TextFieldSource; field != nil {
			fmt.Fprintf(w, "  Field: %s - '%s'\n", orNA(field.Name), field.Text)
		}
	}
}
