// Package server exposes the inspector commands as MCP tools.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/mj1618/inspector-cli/internal/diag"
	"github.com/mj1618/inspector-cli/internal/inspector"
	"github.com/mj1618/inspector-cli/internal/protocol"
	"github.com/mj1618/inspector-cli/internal/version"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
}

// Server wraps the MCP server with the inspector client and tree cache.
type Server struct {
	client *inspector.Client
	cache  *TreeCache
	log    zerolog.Logger
	mcp    *mcpserver.MCPServer
}

// New creates an MCP server with all inspector tools registered.
func New(client *inspector.Client, cache *TreeCache, log zerolog.Logger) *Server {
	s := &Server{
		client: client,
		cache:  cache,
		log:    log,
	}
	s.mcp = mcpserver.NewMCPServer("inspector-cli", version.Version)
	s.registerTools()
	return s
}

// Serve starts the MCP server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

// Watch drops cached trees whenever events report a UI change or the
// service announces a stable tree. It returns when events is closed or ctx
// is done.
func (s *Server) Watch(ctx context.Context, events <-chan *protocol.Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-events:
			if !ok {
				return
			}
			switch env.Type {
			case protocol.TypeAccessibilityEvent:
				if !diag.IsUIChange(env.String("eventType")) {
					continue
				}
			case protocol.TypeStableTree:
			default:
				continue
			}
			s.log.Trace().Stringer("type", env.Type).Msg("ui changed, dropping cached trees")
			s.cache.InvalidateAll()
		}
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Check the inspection service is reachable and report the round-trip time"),
		),
		s.handlePing,
	)

	s.mcp.AddTool(
		mcp.NewTool("find",
			mcp.WithDescription("Find nodes by text, view ID, regex or properties. Returns success, count and matching nodes."),
			mcp.WithString("text", mcp.Description("Match nodes whose text contains this string")),
			mcp.WithString("view-id", mcp.Description("Match nodes by resource ID (e.g. 'com.example:id/ok')")),
			mcp.WithString("regex", mcp.Description("Match node text against a regular expression")),
			mcp.WithObject("props", mcp.Description("Match nodes with these property values")),
			mcp.WithBoolean("custom", mcp.Description("Use the service's own tree walker instead of the platform search (text and view-id only)")),
			mcp.WithBoolean("verbose", mcp.Description("Include verbose node properties")),
		),
		s.handleFind,
	)

	s.mcp.AddTool(
		mcp.NewTool("capture",
			mcp.WithDescription("Capture the accessibility tree of every window on screen"),
			mcp.WithBoolean("not-important", mcp.Description("Include views not marked important for accessibility")),
			mcp.WithBoolean("visible-only", mcp.Description("Only return nodes visible to the user")),
			mcp.WithBoolean("flat", mcp.Description("Return a flat list with path breadcrumbs")),
			mcp.WithString("text", mcp.Description("Keep only nodes matching this text, with their ancestors")),
			mcp.WithNumber("depth", mcp.Description("Max depth to return (0 = unlimited)")),
			mcp.WithBoolean("count", mcp.Description("Only return the node count")),
			mcp.WithNumber("hash", mcp.Description("Only return the subtree rooted at the node with this hash code")),
			mcp.WithString("view-id", mcp.Description("Only return subtrees rooted at nodes with this resource ID")),
			mcp.WithBoolean("check", mcp.Description("Report nodes whose declared child count differs from their children; fails on any mismatch")),
		),
		s.handleCapture,
	)

	s.mcp.AddTool(
		mcp.NewTool("action",
			mcp.WithDescription("Perform an accessibility action (CLICK, LONG_CLICK, FOCUS, SCROLL_FORWARD, SET_TEXT, ...) on a node"),
			mcp.WithString("action", mcp.Description("Action to perform (default: CLICK)")),
			mcp.WithString("view-id", mcp.Description("Target node by resource ID")),
			mcp.WithString("hash", mcp.Description("Target node by hash code")),
			mcp.WithString("text", mcp.Description("Text argument for SET_TEXT")),
		),
		s.handleAction,
	)

	s.mcp.AddTool(
		mcp.NewTool("gesture",
			mcp.WithDescription("Dispatch a gesture at screen coordinates"),
			mcp.WithString("type", mcp.Description("TAP, LONG_PRESS, DOUBLE_TAP, SWIPE, SCROLL_UP, SCROLL_DOWN, SCROLL_LEFT, SCROLL_RIGHT (default: TAP)")),
			mcp.WithNumber("x", mcp.Description("X coordinate"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Y coordinate"), mcp.Required()),
			mcp.WithNumber("end-x", mcp.Description("End X coordinate for SWIPE")),
			mcp.WithNumber("end-y", mcp.Description("End Y coordinate for SWIPE")),
			mcp.WithNumber("duration", mcp.Description("Duration in ms")),
		),
		s.handleGesture,
	)

	s.mcp.AddTool(
		mcp.NewTool("launch",
			mcp.WithDescription("Launch an app, activity, intent, URL or settings screen"),
			mcp.WithString("type", mcp.Description("PACKAGE, COMPONENT, INTENT, URL, SETTINGS, DIAL, SMS, EMAIL (default: PACKAGE)")),
			mcp.WithString("package", mcp.Description("Package name")),
			mcp.WithString("class", mcp.Description("Activity class name for COMPONENT")),
			mcp.WithString("action", mcp.Description("Intent action for INTENT")),
			mcp.WithString("data", mcp.Description("Data URI")),
			mcp.WithString("category", mcp.Description("Intent category")),
			mcp.WithObject("extras", mcp.Description("Intent extras")),
		),
		s.handleLaunch,
	)

	s.mcp.AddTool(
		mcp.NewTool("compare_bounds",
			mcp.WithDescription("Compare a view's bounds as reported by find and by a full capture"),
			mcp.WithString("view-id", mcp.Description("Resource ID of the view"), mcp.Required()),
			mcp.WithBoolean("not-important", mcp.Description("Capture with not-important views included")),
		),
		s.handleCompareBounds,
	)

	s.mcp.AddTool(
		mcp.NewTool("consistency",
			mcp.WithDescription("Compare match counts of the platform search and the service's tree walker for each query"),
			mcp.WithArray("queries", mcp.Description("View IDs or texts to look up"), mcp.Required(), mcp.WithStringItems()),
			mcp.WithString("kind", mcp.Description("viewId or text (default: viewId)")),
		),
		s.handleConsistency,
	)

	s.mcp.AddTool(
		mcp.NewTool("do",
			mcp.WithDescription("Execute multiple steps in a batch. Steps execute sequentially. Supports: ping, find, action, gesture, launch, capture, compare-bounds, wait, sleep, if-exists, try"),
			mcp.WithArray("steps", mcp.Description("Array of step objects"), mcp.Required()),
			mcp.WithBoolean("stop-on-error", mcp.Description("Stop on first error (default: true)")),
		),
		s.handleDo,
	)
}
