package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/protocol"
	"github.com/mj1618/inspector-cli/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing inspector tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes the inspector commands
as tools over one shared service connection. Captured trees are cached for
--cache-ttl and dropped whenever a command or a UI-change event may have
changed the screen.

Supported transports:
  stdio             Standard I/O (default)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  inspector-cli serve
  inspector-cli serve --transport streamable-http --port 8080
  inspector-cli serve --cache-ttl 0`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "", "Transport: stdio, streamable-http (default from config)")
	serveCmd.Flags().Int("port", 0, "HTTP port for streamable-http transport (default from config)")
	serveCmd.Flags().Duration("cache-ttl", 0, "Tree cache TTL, 0 disables (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	serveCfg := cfg.Serve
	if cmd.Flags().Changed("transport") {
		serveCfg.Transport, _ = cmd.Flags().GetString("transport")
	}
	if cmd.Flags().Changed("port") {
		serveCfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("cache-ttl") {
		serveCfg.CacheTTL, _ = cmd.Flags().GetDuration("cache-ttl")
	}
	if serveCfg.Transport != "stdio" && serveCfg.Transport != "streamable-http" {
		return fmt.Errorf("unsupported transport %q: use stdio or streamable-http", serveCfg.Transport)
	}

	client, hub, err := connectHub(cmd)
	if err != nil {
		return err
	}
	defer hub.Close()

	srv := server.New(client, server.NewTreeCache(serveCfg.CacheTTL), logger)
	events := hub.Subscribe(protocol.TypeAccessibilityEvent, protocol.TypeStableTree)
	defer events.Close()
	go srv.Watch(cmd.Context(), events.C)

	logger.Info().Str("transport", serveCfg.Transport).Int("port", serveCfg.Port).Dur("cache_ttl", serveCfg.CacheTTL).Msg("serving")
	return srv.Serve(server.Config{Transport: serveCfg.Transport, Port: serveCfg.Port})
}
