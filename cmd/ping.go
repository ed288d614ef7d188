package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/output"
)

// PingResult is the output of the ping command.
type PingResult struct {
	OK  bool   `yaml:"ok"  json:"ok"`
	URL string `yaml:"url" json:"url"`
	RTT string `yaml:"rtt" json:"rtt"`
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the inspection service is reachable",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	client, closeFn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	rtt, err := client.Ping(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(PingResult{OK: true, URL: cfg.Service.URL, RTT: rtt.Round(time.Millisecond).String()})
}
