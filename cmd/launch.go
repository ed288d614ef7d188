package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/protocol"
)

var launchCmd = &cobra.Command{
	Use:   "launch [package]",
	Short: "Launch an app, activity, intent, URL or settings screen",
	Long: `Launch an app, activity, intent, URL or settings screen.

A positional argument is a package name, or a URL when it contains "://".

Examples:
  inspector-cli launch com.android.settings
  inspector-cli launch https://example.com
  inspector-cli launch --type COMPONENT --package com.example --class com.example.MainActivity
  inspector-cli launch --type INTENT --action android.intent.action.VIEW --data geo:0,0?q=cafe
  inspector-cli launch --type SETTINGS --action android.settings.WIFI_SETTINGS`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().String("type", "", "PACKAGE, COMPONENT, INTENT, URL, SETTINGS, DIAL, SMS, EMAIL (default PACKAGE)")
	launchCmd.Flags().String("package", "", "Package name")
	launchCmd.Flags().String("class", "", "Activity class name for COMPONENT")
	launchCmd.Flags().String("action", "", "Intent action")
	launchCmd.Flags().String("data", "", "Data URI")
	launchCmd.Flags().String("category", "", "Intent category")
	launchCmd.Flags().String("extras", "", "Intent extras as a JSON object")
}

func launchFromFlags(cmd *cobra.Command, args []string) protocol.LaunchActivity {
	l := protocol.LaunchActivity{}
	l.LaunchType, _ = cmd.Flags().GetString("type")
	l.PackageName, _ = cmd.Flags().GetString("package")
	l.ClassName, _ = cmd.Flags().GetString("class")
	l.IntentAction, _ = cmd.Flags().GetString("action")
	l.Data, _ = cmd.Flags().GetString("data")
	l.Category, _ = cmd.Flags().GetString("category")
	l.Extras, _ = cmd.Flags().GetString("extras")

	if len(args) > 0 {
		if strings.Contains(args[0], "://") {
			l.Data = args[0]
			if l.LaunchType == "" {
				l.LaunchType = protocol.LaunchURL
			}
		} else if l.PackageName == "" {
			l.PackageName = args[0]
		}
	}
	if l.LaunchType == "" {
		l.LaunchType = protocol.LaunchPackage
	}
	return l
}

func runLaunch(cmd *cobra.Command, args []string) error {
	l := launchFromFlags(cmd, args)

	client, closeFn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := client.Launch(cmd.Context(), l)
	if err != nil {
		return err
	}
	return printResult(l, res)
}
