// Wifiprov-cfg drives a wifiprov provisioning portal from a terminal.
//
// It finds portals over mDNS, lists the networks the device can see,
// submits credentials and follows the device while it joins.
//
// Usage:
//
//	wifiprov-cfg [command] [flags]
//
// Running without arguments launches the interactive wizard.
// See 'wifiprov-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wifiprov-cfg",
	Short: "WiFi provisioning client",
	Long: `A utility for provisioning devices running wifiprovd.

Join the device's setup network, then scan for WiFi networks and submit
credentials through its portal.

If no command is specified, the interactive wizard will launch automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// silent unless WIFIPROV_LOG_LEVEL is set
		return logging.InitializeFromEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wifiprov-cfg %s (commit: %s)\n", version.Version, version.Commit)
	},
}
