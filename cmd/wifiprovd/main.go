// Wifiprovd is the device-side WiFi provisioning daemon.
//
// It brings up a setup access point, serves the provisioning portal on it,
// joins the network a user submits through the portal, and starts the MQTT
// client once the device has an address.
//
// Usage:
//
//	wifiprovd run [flags]
//
// See 'wifiprovd run --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wifiprovd",
	Short: "WiFi provisioning daemon",
	Long: `A daemon that provisions a device's WiFi connection.

It serves a setup access point and a small web portal where a user picks
a network and enters its password. Once the device joins and gets an
address, the message bus client is started.

Use the separate 'wifiprov-cfg' utility to drive the portal from a
terminal.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wifiprovd %s (commit: %s)\n", version.Version, version.Commit)
	},
}
