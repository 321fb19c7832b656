// Wifid is the WiFi management daemon.
//
// It serves the /wifi HTTP endpoints (status, scan, connect, disconnect
// and check-internet) on top of the iwd wireless daemon, and advertises
// itself over mDNS so wifictl can find it.
//
// Usage:
//
//	wifid serve [flags]
//
// See 'wifid serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wifid/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wifid",
	Short: "WiFi management daemon",
	Long: `A small HTTP daemon that lets a client scan for wireless networks,
join one, drop the association and check internet reachability.

Requests are served one per connection over HTTP/1.0. Use the separate
'wifictl' utility to talk to a running daemon.`,
	Version: version.Version,
}

// configPath is shared by every subcommand.
var configPath string

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/wifid/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wifid %s\n", version.Full())
	},
}
