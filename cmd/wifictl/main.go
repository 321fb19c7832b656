// Wifictl is the command-line client for wifid.
//
// It finds daemons on the local network over mDNS and drives their /wifi
// endpoints: show status, scan, join a network, disconnect and check
// internet reachability.
//
// Usage:
//
//	wifictl [command] [flags]
//
// See 'wifictl --help' for available commands.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/wifid/internal/apiclient"
	"github.com/muurk/wifid/internal/ui"
	"github.com/muurk/wifid/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		hint := hintFor(err)
		if ui.IsTerminal() {
			var tips []string
			if hint != "" {
				tips = strings.Split(hint, "\n")
			}
			fmt.Fprintln(os.Stderr, ui.NewFailureResult(apiclient.GetShortErrorMessage(err), err, tips).Render())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", apiclient.GetShortErrorMessage(err))
			if hint != "" {
				fmt.Fprintf(os.Stderr, "\n%s\n", hint)
			}
		}
		os.Exit(1)
	}
}

// hintFor returns troubleshooting advice for daemon errors only.
func hintFor(err error) string {
	if apiclient.IsNetworkError(err) || apiclient.IsHTTPError(err) || apiclient.IsParseError(err) {
		return apiclient.GetTroubleshootingHint(err)
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:   "wifictl",
	Short: "Control a wifid daemon",
	Long: `A command-line client for the wifid WiFi management daemon.

Without --device, wifictl looks for daemons over mDNS and uses the only
one it finds. Daemons found by 'wifictl discover' are remembered and can
be addressed by instance name or nickname.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wifictl %s\n", version.Full())
	},
}
