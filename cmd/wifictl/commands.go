package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/wifid/internal/apiclient"
	"github.com/muurk/wifid/internal/config"
	"github.com/muurk/wifid/internal/logging"
	"github.com/muurk/wifid/internal/radio"
	"github.com/muurk/wifid/internal/ui"
	"github.com/muurk/wifid/internal/wifi"
)

// Flags shared by the daemon commands
var (
	configPath   string
	deviceName   string
	devicePort   int
	outputFormat string
	longTimeout  int
	discoverWait int
	verbose      bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/wifid/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&deviceName, "device", "", "Daemon address, instance name or nickname")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 80, "Daemon HTTP port")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", apiclient.FormatDetailed, "Output format (detailed, compact, json)")
	rootCmd.PersistentFlags().IntVar(&longTimeout, "timeout", 60, "Timeout in seconds for scan and connect")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and retries")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		setup := logging.InitializeFromEnv
		if verbose {
			setup = func() error { return logging.Initialize("debug") }
		}
		if err := setup(); err != nil {
			return err
		}
		outputFormat = strings.ToLower(outputFormat)
		return apiclient.ValidateFormat(outputFormat)
	}

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(checkInternetCmd)
}

// newClient resolves the daemon and returns a client for it.
func newClient() (*apiclient.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	t, err := resolveTarget(cfg, deviceName, devicePort, time.Duration(discoverWait)*time.Second)
	if err != nil {
		return nil, err
	}
	client := apiclient.NewClient(t.Host, t.Port)
	client.LongTimeout = time.Duration(longTimeout) * time.Second
	return client, nil
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find wifid daemons on the network",
	Long: `Find wifid daemons using mDNS/DNS-SD discovery.

Every daemon found is remembered in the config file so later commands can
address it with --device <instance>.`,
	Example: `  # Listen for 10 seconds (default)
  wifictl discover

  # Name a daemon for later use
  wifictl discover --nickname kitchen=wifid-3f2a`,
	RunE: runDiscover,
}

var nicknames []string

func init() {
	rootCmd.PersistentFlags().IntVar(&discoverWait, "discover-timeout", 5, "Discovery timeout in seconds when --device is not given")
	discoverCmd.Flags().StringArrayVar(&nicknames, "nickname", nil, "Set a nickname as name=instance (repeatable)")
	devicesCmd.Flags().BoolVar(&refresh, "refresh", false, "Update addresses with a quick mDNS scan first")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	wait := discoverWait
	fmt.Printf("Looking for wifid daemons (timeout: %ds)...\n\n", wait)

	devices, err := scanFunc(time.Duration(wait) * time.Second)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No daemons found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Check that wifid is running with mDNS enabled")
		fmt.Println("  - Verify you're on the same network as the device")
		fmt.Println("  - Try increasing --discover-timeout")
		fmt.Println("  - Use --device to specify the address manually")
		return nil
	}

	fmt.Printf("Found %d daemon(s):\n\n", len(devices))
	for i, d := range devices {
		fmt.Printf("%d. %s\n", i+1, d.Instance)
		fmt.Printf("   Host:    %s\n", d.Hostname)
		fmt.Printf("   Address: %s\n", d.BaseURL())
		if v := d.GetMetadata("version"); v != "" {
			fmt.Printf("   Version: %s\n", v)
		}
		fmt.Println()
		cfg.UpdateDeviceLastSeen(d.Instance, d.IP, d.Port)
	}

	for _, n := range nicknames {
		name, instance, ok := strings.Cut(n, "=")
		if !ok || name == "" || instance == "" {
			return fmt.Errorf("invalid --nickname %q (expected name=instance)", n)
		}
		cfg.SetDeviceNickname(instance, name)
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to remember devices: %w", err)
	}

	fmt.Println("Use 'wifictl status --device <instance>' to query a daemon")
	return nil
}

var refresh bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List remembered daemons",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if refresh {
			n, err := refreshDevices(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(progress, "%d daemon(s) answered\n\n", n)
		}
		if len(cfg.Devices) == 0 {
			fmt.Println("No remembered daemons. Run 'wifictl discover' first.")
			return nil
		}

		names := make([]string, 0, len(cfg.Devices))
		for name := range cfg.Devices {
			names = append(names, name)
		}
		sort.Strings(names)

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "INSTANCE\tNICKNAME\tADDRESS\tLAST SEEN")
		for _, name := range names {
			d := cfg.Devices[name]
			fmt.Fprintf(tw, "%s\t%s\t%s:%d\t%s\n", name, d.Nickname, d.LastIP, d.Port, d.LastSeen.Format(time.DateTime))
		}
		return tw.Flush()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's WiFi status",
	Example: `  wifictl status
  wifictl status --device 192.168.4.16 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Status()
		if err != nil {
			return err
		}
		if styled() {
			fmt.Println(statusPanel(client, resp).Render())
			return nil
		}
		return printf(apiclient.FormatStatus(resp, outputFormat))
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for wireless networks",
	Long: `Ask the daemon for a fresh scan and list the networks it sees.

The daemon answers once the radio has finished, which usually takes a few
seconds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		var resp *wifi.ScanResponse
		err = ui.Wait("Scanning for networks...", func() error {
			var err error
			resp, err = client.Scan()
			return err
		})
		if err != nil {
			return err
		}
		return printf(apiclient.FormatScan(resp, outputFormat))
	},
}

var (
	password string
	open     bool
)

var connectCmd = &cobra.Command{
	Use:   "connect <ssid>",
	Short: "Join a wireless network",
	Long: `Join a wireless network and wait for the outcome.

The password is prompted for when --pwd is not given and stdin is a
terminal. Use --open for networks without a password.`,
	Example: `  # Prompt for the password
  wifictl connect HomeNetwork

  # Open network
  wifictl connect CoffeeShop --open`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&password, "pwd", "", "Network password")
	connectCmd.Flags().BoolVar(&open, "open", false, "Join without a password")
}

func runConnect(cmd *cobra.Command, args []string) error {
	ssid := args[0]
	if err := apiclient.ValidateSSID(ssid); err != nil {
		return err
	}

	pwd := password
	if !open && !cmd.Flags().Changed("pwd") {
		var err error
		pwd, err = readPassword(ssid)
		if err != nil {
			return err
		}
	}
	if err := apiclient.ValidatePassword(pwd); err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	var resp *wifi.ConnectResponse
	err = ui.Wait(fmt.Sprintf("Connecting to %s...", ssid), func() error {
		var err error
		resp, err = client.Connect(ssid, pwd)
		return err
	})
	if err != nil {
		return err
	}
	if styled() {
		fmt.Println(connectResult(ssid, resp).Render())
		return nil
	}
	return printf(apiclient.FormatConnect(ssid, resp, outputFormat))
}

// readPassword prompts on the terminal, or reads one line from a pipe.
func readPassword(ssid string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "Password for %s: ", ssid)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Drop the current network and forget it",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.Disconnect(); err != nil {
			return err
		}
		switch {
		case outputFormat == apiclient.FormatJSON:
			fmt.Println("{}")
		case styled():
			fmt.Println(ui.NewSuccessResult("Disconnected").Render())
		default:
			fmt.Println("✓ Disconnected")
		}
		return nil
	},
}

var checkInternetCmd = &cobra.Command{
	Use:   "check-internet",
	Short: "Check whether the daemon can reach the internet",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.CheckInternet()
		if err != nil {
			return err
		}
		return printf(apiclient.FormatInternet(resp, outputFormat))
	},
}

// styled reports whether output should use the terminal UI.
func styled() bool {
	return outputFormat == apiclient.FormatDetailed && ui.IsTerminal()
}

func statusPanel(client *apiclient.Client, s *wifi.StatusResponse) *ui.Panel {
	network, ip := s.SSID, s.IP
	if network == "" {
		network = "(none)"
	}
	if ip == "" {
		ip = "(none)"
	}
	return ui.NewPanel("WiFi Status", client.BaseURL,
		ui.Field{Key: "Status", Value: apiclient.StatusDescription(s.StationStatus)},
		ui.Field{Key: "Network", Value: network},
		ui.Field{Key: "IP", Value: ip},
		ui.Field{Key: "Mode", Value: apiclient.ModeName(s.Mode)},
		ui.Field{Key: "Scanning", Value: fmt.Sprintf("%v", s.Scanning)},
	)
}

func connectResult(ssid string, r *wifi.ConnectResponse) *ui.Result {
	if r.Status == radio.StatusGotIP {
		return ui.NewSuccessResult("Connected to "+ssid, ui.Field{Key: "IP address", Value: r.IP})
	}

	var tips []string
	switch r.Status {
	case radio.StatusWrongPassword:
		tips = []string{"Check the password and try again"}
	case radio.StatusNoAPFound:
		tips = []string{"Run 'wifictl scan' to see which networks are in range", "SSIDs are case sensitive"}
	default:
		tips = []string{"Move the device closer to the access point", "Check 'wifictl status' for the current state"}
	}
	return ui.NewFailureResult("Could not connect to "+ssid,
		errors.New(apiclient.StatusDescription(r.Status)), tips)
}

func printf(out string, err error) error {
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
