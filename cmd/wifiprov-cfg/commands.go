package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/config"
	"github.com/muurk/wifiprov/internal/discovery"
	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/portalclient"
	"github.com/muurk/wifiprov/internal/supervisor"
	"github.com/muurk/wifiprov/internal/ui"
)

var (
	portalURL    string
	configPath   string
	outputFormat string
	timeout      time.Duration

	discoverTimeout int

	ssid     string
	password string
	wait     bool

	watch bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&portalURL, "portal", "", "Portal URL or address (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/wifiprov/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout for the command")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(statusCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find provisioning portals over mDNS",
	Long: `Listen for provisioning portals advertised over mDNS.

Portals advertise themselves on the setup network as _http._tcp services
with a "wifiprov" TXT marker. The first portal found is remembered for
later commands.`,
	Example: `  # Listen for 5 seconds (default)
  wifiprov-cfg discover

  # Longer listen on a busy network
  wifiprov-cfg discover --discover-timeout 15`,
	RunE: runDiscover,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List WiFi networks visible to the device",
	Example: `  # Scan using the remembered or discovered portal
  wifiprov-cfg scan

  # Scan through a specific portal
  wifiprov-cfg scan --portal 192.168.4.1`,
	RunE: runScan,
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Submit WiFi credentials to the device",
	Long: `Send the network name and password to the portal.

Missing values are prompted for; the password is not echoed. With --wait
the command follows the device until it connects or gives up.`,
	Example: `  # Prompt for everything and wait for the result
  wifiprov-cfg configure --wait

  # Non-interactive
  wifiprov-cfg configure --ssid HomeNet --password secret123

  # Open network
  wifiprov-cfg configure --ssid CafeGuest --password ""`,
	RunE: runConfigure,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the device's connection status",
	Example: `  # One-shot status
  wifiprov-cfg status

  # Follow status changes until interrupted
  wifiprov-cfg status --watch`,
	RunE: runStatus,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverTimeout, "discover-timeout", 0, "mDNS listen time in seconds (default from config, 5)")

	configureCmd.Flags().StringVar(&ssid, "ssid", "", "Network name")
	configureCmd.Flags().StringVar(&password, "password", "", "Network password (prompted when not given)")
	configureCmd.Flags().BoolVar(&wait, "wait", false, "Wait until the device connects or gives up")

	statusCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Stream status changes")
}

// session holds what every portal command needs.
type session struct {
	cfg     *config.Config
	client  *portalclient.Client
	printer *ui.Printer
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Warn("Ignoring unreadable config", zap.Error(err))
		return config.Default()
	}
	return cfg
}

// resolvePortal picks the portal from --portal, the remembered portal or
// mDNS, in that order.
func resolvePortal(ctx context.Context, cfg *config.Config) (string, error) {
	if portalURL != "" {
		return portalURL, nil
	}
	if cfg.Client.Portal != "" {
		return cfg.Client.Portal, nil
	}

	scanner := discovery.NewScanner()
	if cfg.Client.DiscoverTimeout > 0 {
		scanner.Timeout = secondsOf(cfg.Client.DiscoverTimeout)
	}
	portal, err := scanner.WaitForPortal(ctx, "")
	if err != nil {
		return "", fmt.Errorf("%w (use --portal to set the address)", err)
	}
	return portal.BaseURL(), nil
}

func rememberPortal(cfg *config.Config, url string) {
	cfg.Client.Portal = url
	cfg.Client.LastSeen = time.Now().UTC()
	if err := cfg.Save(configPath); err != nil {
		logging.Warn("Failed to remember portal", zap.Error(err))
	}
}

func newSession(ctx context.Context) (*session, error) {
	cfg := loadConfig()
	url, err := resolvePortal(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		client:  portalclient.New(url),
		printer: ui.NewPrinter(nil),
	}, nil
}

func secondsOf(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func jsonOutput() bool {
	return outputFormat == "json"
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	scanner := discovery.NewScanner()
	switch {
	case discoverTimeout > 0:
		scanner.Timeout = secondsOf(discoverTimeout)
	case cfg.Client.DiscoverTimeout > 0:
		scanner.Timeout = secondsOf(cfg.Client.DiscoverTimeout)
	}

	p := ui.NewPrinter(nil)
	if !jsonOutput() {
		p.PrintHeader("Portal Discovery", "wifiprov-cfg discover", ui.Param{Key: "Timeout", Value: scanner.Timeout.String()})
	}

	portals, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	if len(portals) > 0 {
		rememberPortal(cfg, portals[0].BaseURL())
	}

	if jsonOutput() {
		return printJSON(portals)
	}
	if len(portals) == 0 {
		p.PrintWarning("No portals found",
			ui.Param{Key: "Hint", Value: "Join the device's setup network first"},
		)
		return nil
	}
	p.PrintPortals(portals)
	p.Newline()
	p.Println(ui.MutedStyle.Render("  Use 'wifiprov-cfg scan' to list networks through " + portals[0].BaseURL()))
	return nil
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}

	if !jsonOutput() {
		s.printer.PrintHeader("Network Scan", "wifiprov-cfg scan", ui.Param{Key: "Portal", Value: s.client.BaseURL})
	}

	nets, err := s.client.Scan(ctx)
	if err != nil {
		if !jsonOutput() {
			s.printer.PrintError("Scan failed", err, portalclient.TroubleshootingHint(err))
		}
		return err
	}
	rememberPortal(s.cfg, s.client.BaseURL)

	if jsonOutput() {
		return printJSON(nets)
	}
	s.printer.PrintNetworks(nets)
	return nil
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}

	prompt := ui.NewPrompter()
	if ssid == "" {
		if ssid, err = prompt.Line("SSID:"); err != nil {
			return err
		}
	}
	if !cmd.Flags().Changed("password") {
		if password, err = prompt.Secret("Password (empty for open):"); err != nil {
			return err
		}
	}

	if !jsonOutput() {
		s.printer.PrintHeader("Configure WiFi", "wifiprov-cfg configure",
			ui.Param{Key: "Portal", Value: s.client.BaseURL},
			ui.Param{Key: "SSID", Value: ssid},
		)
	}

	// open the stream first so every update after its opening snapshot
	// follows the submit
	var updates <-chan supervisor.Status
	if wait {
		if updates, err = s.client.Watch(ctx); err != nil {
			logging.Debug("Status stream unavailable, will poll", zap.Error(err))
			updates = nil
		} else if _, ok := <-updates; !ok {
			updates = nil
		}
	}

	msg, err := s.client.Configure(ctx, ssid, password)
	if err != nil {
		if !jsonOutput() {
			s.printer.PrintError("Configuration rejected", err, portalclient.TroubleshootingHint(err))
		}
		return err
	}
	rememberPortal(s.cfg, s.client.BaseURL)

	if !wait {
		if jsonOutput() {
			return printJSON(map[string]string{"status": "success", "message": msg})
		}
		s.printer.PrintSuccess("Credentials submitted", ui.Param{Key: "Message", Value: msg})
		return nil
	}

	final, err := waitForConnection(ctx, s.client, ssid, updates, jsonOutput())
	if err != nil {
		if !jsonOutput() {
			s.printer.PrintError("Lost track of the device", err,
				"The device may have left the setup network.\nRejoin it and run 'wifiprov-cfg status'.")
		}
		return err
	}

	if jsonOutput() {
		return printJSON(final)
	}
	if final.State == supervisor.StateConnected {
		s.printer.PrintSuccess("Connected to "+final.SSID, ui.Param{Key: "IP", Value: final.IP})
		return nil
	}
	s.printer.PrintError("Could not join "+final.SSID,
		fmt.Errorf("gave up after %d retries (reason %d)", final.RetryCount, final.LastReason),
		"Check the password and that the network is in range.\nSubmit again to retry.")
	return errors.New("connection failed")
}

// outcome tracks one join attempt across status updates. A failed state
// only counts once the attempt has been seen connecting.
type outcome struct {
	ssid       string
	connecting bool
}

func (o *outcome) done(st supervisor.Status) bool {
	if st.SSID != o.ssid {
		return false
	}
	switch st.State {
	case supervisor.StateConnecting:
		o.connecting = true
	case supervisor.StateConnected:
		return true
	case supervisor.StateFailed:
		return o.connecting
	}
	return false
}

// waitForConnection follows updates until the join for ssid settles,
// polling /status when no stream is available.
func waitForConnection(ctx context.Context, c *portalclient.Client, ssid string, updates <-chan supervisor.Status, quiet bool) (supervisor.Status, error) {
	o := &outcome{ssid: ssid}
	if updates == nil {
		return c.WaitForState(ctx, portalclient.DefaultPollInterval, o.done)
	}

	if quiet {
		for st := range updates {
			if o.done(st) {
				return st, nil
			}
		}
		if ctx.Err() != nil {
			return supervisor.Status{}, ctx.Err()
		}
		return supervisor.Status{}, ui.ErrStreamClosed
	}

	// the wait view quits on any connected or failed status, so only
	// updates belonging to this attempt are forwarded
	relevant := make(chan supervisor.Status)
	go func() {
		defer close(relevant)
		for st := range updates {
			if st.SSID != ssid || (st.State == supervisor.StateFailed && !o.connecting) {
				continue
			}
			o.done(st)
			select {
			case relevant <- st:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ui.RunWait(ctx, relevant, os.Stdout)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if !watch {
		var cancel context.CancelFunc
		ctx, cancel = commandContext(cmd)
		defer cancel()
	}

	s, err := newSession(ctx)
	if err != nil {
		return err
	}

	if !watch {
		st, err := s.client.Status(ctx)
		if err != nil {
			if !jsonOutput() {
				s.printer.PrintError("Status unavailable", err, portalclient.TroubleshootingHint(err))
			}
			return err
		}
		if jsonOutput() {
			return printJSON(st)
		}
		s.printer.PrintStatus(st)
		return nil
	}

	updates, err := s.client.Watch(ctx)
	if err != nil {
		return err
	}
	for st := range updates {
		if jsonOutput() {
			if err := json.NewEncoder(os.Stdout).Encode(st); err != nil {
				return err
			}
			continue
		}
		s.printer.Println(ui.MutedStyle.Render(st.UpdatedAt.Local().Format("15:04:05")) + " " + ui.FormatStatus(st))
	}
	return nil
}
