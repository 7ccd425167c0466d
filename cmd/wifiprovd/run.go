package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/wifiprov/internal/bus"
	"github.com/muurk/wifiprov/internal/config"
	"github.com/muurk/wifiprov/internal/discovery"
	"github.com/muurk/wifiprov/internal/gateway"
	"github.com/muurk/wifiprov/internal/handoff"
	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/metrics"
	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/radio/sim"
	"github.com/muurk/wifiprov/internal/scan"
	"github.com/muurk/wifiprov/internal/supervisor"
	"github.com/muurk/wifiprov/internal/version"
)

var (
	configPath  string
	logLevel    string
	listenAddr  string
	apSSID      string
	apPassword  string
	brokerURL   string
	noAdvertise bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the access point, portal and connection supervisor",
	Long: `Start provisioning.

The daemon brings up the setup access point, serves the portal on it and
waits for credentials. Flags override values from the config file.`,
	Example: `  # Run with the default config file
  wifiprovd run

  # Secured setup network on a non-privileged port
  wifiprovd run --ap-ssid lab-setup --ap-password provision-me --listen :8080

  # Debug logging and a local broker
  wifiprovd run --log-level debug --broker mqtt://10.0.0.2`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/wifiprov/config.yaml)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&listenAddr, "listen", "", "Portal listen address")
	runCmd.Flags().StringVar(&apSSID, "ap-ssid", "", "Setup access point SSID")
	runCmd.Flags().StringVar(&apPassword, "ap-password", "", "Setup access point password (empty for open)")
	runCmd.Flags().StringVar(&brokerURL, "broker", "", "MQTT broker URL")
	runCmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not advertise the portal over mDNS")
}

// applyFlags copies explicitly set flags over the file values.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("listen") {
		cfg.Portal.Listen = listenAddr
	}
	if flags.Changed("ap-ssid") {
		cfg.AccessPoint.SSID = apSSID
	}
	if flags.Changed("ap-password") {
		cfg.AccessPoint.Password = apPassword
	}
	if flags.Changed("broker") {
		cfg.Bus.BrokerURL = brokerURL
	}
	if noAdvertise {
		cfg.Portal.Advertise = false
	}
}

// newDriver builds the simulated radio from cfg.Driver.Networks. Validate
// only accepts the "sim" kind.
func newDriver(cfg *config.Config) (*sim.Driver, error) {
	nets := make([]sim.Network, 0, len(cfg.Driver.Networks))
	for _, n := range cfg.Driver.Networks {
		auth, err := n.AuthMode()
		if err != nil {
			return nil, err
		}
		nets = append(nets, sim.Network{
			SSID:     n.SSID,
			RSSI:     n.RSSI,
			Auth:     auth,
			Password: n.Password,
			Hidden:   n.Hidden,
			IP:       n.IP,
		})
	}
	return sim.New(sim.WithNetworks(nets...)), nil
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("Starting wifiprovd",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("driver", cfg.Driver.Kind),
	)

	m := metrics.New()

	driver, err := newDriver(cfg)
	if err != nil {
		return err
	}
	defer driver.Close()

	ctrl := radio.NewController(driver)
	if err := ctrl.StartAccessPoint(ctx, cfg.APConfig()); err != nil {
		return fmt.Errorf("failed to start access point: %w", err)
	}

	engine := scan.NewEngine(ctrl, m)
	sup := supervisor.New(ctrl,
		supervisor.WithMaxRetries(cfg.Station.MaxRetries),
		supervisor.WithMetrics(m),
	)

	busClient := bus.New(
		bus.WithMetrics(m),
		bus.WithControlHandler(func(topic string, payload []byte) {
			logging.Info("Control message", zap.String("topic", topic), zap.ByteString("payload", payload))
		}),
	)
	defer busClient.Stop()
	sup.RegisterConnectedHandler(handoff.New(busClient, cfg.BusConfig(), m).OnConnected)

	gw := gateway.New(engine, sup,
		gateway.WithScanRequest(cfg.ScanRequest()),
		gateway.WithMetrics(m),
	)
	srv := gateway.NewServer(gw, gateway.Config{
		Addr:     cfg.Portal.Listen,
		PagePath: cfg.Portal.PagePath,
	}, m)

	if cfg.Portal.Advertise {
		adv, err := advertise(cfg)
		if err != nil {
			// the portal is still reachable by address
			logging.Warn("mDNS advertisement disabled", zap.Error(err))
		} else {
			defer adv.Shutdown()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sup.Run(gctx)
	})
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	err = g.Wait()

	teardownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if terr := ctrl.Teardown(teardownCtx); terr != nil {
		logging.Warn("Radio teardown failed", zap.Error(terr))
	}

	if err != nil {
		return err
	}
	logging.Info("wifiprovd stopped")
	return nil
}

func advertise(cfg *config.Config) (*discovery.Advertiser, error) {
	port, err := discovery.PortFromAddr(cfg.Portal.Listen)
	if err != nil {
		return nil, err
	}
	adv := discovery.NewAdvertiser()
	err = adv.Start(discovery.Advertisement{
		Instance:    cfg.Portal.Instance,
		Port:        port,
		Version:     version.Version,
		AccessPoint: cfg.AccessPoint.SSID,
	})
	if err != nil {
		return nil, err
	}
	return adv, nil
}
