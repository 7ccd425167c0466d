package radio

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
)

// Controller owns the radio mode and serializes every driver call.
// It is safe for concurrent use: the HTTP goroutines scan through it while
// the supervisor joins through it.
type Controller struct {
	driver Driver

	mu       sync.Mutex
	mode     Mode
	started  bool
	apActive bool
	station  *StationConfig
}

// NewController wraps a driver. The radio starts in ModeIdle.
func NewController(driver Driver) *Controller {
	return &Controller{driver: driver, mode: ModeIdle}
}

// Mode returns the current radio mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// AccessPointActive reports whether the provisioning AP has been started.
func (c *Controller) AccessPointActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apActive
}

// Events exposes the driver's event channel.
func (c *Controller) Events() <-chan Event {
	return c.driver.Events()
}

// EnsureMode switches the radio to target. It is a no-op when the radio is
// already in that mode.
func (c *Controller) EnsureMode(ctx context.Context, target Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setModeLocked(ctx, target)
}

func (c *Controller) setModeLocked(ctx context.Context, target Mode) error {
	if c.mode == target {
		return nil
	}
	if err := c.driver.SetMode(ctx, target); err != nil {
		return &ConfigError{Op: "set_mode", Mode: target, Err: err}
	}
	logging.Info("Radio mode changed",
		zap.String("from", c.mode.String()),
		zap.String("to", target.String()),
	)
	c.mode = target
	return nil
}

func (c *Controller) startLocked(ctx context.Context) error {
	if c.started {
		return nil
	}
	if err := c.driver.Start(ctx); err != nil {
		return &ConfigError{Op: "start", Mode: c.mode, Err: err}
	}
	c.started = true
	return nil
}

// StartAccessPoint configures and brings up the provisioning network.
// An empty password yields an open network; otherwise WPA/WPA2 with PMF
// required.
func (c *Controller) StartAccessPoint(ctx context.Context, cfg APConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := ModeAccessPoint
	if c.mode.HasStation() {
		target = ModeDual
	}
	if err := c.setModeLocked(ctx, target); err != nil {
		return err
	}

	iface := APInterfaceConfig{
		SSID:        cfg.SSID,
		Password:    cfg.Password,
		Channel:     cfg.Channel,
		MaxClients:  cfg.MaxClients,
		Auth:        cfg.Auth(),
		PMFRequired: cfg.Password != "",
	}
	if err := c.driver.ConfigureAccessPoint(ctx, iface); err != nil {
		return &ConfigError{Op: "configure_ap", Mode: c.mode, Err: err}
	}
	if err := c.startLocked(ctx); err != nil {
		return err
	}
	c.apActive = true

	logging.Info("Access point started",
		zap.String("ssid", cfg.SSID),
		zap.Int("channel", cfg.Channel),
		zap.Int("max_clients", cfg.MaxClients),
		zap.String("auth", iface.Auth.String()),
	)
	return nil
}

// PrepareScan makes sure the station interface is available for a scan.
// While the AP is serving (or the radio is idle) this elevates to dual mode
// so clients stay associated.
func (c *Controller) PrepareScan(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mode.HasStation() {
		if err := c.setModeLocked(ctx, ModeDual); err != nil {
			return err
		}
	}
	return c.startLocked(ctx)
}

// Scan runs a blocking scan on the driver.
func (c *Controller) Scan(ctx context.Context, req ScanRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return ErrNotStarted
	}
	return c.driver.Scan(ctx, req)
}

// ScanResultCount returns the number of networks seen by the last scan.
func (c *Controller) ScanResultCount() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driver.ScanResultCount()
}

// ScanResults returns up to max records from the last scan.
func (c *Controller) ScanResults(max int) ([]AccessPointRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driver.ScanResults(max)
}

// Join applies a station configuration and starts connecting. The mode is
// dual while the AP is active so the portal stays reachable, station
// otherwise. The outcome arrives on Events.
func (c *Controller) Join(ctx context.Context, sta StationConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := ModeStation
	if c.apActive {
		target = ModeDual
	}
	if err := c.setModeLocked(ctx, target); err != nil {
		return err
	}

	sta.PMFCapable = true
	if err := c.driver.ConfigureStation(ctx, sta); err != nil {
		return &ConfigError{Op: "configure_sta", Mode: c.mode, Err: err}
	}
	c.station = &sta

	if err := c.startLocked(ctx); err != nil {
		return err
	}
	return c.connectLocked(ctx)
}

// Reconnect re-issues a connect for the station configuration last passed
// to Join.
func (c *Controller) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.station == nil {
		return &ConfigError{Op: "connect", Mode: c.mode, Err: ErrNoStationConfig}
	}
	if !c.started {
		return &ConfigError{Op: "connect", Mode: c.mode, Err: ErrNotStarted}
	}
	return c.connectLocked(ctx)
}

func (c *Controller) connectLocked(ctx context.Context) error {
	if err := c.driver.Connect(ctx); err != nil {
		return &ConfigError{Op: "connect", Mode: c.mode, Err: err}
	}
	logging.Debug("Station connect issued", zap.String("ssid", c.station.SSID))
	return nil
}

// Teardown stops the radio. The controller returns to ModeIdle.
func (c *Controller) Teardown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		if err := c.driver.Stop(ctx); err != nil {
			return &ConfigError{Op: "stop", Mode: c.mode, Err: err}
		}
		c.started = false
	}
	if err := c.setModeLocked(ctx, ModeIdle); err != nil {
		return err
	}
	c.apActive = false
	c.station = nil
	return nil
}
