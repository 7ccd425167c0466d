// Package sim provides an in-memory radio driver.
//
// The simulated radio has a fixed set of visible networks. Joining a
// network succeeds when the SSID is known and the passphrase matches,
// emitting station_connected and got_ip; otherwise it emits
// station_disconnected with a driver reason code. Failures can be scripted
// per operation for tests.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/muurk/wifiprov/internal/radio"
)

// Network is a simulated upstream access point.
type Network struct {
	SSID     string
	RSSI     int
	Auth     radio.AuthMode
	Password string
	Hidden   bool
	// IP is the address handed out on join; one is generated when empty.
	IP string
}

// Driver implements radio.Driver in memory.
type Driver struct {
	mu       sync.Mutex
	mode     radio.Mode
	started  bool
	ap       radio.APInterfaceConfig
	station  radio.StationConfig
	networks []Network
	lastScan []radio.AccessPointRecord

	scanDelay time.Duration
	nextHost  int

	// scripted failures
	setModeErr  error
	startErr    error
	connectErr  error
	scanErr     error
	countErr    error
	recordsErr  error
	joinFailing map[string]int

	// call accounting
	connects int
	scans    int
	modes    []radio.Mode

	queue  []radio.Event
	wake   chan struct{}
	events chan radio.Event
	done   chan struct{}
	closed bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithNetworks sets the visible networks in the order a scan reports them.
func WithNetworks(networks ...Network) Option {
	return func(d *Driver) {
		d.networks = append([]Network(nil), networks...)
	}
}

// WithScanDelay makes every scan take at least delay.
func WithScanDelay(delay time.Duration) Option {
	return func(d *Driver) {
		d.scanDelay = delay
	}
}

// New creates a simulated driver and starts its event pump. Call Close
// to stop the pump.
func New(opts ...Option) *Driver {
	d := &Driver{
		mode:        radio.ModeIdle,
		joinFailing: make(map[string]int),
		wake:        make(chan struct{}, 1),
		events:      make(chan radio.Event),
		done:        make(chan struct{}),
		nextHost:    100,
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.pump()
	return d
}

// pump forwards queued events in order without ever blocking driver calls.
func (d *Driver) pump() {
	defer close(d.events)
	for {
		d.mu.Lock()
		var next *radio.Event
		if len(d.queue) > 0 {
			ev := d.queue[0]
			d.queue = d.queue[1:]
			next = &ev
		}
		d.mu.Unlock()

		if next == nil {
			select {
			case <-d.wake:
				continue
			case <-d.done:
				return
			}
		}

		select {
		case d.events <- *next:
		case <-d.done:
			return
		}
	}
}

func (d *Driver) emitLocked(ev radio.Event) {
	if d.closed {
		return
	}
	ev.Time = time.Now()
	d.queue = append(d.queue, ev)
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close stops the event pump and closes the event channel.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.done)
}

// Events implements radio.Driver.
func (d *Driver) Events() <-chan radio.Event {
	return d.events
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// SetMode implements radio.Driver.
func (d *Driver) SetMode(ctx context.Context, mode radio.Mode) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setModeErr; err != nil {
		d.setModeErr = nil
		return err
	}

	prev := d.mode
	d.mode = mode
	d.modes = append(d.modes, mode)

	if d.started {
		if mode.HasStation() && !prev.HasStation() {
			d.emitLocked(radio.Event{Kind: radio.EventStationStarted})
		}
		if mode.HasAccessPoint() && !prev.HasAccessPoint() {
			d.emitLocked(radio.Event{Kind: radio.EventAccessPointStarted})
		}
		if !mode.HasAccessPoint() && prev.HasAccessPoint() {
			d.emitLocked(radio.Event{Kind: radio.EventAccessPointStopped})
		}
	}
	return nil
}

// ConfigureAccessPoint implements radio.Driver.
func (d *Driver) ConfigureAccessPoint(ctx context.Context, cfg radio.APInterfaceConfig) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if cfg.SSID == "" || len(cfg.SSID) > radio.MaxSSIDLength {
		return fmt.Errorf("invalid AP ssid length %d", len(cfg.SSID))
	}
	if cfg.Password != "" && len(cfg.Password) < 8 {
		return errors.New("AP passphrase shorter than 8 bytes")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.mode.HasAccessPoint() {
		return fmt.Errorf("AP interface not enabled in mode %s", d.mode)
	}
	d.ap = cfg
	return nil
}

// ConfigureStation implements radio.Driver.
func (d *Driver) ConfigureStation(ctx context.Context, cfg radio.StationConfig) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.mode.HasStation() {
		return fmt.Errorf("station interface not enabled in mode %s", d.mode)
	}
	d.station = cfg
	return nil
}

// Start implements radio.Driver.
func (d *Driver) Start(ctx context.Context) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.startErr; err != nil {
		d.startErr = nil
		return err
	}
	if d.started {
		return nil
	}
	d.started = true
	if d.mode.HasAccessPoint() {
		d.emitLocked(radio.Event{Kind: radio.EventAccessPointStarted})
	}
	if d.mode.HasStation() {
		d.emitLocked(radio.Event{Kind: radio.EventStationStarted})
	}
	return nil
}

// Stop implements radio.Driver.
func (d *Driver) Stop(ctx context.Context) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started && d.mode.HasAccessPoint() {
		d.emitLocked(radio.Event{Kind: radio.EventAccessPointStopped})
	}
	d.started = false
	return nil
}

// Connect implements radio.Driver. The outcome is emitted asynchronously.
func (d *Driver) Connect(ctx context.Context) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return errors.New("wifi not started")
	}
	if err := d.connectErr; err != nil {
		d.connectErr = nil
		return err
	}
	d.connects++

	ssid := d.station.SSID
	if n := d.joinFailing[ssid]; n > 0 {
		d.joinFailing[ssid] = n - 1
		d.emitLocked(radio.Event{Kind: radio.EventStationDisconnected, SSID: ssid, Reason: radio.ReasonConnectionFail})
		return nil
	}

	network, ok := d.findLocked(ssid)
	if !ok {
		d.emitLocked(radio.Event{Kind: radio.EventStationDisconnected, SSID: ssid, Reason: radio.ReasonNoAPFound})
		return nil
	}
	if network.Auth != radio.AuthOpen && network.Password != d.station.Password {
		d.emitLocked(radio.Event{Kind: radio.EventStationDisconnected, SSID: ssid, Reason: radio.ReasonAuthFail})
		return nil
	}

	ip := network.IP
	if ip == "" {
		ip = fmt.Sprintf("192.168.1.%d", d.nextHost)
		d.nextHost++
	}
	d.emitLocked(radio.Event{Kind: radio.EventStationConnected, SSID: ssid})
	d.emitLocked(radio.Event{Kind: radio.EventGotIP, SSID: ssid, IP: ip, Netmask: "255.255.255.0", Gateway: "192.168.1.1"})
	return nil
}

func (d *Driver) findLocked(ssid string) (Network, bool) {
	for _, n := range d.networks {
		if n.SSID == ssid {
			return n, true
		}
	}
	return Network{}, false
}

// Scan implements radio.Driver.
func (d *Driver) Scan(ctx context.Context, req radio.ScanRequest) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return errors.New("wifi not started")
	}
	if !d.mode.HasStation() {
		d.mu.Unlock()
		return fmt.Errorf("scan not allowed in mode %s", d.mode)
	}
	if err := d.scanErr; err != nil {
		d.scanErr = nil
		d.mu.Unlock()
		return err
	}
	delay := d.scanDelay
	d.scans++
	d.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	} else if err := checkContext(ctx); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	records := make([]radio.AccessPointRecord, 0, len(d.networks))
	for _, n := range d.networks {
		ssid := n.SSID
		if n.Hidden {
			if !req.ShowHidden {
				continue
			}
			ssid = ""
		}
		records = append(records, radio.AccessPointRecord{SSID: ssid, RSSI: n.RSSI, AuthMode: n.Auth})
	}
	d.lastScan = records
	return nil
}

// ScanResultCount implements radio.Driver.
func (d *Driver) ScanResultCount() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.countErr; err != nil {
		d.countErr = nil
		return 0, err
	}
	return len(d.lastScan), nil
}

// ScanResults implements radio.Driver.
func (d *Driver) ScanResults(max int) ([]radio.AccessPointRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.recordsErr; err != nil {
		d.recordsErr = nil
		return nil, err
	}
	n := len(d.lastScan)
	if max < n {
		n = max
	}
	out := make([]radio.AccessPointRecord, n)
	copy(out, d.lastScan[:n])
	return out, nil
}
