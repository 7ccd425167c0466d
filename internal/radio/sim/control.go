package sim

import "github.com/muurk/wifiprov/internal/radio"

// Scripting and inspection helpers. Each Fail* error is returned once.

// SetNetworks replaces the visible networks.
func (d *Driver) SetNetworks(networks ...Network) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.networks = append([]Network(nil), networks...)
}

// FailSetMode makes the next SetMode call fail with err.
func (d *Driver) FailSetMode(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setModeErr = err
}

// FailStart makes the next Start call fail with err.
func (d *Driver) FailStart(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.startErr = err
}

// FailConnect makes the next Connect call fail synchronously with err.
func (d *Driver) FailConnect(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connectErr = err
}

// FailScan makes the next Scan call fail with err.
func (d *Driver) FailScan(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanErr = err
}

// FailScanCount makes the next ScanResultCount call fail with err.
func (d *Driver) FailScanCount(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.countErr = err
}

// FailScanRecords makes the next ScanResults call fail with err.
func (d *Driver) FailScanRecords(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordsErr = err
}

// FailJoins makes the next n join attempts to ssid end in a disconnect.
func (d *Driver) FailJoins(ssid string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.joinFailing[ssid] = n
}

// DropLink simulates losing the upstream association.
func (d *Driver) DropLink(reason int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emitLocked(radio.Event{Kind: radio.EventStationDisconnected, SSID: d.station.SSID, Reason: reason})
}

// AssociateClient simulates a device joining the provisioning AP.
func (d *Driver) AssociateClient(mac string, aid int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emitLocked(radio.Event{Kind: radio.EventClientAssociated, MAC: mac, AID: aid})
}

// DisassociateClient simulates a device leaving the provisioning AP.
func (d *Driver) DisassociateClient(mac string, aid int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emitLocked(radio.Event{Kind: radio.EventClientDisassociated, MAC: mac, AID: aid})
}

// Inject queues an arbitrary event.
func (d *Driver) Inject(ev radio.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emitLocked(ev)
}

// Connects returns how many Connect calls were accepted.
func (d *Driver) Connects() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connects
}

// Scans returns how many scans ran.
func (d *Driver) Scans() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scans
}

// Mode returns the driver's current mode.
func (d *Driver) Mode() radio.Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// ModeHistory returns every mode passed to SetMode, in order.
func (d *Driver) ModeHistory() []radio.Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]radio.Mode(nil), d.modes...)
}

// AccessPoint returns the last AP configuration.
func (d *Driver) AccessPoint() radio.APInterfaceConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ap
}

// Station returns the last station configuration.
func (d *Driver) Station() radio.StationConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.station
}

var _ radio.Driver = (*Driver)(nil)
