package radio

import "context"

// Driver is the low-level WiFi radio. Implementations wrap platform
// networking (or simulate it) and report asynchronous outcomes on Events.
//
// Connect only starts a join; the result arrives later as
// EventStationConnected/EventGotIP or EventStationDisconnected.
type Driver interface {
	SetMode(ctx context.Context, mode Mode) error
	ConfigureAccessPoint(ctx context.Context, cfg APInterfaceConfig) error
	ConfigureStation(ctx context.Context, cfg StationConfig) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Connect(ctx context.Context) error

	// Scan blocks until the scan completes or ctx is done.
	Scan(ctx context.Context, req ScanRequest) error
	// ScanResultCount returns how many networks the last scan found.
	ScanResultCount() (int, error)
	// ScanResults returns up to max records of the last scan in driver order.
	ScanResults(max int) ([]AccessPointRecord, error)

	Events() <-chan Event
}
