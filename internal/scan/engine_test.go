package scan

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/radio/sim"
)

func networks(n int) []sim.Network {
	out := make([]sim.Network, n)
	for i := range out {
		out[i] = sim.Network{
			SSID: fmt.Sprintf("net-%02d", i),
			RSSI: -30 - i,
			Auth: radio.AuthWPA2PSK,
		}
	}
	return out
}

func newEngine(t *testing.T, opts ...sim.Option) (*Engine, *radio.Controller, *sim.Driver) {
	t.Helper()
	driver := sim.New(opts...)
	t.Cleanup(driver.Close)
	ctrl := radio.NewController(driver)
	if err := ctrl.StartAccessPoint(context.Background(), radio.APConfig{SSID: "wifiprov-setup"}); err != nil {
		t.Fatalf("StartAccessPoint() error = %v", err)
	}
	return NewEngine(ctrl, nil), ctrl, driver
}

func TestScan_TruncatesToCapacityInDriverOrder(t *testing.T) {
	engine, _, _ := newEngine(t, sim.WithNetworks(networks(14)...))

	records, err := engine.Scan(context.Background(), radio.DefaultScanRequest())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(records) != Capacity {
		t.Fatalf("len(records) = %d, want %d", len(records), Capacity)
	}
	for i, r := range records {
		want := fmt.Sprintf("net-%02d", i)
		if r.SSID != want {
			t.Errorf("records[%d].SSID = %s, want %s", i, r.SSID, want)
		}
	}
}

func TestScan_FewerThanCapacity(t *testing.T) {
	engine, _, _ := newEngine(t, sim.WithNetworks(
		sim.Network{SSID: "HomeNet", RSSI: -48, Auth: radio.AuthWPA2PSK},
		sim.Network{SSID: "Cafe", RSSI: -70, Auth: radio.AuthOpen},
	))

	records, err := engine.Scan(context.Background(), radio.DefaultScanRequest())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []radio.AccessPointRecord{
		{SSID: "HomeNet", RSSI: -48, AuthMode: radio.AuthWPA2PSK},
		{SSID: "Cafe", RSSI: -70, AuthMode: radio.AuthOpen},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestScan_ZeroResultsIsEmptyNotNil(t *testing.T) {
	engine, _, _ := newEngine(t)

	records, err := engine.Scan(context.Background(), radio.DefaultScanRequest())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if records == nil {
		t.Fatal("records is nil, want empty slice")
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestScan_HiddenNetworks(t *testing.T) {
	engine, _, _ := newEngine(t, sim.WithNetworks(
		sim.Network{SSID: "Visible", RSSI: -40},
		sim.Network{SSID: "Secret", RSSI: -50, Hidden: true},
	))

	records, err := engine.Scan(context.Background(), radio.DefaultScanRequest())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[1].SSID != "" {
		t.Errorf("hidden network should be reported with empty SSID: %+v", records)
	}

	req := radio.DefaultScanRequest()
	req.ShowHidden = false
	records, err = engine.Scan(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1 without hidden", len(records))
	}
}

func TestScan_ElevatesToDual(t *testing.T) {
	engine, ctrl, _ := newEngine(t)

	if ctrl.Mode() != radio.ModeAccessPoint {
		t.Fatalf("precondition: mode = %s", ctrl.Mode())
	}
	if _, err := engine.Scan(context.Background(), radio.DefaultScanRequest()); err != nil {
		t.Fatal(err)
	}
	if ctrl.Mode() != radio.ModeDual {
		t.Errorf("Mode() = %s, want dual", ctrl.Mode())
	}
}

func TestScan_DriverFailures(t *testing.T) {
	driverErr := errors.New("ESP_ERR_WIFI_STATE")

	tests := []struct {
		name      string
		script    func(d *sim.Driver)
		wantStage Stage
	}{
		{"mode change rejected", func(d *sim.Driver) { d.FailSetMode(driverErr) }, StagePrepare},
		{"scan start rejected", func(d *sim.Driver) { d.FailScan(driverErr) }, StageScan},
		{"count unavailable", func(d *sim.Driver) { d.FailScanCount(driverErr) }, StageCount},
		{"records unavailable", func(d *sim.Driver) { d.FailScanRecords(driverErr) }, StageRecords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _, driver := newEngine(t, sim.WithNetworks(networks(3)...))
			tt.script(driver)

			records, err := engine.Scan(context.Background(), radio.DefaultScanRequest())
			if records != nil {
				t.Errorf("records = %v, want nil on failure", records)
			}
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("error = %v, want ErrUnavailable", err)
			}
			var unavailable *UnavailableError
			if !errors.As(err, &unavailable) {
				t.Fatalf("error type = %T", err)
			}
			if unavailable.Stage != tt.wantStage {
				t.Errorf("Stage = %s, want %s", unavailable.Stage, tt.wantStage)
			}
			if !errors.Is(err, driverErr) {
				t.Error("driver error not wrapped")
			}
		})
	}
}

func TestScan_NoInternalRetry(t *testing.T) {
	engine, _, driver := newEngine(t, sim.WithNetworks(networks(2)...))
	driver.FailScan(errors.New("busy"))

	if _, err := engine.Scan(context.Background(), radio.DefaultScanRequest()); err == nil {
		t.Fatal("expected error")
	}
	if driver.Scans() != 0 {
		t.Errorf("Scans() = %d, want 0 after a rejected start", driver.Scans())
	}
}

func TestScan_BoundedByContext(t *testing.T) {
	engine, _, _ := newEngine(t, sim.WithNetworks(networks(2)...), sim.WithScanDelay(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := engine.Scan(ctx, radio.DefaultScanRequest())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("scan blocked for %v", time.Since(start))
	}
}

func TestDeadline(t *testing.T) {
	if got := Deadline(radio.DefaultScanRequest()); got != 120*time.Millisecond*channelCount+deadlineGrace {
		t.Errorf("Deadline(default) = %v", got)
	}
	req := radio.ScanRequest{ActiveMax: 300 * time.Millisecond}
	if got := Deadline(req); got != 300*time.Millisecond*channelCount+deadlineGrace {
		t.Errorf("Deadline(300ms) = %v", got)
	}
}
