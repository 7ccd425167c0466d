package supervisor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/radio/sim"
)

func runWithSim(t *testing.T, driver *sim.Driver) (*Supervisor, *radio.Controller, func() []ConnectedEvent) {
	t.Helper()
	ctrl := radio.NewController(driver)
	if err := ctrl.StartAccessPoint(context.Background(), radio.APConfig{SSID: "wifiprov-setup", Channel: 1, MaxClients: 4}); err != nil {
		t.Fatalf("StartAccessPoint() error = %v", err)
	}

	sup := New(ctrl)
	var mu sync.Mutex
	var events []ConnectedEvent
	sup.RegisterConnectedHandler(func(_ context.Context, ev ConnectedEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sup.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		driver.Close()
	})

	return sup, ctrl, func() []ConnectedEvent {
		mu.Lock()
		defer mu.Unlock()
		return append([]ConnectedEvent(nil), events...)
	}
}

func waitStatus(t *testing.T, sup *Supervisor, cond func(Status) bool) Status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := sup.Snapshot(); cond(st) {
			return st
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met, last status %+v", sup.Snapshot())
	return Status{}
}

func TestScenario_HomeNetJoin(t *testing.T) {
	driver := sim.New(sim.WithNetworks(
		sim.Network{SSID: "HomeNet", RSSI: -48, Auth: radio.AuthWPA2PSK, Password: "secret123", IP: "192.168.1.42"},
	))
	sup, ctrl, connected := runWithSim(t, driver)

	if err := sup.SubmitCredentials(context.Background(), Credentials{SSID: "HomeNet", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}

	st := waitStatus(t, sup, func(s Status) bool { return s.State == StateConnected })
	if st.IP != "192.168.1.42" || st.RetryCount != 0 {
		t.Errorf("status = %+v", st)
	}
	if ctrl.Mode() != radio.ModeDual {
		t.Errorf("Mode() = %s, want dual while the AP serves", ctrl.Mode())
	}

	deadline := time.Now().Add(time.Second)
	for len(connected()) == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if got := connected(); len(got) != 1 || got[0].SSID != "HomeNet" {
		t.Errorf("connected events = %+v", got)
	}
}

func TestScenario_WrongPasswordFailsAfterSixJoins(t *testing.T) {
	driver := sim.New(sim.WithNetworks(
		sim.Network{SSID: "HomeNet", Auth: radio.AuthWPA2PSK, Password: "secret123"},
	))
	sup, _, connected := runWithSim(t, driver)

	if err := sup.SubmitCredentials(context.Background(), Credentials{SSID: "HomeNet", Password: "nope"}); err != nil {
		t.Fatal(err)
	}

	st := waitStatus(t, sup, func(s Status) bool { return s.State == StateFailed })
	if st.RetryCount != DefaultMaxRetries {
		t.Errorf("RetryCount = %d", st.RetryCount)
	}
	if driver.Connects() != DefaultMaxRetries+1 {
		t.Errorf("Connects() = %d, want %d", driver.Connects(), DefaultMaxRetries+1)
	}
	if len(connected()) != 0 {
		t.Error("handler fired for a failed join")
	}
}

func TestScenario_TransientFailuresThenConnect(t *testing.T) {
	driver := sim.New(sim.WithNetworks(
		sim.Network{SSID: "HomeNet", Auth: radio.AuthWPA2PSK, Password: "secret123"},
	))
	driver.FailJoins("HomeNet", 3)
	sup, _, _ := runWithSim(t, driver)

	if err := sup.SubmitCredentials(context.Background(), Credentials{SSID: "HomeNet", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}

	st := waitStatus(t, sup, func(s Status) bool { return s.State == StateConnected })
	if st.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0 once connected", st.RetryCount)
	}
	if driver.Connects() != 4 {
		t.Errorf("Connects() = %d, want 4", driver.Connects())
	}
}

func TestScenario_LinkDropReconnects(t *testing.T) {
	driver := sim.New(sim.WithNetworks(
		sim.Network{SSID: "HomeNet", Auth: radio.AuthWPA2PSK, Password: "secret123"},
	))
	sup, _, connected := runWithSim(t, driver)

	if err := sup.SubmitCredentials(context.Background(), Credentials{SSID: "HomeNet", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}
	waitStatus(t, sup, func(s Status) bool { return s.State == StateConnected })

	driver.DropLink(radio.ReasonBeaconTimeout)

	deadline := time.Now().Add(2 * time.Second)
	for len(connected()) < 2 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if n := len(connected()); n != 2 {
		t.Fatalf("handler invocations = %d, want 2", n)
	}
	if st := sup.Snapshot(); st.State != StateConnected || st.RetryCount != 0 {
		t.Errorf("status = %+v", st)
	}
}
