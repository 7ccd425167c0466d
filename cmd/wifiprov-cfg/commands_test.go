package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/muurk/wifiprov/internal/config"
	"github.com/muurk/wifiprov/internal/portalclient"
	"github.com/muurk/wifiprov/internal/supervisor"
)

func TestOutcome(t *testing.T) {
	st := func(state supervisor.State, ssid string) supervisor.Status {
		return supervisor.Status{State: state, SSID: ssid}
	}

	tests := []struct {
		name    string
		updates []supervisor.Status
		want    bool
	}{
		{"connected", []supervisor.Status{st(supervisor.StateConnecting, "HomeNet"), st(supervisor.StateConnected, "HomeNet")}, true},
		{"failed after connecting", []supervisor.Status{st(supervisor.StateConnecting, "HomeNet"), st(supervisor.StateFailed, "HomeNet")}, true},
		{"stale failure", []supervisor.Status{st(supervisor.StateFailed, "HomeNet")}, false},
		{"other network", []supervisor.Status{st(supervisor.StateConnecting, "Cafe"), st(supervisor.StateConnected, "Cafe")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &outcome{ssid: "HomeNet"}
			var done bool
			for _, u := range tt.updates {
				done = o.done(u)
			}
			if done != tt.want {
				t.Errorf("done = %v, want %v", done, tt.want)
			}
		})
	}
}

func TestWaitForConnection_Stream(t *testing.T) {
	updates := make(chan supervisor.Status, 4)
	updates <- supervisor.Status{State: supervisor.StateFailed, SSID: "HomeNet"}
	updates <- supervisor.Status{State: supervisor.StateConnecting, SSID: "HomeNet"}
	updates <- supervisor.Status{State: supervisor.StateConnected, SSID: "HomeNet", IP: "192.168.1.50"}
	close(updates)

	st, err := waitForConnection(context.Background(), nil, "HomeNet", updates, true)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != supervisor.StateConnected || st.IP != "192.168.1.50" {
		t.Errorf("final = %+v", st)
	}
}

func TestWaitForConnection_Polling(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := "connecting"
		if atomic.AddInt32(&calls, 1) > 2 {
			state = "failed"
		}
		_, _ = io.WriteString(w, `{"state":"`+state+`","ssid":"HomeNet","retry_count":5,"max_retries":5,"last_reason":201}`)
	}))
	defer srv.Close()

	st, err := waitForConnection(context.Background(), portalclient.New(srv.URL), "HomeNet", nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != supervisor.StateFailed || st.LastReason != 201 {
		t.Errorf("final = %+v", st)
	}
}

func TestResolvePortal(t *testing.T) {
	cfg := config.Default()
	cfg.Client.Portal = "http://192.168.4.1:80"

	got, err := resolvePortal(context.Background(), cfg)
	if err != nil || got != "http://192.168.4.1:80" {
		t.Errorf("resolvePortal() = %q, %v", got, err)
	}

	portalURL = "10.0.0.5:8080"
	defer func() { portalURL = "" }()
	if got, _ := resolvePortal(context.Background(), cfg); got != "10.0.0.5:8080" {
		t.Errorf("--portal should win, got %q", got)
	}
}
