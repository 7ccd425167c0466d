package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func assertLine(t *testing.T, body, line string) {
	t.Helper()
	for _, l := range strings.Split(body, "\n") {
		if l == line {
			return
		}
	}
	t.Errorf("metrics output missing %q", line)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ScanCompleted(3, false)
	m.ScanFailed()
	m.JoinAttempt()
	m.Disconnected(201)
	m.StateChanged("a", "b", []string{"a", "b"})
	m.CredentialsRejected("missing_ssid")
	m.Handoff(true)
	m.BusConnected(true)
	m.HTTPRequest("/scan", 200)
	if m.Registry() != nil {
		t.Error("Registry() on nil should be nil")
	}
}

func TestScanCompletedTruncation(t *testing.T) {
	m := New()
	m.ScanCompleted(14, true)
	m.ScanCompleted(3, false)
	m.ScanFailed()

	body := scrape(t, m)
	assertLine(t, body, "wifiprov_scan_truncated_total 1")
	assertLine(t, body, `wifiprov_scan_total{result="success"} 2`)
	assertLine(t, body, `wifiprov_scan_total{result="error"} 1`)
}

func TestStateChangedMovesGauge(t *testing.T) {
	m := New()
	states := []string{"disconnected", "connecting", "connected", "failed"}

	m.StateChanged("disconnected", "connecting", states)
	m.StateChanged("connecting", "connected", states)

	body := scrape(t, m)
	assertLine(t, body, `wifiprov_station_state{state="connected"} 1`)
	assertLine(t, body, `wifiprov_station_state{state="connecting"} 0`)
	assertLine(t, body, `wifiprov_station_state_transitions_total{from="connecting",to="connected"} 1`)
}

func TestHandlerServesCounters(t *testing.T) {
	m := New()
	m.JoinAttempt()
	m.Disconnected(202)
	m.Handoff(false)
	m.HTTPRequest("/configure", 400)

	body := scrape(t, m)
	assertLine(t, body, "wifiprov_station_join_attempts_total 1")
	assertLine(t, body, `wifiprov_station_disconnects_total{reason="202"} 1`)
	assertLine(t, body, `wifiprov_bus_handoff_total{result="error"} 1`)
	assertLine(t, body, `wifiprov_portal_http_requests_total{code="400",path="/configure"} 1`)
}
