package portalclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/supervisor"
)

func newTestClient(url string) *Client {
	c := New(url)
	c.RetryDelay = time.Millisecond
	c.MaxRetryDelay = 2 * time.Millisecond
	c.SetTimeout(2 * time.Second)
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"192.168.4.1", "http://192.168.4.1"},
		{"192.168.4.1:8080", "http://192.168.4.1:8080"},
		{"http://portal.local/", "http://portal.local"},
		{"https://portal.local", "https://portal.local"},
	}
	for _, tt := range tests {
		if got := New(tt.in).BaseURL; got != tt.want {
			t.Errorf("New(%q).BaseURL = %q, want %q", tt.in, got, tt.want)
		}
	}

	c := New("192.168.4.1")
	if c.HTTPClient.Timeout != DefaultTimeout || c.MaxRetries != DefaultMaxRetries {
		t.Errorf("defaults = %v/%d", c.HTTPClient.Timeout, c.MaxRetries)
	}
}

func TestScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/scan" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"status":"success","networks":[{"ssid":"HomeNet","rssi":-48,"authmode":3},{"ssid":"Cafe","rssi":-70,"authmode":0}]}`)
	}))
	defer srv.Close()

	nets, err := newTestClient(srv.URL).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(nets) != 2 {
		t.Fatalf("got %d networks, want 2", len(nets))
	}
	if nets[0].SSID != "HomeNet" || nets[0].RSSI != -48 || nets[0].AuthMode != radio.AuthWPA2PSK {
		t.Errorf("nets[0] = %+v", nets[0])
	}
	if nets[1].AuthMode != radio.AuthOpen {
		t.Errorf("nets[1].AuthMode = %v", nets[1].AuthMode)
	}
}

func TestScan_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","networks":[]}`)
	}))
	defer srv.Close()

	nets, err := newTestClient(srv.URL).Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if nets == nil || len(nets) != 0 {
		t.Errorf("Scan() = %#v, want empty non-nil slice", nets)
	}
}

func TestScan_RadioError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","message":"Failed to get AP count"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Scan(context.Background())
	pe, ok := err.(*PortalError)
	if !ok {
		t.Fatalf("Scan() error = %T %v, want *PortalError", err, err)
	}
	if pe.Type != ErrTypeScan || pe.Message != "Failed to get AP count" {
		t.Errorf("error = %+v", pe)
	}
	if IsRetryable(err) {
		t.Error("scan errors are reported, not retried")
	}
}

func TestScan_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"success","networks":[]}`)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestScan_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.MaxRetries = 1
	_, err := c.Scan(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestScan_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Scan(context.Background())
	pe, ok := err.(*PortalError)
	if !ok || pe.Type != ErrTypeParse {
		t.Errorf("error = %v, want parse error", err)
	}
}

func TestScan_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(url)
	c.MaxRetries = 0
	_, err := c.Scan(context.Background())
	if !IsNetworkError(err) {
		t.Fatalf("error = %v, want network error", err)
	}
	if TroubleshootingHint(err) == "" {
		t.Error("missing hint")
	}
}

func TestConfigure(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/configure" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = io.WriteString(w, `{"status":"success","message":"WiFi configuration submitted, connecting..."}`)
	}))
	defer srv.Close()

	msg, err := newTestClient(srv.URL).Configure(context.Background(), "HomeNet", "secret123")
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if msg != "WiFi configuration submitted, connecting..." {
		t.Errorf("message = %q", msg)
	}
	if got["ssid"] != "HomeNet" || got["password"] != "secret123" {
		t.Errorf("payload = %v", got)
	}
}

func TestConfigure_Rejected(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "Invalid credentials", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Configure(context.Background(), "HomeNet", "")
	if !IsRejected(err) {
		t.Fatalf("error = %v, want rejected", err)
	}
	if pe := err.(*PortalError); pe.Message != "Invalid credentials" || pe.StatusCode != 400 {
		t.Errorf("error = %+v", pe)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, configure must not be retried", n)
	}
}

func TestConfigure_NotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "Provisioning unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Configure(context.Background(), "HomeNet", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestConfigure_ValidatesLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for _, tc := range []struct{ ssid, password string }{
		{"", "secret123"},
		{strings.Repeat("s", 33), ""},
		{"HomeNet", strings.Repeat("p", 65)},
		// within radio limits but over the portal's body cap once quoted
		{strings.Repeat("\"", 32), strings.Repeat("\"", 64)},
	} {
		if _, err := c.Configure(context.Background(), tc.ssid, tc.password); !IsValidationError(err) {
			t.Errorf("Configure(%d bytes, %d bytes) error = %v, want validation error", len(tc.ssid), len(tc.password), err)
		}
	}
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"state":"connected","ssid":"HomeNet","retry_count":0,"max_retries":5,"ip":"192.168.1.50","updated_at":"2026-01-02T03:04:05Z"}`)
	}))
	defer srv.Close()

	st, err := newTestClient(srv.URL).Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.State != supervisor.StateConnected || st.IP != "192.168.1.50" || st.MaxRetries != 5 {
		t.Errorf("Status() = %+v", st)
	}
}

func TestWaitForState(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := "connecting"
		if atomic.AddInt32(&calls, 1) >= 3 {
			state = "connected"
		}
		_, _ = io.WriteString(w, `{"state":"`+state+`","retry_count":0,"max_retries":5}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st, err := newTestClient(srv.URL).WaitForState(ctx, time.Millisecond, func(s supervisor.Status) bool {
		return s.State == supervisor.StateConnected
	})
	if err != nil {
		t.Fatalf("WaitForState() error = %v", err)
	}
	if st.State != supervisor.StateConnected {
		t.Errorf("state = %s", st.State)
	}
}

func TestWaitForState_ContextDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"state":"connecting","retry_count":2,"max_retries":5}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	st, err := newTestClient(srv.URL).WaitForState(ctx, 5*time.Millisecond, func(s supervisor.Status) bool {
		return s.State == supervisor.StateConnected
	})
	if err != context.DeadlineExceeded {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
	if st.RetryCount != 2 {
		t.Errorf("last status = %+v", st)
	}
}

func TestWatch(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, s := range []supervisor.State{supervisor.StateConnecting, supervisor.StateConnected} {
			if err := conn.WriteJSON(supervisor.Status{State: s, SSID: "HomeNet"}); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, err := newTestClient(srv.URL).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	var states []supervisor.State
	for st := range ch {
		states = append(states, st.State)
	}
	if len(states) != 2 || states[0] != supervisor.StateConnecting || states[1] != supervisor.StateConnected {
		t.Errorf("states = %v", states)
	}
}

func TestWatch_UpgradeRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestClient(srv.URL).Watch(context.Background())
	pe, ok := err.(*PortalError)
	if !ok || pe.StatusCode != http.StatusNotFound {
		t.Errorf("error = %v, want 404 PortalError", err)
	}
}
