package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/wifiprov/internal/radio"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS == "linux" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	}
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if filepath.Base(configDir) != "wifiprov" {
		t.Errorf("GetConfigDir() = %v, should end in 'wifiprov'", configDir)
	}
	if runtime.GOOS == "linux" && configDir != "/tmp/xdg/wifiprov" {
		t.Errorf("GetConfigDir() = %v, want XDG_CONFIG_HOME based path", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v", errs)
	}
	if cfg.Station.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.Station.MaxRetries)
	}
	if cfg.ScanRequest() != radio.DefaultScanRequest() {
		t.Errorf("ScanRequest() = %+v, want %+v", cfg.ScanRequest(), radio.DefaultScanRequest())
	}
}

func TestLoad_MergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `version: 1
access_point:
  ssid: lamp-setup
  password: provision-me
bus:
  broker_url: tcp://10.0.0.2
  username: lamp
driver:
  kind: sim
  networks:
    - ssid: HomeNet
      rssi: -48
      auth: WPA2_PSK
      password: secret123
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AccessPoint.SSID != "lamp-setup" || cfg.AccessPoint.Channel != 1 {
		t.Errorf("access_point = %+v", cfg.AccessPoint)
	}
	if cfg.Portal.Listen != ":80" {
		t.Errorf("portal.listen = %q, want default", cfg.Portal.Listen)
	}
	bc := cfg.BusConfig()
	if bc.BrokerURL != "tcp://10.0.0.2" || bc.Username != "lamp" || bc.Port != 1883 || bc.QoS != 1 {
		t.Errorf("BusConfig() = %+v", bc)
	}
	if len(cfg.Driver.Networks) != 1 {
		t.Fatalf("networks = %+v", cfg.Driver.Networks)
	}
	if mode, err := cfg.Driver.Networks[0].AuthMode(); err != nil || mode != radio.AuthWPA2PSK {
		t.Errorf("AuthMode() = %v, %v", mode, err)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Validate() = %v", errs)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("explicit missing path should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("access_point: [oops"), 0600)
	if _, err := Load(bad); err == nil {
		t.Error("malformed YAML should fail")
	}

	v2 := filepath.Join(dir, "v2.yaml")
	_ = os.WriteFile(v2, []byte("version: 2\n"), 0600)
	if _, err := Load(v2); err == nil || !strings.Contains(err.Error(), "unsupported config version") {
		t.Errorf("Load(v2) error = %v", err)
	}
}

func TestLoad_DefaultPathMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	if runtime.GOOS == "windows" {
		t.Setenv("LOCALAPPDATA", t.TempDir())
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AccessPoint.SSID != Default().AccessPoint.SSID {
		t.Errorf("expected defaults, got %+v", cfg.AccessPoint)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty ap ssid", func(c *Config) { c.AccessPoint.SSID = "" }, "access_point.ssid is required"},
		{"long ap ssid", func(c *Config) { c.AccessPoint.SSID = strings.Repeat("a", 33) }, "access_point.ssid is 33 bytes"},
		{"short ap password", func(c *Config) { c.AccessPoint.Password = "short" }, "access_point.password"},
		{"channel", func(c *Config) { c.AccessPoint.Channel = 14 }, "access_point.channel 14"},
		{"max clients", func(c *Config) { c.AccessPoint.MaxClients = 0 }, "access_point.max_clients 0"},
		{"listen", func(c *Config) { c.Portal.Listen = "80" }, "portal.listen"},
		{"dwell order", func(c *Config) { c.Scan.ActiveMinMS = 200 }, "scan.active_max_ms"},
		{"retries", func(c *Config) { c.Station.MaxRetries = -1 }, "station.max_retries"},
		{"bus scheme", func(c *Config) { c.Bus.BrokerURL = "http://broker" }, "bus: unsupported broker scheme"},
		{"bus qos", func(c *Config) { c.Bus.QoS = 3 }, "bus: qos 3"},
		{"driver", func(c *Config) { c.Driver.Kind = "esp32" }, `driver.kind "esp32"`},
		{"network auth", func(c *Config) {
			c.Driver.Networks = []SimNetwork{{SSID: "HomeNet", Auth: "WPA9"}}
		}, `unknown auth mode "WPA9"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() = %v, want exactly one error", errs)
			}
			if !strings.Contains(errs[0].Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", errs[0], tt.want)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Client.Portal = "http://192.168.4.1"
	cfg.Client.LastSeen = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Client.Portal != cfg.Client.Portal || !loaded.Client.LastSeen.Equal(cfg.Client.LastSeen) {
		t.Errorf("client = %+v, want %+v", loaded.Client, cfg.Client)
	}
}
