package config

import (
	"fmt"
	"time"

	"github.com/muurk/wifiprov/internal/bus"
	"github.com/muurk/wifiprov/internal/radio"
)

// CurrentVersion is the only supported config file version.
const CurrentVersion = 1

// Config is the wifiprov configuration file.
type Config struct {
	Version     int               `yaml:"version"`
	LogLevel    string            `yaml:"log_level,omitempty"`
	AccessPoint AccessPointConfig `yaml:"access_point"`
	Portal      PortalConfig      `yaml:"portal"`
	Scan        ScanConfig        `yaml:"scan"`
	Station     StationConfig     `yaml:"station"`
	Bus         BusConfig         `yaml:"bus"`
	Driver      DriverConfig      `yaml:"driver"`
	Client      ClientConfig      `yaml:"client,omitempty"`
}

// AccessPointConfig is the provisioning network the device serves.
type AccessPointConfig struct {
	SSID       string `yaml:"ssid"`
	Password   string `yaml:"password,omitempty"` // empty means open
	Channel    int    `yaml:"channel"`
	MaxClients int    `yaml:"max_clients"`
}

// PortalConfig controls the HTTP portal and its mDNS advertisement.
type PortalConfig struct {
	Listen    string `yaml:"listen"`
	PagePath  string `yaml:"page_path,omitempty"`
	Advertise bool   `yaml:"advertise"`
	Instance  string `yaml:"instance,omitempty"`
}

// ScanConfig holds the per-channel dwell of portal scans.
type ScanConfig struct {
	ShowHidden  bool `yaml:"show_hidden"`
	ActiveMinMS int  `yaml:"active_min_ms"`
	ActiveMaxMS int  `yaml:"active_max_ms"`
}

// StationConfig tunes the connection supervisor.
type StationConfig struct {
	MaxRetries int `yaml:"max_retries"`
}

// BusConfig is the message broker started once the device is online.
type BusConfig struct {
	BrokerURL string `yaml:"broker_url"`
	Port      int    `yaml:"port"`
	ClientID  string `yaml:"client_id,omitempty"`
	Username  string `yaml:"username,omitempty"`
	Password  string `yaml:"password,omitempty"`
	TopicBase string `yaml:"topic_base"`
	QoS       int    `yaml:"qos"`
}

// DriverConfig selects the radio driver. Only "sim" is built in.
type DriverConfig struct {
	Kind     string       `yaml:"kind"`
	Networks []SimNetwork `yaml:"networks,omitempty"`
}

// SimNetwork is an upstream network visible to the simulated radio.
type SimNetwork struct {
	SSID     string `yaml:"ssid"`
	RSSI     int    `yaml:"rssi"`
	Auth     string `yaml:"auth"` // radio.AuthMode name, e.g. WPA2_PSK
	Password string `yaml:"password,omitempty"`
	Hidden   bool   `yaml:"hidden,omitempty"`
	IP       string `yaml:"ip,omitempty"`
}

// ClientConfig holds wifiprov-cfg preferences.
type ClientConfig struct {
	Portal          string    `yaml:"portal,omitempty"` // last used portal URL
	LastSeen        time.Time `yaml:"last_seen,omitempty"`
	DiscoverTimeout int       `yaml:"discover_timeout,omitempty"` // seconds
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:  CurrentVersion,
		LogLevel: "info",
		AccessPoint: AccessPointConfig{
			SSID:       "wifiprov-setup",
			Channel:    1,
			MaxClients: 4,
		},
		Portal: PortalConfig{
			Listen:    ":80",
			Advertise: true,
			Instance:  "wifiprov",
		},
		Scan: ScanConfig{
			ShowHidden:  true,
			ActiveMinMS: 0,
			ActiveMaxMS: 100,
		},
		Station: StationConfig{MaxRetries: 5},
		Bus: BusConfig{
			BrokerURL: "mqtt://mqtt.eclipseprojects.io",
			Port:      bus.DefaultPort,
			TopicBase: bus.DefaultTopicBase,
			QoS:       bus.DefaultQoS,
		},
		Driver: DriverConfig{Kind: "sim"},
		Client: ClientConfig{DiscoverTimeout: 5},
	}
}

// APConfig converts the access_point section.
func (c *Config) APConfig() radio.APConfig {
	return radio.APConfig{
		SSID:       c.AccessPoint.SSID,
		Password:   c.AccessPoint.Password,
		Channel:    c.AccessPoint.Channel,
		MaxClients: c.AccessPoint.MaxClients,
	}
}

// ScanRequest converts the scan section.
func (c *Config) ScanRequest() radio.ScanRequest {
	return radio.ScanRequest{
		ShowHidden: c.Scan.ShowHidden,
		ActiveMin:  time.Duration(c.Scan.ActiveMinMS) * time.Millisecond,
		ActiveMax:  time.Duration(c.Scan.ActiveMaxMS) * time.Millisecond,
	}
}

// BusConfig converts the bus section.
func (c *Config) BusConfig() bus.Config {
	return bus.Config{
		BrokerURL: c.Bus.BrokerURL,
		Port:      c.Bus.Port,
		ClientID:  c.Bus.ClientID,
		Username:  c.Bus.Username,
		Password:  c.Bus.Password,
		TopicBase: c.Bus.TopicBase,
		QoS:       byte(c.Bus.QoS),
	}
}

// AuthMode parses the network's auth mode name. Empty means open.
func (n SimNetwork) AuthMode() (radio.AuthMode, error) {
	if n.Auth == "" {
		return radio.AuthOpen, nil
	}
	mode, err := radio.ParseAuthMode(n.Auth)
	if err != nil {
		return 0, fmt.Errorf("network %q: %w", n.SSID, err)
	}
	return mode, nil
}
