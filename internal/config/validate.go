package config

import (
	"fmt"
	"net"

	"github.com/muurk/wifiprov/internal/radio"
)

// Validate checks every section and returns all problems found.
func (c *Config) Validate() []error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Version != CurrentVersion {
		add("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}

	ap := c.AccessPoint
	if ap.SSID == "" {
		add("access_point.ssid is required")
	} else if len(ap.SSID) > radio.MaxSSIDLength {
		add("access_point.ssid is %d bytes (max %d)", len(ap.SSID), radio.MaxSSIDLength)
	}
	if ap.Password != "" && (len(ap.Password) < 8 || len(ap.Password) > radio.MaxPassphraseLength) {
		add("access_point.password must be 8-%d characters or empty", radio.MaxPassphraseLength)
	}
	if ap.Channel < 1 || ap.Channel > 13 {
		add("access_point.channel %d out of range (1-13)", ap.Channel)
	}
	if ap.MaxClients < 1 || ap.MaxClients > 10 {
		add("access_point.max_clients %d out of range (1-10)", ap.MaxClients)
	}

	if _, _, err := net.SplitHostPort(c.Portal.Listen); err != nil {
		add("portal.listen %q: %v", c.Portal.Listen, err)
	}

	if c.Scan.ActiveMinMS < 0 || c.Scan.ActiveMaxMS < 0 {
		add("scan dwell times must not be negative")
	} else if c.Scan.ActiveMaxMS < c.Scan.ActiveMinMS {
		add("scan.active_max_ms (%d) is less than active_min_ms (%d)", c.Scan.ActiveMaxMS, c.Scan.ActiveMinMS)
	}

	if c.Station.MaxRetries < 0 {
		add("station.max_retries must not be negative")
	}

	if c.Bus.BrokerURL != "" {
		if err := c.BusConfig().WithDefaults().Validate(); err != nil {
			add("bus: %v", err)
		}
	}

	if c.Driver.Kind != "sim" {
		add("driver.kind %q is not supported (available: sim)", c.Driver.Kind)
	}
	for _, n := range c.Driver.Networks {
		if n.SSID == "" {
			add("driver.networks: ssid is required")
			continue
		}
		if _, err := n.AuthMode(); err != nil {
			add("driver.networks: %v", err)
		}
	}

	return errs
}
