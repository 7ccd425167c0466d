package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Portal is a provisioning portal found on the local network.
type Portal struct {
	// Instance is the advertised service instance name (e.g., "wifiprov-lamp")
	Instance string

	// Hostname is the mDNS hostname (e.g., "lamp.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the portal's HTTP port
	Port int

	// Metadata holds the TXT records: wifiprov, path, version, ap
	Metadata map[string]string

	// DiscoveredAt is when the advertisement was received
	DiscoveredAt time.Time
}

// String returns a human-readable description of the portal
func (p *Portal) String() string {
	return fmt.Sprintf("Portal %s (%s) at %s", p.Instance, p.Hostname, net.JoinHostPort(p.IP, strconv.Itoa(p.Port)))
}

// BaseURL returns the HTTP base URL of the portal
func (p *Portal) BaseURL() string {
	return "http://" + net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
}

// AccessPoint returns the SSID of the provisioning network, if advertised.
func (p *Portal) AccessPoint() string {
	return p.GetMetadata(TxtAccessPoint)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (p *Portal) GetMetadata(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}
