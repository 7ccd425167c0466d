package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
)

// Advertisement describes the portal as published over mDNS.
type Advertisement struct {
	Instance    string
	Port        int
	Version     string
	AccessPoint string
}

// TXT returns the TXT records for the advertisement.
func (a Advertisement) TXT() []string {
	txt := []string{TxtMarker + "=1", TxtPath + "=/"}
	if a.Version != "" {
		txt = append(txt, TxtVersion+"="+a.Version)
	}
	if a.AccessPoint != "" {
		txt = append(txt, TxtAccessPoint+"="+a.AccessPoint)
	}
	return txt
}

type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (*zeroconf.Server, error)

// Advertiser publishes the portal until Shutdown.
type Advertiser struct {
	register registerFunc
	server   *zeroconf.Server
}

// NewAdvertiser creates an advertiser backed by zeroconf.
func NewAdvertiser() *Advertiser {
	return &Advertiser{register: zeroconf.Register}
}

// Start registers the service on all interfaces.
func (a *Advertiser) Start(ad Advertisement) error {
	if ad.Instance == "" {
		return fmt.Errorf("mDNS instance name is required")
	}
	if ad.Port <= 0 || ad.Port > 65535 {
		return fmt.Errorf("invalid mDNS port %d", ad.Port)
	}

	server, err := a.register(ad.Instance, ServiceType, ServiceDomain, ad.Port, ad.TXT(), nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	a.server = server

	logging.Info("Advertising provisioning portal",
		zap.String("instance", ad.Instance),
		zap.String("service", ServiceType),
		zap.Int("port", ad.Port),
	)
	return nil
}

// Shutdown withdraws the advertisement.
func (a *Advertiser) Shutdown() {
	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	logging.Info("Stopped mDNS advertisement")
}

// PortFromAddr extracts the port from a listen address such as ":80".
func PortFromAddr(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return port, nil
}
