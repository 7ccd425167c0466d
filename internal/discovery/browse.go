package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type portals advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for portal discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an advertisement carries no port
	DefaultPort = 80
)

// TXT record keys. Only services carrying TxtMarker are portals.
const (
	TxtMarker      = "wifiprov"
	TxtPath        = "path"
	TxtVersion     = "version"
	TxtAccessPoint = "ap"
)

// Scanner finds provisioning portals over mDNS.
type Scanner struct {
	// Timeout is the maximum time to wait for advertisements
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan collects every portal that answers within the timeout.
func (s *Scanner) Scan(ctx context.Context) ([]*Portal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var mu sync.Mutex
	seen := make(map[string]bool)
	portals := make([]*Portal, 0)

	err := s.browse(ctx, func(p *Portal) bool {
		mu.Lock()
		defer mu.Unlock()
		if !seen[p.Instance] {
			seen[p.Instance] = true
			portals = append(portals, p)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	<-ctx.Done()
	mu.Lock()
	defer mu.Unlock()
	return append([]*Portal(nil), portals...), nil
}

// WaitForPortal returns the first portal whose instance name matches.
// An empty instance matches any portal.
func (s *Scanner) WaitForPortal(ctx context.Context, instance string) (*Portal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	found := make(chan *Portal, 1)
	err := s.browse(ctx, func(p *Portal) bool {
		if instance != "" && p.Instance != instance {
			return true
		}
		select {
		case found <- p:
		default:
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	select {
	case p := <-found:
		return p, nil
	case <-ctx.Done():
		if instance == "" {
			return nil, fmt.Errorf("no provisioning portal found within %s", s.Timeout)
		}
		return nil, fmt.Errorf("portal %q not found within %s", instance, s.Timeout)
	}
}

// browse calls fn for each portal until fn returns false or ctx ends.
func (s *Scanner) browse(ctx context.Context, fn func(*Portal) bool) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		done := false
		for entry := range entries {
			if done {
				continue
			}
			if p := parseServiceEntry(entry); p != nil {
				done = !fn(p)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// parseServiceEntry converts a zeroconf service entry to a Portal.
// Returns nil if the entry is not a provisioning portal.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Portal {
	metadata := parseTXT(entry.Text)
	if _, ok := metadata[TxtMarker]; !ok {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Portal{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" records. A key without '=' maps to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	return metadata
}
