// Package discovery advertises and finds provisioning portals over mDNS.
//
// The daemon publishes its portal as an "_http._tcp" service whose TXT
// records carry a "wifiprov" marker, the page path, the daemon version and
// the provisioning SSID. The CLI browses for "_http._tcp" and keeps only
// entries with the marker, so other HTTP services on the segment are
// ignored.
//
//	scanner := discovery.NewScanner()
//	portals, err := scanner.Scan(ctx)
//	for _, p := range portals {
//	    fmt.Println(p.Instance, p.BaseURL())
//	}
//
// mDNS needs multicast on the interface and UDP port 5353 open.
package discovery
