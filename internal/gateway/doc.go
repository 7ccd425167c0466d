// Package gateway is the provisioning portal.
//
// Gateway holds the request logic: one scan per ListNetworks call and
// credential parsing for Submit. Server exposes it over HTTP:
//
//	GET  /           provisioning page (text/html)
//	GET  /scan       {"status":"success","networks":[...]} or {"status":"error","message":...}, always 200
//	POST /configure  {"ssid":"...","password":"..."}, at most 200 bytes
//	GET  /status     connection status snapshot
//	GET  /events     websocket stream of status snapshots
//	GET  /metrics    Prometheus metrics
//
// Submit returns as soon as the credentials are queued; clients follow the
// join through /status or /events.
package gateway
