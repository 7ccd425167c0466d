// Package portalclient is the HTTP client used by wifiprov-cfg to drive a
// provisioning portal: scan, submit credentials, and follow the connection
// through /status or the /events stream.
//
// Every method returns a *PortalError. Use IsNetworkError, IsRejected and
// TroubleshootingHint to present failures to the user.
package portalclient
