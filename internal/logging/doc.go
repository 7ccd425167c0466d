// Package logging provides structured logging for the provisioning daemon
// and its CLI.
//
// The package wraps a process-wide zap logger with convenience functions.
// It is silent unless a level is given explicitly or through the
// WIFIPROV_LOG_LEVEL environment variable.
//
// # Log Levels
//
//   - Debug: scan records, HTTP responses, MQTT traffic
//   - Info: radio events, state transitions, HTTP requests
//   - Warn: retries, rejected requests, truncated scans
//   - Error: bring-up failures, message bus start failures
//
// # Structured Logging
//
//	logging.Info("Joining network",
//	    zap.String("ssid", "HomeNet"),
//	    zap.Int("attempt", 2),
//	)
//
// Domain helpers keep field names consistent across packages:
//
//	logging.LogRadioEvent("station_disconnected", zap.Int("reason", 201))
//	logging.LogStateTransition("connecting", "connected", "got_ip", 0)
//
// Passwords never reach a log line in clear text; use Redact.
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
package logging
