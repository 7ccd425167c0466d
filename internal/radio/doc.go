// Package radio models the WiFi radio used for provisioning.
//
// A Driver is the hardware (or simulated) radio. It is configured with
// synchronous calls and reports asynchronous outcomes (client association,
// station disconnects, address acquisition) as Events on a channel.
//
// Controller sits in front of a Driver and owns the radio Mode:
//
//	idle -> access_point          StartAccessPoint
//	access_point -> dual          PrepareScan, Join while the AP serves
//	idle -> station               Join without an AP
//	any -> idle                   Teardown
//
// Driver failures surface as *ConfigError.
package radio
