// Package ui renders terminal output for the wifiprov-cfg CLI.
//
// Commands print a Header, then their output (network tables, portal lists,
// status lines), then a Result box. Long waits use RunWait, a Bubble Tea
// program that follows status updates with a spinner and a bar showing how
// many join attempts have been used.
//
//	p := ui.NewPrinter(nil)
//	p.PrintHeader("Network Scan", "wifiprov-cfg scan", ui.Param{Key: "Portal", Value: url})
//	p.PrintNetworks(nets)
//
// Logging is silent unless WIFIPROV_LOG_LEVEL is set, so zap output does not
// interleave with the styled output.
package ui
