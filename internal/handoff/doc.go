// Package handoff brings up the message bus once the station has an
// address. Handoff.OnConnected is registered as the supervisor's connected
// handler; it calls Init and Start on the bus client and reports failures
// as *StartError without touching connectivity state.
package handoff
