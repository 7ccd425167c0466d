package radio

import (
	"fmt"
	"time"
)

// EventKind identifies an asynchronous notification from the driver.
type EventKind int

const (
	EventAccessPointStarted EventKind = iota
	EventAccessPointStopped
	EventClientAssociated
	EventClientDisassociated
	EventStationStarted
	EventStationConnected
	EventStationDisconnected
	EventGotIP
)

func (k EventKind) String() string {
	switch k {
	case EventAccessPointStarted:
		return "ap_started"
	case EventAccessPointStopped:
		return "ap_stopped"
	case EventClientAssociated:
		return "client_associated"
	case EventClientDisassociated:
		return "client_disassociated"
	case EventStationStarted:
		return "station_started"
	case EventStationConnected:
		return "station_connected"
	case EventStationDisconnected:
		return "station_disconnected"
	case EventGotIP:
		return "got_ip"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Disconnect reason codes reported with EventStationDisconnected.
const (
	ReasonUnspecified        = 1
	ReasonAssocLeave         = 8
	ReasonHandshakeTimeout   = 15
	ReasonBeaconTimeout      = 200
	ReasonNoAPFound          = 201
	ReasonAuthFail           = 202
	ReasonAssocFail          = 203
	ReasonConnectionFail     = 205
	ReasonJoinRequestFailure = 240
)

// Event is a notification emitted by a Driver on its event channel.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	Time time.Time

	// Client association events
	MAC string
	AID int

	// Station events
	SSID   string
	Reason int

	// EventGotIP
	IP      string
	Netmask string
	Gateway string
}

func (e Event) String() string {
	switch e.Kind {
	case EventClientAssociated, EventClientDisassociated:
		return fmt.Sprintf("%s mac=%s aid=%d", e.Kind, e.MAC, e.AID)
	case EventStationDisconnected:
		return fmt.Sprintf("%s ssid=%q reason=%d", e.Kind, e.SSID, e.Reason)
	case EventGotIP:
		return fmt.Sprintf("%s ip=%s", e.Kind, e.IP)
	default:
		return e.Kind.String()
	}
}
