package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/muurk/wifiprov/internal/radio"
)

// State is the station connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateFailed       State = "failed"
)

// AllStates lists every state, for gauges and documentation.
var AllStates = []State{StateDisconnected, StateConnecting, StateConnected, StateFailed}

func stateNames() []string {
	names := make([]string, len(AllStates))
	for i, s := range AllStates {
		names[i] = string(s)
	}
	return names
}

// DefaultMaxRetries is how many re-joins follow the initial join before
// the supervisor gives up.
const DefaultMaxRetries = 5

// ErrInvalidCredentials is wrapped by every credential validation failure.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrStopped is returned by SubmitCredentials once Run has exited.
var ErrStopped = errors.New("supervisor stopped")

// Credentials are the upstream network a user asked to join.
type Credentials struct {
	SSID     string
	Password string
}

// Validate checks the 802.11 length limits.
func (c Credentials) Validate() error {
	if c.SSID == "" {
		return fmt.Errorf("%w: ssid is empty", ErrInvalidCredentials)
	}
	if len(c.SSID) > radio.MaxSSIDLength {
		return fmt.Errorf("%w: ssid is %d bytes (max %d)", ErrInvalidCredentials, len(c.SSID), radio.MaxSSIDLength)
	}
	if len(c.Password) > radio.MaxPassphraseLength {
		return fmt.Errorf("%w: password is %d bytes (max %d)", ErrInvalidCredentials, len(c.Password), radio.MaxPassphraseLength)
	}
	return nil
}

func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{SSID:%q}", c.SSID)
}

func (c Credentials) stationConfig() radio.StationConfig {
	return radio.StationConfig{SSID: c.SSID, Password: c.Password}
}

// Status is a point-in-time view of the supervisor.
type Status struct {
	State      State     `json:"state"`
	SSID       string    `json:"ssid,omitempty"`
	RetryCount int       `json:"retry_count"`
	MaxRetries int       `json:"max_retries"`
	IP         string    `json:"ip,omitempty"`
	LastReason int       `json:"last_reason,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConnectedEvent is delivered to the connected handler each time the
// station enters StateConnected.
type ConnectedEvent struct {
	SSID    string
	IP      string
	Netmask string
	Gateway string
	At      time.Time
}

// ConnectedHandler reacts to a confirmed connection. It runs on the
// supervisor's dispatch goroutine and must not block for long.
type ConnectedHandler func(ctx context.Context, ev ConnectedEvent)

// Radio is the part of the radio controller the supervisor drives.
type Radio interface {
	Join(ctx context.Context, sta radio.StationConfig) error
	Reconnect(ctx context.Context) error
	Events() <-chan radio.Event
}
