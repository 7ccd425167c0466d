package radio

import (
	"errors"
	"fmt"
)

// ErrNotStarted is returned when an operation needs a running radio.
var ErrNotStarted = errors.New("radio not started")

// ErrNoStationConfig is returned by Reconnect before any Join.
var ErrNoStationConfig = errors.New("no station configuration")

// ConfigError is returned when the driver rejects a mode change or an
// interface configuration. A ConfigError during bring-up is fatal.
type ConfigError struct {
	Op   string // set_mode, configure_ap, configure_sta, start, stop, connect
	Mode Mode   // mode in effect (or requested) when the error occurred
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("radio %s failed (mode %s): %v", e.Op, e.Mode, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
