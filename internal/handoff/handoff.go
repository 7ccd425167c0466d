package handoff

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/bus"
	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/metrics"
	"github.com/muurk/wifiprov/internal/supervisor"
)

// Stage identifies which dependent-service call failed.
type Stage string

const (
	StageInit  Stage = "init"
	StageStart Stage = "start"
)

// StartError reports that the message bus could not be brought up after a
// connection was confirmed. Connectivity is unaffected.
type StartError struct {
	Stage Stage
	SSID  string
	Err   error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("message bus %s failed after joining %q: %v", e.Stage, e.SSID, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// IsStartError reports whether err is a *StartError.
func IsStartError(err error) bool {
	var se *StartError
	return errors.As(err, &se)
}

// Service is the dependent service started on connectivity.
type Service interface {
	Init(cfg bus.Config) error
	Start() error
}

// Handoff starts the message bus each time the supervisor reports a new
// connection.
type Handoff struct {
	service Service
	cfg     bus.Config
	metrics *metrics.Metrics
}

// New creates a Handoff that brings up service with cfg.
func New(service Service, cfg bus.Config, m *metrics.Metrics) *Handoff {
	return &Handoff{service: service, cfg: cfg, metrics: m}
}

// OnConnected is a supervisor.ConnectedHandler. Failures are logged and
// counted; there is no retry.
func (h *Handoff) OnConnected(_ context.Context, ev supervisor.ConnectedEvent) {
	err := h.start(ev)
	h.metrics.Handoff(err == nil)

	if err != nil {
		logging.Error("Failed to start message bus",
			zap.String("ssid", ev.SSID),
			zap.String("ip", ev.IP),
			zap.Error(err),
		)
		return
	}
	logging.Info("Message bus started",
		zap.String("ssid", ev.SSID),
		zap.String("ip", ev.IP),
		zap.String("client_id", h.cfg.ClientID),
	)
}

func (h *Handoff) start(ev supervisor.ConnectedEvent) error {
	if err := h.service.Init(h.cfg); err != nil {
		return &StartError{Stage: StageInit, SSID: ev.SSID, Err: err}
	}
	if err := h.service.Start(); err != nil {
		return &StartError{Stage: StageStart, SSID: ev.SSID, Err: err}
	}
	return nil
}
