package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/metrics"
	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/scan"
	"github.com/muurk/wifiprov/internal/supervisor"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SubmittedMessage is returned once credentials are queued.
const SubmittedMessage = "WiFi configuration submitted, connecting..."

// Scanner runs a blocking scan.
type Scanner interface {
	Scan(ctx context.Context, req radio.ScanRequest) ([]radio.AccessPointRecord, error)
}

// Provisioner accepts credentials and reports connection status.
type Provisioner interface {
	SubmitCredentials(ctx context.Context, creds supervisor.Credentials) error
	Snapshot() supervisor.Status
	Watch() (<-chan supervisor.Status, func())
}

// ScanResponse is the /scan body. Networks is always present on success,
// even when empty.
type ScanResponse struct {
	Status   string                    `json:"status"`
	Networks []radio.AccessPointRecord `json:"networks,omitempty"`
	Message  string                    `json:"message,omitempty"`
}

// MarshalJSON emits {"status","networks"} on success and
// {"status","message"} on error.
func (r ScanResponse) MarshalJSON() ([]byte, error) {
	if r.Status == StatusError {
		return json.Marshal(struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}{r.Status, r.Message})
	}
	networks := r.Networks
	if networks == nil {
		networks = []radio.AccessPointRecord{}
	}
	return json.Marshal(struct {
		Status   string                    `json:"status"`
		Networks []radio.AccessPointRecord `json:"networks"`
	}{r.Status, networks})
}

// ConfigureResponse is the /configure success body.
type ConfigureResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithScanRequest overrides radio.DefaultScanRequest.
func WithScanRequest(req radio.ScanRequest) Option {
	return func(g *Gateway) {
		g.scanReq = req
	}
}

// WithMetrics counts rejected submissions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// Gateway turns portal requests into scans and credential intents.
type Gateway struct {
	scanner     Scanner
	provisioner Provisioner
	scanReq     radio.ScanRequest
	metrics     *metrics.Metrics
}

// New creates a Gateway.
func New(s Scanner, p Provisioner, opts ...Option) *Gateway {
	g := &Gateway{
		scanner:     s,
		provisioner: p,
		scanReq:     radio.DefaultScanRequest(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ListNetworks runs one scan. Failures are reported in the response, not
// as an error, and are not retried.
func (g *Gateway) ListNetworks(ctx context.Context) ScanResponse {
	records, err := g.scanner.Scan(ctx, g.scanReq)
	if err != nil {
		logging.Warn("Scan request failed", zap.Error(err))
		return ScanResponse{Status: StatusError, Message: scanErrorMessage(err)}
	}
	return ScanResponse{Status: StatusSuccess, Networks: records}
}

func scanErrorMessage(err error) string {
	var ue *scan.UnavailableError
	if errors.As(err, &ue) {
		switch ue.Stage {
		case scan.StageCount:
			return "Failed to get AP count"
		case scan.StageRecords:
			return "Failed to get AP records"
		}
		return fmt.Sprintf("Scan failed: %v", ue.Err)
	}
	return fmt.Sprintf("Scan failed: %v", err)
}

// Submit parses a /configure payload and queues the credentials. It does
// not wait for the join.
func (g *Gateway) Submit(ctx context.Context, payload []byte) error {
	creds, err := parseCredentials(payload)
	if err != nil {
		return g.reject(err)
	}

	if err := g.provisioner.SubmitCredentials(ctx, creds); err != nil {
		if errors.Is(err, supervisor.ErrInvalidCredentials) {
			return g.reject(&CredentialsError{Reason: ReasonInvalid, Message: "Invalid credentials", Err: err})
		}
		return fmt.Errorf("failed to submit credentials: %w", err)
	}

	logging.Info("Credentials submitted",
		zap.String("ssid", creds.SSID),
		zap.Bool("has_password", creds.Password != ""),
	)
	return nil
}

func (g *Gateway) reject(err error) error {
	var ce *CredentialsError
	if errors.As(err, &ce) {
		g.metrics.CredentialsRejected(ce.Reason)
		logging.Warn("Rejected credentials", zap.String("reason", ce.Reason), zap.Error(ce.Err))
	}
	return err
}

// parseCredentials requires a JSON object with a string ssid. A password
// that is not a string is ignored.
func parseCredentials(payload []byte) (supervisor.Credentials, error) {
	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return supervisor.Credentials{}, &CredentialsError{Reason: ReasonMalformedJSON, Message: "Failed to parse JSON", Err: err}
	}

	obj, _ := doc.(map[string]interface{})
	ssid, ok := obj["ssid"].(string)
	if !ok {
		return supervisor.Credentials{}, &CredentialsError{Reason: ReasonMissingSSID, Message: "Missing SSID"}
	}

	creds := supervisor.Credentials{SSID: ssid}
	if password, ok := obj["password"].(string); ok {
		creds.Password = password
	}
	return creds, nil
}

// Status returns the current connection status.
func (g *Gateway) Status() supervisor.Status {
	return g.provisioner.Snapshot()
}

// Watch forwards to the provisioner's status feed.
func (g *Gateway) Watch() (<-chan supervisor.Status, func()) {
	return g.provisioner.Watch()
}
