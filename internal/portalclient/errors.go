package portalclient

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening on the portal address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates an unexpected HTTP status
	ErrTypeHTTP
	// ErrTypeRejected indicates the portal refused the credentials (HTTP 400)
	ErrTypeRejected
	// ErrTypeScan indicates the portal answered but its radio could not scan
	ErrTypeScan
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeValidation indicates input rejected before sending
	ErrTypeValidation
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeRejected:
		return "Rejected"
	case ErrTypeScan:
		return "Scan Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// PortalError is returned by every Client method.
type PortalError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Err        error
	Retryable  bool
}

func (e *PortalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *PortalError) Unwrap() error {
	return e.Err
}

// classifyNetworkError maps transport failures to an ErrorType.
func classifyNetworkError(message string, err error) *PortalError {
	if os.IsTimeout(err) {
		return &PortalError{Type: ErrTypeTimeout, Message: message, Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &PortalError{Type: ErrTypeDNS, Message: message, Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &PortalError{Type: ErrTypeConnectionRefused, Message: message, Err: err, Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		if inner := classifyNetworkError(message, urlErr.Err); inner.Type != ErrTypeNetwork {
			inner.Err = err
			return inner
		}
	}

	return &PortalError{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: true}
}

func newHTTPError(statusCode int, body string) *PortalError {
	body = strings.TrimSpace(body)
	if statusCode == 400 {
		return &PortalError{Type: ErrTypeRejected, Message: body, StatusCode: statusCode}
	}
	return &PortalError{
		Type:       ErrTypeHTTP,
		Message:    fmt.Sprintf("unexpected status %d: %s", statusCode, body),
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

func newParseError(message string, err error) *PortalError {
	return &PortalError{Type: ErrTypeParse, Message: message, Err: err}
}

func newValidationError(message string) *PortalError {
	return &PortalError{Type: ErrTypeValidation, Message: message}
}

func typeOf(err error) (ErrorType, bool) {
	var pe *PortalError
	if errors.As(err, &pe) {
		return pe.Type, true
	}
	return 0, false
}

// IsNetworkError reports transport failures of any kind.
func IsNetworkError(err error) bool {
	t, ok := typeOf(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout || t == ErrTypeConnectionRefused || t == ErrTypeDNS)
}

// IsRejected reports credentials refused by the portal.
func IsRejected(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeRejected
}

// IsValidationError reports input refused before sending.
func IsValidationError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeValidation
}

// IsRetryable reports whether err should be retried
func IsRetryable(err error) bool {
	var pe *PortalError
	return errors.As(err, &pe) && pe.Retryable
}

// TroubleshootingHint returns advice for displaying alongside err.
func TroubleshootingHint(err error) string {
	t, ok := typeOf(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch t {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The portal did not respond in time.",
			"Troubleshooting:",
			"  • Check that you are connected to the device's setup network",
			"  • Scans take a few seconds; try increasing --timeout",
		}, "\n")
	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"Nothing is listening at the portal address.",
			"Troubleshooting:",
			"  • Check that the daemon is running",
			"  • Verify the port (default 80)",
		}, "\n")
	case ErrTypeDNS:
		return "Could not resolve the portal host. Use the IP address, or run 'wifiprov-cfg discover'."
	case ErrTypeNetwork:
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Join the device's setup network (e.g. wifiprov-setup)",
			"  • Run 'wifiprov-cfg discover' to find the portal",
		}, "\n")
	case ErrTypeRejected:
		return "The portal rejected the request. SSIDs must be 1-32 bytes and passwords at most 64."
	case ErrTypeScan:
		return "The device's radio could not complete a scan. Wait a moment and scan again."
	case ErrTypeHTTP, ErrTypeParse:
		return "The portal returned an unexpected response. Check that it runs a compatible version."
	default:
		return "Check the error message for details."
	}
}
