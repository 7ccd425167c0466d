package gateway

import (
	"errors"
	"fmt"
)

// Rejection reasons, also used as metric labels.
const (
	ReasonMalformedJSON = "malformed_json"
	ReasonMissingSSID   = "missing_ssid"
	ReasonInvalid       = "invalid"
)

// CredentialsError reports a /configure payload that was rejected before
// any join was attempted. Message is safe to return to the client.
type CredentialsError struct {
	Reason  string
	Message string
	Err     error
}

func (e *CredentialsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CredentialsError) Unwrap() error {
	return e.Err
}

// IsCredentialsError reports whether err is a *CredentialsError.
func IsCredentialsError(err error) bool {
	var ce *CredentialsError
	return errors.As(err, &ce)
}
