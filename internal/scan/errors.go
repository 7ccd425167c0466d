package scan

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches every *UnavailableError with errors.Is.
var ErrUnavailable = errors.New("scan unavailable")

// Stage names the step of a scan that failed.
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageScan    Stage = "scan"
	StageCount   Stage = "count"
	StageRecords Stage = "records"
)

// UnavailableError reports that the driver could not deliver scan results.
type UnavailableError struct {
	Stage Stage
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("scan unavailable at %s: %v", e.Stage, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnavailable) match.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}
