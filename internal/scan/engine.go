// Package scan performs one-shot WiFi scans on behalf of the portal.
package scan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/metrics"
	"github.com/muurk/wifiprov/internal/radio"
)

const (
	// Capacity is the maximum number of records a scan returns.
	Capacity = 10

	// channelCount is the number of 2.4GHz channels swept per scan.
	channelCount = 13

	// deadlineGrace covers mode switching and driver bookkeeping.
	deadlineGrace = 2 * time.Second

	// minDwell is used when a request leaves ActiveMax unset.
	minDwell = 120 * time.Millisecond
)

// Radio is the part of the radio controller the engine needs.
type Radio interface {
	PrepareScan(ctx context.Context) error
	Scan(ctx context.Context, req radio.ScanRequest) error
	ScanResultCount() (int, error)
	ScanResults(max int) ([]radio.AccessPointRecord, error)
}

// Engine runs scans against a Radio.
type Engine struct {
	radio   Radio
	metrics *metrics.Metrics
}

// NewEngine creates a scan engine. m may be nil.
func NewEngine(r Radio, m *metrics.Metrics) *Engine {
	return &Engine{radio: r, metrics: m}
}

// Deadline returns how long a scan with req may block.
func Deadline(req radio.ScanRequest) time.Duration {
	dwell := req.ActiveMax
	if dwell < minDwell {
		dwell = minDwell
	}
	return dwell*channelCount + deadlineGrace
}

// Scan performs one blocking scan and returns at most Capacity records in
// the order the driver reported them. No networks yields an empty, non-nil
// slice. Any driver failure is returned as *UnavailableError; the engine
// does not retry.
func (e *Engine) Scan(ctx context.Context, req radio.ScanRequest) ([]radio.AccessPointRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, Deadline(req))
	defer cancel()

	start := time.Now()

	if err := e.radio.PrepareScan(ctx); err != nil {
		return nil, e.fail(StagePrepare, err)
	}
	if err := e.radio.Scan(ctx, req); err != nil {
		return nil, e.fail(StageScan, err)
	}

	found, err := e.radio.ScanResultCount()
	if err != nil {
		return nil, e.fail(StageCount, err)
	}

	want := found
	if want > Capacity {
		want = Capacity
	}

	records := make([]radio.AccessPointRecord, 0, want)
	if want > 0 {
		got, err := e.radio.ScanResults(want)
		if err != nil {
			return nil, e.fail(StageRecords, err)
		}
		if len(got) > want {
			got = got[:want]
		}
		records = append(records, got...)
	}

	truncated := found > Capacity
	if truncated {
		logging.Warn("Scan results truncated",
			zap.Int("found", found),
			zap.Int("returned", len(records)),
		)
	}
	e.metrics.ScanCompleted(found, truncated)

	logging.Info("Scan completed",
		zap.Int("found", found),
		zap.Int("returned", len(records)),
		zap.Duration("duration", time.Since(start)),
	)
	for _, r := range records {
		logging.Debug("Scan record",
			zap.String("ssid", r.SSID),
			zap.Int("rssi", r.RSSI),
			zap.String("auth", r.AuthMode.String()),
		)
	}

	return records, nil
}

func (e *Engine) fail(stage Stage, err error) error {
	e.metrics.ScanFailed()
	logging.Error("Scan failed", zap.String("stage", string(stage)), zap.Error(err))
	return &UnavailableError{Stage: stage, Err: err}
}
