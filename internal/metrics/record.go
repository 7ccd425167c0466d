package metrics

import "strconv"

// ScanCompleted records a successful scan. found is the driver's count
// before truncation.
func (m *Metrics) ScanCompleted(found int, truncated bool) {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues("success").Inc()
	m.scanNetworks.Observe(float64(found))
	if truncated {
		m.scanTruncatedTotal.Inc()
	}
}

// ScanFailed records a scan that returned no records.
func (m *Metrics) ScanFailed() {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues("error").Inc()
}

// JoinAttempt records a join or re-join issued to the radio.
func (m *Metrics) JoinAttempt() {
	if m == nil {
		return
	}
	m.joinAttemptsTotal.Inc()
}

// Disconnected records a station disconnect event.
func (m *Metrics) Disconnected(reason int) {
	if m == nil {
		return
	}
	m.disconnectsTotal.WithLabelValues(strconv.Itoa(reason)).Inc()
}

// StateChanged records a transition and moves the state gauge.
func (m *Metrics) StateChanged(from, to string, all []string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
	for _, s := range all {
		v := 0.0
		if s == to {
			v = 1
		}
		m.connectionState.WithLabelValues(s).Set(v)
	}
}

// CredentialsRejected records a rejected /configure submission.
func (m *Metrics) CredentialsRejected(reason string) {
	if m == nil {
		return
	}
	m.credentialsRejected.WithLabelValues(reason).Inc()
}

// Handoff records the result of starting the message bus client.
func (m *Metrics) Handoff(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "error"
	}
	m.handoffTotal.WithLabelValues(result).Inc()
}

// BusConnected sets the broker connection gauge.
func (m *Metrics) BusConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.busConnected.Set(1)
	} else {
		m.busConnected.Set(0)
	}
}

// HTTPRequest records a served portal request.
func (m *Metrics) HTTPRequest(path string, code int) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}
