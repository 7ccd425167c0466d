package supervisor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/metrics"
	"github.com/muurk/wifiprov/internal/radio"
)

// fsm event names
const (
	eventSubmit = "submit"
	eventGotIP  = "got_ip"
	eventLost   = "lost"
	eventGiveUp = "give_up"
)

// ErrRadioClosed is returned by Run when the driver closes its event channel.
var ErrRadioClosed = errors.New("radio event channel closed")

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(s *Supervisor) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithMetrics records transitions and join attempts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Supervisor) {
		s.metrics = m
	}
}

// Supervisor owns the station connection state. All state changes happen
// on the goroutine running Run; other goroutines submit intents and read
// snapshots.
type Supervisor struct {
	radio      Radio
	maxRetries int
	metrics    *metrics.Metrics

	intents chan Credentials
	stopped chan struct{}
	once    sync.Once

	// owned by the dispatch goroutine
	machine    *fsm.FSM
	target     *Credentials
	retries    int
	ip         string
	lastReason int

	handlerMu sync.RWMutex
	handler   ConnectedHandler

	statusMu sync.RWMutex
	status   Status

	watchMu  sync.Mutex
	watchers map[int]chan Status
	nextID   int
}

// New creates a supervisor in StateDisconnected.
func New(r Radio, opts ...Option) *Supervisor {
	s := &Supervisor{
		radio:      r,
		maxRetries: DefaultMaxRetries,
		intents:    make(chan Credentials, 4),
		stopped:    make(chan struct{}),
		watchers:   make(map[int]chan Status),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.machine = fsm.NewFSM(
		string(StateDisconnected),
		fsm.Events{
			{Name: eventSubmit, Src: []string{string(StateDisconnected), string(StateFailed), string(StateConnected)}, Dst: string(StateConnecting)},
			{Name: eventGotIP, Src: []string{string(StateDisconnected), string(StateConnecting), string(StateFailed)}, Dst: string(StateConnected)},
			{Name: eventLost, Src: []string{string(StateConnected)}, Dst: string(StateConnecting)},
			{Name: eventGiveUp, Src: []string{string(StateConnecting)}, Dst: string(StateFailed)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.onTransition(e.Src, e.Dst, e.Event)
			},
		},
	)

	s.status = Status{State: StateDisconnected, MaxRetries: s.maxRetries, UpdatedAt: time.Now()}
	return s
}

// RegisterConnectedHandler installs the handler invoked on every entry to
// StateConnected. There is a single slot; a later registration replaces
// the earlier one.
func (s *Supervisor) RegisterConnectedHandler(h ConnectedHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	if s.handler != nil {
		logging.Debug("Replacing connected handler")
	}
	s.handler = h
}

// SubmitCredentials validates creds and queues them for the dispatch
// goroutine. It returns once queued; the join outcome is observable via
// Snapshot or Watch.
func (s *Supervisor) SubmitCredentials(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	select {
	case <-s.stopped:
		return ErrStopped
	default:
	}

	select {
	case s.intents <- creds:
		logging.Info("Credentials queued", zap.String("ssid", creds.SSID), zap.String("password", logging.Redact(creds.Password)))
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the last published status.
func (s *Supervisor) Snapshot() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Watch subscribes to status updates. The current status is delivered
// first. Slow readers miss intermediate updates, never the latest one.
// Call cancel to unsubscribe.
func (s *Supervisor) Watch() (<-chan Status, func()) {
	ch := make(chan Status, 8)

	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	ch <- s.Snapshot()
	s.watchMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, id)
			close(ch)
			s.watchMu.Unlock()
		})
	}
	return ch, cancel
}

// Run is the dispatch loop. It consumes radio events and queued
// credentials until ctx is cancelled or the radio closes its channel.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.once.Do(func() { close(s.stopped) })

	events := s.radio.Events()
	logging.Info("Connection supervisor started", zap.Int("max_retries", s.maxRetries))

	for {
		select {
		case <-ctx.Done():
			logging.Info("Connection supervisor stopping")
			return nil

		case creds := <-s.intents:
			s.handleSubmit(ctx, creds)

		case ev, ok := <-events:
			if !ok {
				return ErrRadioClosed
			}
			s.handleRadioEvent(ctx, ev)
		}
	}
}

func (s *Supervisor) current() State {
	return State(s.machine.Current())
}

func (s *Supervisor) fire(ctx context.Context, event string) {
	if err := s.machine.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return
		}
		logging.Error("Rejected connection state transition",
			zap.String("event", event),
			zap.String("state", s.machine.Current()),
			zap.Error(err),
		)
	}
}

func (s *Supervisor) onTransition(from, to, trigger string) {
	logging.LogStateTransition(from, to, trigger, s.retries)
	s.metrics.StateChanged(from, to, stateNames())
	s.publish()
}

func (s *Supervisor) handleSubmit(ctx context.Context, creds Credentials) {
	s.target = &creds

	if s.current() == StateConnecting {
		logging.Info("Replacing join target while connecting",
			zap.String("ssid", creds.SSID),
			zap.Int("retry_count", s.retries),
		)
		s.publish()
		s.join(ctx)
		return
	}

	s.retries = 0
	s.ip = ""
	s.lastReason = 0
	s.fire(ctx, eventSubmit)
	s.join(ctx)
}

func (s *Supervisor) join(ctx context.Context) {
	s.metrics.JoinAttempt()
	logging.Info("Joining network", zap.String("ssid", s.target.SSID))

	if err := s.radio.Join(ctx, s.target.stationConfig()); err != nil {
		logging.Warn("Join rejected by radio", zap.String("ssid", s.target.SSID), zap.Error(err))
		s.handleDisconnect(ctx, radio.ReasonJoinRequestFailure)
	}
}

func (s *Supervisor) handleRadioEvent(ctx context.Context, ev radio.Event) {
	switch ev.Kind {
	case radio.EventStationDisconnected:
		logging.LogRadioEvent(ev.Kind.String(), zap.String("ssid", ev.SSID), zap.Int("reason", ev.Reason))
		s.handleDisconnect(ctx, ev.Reason)

	case radio.EventGotIP:
		logging.LogRadioEvent(ev.Kind.String(), zap.String("ip", ev.IP), zap.String("gateway", ev.Gateway))
		s.handleGotIP(ctx, ev)

	case radio.EventClientAssociated, radio.EventClientDisassociated:
		logging.LogRadioEvent(ev.Kind.String(), zap.String("mac", ev.MAC), zap.Int("aid", ev.AID))

	default:
		logging.LogRadioEvent(ev.Kind.String())
	}
}

func (s *Supervisor) handleDisconnect(ctx context.Context, reason int) {
	s.lastReason = reason
	s.metrics.Disconnected(reason)

	switch s.current() {
	case StateConnected:
		s.retries = 0
		s.ip = ""
		s.fire(ctx, eventLost)
		s.retry(ctx)
	case StateConnecting:
		s.retry(ctx)
	default:
		logging.Debug("Ignoring disconnect", zap.String("state", string(s.current())), zap.Int("reason", reason))
		s.publish()
	}
}

func (s *Supervisor) retry(ctx context.Context) {
	if s.retries >= s.maxRetries {
		logging.Error("Failed to connect to network",
			zap.String("ssid", s.targetSSID()),
			zap.Int("attempts", s.retries+1),
			zap.Int("last_reason", s.lastReason),
		)
		s.fire(ctx, eventGiveUp)
		return
	}

	s.retries++
	s.publish()
	s.metrics.JoinAttempt()
	logging.Warn("Retrying connection",
		zap.String("ssid", s.targetSSID()),
		zap.Int("retry", s.retries),
		zap.Int("max_retries", s.maxRetries),
	)

	if err := s.radio.Reconnect(ctx); err != nil {
		logging.Warn("Reconnect rejected by radio", zap.Error(err))
		s.handleDisconnect(ctx, radio.ReasonJoinRequestFailure)
	}
}

func (s *Supervisor) handleGotIP(ctx context.Context, ev radio.Event) {
	if s.current() == StateConnected {
		logging.Debug("Address update while connected", zap.String("ip", ev.IP))
		s.ip = ev.IP
		s.publish()
		return
	}

	s.retries = 0
	s.ip = ev.IP
	s.fire(ctx, eventGotIP)

	s.handlerMu.RLock()
	h := s.handler
	s.handlerMu.RUnlock()
	if h == nil {
		logging.Warn("Connected but no handler registered")
		return
	}

	ssid := ev.SSID
	if ssid == "" {
		ssid = s.targetSSID()
	}
	h(ctx, ConnectedEvent{
		SSID:    ssid,
		IP:      ev.IP,
		Netmask: ev.Netmask,
		Gateway: ev.Gateway,
		At:      time.Now(),
	})
}

func (s *Supervisor) targetSSID() string {
	if s.target == nil {
		return ""
	}
	return s.target.SSID
}

func (s *Supervisor) publish() {
	st := Status{
		State:      s.current(),
		SSID:       s.targetSSID(),
		RetryCount: s.retries,
		MaxRetries: s.maxRetries,
		IP:         s.ip,
		LastReason: s.lastReason,
		UpdatedAt:  time.Now(),
	}

	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- st:
		default:
			// full: drop the oldest so the latest always lands
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
