package bus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
	"github.com/muurk/wifiprov/internal/metrics"
)

// State is the lifecycle state of the bus client.
type State int

const (
	StateUninitialized State = iota
	StateInit
	StateConnected
	StateDisconnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInit:
		return "init"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrNotInitialized is returned by Start before Init.
	ErrNotInitialized = errors.New("message bus not initialized")
	// ErrNotConnected is returned by Publish and Subscribe while offline.
	ErrNotConnected = errors.New("message bus not connected")
)

const publishTimeout = 5 * time.Second

// ControlHandler receives messages on the control topic.
type ControlHandler func(topic string, payload []byte)

// Option configures a Client.
type Option func(*Client)

// WithClientFactory replaces MQTT.NewClient.
func WithClientFactory(f func(*MQTT.ClientOptions) MQTT.Client) Option {
	return func(c *Client) {
		c.newClient = f
	}
}

// WithMetrics records broker connectivity.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithControlHandler sets the handler for the control topic.
func WithControlHandler(h ControlHandler) Option {
	return func(c *Client) {
		c.onControl = h
	}
}

// Client is the MQTT client started once the device is online.
type Client struct {
	newClient func(*MQTT.ClientOptions) MQTT.Client
	metrics   *metrics.Metrics
	onControl ControlHandler

	mu      sync.RWMutex
	cfg     Config
	state   State
	started bool
	mqtt    MQTT.Client
}

// New creates an uninitialized client.
func New(opts ...Option) *Client {
	c := &Client{newClient: MQTT.NewClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init validates cfg and prepares the underlying client. A second call is
// a no-op.
func (c *Client) Init(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateUninitialized {
		logging.Info("Message bus already initialized", zap.String("client_id", c.cfg.ClientID))
		return nil
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid message bus config: %w", err)
	}
	broker, err := cfg.BrokerAddress()
	if err != nil {
		return err
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "wifiprov-" + uuid.NewString()[:8]
	}

	opts := MQTT.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(cfg.ReconnectInterval)
	opts.SetMaxReconnectInterval(cfg.ReconnectInterval)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetOrderMatters(false)
	opts.SetWill(cfg.Topic(TopicStatus), "offline", 1, true)
	opts.SetOnConnectHandler(c.handleConnect)
	opts.SetConnectionLostHandler(c.handleConnectionLost)

	c.cfg = cfg
	c.mqtt = c.newClient(opts)
	c.state = StateInit

	logging.Info("Message bus initialized",
		zap.String("broker", broker),
		zap.String("client_id", cfg.ClientID),
		zap.Bool("auth", cfg.Username != ""),
	)
	return nil
}

// Start begins connecting in the background and returns immediately.
// Reconnection is left to the MQTT client.
func (c *Client) Start() error {
	c.mu.Lock()
	if c.state == StateUninitialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	client := c.mqtt
	timeout := c.cfg.ConnectTimeout
	c.mu.Unlock()

	token := client.Connect()
	go func() {
		// with ConnectRetry the token only completes once connected or
		// on a fatal error
		<-token.Done()
		if err := token.Error(); err != nil {
			c.setState(StateError)
			logging.Error("Message bus connect failed", zap.Error(err))
		}
	}()

	logging.Info("Message bus connecting", zap.Duration("connect_timeout", timeout))
	return nil
}

// Stop disconnects from the broker.
func (c *Client) Stop() {
	c.mu.Lock()
	client := c.mqtt
	started := c.started
	c.started = false
	c.mu.Unlock()

	if client == nil || !started {
		return
	}
	if client.IsConnected() {
		c.publishQuiet(c.Config().Topic(TopicStatus), "offline")
	}
	client.Disconnect(250)
	c.setState(StateDisconnected)
	logging.Info("Message bus stopped")
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Config returns the effective configuration after Init.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// Publish sends payload to topic. It fails unless connected.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	c.mu.RLock()
	client, state := c.mqtt, c.state
	c.mu.RUnlock()

	if state != StateConnected {
		return ErrNotConnected
	}
	token := client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	logging.Debug("Message published", zap.String("topic", topic), zap.Int("bytes", len(payload)))
	return nil
}

// PublishData publishes to the data topic with the configured QoS.
func (c *Client) PublishData(payload []byte) error {
	cfg := c.Config()
	return c.Publish(cfg.Topic(TopicData), cfg.QoS, false, payload)
}

// Subscribe registers handler for topic. It fails unless connected.
func (c *Client) Subscribe(topic string, qos byte, handler ControlHandler) error {
	c.mu.RLock()
	client, state := c.mqtt, c.state
	c.mu.RUnlock()

	if state != StateConnected {
		return ErrNotConnected
	}
	return subscribe(client, topic, qos, handler)
}

func subscribe(client MQTT.Client, topic string, qos byte, handler ControlHandler) error {
	token := client.Subscribe(topic, qos, func(_ MQTT.Client, msg MQTT.Message) {
		logging.Debug("Message received", zap.String("topic", msg.Topic()), zap.Int("bytes", len(msg.Payload())))
		if handler != nil {
			handler(msg.Topic(), msg.Payload())
		}
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return nil
}

func (c *Client) handleConnect(client MQTT.Client) {
	c.setState(StateConnected)
	c.metrics.BusConnected(true)

	cfg := c.Config()
	logging.Info("Connected to MQTT broker", zap.String("client_id", cfg.ClientID))

	if err := subscribe(client, cfg.Topic(TopicControl), 1, c.onControl); err != nil {
		logging.Error("Failed to subscribe to control topic", zap.Error(err))
	}
	c.publishQuiet(cfg.Topic(TopicStatus), "online")
}

func (c *Client) handleConnectionLost(_ MQTT.Client, err error) {
	c.setState(StateDisconnected)
	c.metrics.BusConnected(false)
	logging.Warn("Connection lost to MQTT broker", zap.Error(err))
}

func (c *Client) publishQuiet(topic, payload string) {
	c.mu.RLock()
	client := c.mqtt
	c.mu.RUnlock()

	token := client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
		logging.Warn("Failed to publish status", zap.String("topic", topic), zap.Error(token.Error()))
	}
}
