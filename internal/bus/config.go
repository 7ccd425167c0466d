package bus

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Defaults for the message bus client.
const (
	DefaultPort              = 1883
	DefaultTopicBase         = "wifiprov/device/"
	DefaultQoS               = 1
	DefaultConnectTimeout    = 10 * time.Second
	DefaultReconnectInterval = 10 * time.Second
)

// Topic suffixes under the topic base.
const (
	TopicStatus  = "status"
	TopicControl = "control"
	TopicData    = "data"
)

// Config describes how to reach the broker.
type Config struct {
	BrokerURL         string
	Port              int
	ClientID          string
	Username          string
	Password          string
	TopicBase         string
	QoS               byte
	ConnectTimeout    time.Duration
	ReconnectInterval time.Duration
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.TopicBase == "" {
		c.TopicBase = DefaultTopicBase
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ReconnectInterval == 0 {
		c.ReconnectInterval = DefaultReconnectInterval
	}
	return c
}

// Validate checks the broker address and QoS.
func (c Config) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker url is required")
	}
	if _, err := c.BrokerAddress(); err != nil {
		return err
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("broker port %d out of range", c.Port)
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos %d out of range (0-2)", c.QoS)
	}
	return nil
}

// BrokerAddress returns the broker URL with Port applied when the URL has
// none. Bare host names get the mqtt:// scheme.
func (c Config) BrokerAddress() (string, error) {
	raw := c.BrokerURL
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		u, err = url.Parse("mqtt://" + raw)
		if err != nil {
			return "", fmt.Errorf("invalid broker url %q: %w", c.BrokerURL, err)
		}
	}
	switch u.Scheme {
	case "mqtt", "tcp", "mqtts", "ssl", "tls", "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
	if u.Port() == "" && c.Port != 0 {
		u.Host = u.Hostname() + ":" + strconv.Itoa(c.Port)
	}
	return u.String(), nil
}

// Topic joins the topic base and a suffix.
func (c Config) Topic(suffix string) string {
	return c.TopicBase + suffix
}
