package bus

import "testing"

func TestBrokerAddress(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"scheme without port", Config{BrokerURL: "mqtt://mqtt.eclipseprojects.io", Port: 1883}, "mqtt://mqtt.eclipseprojects.io:1883", false},
		{"explicit port wins", Config{BrokerURL: "tcp://10.0.0.2:2883", Port: 1883}, "tcp://10.0.0.2:2883", false},
		{"bare host", Config{BrokerURL: "broker.local", Port: 1884}, "mqtt://broker.local:1884", false},
		{"bare host and port", Config{BrokerURL: "broker.local:1999"}, "mqtt://broker.local:1999", false},
		{"unsupported scheme", Config{BrokerURL: "http://broker.local"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.BrokerAddress()
			if (err != nil) != tt.wantErr {
				t.Fatalf("BrokerAddress() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("BrokerAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Error("empty broker should fail")
	}
	if err := (Config{BrokerURL: "broker.local", QoS: 3}).Validate(); err == nil {
		t.Error("qos 3 should fail")
	}
	if err := (Config{BrokerURL: "broker.local", Port: 70000}).Validate(); err == nil {
		t.Error("port 70000 should fail")
	}
	if err := (Config{BrokerURL: "broker.local"}.WithDefaults()).Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestTopics(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if got := cfg.Topic(TopicControl); got != "wifiprov/device/control" {
		t.Errorf("Topic(control) = %q", got)
	}
}
