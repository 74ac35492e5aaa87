package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/leofalp/aigraph/providers/events"
)

const (
	// DefaultTopicPrefix is the root of every published topic.
	DefaultTopicPrefix = "aigraph/events"
	// DefaultTimeout bounds connect and publish acknowledgements.
	DefaultTimeout = 10 * time.Second
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt: timeout")

// BrokerURL returns the MQTT broker URL from env or default.
func BrokerURL() string {
	if url := os.Getenv("MQTT_URL"); url != "" {
		return url
	}
	return "tcp://localhost:1883"
}

// Sink is an events.Sink publishing to MQTT.
type Sink struct {
	client  paho.Client
	prefix  string
	qos     byte
	retain  bool
	timeout time.Duration
}

var _ events.Sink = (*Sink)(nil)

// Option configures a Sink.
type Option func(*Sink)

// WithTopicPrefix overrides DefaultTopicPrefix.
func WithTopicPrefix(prefix string) Option {
	return func(s *Sink) {
		if prefix = strings.Trim(prefix, "/"); prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithQoS sets the publish quality of service (0, 1 or 2). Default 1.
func WithQoS(qos byte) Option {
	return func(s *Sink) {
		if qos <= 2 {
			s.qos = qos
		}
	}
}

// WithRetain marks published messages as retained.
func WithRetain(retain bool) Option {
	return func(s *Sink) { s.retain = retain }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New returns a Sink over an already configured client.
func New(client paho.Client, opts ...Option) *Sink {
	s := &Sink{client: client, prefix: DefaultTopicPrefix, qos: 1, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect creates a client for BrokerURL, connects it and returns a Sink.
// The client reconnects on its own after a lost connection.
func Connect(clientID string, opts ...Option) (*Sink, error) {
	clientOpts := paho.NewClientOptions().
		AddBroker(BrokerURL()).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	s := New(paho.NewClient(clientOpts), opts...)
	token := s.client.Connect()
	if !token.WaitTimeout(s.timeout) {
		return nil, fmt.Errorf("%w: connect to %s", ErrTimeout, BrokerURL())
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", BrokerURL(), err)
	}
	return s, nil
}

// Topic returns the topic event is published to.
func (s *Sink) Topic(event events.Event) string {
	workflow := event.Workflow
	if workflow == "" {
		workflow = "_"
	}
	// wildcards and separators in names would change the topic structure
	workflow = strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(workflow)
	return s.prefix + "/" + workflow + "/" + string(event.Type)
}

// Publish sends event and waits for the broker acknowledgement, the sink
// timeout or ctx, whichever comes first.
func (s *Sink) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("mqtt: encode event: %w", err)
	}

	topic := s.Topic(event)
	token := s.client.Publish(topic, s.qos, s.retain, payload)

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("%w: publish %s", ErrTimeout, topic)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, waiting up to 250ms for in-flight work.
func (s *Sink) Close() {
	s.client.Disconnect(250)
}
