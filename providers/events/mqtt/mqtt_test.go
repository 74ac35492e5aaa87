package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/leofalp/aigraph/providers/events"
)

// fakeToken completes when done is closed.
type fakeToken struct {
	done chan struct{}
	err  error
}

func completed(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

// fakeClient records publishes. Methods not overridden panic through the
// nil embedded interface.
type fakeClient struct {
	paho.Client

	mu           sync.Mutex
	topics       []string
	payloads     [][]byte
	qos          []byte
	token        paho.Token
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload any) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	c.qos = append(c.qos, qos)
	if c.token != nil {
		return c.token
	}
	return completed(nil)
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func TestBrokerURL(t *testing.T) {
	t.Setenv("MQTT_URL", "")
	if got := BrokerURL(); got != "tcp://localhost:1883" {
		t.Errorf("default = %q", got)
	}
	t.Setenv("MQTT_URL", "tcp://broker:1884")
	if got := BrokerURL(); got != "tcp://broker:1884" {
		t.Errorf("env = %q", got)
	}
}

func TestSink_PublishesJSON(t *testing.T) {
	client := &fakeClient{}
	sink := New(client)

	event := events.Event{
		Type:     events.NodeCompleted,
		Workflow: "support",
		RunID:    "r1",
		Node:     "classify",
		Step:     2,
		Duration: 1500 * time.Millisecond,
	}
	if err := sink.Publish(context.Background(), event); err != nil {
		t.Fatal(err)
	}

	if len(client.topics) != 1 || client.topics[0] != "aigraph/events/support/node.completed" {
		t.Fatalf("topics = %v", client.topics)
	}
	if client.qos[0] != 1 {
		t.Errorf("qos = %d", client.qos[0])
	}
	var got map[string]any
	if err := json.Unmarshal(client.payloads[0], &got); err != nil {
		t.Fatal(err)
	}
	if got["node"] != "classify" || got["run_id"] != "r1" || got["duration_ns"] != 1.5e9 {
		t.Errorf("payload = %v", got)
	}
}

func TestSink_Topic(t *testing.T) {
	sink := New(&fakeClient{}, WithTopicPrefix("/plant/audit/"))
	tests := map[string]string{
		"":        "plant/audit/_/run.started",
		"a/b":     "plant/audit/a_b/run.started",
		"x+y#":    "plant/audit/x_y_/run.started",
		"support": "plant/audit/support/run.started",
	}
	for workflow, want := range tests {
		if got := sink.Topic(events.Event{Type: events.RunStarted, Workflow: workflow}); got != want {
			t.Errorf("Topic(%q) = %q, want %q", workflow, got, want)
		}
	}
}

func TestSink_PublishError(t *testing.T) {
	brokerErr := errors.New("not authorized")
	sink := New(&fakeClient{token: completed(brokerErr)})

	err := sink.Publish(context.Background(), events.Event{Type: events.RunFailed})
	if !errors.Is(err, brokerErr) {
		t.Fatalf("expected broker error, got %v", err)
	}
}

func TestSink_PublishTimeout(t *testing.T) {
	pending := &fakeToken{done: make(chan struct{})}
	sink := New(&fakeClient{token: pending}, WithTimeout(20*time.Millisecond))

	err := sink.Publish(context.Background(), events.Event{Type: events.RunStarted})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestSink_PublishHonoursContext(t *testing.T) {
	pending := &fakeToken{done: make(chan struct{})}
	sink := New(&fakeClient{token: pending})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sink.Publish(ctx, events.Event{Type: events.RunStarted}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSink_OptionsAndClose(t *testing.T) {
	client := &fakeClient{}
	sink := New(client, WithQoS(0), WithQoS(7), WithRetain(true), WithTimeout(0))
	if sink.qos != 0 || !sink.retain || sink.timeout != DefaultTimeout {
		t.Errorf("qos=%d retain=%v timeout=%v", sink.qos, sink.retain, sink.timeout)
	}
	sink.Close()
	if !client.disconnected {
		t.Error("Close should disconnect the client")
	}
}
