package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/leofalp/aigraph/core/executor"
	"github.com/leofalp/aigraph/internal/utils"
	"github.com/leofalp/aigraph/providers/ai"
	"github.com/leofalp/aigraph/providers/observability"
)

// testObserver implements observability.Provider and records what it sees.
type testObserver struct {
	mu      sync.Mutex
	spans   []string
	logs    []string
	warns   []string
	metrics map[string]float64
}

var _ observability.Provider = (*testObserver)(nil)

func newTestObserver() *testObserver {
	return &testObserver{metrics: map[string]float64{}}
}

func (o *testObserver) StartSpan(ctx context.Context, name string, _ ...observability.Attribute) (context.Context, observability.Span) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spans = append(o.spans, name)
	return ctx, &testSpan{}
}

func (o *testObserver) log(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logs = append(o.logs, msg)
}

func (o *testObserver) Trace(_ context.Context, msg string, _ ...observability.Attribute) { o.log(msg) }
func (o *testObserver) Debug(_ context.Context, msg string, _ ...observability.Attribute) { o.log(msg) }
func (o *testObserver) Info(_ context.Context, msg string, _ ...observability.Attribute)  { o.log(msg) }
func (o *testObserver) Error(_ context.Context, msg string, _ ...observability.Attribute) { o.log(msg) }

func (o *testObserver) Warn(_ context.Context, msg string, _ ...observability.Attribute) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.warns = append(o.warns, msg)
}

func (o *testObserver) Counter(name string) observability.Counter {
	return &testMetric{name: name, observer: o}
}

func (o *testObserver) Histogram(name string) observability.Histogram {
	return &testMetric{name: name, observer: o}
}

func (o *testObserver) metric(name string) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.metrics[name]
}

func (o *testObserver) spanCount(name string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, s := range o.spans {
		if s == name {
			n++
		}
	}
	return n
}

func (o *testObserver) warnings() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.warns...)
}

type testSpan struct{}

func (testSpan) End()                                        {}
func (testSpan) SetAttributes(...observability.Attribute)    {}
func (testSpan) SetStatus(observability.StatusCode, string)  {}
func (testSpan) RecordError(error)                           {}
func (testSpan) AddEvent(string, ...observability.Attribute) {}

type testMetric struct {
	name     string
	observer *testObserver
}

func (m *testMetric) Add(_ context.Context, value int64, _ ...observability.Attribute) {
	m.observer.mu.Lock()
	defer m.observer.mu.Unlock()
	m.observer.metrics[m.name] += float64(value)
}

func (m *testMetric) Record(_ context.Context, value float64, _ ...observability.Attribute) {
	m.observer.mu.Lock()
	defer m.observer.mu.Unlock()
	m.observer.metrics[m.name] = value
}

var errBoom = errors.New("boom")

// testRegistry adds test kinds to the default registry:
//
//	branch: returns "<letter> processed <input>" after delay_ms
//	const:  returns config "value"
//	fail:   returns errBoom
//	echo:   returns its input
func testRegistry() *executor.Registry {
	r := executor.DefaultRegistry()
	r.Register("branch", func(cfg map[string]any, _ executor.Env) (executor.Executor, error) {
		letter, _ := cfg["letter"].(string)
		delay, _ := utils.ToFloat64(cfg["delay_ms"])
		return executor.ExecutorFunc(func(ctx context.Context, input any) (any, error) {
			select {
			case <-time.After(time.Duration(delay) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return fmt.Sprintf("%s processed %v", letter, input), nil
		}), nil
	})
	r.Register("const", func(cfg map[string]any, _ executor.Env) (executor.Executor, error) {
		value := cfg["value"]
		return executor.ExecutorFunc(func(context.Context, any) (any, error) {
			return value, nil
		}), nil
	})
	r.Register("fail", func(map[string]any, executor.Env) (executor.Executor, error) {
		return executor.ExecutorFunc(func(context.Context, any) (any, error) {
			return nil, errBoom
		}), nil
	})
	r.Register("echo", func(map[string]any, executor.Env) (executor.Executor, error) {
		return executor.ExecutorFunc(func(_ context.Context, input any) (any, error) {
			return input, nil
		}), nil
	})
	return r
}

func mustLoad(t *testing.T, doc string) *Config {
	t.Helper()
	cfg, err := LoadBytes([]byte(doc))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	return cfg
}

func mustCompile(t *testing.T, cfg *Config, opts ...Option) *CompiledGraph {
	t.Helper()
	opts = append([]Option{WithRegistry(testRegistry())}, opts...)
	g, err := Compile(cfg, opts...)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return g
}

// mockProvider answers with responses in order, repeating the last one.
type mockProvider struct {
	mu        sync.Mutex
	responses []string
	requests  []ai.ChatRequest
	err       error
}

var _ ai.Provider = (*mockProvider)(nil)

func (p *mockProvider) SendMessage(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return &ai.ChatResponse{Content: ""}, nil
	}
	idx := len(p.requests) - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return &ai.ChatResponse{Content: p.responses[idx]}, nil
}

func (p *mockProvider) WithAPIKey(string) ai.Provider           { return p }
func (p *mockProvider) WithBaseURL(string) ai.Provider          { return p }
func (p *mockProvider) WithHttpClient(*http.Client) ai.Provider { return p }
