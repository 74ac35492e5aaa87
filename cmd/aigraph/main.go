// Command aigraph runs a workflow document once and prints the final state
// as JSON.
//
//	aigraph -config support.yaml -input '{"messages":[{"role":"user","content":"hi"}]}' -thread t1
//
// Settings are read from the environment (a .env file is loaded when
// present): OPENAI_API_KEY, OPENAI_API_BASE_URL, AIGRAPH_LOG_LEVEL,
// AIGRAPH_LOG_FORMAT, AIGRAPH_CHECKPOINT and MQTT_URL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/leofalp/aigraph/patterns/workflow"
	"github.com/leofalp/aigraph/providers/events/mqtt"
	"github.com/leofalp/aigraph/providers/observability/slogobs"
)

const (
	exitOK = iota
	exitRunFailed
	exitUsage
	exitConfig
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the workflow document (.json, .yaml or .yml)")
	input := flag.String("input", "{}", "initial state as a JSON object, or @file to read it from a file")
	thread := flag.String("thread", "", "thread id; loads and saves state through AIGRAPH_CHECKPOINT")
	maxSteps := flag.Int("max-steps", workflow.DefaultMaxSteps, "maximum supersteps before the run is aborted")
	maxConcurrency := flag.Int("max-concurrency", 0, "maximum nodes executed at once (0 = unbounded)")
	timeout := flag.Duration("timeout", 0, "overall run timeout (0 = none)")
	validateOnly := flag.Bool("validate", false, "only validate the document and list its problems")
	publish := flag.Bool("mqtt", false, "publish run events to the MQTT broker at MQTT_URL")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "aigraph: -config is required")
		flag.Usage()
		return exitUsage
	}

	cfg, err := workflow.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "aigraph:", err)
		return exitConfig
	}
	if *validateOnly {
		problems := workflow.Validate(cfg)
		for _, p := range problems {
			fmt.Println(p)
		}
		if len(problems) > 0 {
			return exitConfig
		}
		fmt.Printf("%s: ok\n", cfg.Name)
		return exitOK
	}

	initial, err := readInput(*input)
	if err != nil {
		fmt.Fprintln(os.Stderr, "aigraph:", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := slogobs.New()
	logger := observer.Logger()

	opts := []workflow.Option{
		workflow.WithObserver(observer),
		workflow.WithMaxSteps(*maxSteps),
		workflow.WithMaxConcurrency(*maxConcurrency),
		workflow.WithExecutionTimeout(*timeout),
	}

	store, err := openCheckpointer(ctx, os.Getenv("AIGRAPH_CHECKPOINT"))
	if err != nil {
		logger.Error("checkpoint store unavailable", "error", err)
		return exitConfig
	}
	if store != nil {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.Warn("closing checkpoint store", "error", err)
			}
		}()
		opts = append(opts, workflow.WithCheckpointer(store))
		logger.Debug("checkpoint store ready", "backend", store.Backend)
	}

	if *publish {
		sink, err := mqtt.Connect("aigraph-" + cfg.Name)
		if err != nil {
			// events are an audit side channel; the run goes on without them
			logger.Warn("mqtt unavailable, events disabled", "broker", mqtt.BrokerURL(), "error", err)
		} else {
			defer sink.Close()
			opts = append(opts, workflow.WithEventSink(sink))
		}
	}

	graph, err := workflow.Compile(cfg, opts...)
	if err != nil {
		var cfgErr *workflow.ConfigError
		if errors.As(err, &cfgErr) {
			for _, p := range cfgErr.Problems {
				fmt.Fprintln(os.Stderr, p)
			}
		}
		fmt.Fprintln(os.Stderr, "aigraph:", err)
		return exitConfig
	}

	var runOpts []workflow.RunOption
	if *thread != "" {
		runOpts = append(runOpts, workflow.WithThreadID(*thread))
	}
	final, err := graph.Run(ctx, initial, runOpts...)
	if err != nil {
		logger.Error("run failed", "workflow", cfg.Name, "error", err)
		return exitRunFailed
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(final); err != nil {
		logger.Error("encode final state", "error", err)
		return exitRunFailed
	}
	return exitOK
}

// readInput parses the -input flag: inline JSON or @path.
func readInput(arg string) (map[string]any, error) {
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		data = b
	}
	var initial map[string]any
	if err := json.Unmarshal(data, &initial); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}
	if initial == nil {
		initial = map[string]any{}
	}
	return initial, nil
}
