package executor

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func newCode(t *testing.T, source string, timeout time.Duration) *CodeExecutor {
	t.Helper()
	e, err := NewCodeExecutor("code", CodeConfig{Source: source, Timeout: timeout})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestCodeExecutor_ResultVariable(t *testing.T) {
	e := newCode(t, `
import "strings"

result := strings.ToUpper(input_data.(string))
`, time.Second)

	out, err := e.Execute(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "HELLO" {
		t.Errorf("got %v", out)
	}
}

func TestCodeExecutor_Process(t *testing.T) {
	e := newCode(t, `
func process(in any) any {
	m := in.(map[string]any)
	return map[string]any{"doubled": m["n"].(float64) * 2}
}
`, time.Second)

	out, err := e.Execute(context.Background(), map[string]any{"n": 21.0})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"doubled": 42.0}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %#v, want %#v", out, want)
	}
}

func TestCodeExecutor_ProcessReturningError(t *testing.T) {
	e := newCode(t, `
import "errors"

func process(in any) (any, error) {
	return nil, errors.New("invalid score")
}
`, time.Second)

	_, err := e.Execute(context.Background(), nil)
	var rt *RuntimeError
	if !errors.As(err, &rt) {
		t.Fatalf("expected *RuntimeError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrRuntime) || !strings.Contains(err.Error(), "invalid score") {
		t.Errorf("error should carry the snippet message: %v", err)
	}
}

func TestCodeExecutor_ImportsWithStatements(t *testing.T) {
	e := newCode(t, `
import (
	"fmt"
	"strings"
)

parts := strings.Split(input_data.(string), ",")
result = fmt.Sprintf("%d parts", len(parts))
`, time.Second)

	out, err := e.Execute(context.Background(), "a,b,c")
	if err != nil {
		t.Fatal(err)
	}
	if out != "3 parts" {
		t.Errorf("got %v", out)
	}
}

func TestCodeExecutor_HelpersWithStatements(t *testing.T) {
	e := newCode(t, `
import "strings"

type shout string

func (s shout) String() string { return strings.ToUpper(string(s)) + "!" }

func wrap(s string) shout { return shout(s) }

result := wrap(input_data.(string)).String()
`, time.Second)

	out, err := e.Execute(context.Background(), "hey")
	if err != nil {
		t.Fatal(err)
	}
	if out != "HEY!" {
		t.Errorf("got %v", out)
	}
}

func TestCodeExecutor_ProcessWithImportsAndState(t *testing.T) {
	e := newCode(t, `
import "strings"

const sep = "-"

var prefix = "node"

func process(in any) (any, error) {
	return strings.Join([]string{prefix, in.(string)}, sep), nil
}
`, time.Second)

	out, err := e.Execute(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if out != "node-a" {
		t.Errorf("got %v", out)
	}
}

func TestCodeExecutor_ProcessTypedInput(t *testing.T) {
	e := newCode(t, `
func process(in map[string]any) any {
	return len(in)
}
`, time.Second)

	out, err := e.Execute(context.Background(), map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatal(err)
	}
	if out != 2 {
		t.Errorf("got %v", out)
	}

	if _, err := e.Execute(context.Background(), "not a map"); !errors.Is(err, ErrRuntime) {
		t.Errorf("expected ErrRuntime for mismatched input, got %v", err)
	}
}

func TestCodeExecutor_ProcessNilError(t *testing.T) {
	e := newCode(t, `
func process(in any) (any, error) {
	return in, nil
}
`, time.Second)

	out, err := e.Execute(context.Background(), "same")
	if err != nil {
		t.Fatal(err)
	}
	if out != "same" {
		t.Errorf("got %v", out)
	}
}

func TestCodeExecutor_ProcessShapeErrors(t *testing.T) {
	tests := []struct {
		name, source, want string
	}{
		{"statement outside", "func process(in any) any { return in }\nx := 1", "outside process"},
		{"no results", "func process(in any) {}", "got 0 results"},
		{"two params", "func process(a, b any) any { return a }", "one argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newCode(t, tt.source, time.Second)
			_, err := e.Execute(context.Background(), nil)
			if !errors.Is(err, ErrRuntime) || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestCodeExecutor_ProcessTimeout(t *testing.T) {
	e := newCode(t, `
func process(in any) any {
	for {
	}
}
`, 50*time.Millisecond)

	if _, err := e.Execute(context.Background(), nil); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCodeExecutor_NoResult(t *testing.T) {
	e := newCode(t, `x := 1
_ = x`, time.Second)

	out, err := e.Execute(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		t.Errorf("expected nil, got %v", out)
	}
}

func TestCodeExecutor_Timeout(t *testing.T) {
	e := newCode(t, `
for {
}
`, 100*time.Millisecond)

	start := time.Now()
	_, err := e.Execute(context.Background(), nil)
	var te *TimeoutError
	if !errors.As(err, &te) || !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected *TimeoutError, got %T: %v", err, err)
	}
	if te.Timeout != 100*time.Millisecond {
		t.Errorf("Timeout = %v", te.Timeout)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}

func TestCodeExecutor_RuntimePanic(t *testing.T) {
	e := newCode(t, `result := input_data.(string)`, time.Second)

	_, err := e.Execute(context.Background(), 42)
	if !errors.Is(err, ErrRuntime) {
		t.Fatalf("expected ErrRuntime, got %v", err)
	}
}

func TestCodeExecutor_SyntaxError(t *testing.T) {
	e := newCode(t, `result := (`, time.Second)

	if _, err := e.Execute(context.Background(), nil); !errors.Is(err, ErrRuntime) {
		t.Fatalf("expected ErrRuntime, got %v", err)
	}
}

func TestCodeExecutor_RestrictedImports(t *testing.T) {
	for _, pkg := range []string{"os", "net/http", "os/exec", "unsafe"} {
		t.Run(pkg, func(t *testing.T) {
			e := newCode(t, `import "`+pkg+`"`, time.Second)
			if _, err := e.Execute(context.Background(), nil); err == nil {
				t.Errorf("import %q should be rejected", pkg)
			}
		})
	}
}

func TestCodeExecutor_IsolatedRuns(t *testing.T) {
	e := newCode(t, `
var counter int
counter++
result := counter
`, time.Second)

	for i := 0; i < 3; i++ {
		out, err := e.Execute(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if out != 1 {
			t.Fatalf("run %d: got %v, want 1", i, out)
		}
	}
}

func TestCodeExecutor_CallerCancellation(t *testing.T) {
	e := newCode(t, `for {
}`, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := e.Execute(ctx, nil)
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("caller cancellation must not be reported as a snippet timeout: %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestNewCodeExecutor_EmptySource(t *testing.T) {
	if _, err := NewCodeExecutor("c", CodeConfig{Source: "\n\t"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
