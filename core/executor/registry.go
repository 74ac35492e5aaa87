package executor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leofalp/aigraph/core/schema"
	"github.com/leofalp/aigraph/providers/ai"
)

// Env carries what factories may need besides the node's own config.
type Env struct {
	// Node is the name of the node being built.
	Node string
	// Schemas builds structured-output models. Nil means a private factory.
	Schemas *schema.Factory
	// Provider, when set, is used by every LLM executor instead of a lazily
	// created OpenAI client.
	Provider ai.Provider
	// StrictDefault applies to LLM nodes whose config omits "strict".
	StrictDefault bool
}

// Factory builds an executor from a node's raw config.
type Factory func(cfg map[string]any, env Env) (Executor, error)

// Registry maps node kinds to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// DefaultRegistry returns a registry with the "llm" and "code" kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindLLM, NewLLMFromConfig)
	r.Register(KindCode, NewCodeFromConfig)
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// Kinds lists the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds an executor of the given kind.
func (r *Registry) New(kind string, cfg map[string]any, env Env) (Executor, error) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %v)", ErrUnknownKind, kind, r.Kinds())
	}
	return f(cfg, env)
}
