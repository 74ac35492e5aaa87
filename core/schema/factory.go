package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/leofalp/aigraph/internal/utils"
)

const (
	docKey    = "__doc__"
	nestedKey = "__nested__"
)

// Definition is the input of Factory.Build.
type Definition struct {
	Name   string
	Doc    string
	Nested map[string]map[string]any // model name -> field definitions
	Fields map[string]any            // field name -> type string or field object
	Strict bool
}

// ParseDefinition splits an output_schema document of the form
//
//	{"__doc__": "...", "__nested__": {"Model": {field: def}}, field: def, ...}
//
// into a Definition. Other keys starting with "__" are ignored.
func ParseDefinition(name string, doc map[string]any, strict bool) (Definition, error) {
	def := Definition{Name: name, Fields: map[string]any{}, Strict: strict}

	for key, raw := range doc {
		switch {
		case key == docKey:
			s, ok := raw.(string)
			if !ok {
				return Definition{}, fmt.Errorf("schema: %s must be a string, got %T", docKey, raw)
			}
			def.Doc = s
		case key == nestedKey:
			nested, ok := raw.(map[string]any)
			if !ok {
				return Definition{}, fmt.Errorf("schema: %s must be an object, got %T", nestedKey, raw)
			}
			def.Nested = make(map[string]map[string]any, len(nested))
			for modelName, fields := range nested {
				m, ok := fields.(map[string]any)
				if !ok {
					return Definition{}, fmt.Errorf("schema: nested model %s must be an object, got %T", modelName, fields)
				}
				def.Nested[modelName] = m
			}
		case strings.HasPrefix(key, "__"):
		default:
			def.Fields[key] = raw
		}
	}
	return def, nil
}

// Factory builds Models. With caching on (the default), building an
// identical Definition again returns the same *Model.
type Factory struct {
	cache bool

	mu     sync.Mutex
	models map[string]*Model
}

// Option configures a Factory.
type Option func(*Factory)

// WithCache enables or disables the descriptor cache.
func WithCache(enabled bool) Option {
	return func(f *Factory) { f.cache = enabled }
}

// NewFactory creates a Factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{cache: true, models: map[string]*Model{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Len returns the number of cached models.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.models)
}

// Clear drops every cached model.
func (f *Factory) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = map[string]*Model{}
}

// Build turns def into a Model.
//
// Nested models may be declared in any order: every pass builds the models
// whose references are already built, and resolution stops when a pass makes
// no progress. Models left over are reported in a *SchemaError together with
// their missing or circular references. Malformed field definitions yield a
// *DefinitionError (several are joined).
func (f *Factory) Build(def Definition) (*Model, error) {
	if def.Name == "" {
		return nil, errors.New("schema: definition has no name")
	}

	var key string
	if f.cache {
		key = cacheKey(def)
		f.mu.Lock()
		m, ok := f.models[key]
		f.mu.Unlock()
		if ok {
			return m, nil
		}
	}

	m, err := build(def)
	if err != nil {
		return nil, err
	}

	if f.cache {
		f.mu.Lock()
		if cached, ok := f.models[key]; ok {
			m = cached
		} else {
			f.models[key] = m
		}
		f.mu.Unlock()
	}
	return m, nil
}

func cacheKey(def Definition) string {
	data, err := json.Marshal(def)
	if err != nil {
		// Unserializable defaults; fall back to the formatted value.
		data = []byte(fmt.Sprintf("%#v", def))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type pendingModel struct {
	model *Model
	deps  map[string]bool
}

func build(def Definition) (*Model, error) {
	if _, clash := def.Nested[def.Name]; clash {
		return nil, fmt.Errorf("schema: nested model %s shadows the root model", def.Name)
	}

	declared := map[string]bool{def.Name: true}
	for name := range def.Nested {
		declared[name] = true
	}

	pending := map[string]*pendingModel{}
	var errs []error

	add := func(name, doc string, fields map[string]any) {
		m, err := parseModel(name, doc, fields, def.Strict, declared)
		if err != nil {
			errs = append(errs, err)
			return
		}
		deps := map[string]bool{}
		for _, fld := range m.Fields {
			fld.Type.refs(deps)
		}
		pending[name] = &pendingModel{model: m, deps: deps}
	}
	for _, name := range sortedKeys(def.Nested) {
		add(name, "", def.Nested[name])
	}
	add(def.Name, def.Doc, def.Fields)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	built := map[string]*Model{}
	for progress := true; progress && len(pending) > 0; {
		progress = false
		for _, name := range sortedKeys(pending) {
			p := pending[name]
			if !allBuilt(p.deps, built) {
				continue
			}
			built[name] = p.model.link(built)
			delete(pending, name)
			progress = true
		}
	}

	if len(pending) > 0 {
		return nil, blockedError(pending, declared)
	}
	return built[def.Name], nil
}

func allBuilt(deps map[string]bool, built map[string]*Model) bool {
	for dep := range deps {
		if _, ok := built[dep]; !ok {
			return false
		}
	}
	return true
}

func blockedError(pending map[string]*pendingModel, declared map[string]bool) *SchemaError {
	// reaches reports whether from leads to target through pending models.
	reaches := func(from, target string) bool {
		seen := map[string]bool{}
		stack := []string{from}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if cur == target {
				return true
			}
			if seen[cur] {
				continue
			}
			seen[cur] = true
			if p, ok := pending[cur]; ok {
				for dep := range p.deps {
					stack = append(stack, dep)
				}
			}
		}
		return false
	}

	out := &SchemaError{}
	for _, name := range sortedKeys(pending) {
		b := Blocked{Model: name}
		for _, dep := range sortedKeys(pending[name].deps) {
			switch {
			case !declared[dep]:
				b.Missing = append(b.Missing, dep)
			case pending[dep] == nil:
				// already built
			case reaches(dep, name):
				b.Circular = append(b.Circular, dep)
			default:
				b.Pending = append(b.Pending, dep)
			}
		}
		out.Unresolved = append(out.Unresolved, b)
	}
	return out
}

func parseModel(name, doc string, fields map[string]any, strict bool, declared map[string]bool) (*Model, error) {
	m := &Model{Name: name, Doc: doc, Strict: strict}
	var errs []error
	for _, fieldName := range sortedKeys(fields) {
		if strings.HasPrefix(fieldName, "__") {
			continue
		}
		fld, err := parseField(name, fieldName, fields[fieldName], strict, declared)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Fields = append(m.Fields, fld)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

// parseField accepts a bare type string or a field object. Fields are
// required unless they declare a default or set required to false.
func parseField(model, name string, raw any, strict bool, declared map[string]bool) (*Field, error) {
	fail := func(err error) (*Field, error) {
		return nil, &DefinitionError{Model: model, Field: name, Err: err}
	}

	if typeStr, ok := raw.(string); ok {
		t, err := parseType(typeStr, declared)
		if err != nil {
			return fail(err)
		}
		return &Field{Name: name, Type: t, Required: true}, nil
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return fail(fmt.Errorf("field definition must be a type string or an object, got %T", raw))
	}

	fld := &Field{Name: name}

	typeStr := "str"
	if v, ok := obj["type"]; ok {
		s, ok := v.(string)
		if !ok {
			return fail(fmt.Errorf("type must be a string, got %T", v))
		}
		typeStr = s
	}

	if props, ok := obj["properties"].(map[string]any); ok && isObjectType(typeStr) {
		inline, err := parseModel(model+"_"+name, stringOf(obj["description"]), props, strict, declared)
		if err != nil {
			return nil, err
		}
		inline.anonymous = true
		fld.Type = &Type{Kind: KindModel, Model: inline}
	} else {
		t, err := parseType(typeStr, declared)
		if err != nil {
			return fail(err)
		}
		fld.Type = t
	}

	fld.Default, fld.HasDefault = obj["default"]
	fld.Required = !fld.HasDefault
	if v, ok := obj["required"]; ok {
		b, ok := v.(bool)
		if !ok {
			return fail(fmt.Errorf("required must be a bool, got %T", v))
		}
		fld.Required = b
	}
	fld.Description = stringOf(obj["description"])
	fld.Title = stringOf(obj["title"])
	if ex, ok := obj["examples"].([]any); ok {
		fld.Examples = ex
	}

	c, err := parseConstraints(obj)
	if err != nil {
		return fail(err)
	}
	fld.Constraints = c
	return fld, nil
}

func parseConstraints(obj map[string]any) (Constraints, error) {
	var c Constraints
	var err error

	intOf := func(key string) *int {
		v, ok := obj[key]
		if !ok || err != nil {
			return nil
		}
		f, ok := utils.ToFloat64(v)
		if !ok || f != float64(int(f)) || f < 0 {
			err = fmt.Errorf("%s must be a non-negative integer, got %v", key, v)
			return nil
		}
		n := int(f)
		return &n
	}
	numOf := func(key string) *float64 {
		v, ok := obj[key]
		if !ok || err != nil {
			return nil
		}
		f, ok := utils.ToFloat64(v)
		if !ok {
			err = fmt.Errorf("%s must be a number, got %v", key, v)
			return nil
		}
		return &f
	}

	c.MinLength = intOf("min_length")
	c.MaxLength = intOf("max_length")
	c.Ge = numOf("ge")
	c.Le = numOf("le")
	c.Gt = numOf("gt")
	c.Lt = numOf("lt")
	c.MultipleOf = numOf("multiple_of")
	if err != nil {
		return c, err
	}
	if c.MultipleOf != nil && *c.MultipleOf <= 0 {
		return c, fmt.Errorf("multiple_of must be positive, got %v", *c.MultipleOf)
	}

	if v, ok := obj["pattern"]; ok {
		s, ok := v.(string)
		if !ok {
			return c, fmt.Errorf("pattern must be a string, got %T", v)
		}
		re, reErr := regexp.Compile(s)
		if reErr != nil {
			return c, fmt.Errorf("invalid pattern: %w", reErr)
		}
		c.Pattern, c.pattern = s, re
	}

	if v, ok := obj["enum"]; ok {
		values, ok := v.([]any)
		if !ok || len(values) == 0 {
			return c, fmt.Errorf("enum must be a non-empty list, got %v", v)
		}
		c.Enum = values
	}
	return c, nil
}

func isObjectType(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "object", "dict":
		return true
	}
	return false
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
