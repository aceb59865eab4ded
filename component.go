package components

import (
	"fmt"
	"sort"
)

// Component is a named template plus the data hook that computes its
// context. The hook is a pure function of the invocation's arguments; it may
// return an error to reject invalid input, which fails the render.
type Component interface {
	// Template returns the component's template source. Implementations
	// that load templates from an engine filesystem can return "" and
	// implement TemplateNamer instead.
	Template() string

	// Data computes the component's context variables from the invocation.
	Data(in Input) (map[string]any, error)
}

// TemplateNamer lets a component reference a template loaded via
// Engine.Load instead of embedding the source in Go code.
type TemplateNamer interface {
	TemplateName() string
}

// MediaProvider lists static assets a component depends on. Paths are
// collected per render, deduplicated in first-seen order, resolved through
// the engine's static resolver, and returned on RenderResult.
type MediaProvider interface {
	CSS() []string
	JS() []string
}

// Input carries one invocation's arguments into a component's data hook.
type Input struct {
	// Args are the ordered positional values of the invocation.
	Args []any

	// Kwargs are the keyword values of the invocation.
	Kwargs map[string]any

	inject func(key string) (Record, bool)
}

// Inject looks up the record bound by the nearest enclosing @provide block.
// A missing key returns the supplied default, or ErrInjectKeyNotFound when
// none is given.
func (in Input) Inject(key string, def ...Record) (Record, error) {
	if in.inject != nil {
		if rec, ok := in.inject(key); ok {
			return rec, nil
		}
	}
	if len(def) > 0 {
		return def[0], nil
	}
	return Record{}, fmt.Errorf("%w: %q", ErrInjectKeyNotFound, key)
}

// Record is an immutable set of named values, used for injected data and for
// the scoped data a slot exposes to its fill. The field set is fixed when
// the record is built.
type Record struct {
	names []string
	vals  map[string]any
}

// NewRecord builds a record from a map. Field order is the sorted key order;
// records built internally from directive arguments keep declaration order.
func NewRecord(vals map[string]any) Record {
	names := make([]string, 0, len(vals))
	for k := range vals {
		names = append(names, k)
	}
	sort.Strings(names)
	return newRecord(names, vals)
}

func newRecord(names []string, vals map[string]any) Record {
	copied := make(map[string]any, len(vals))
	for k, v := range vals {
		copied[k] = v
	}
	return Record{names: append([]string(nil), names...), vals: copied}
}

// Get returns a field and whether it exists.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.vals[name]
	return v, ok
}

// Field returns a field, or nil when the record has no such field.
func (r Record) Field(name string) any {
	return r.vals[name]
}

// Names returns the record's field names in declaration order.
func (r Record) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.vals)
}

// asMap copies the record's values, for binding into template scopes.
func (r Record) asMap() map[string]any {
	out := make(map[string]any, len(r.vals))
	for k, v := range r.vals {
		out[k] = v
	}
	return out
}

// Fill is caller-supplied content targeting a slot: either literal template
// source (Content) or a function (FillFunc).
type Fill interface {
	isFill()
}

// Content is fill content given as template source text. It is parsed with
// the same directive grammar as component templates.
type Content string

func (Content) isFill() {}

// FillFunc is a programmatic fill. It receives the effective context scope
// for the fill body, the scoped data exposed by the target slot, and a lazy
// handle on the slot's default content.
type FillFunc func(scope *Context, data Record, def *DefaultContent) (string, error)

func (FillFunc) isFill() {}
