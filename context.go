package components

type layerKind int

const (
	layerRoot      layerKind = iota // ambient data of the top-level render call
	layerComponent                  // a component's computed data
	layerIteration                  // one @foreach iteration
	layerFill                       // fill-local alias bindings
	layerProvide                    // @provide bindings, invisible to variable lookup
)

type layer struct {
	kind  layerKind
	vars  map[string]any
	owner string // component name, loop variable or provide key
}

// Context is the stack of variable layers a render resolves against, outer
// layers first. Layers are pushed and popped by syntactic blocks (component
// boundaries, @foreach iterations, fill bodies, @provide blocks); every push
// is matched by exactly one pop on all exit paths.
type Context struct {
	layers []layer
}

// NewContext returns a context whose base layer holds the given ambient
// variables. A nil map yields an empty base layer.
func NewContext(vars map[string]any) *Context {
	if vars == nil {
		vars = map[string]any{}
	}
	return &Context{layers: []layer{{kind: layerRoot, vars: vars}}}
}

func (c *Context) push(l layer) {
	c.layers = append(c.layers, l)
}

func (c *Context) pop() {
	c.layers = c.layers[:len(c.layers)-1]
}

// mark records the current stack depth so an exit path can unwind to it even
// when intermediate pops were skipped by an error.
func (c *Context) mark() int {
	return len(c.layers)
}

func (c *Context) unwind(mark int) {
	if len(c.layers) > mark {
		c.layers = c.layers[:mark]
	}
}

// Lookup resolves a variable name against the stack, innermost layer first.
// Provide layers are skipped: their values are reachable only via inject.
func (c *Context) Lookup(name string) (any, bool) {
	for i := len(c.layers) - 1; i >= 0; i-- {
		l := c.layers[i]
		if l.kind == layerProvide {
			continue
		}
		if v, ok := l.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Flatten merges the stack into a single map, inner layers shadowing outer
// ones. The result feeds html/template execution and is owned by the caller.
func (c *Context) Flatten() map[string]any {
	out := map[string]any{}
	for _, l := range c.layers {
		if l.kind == layerProvide {
			continue
		}
		for k, v := range l.vars {
			out[k] = v
		}
	}
	return out
}

// injected returns the record bound by the innermost @provide block for the
// given key.
func (c *Context) injected(key string) (Record, bool) {
	for i := len(c.layers) - 1; i >= 0; i-- {
		l := c.layers[i]
		if l.kind == layerProvide && l.owner == key {
			if rec, ok := l.vars[key].(Record); ok {
				return rec, true
			}
		}
	}
	return Record{}, false
}

// snapshot copies the layer slice. Layer maps are shared: layers are treated
// as immutable once pushed.
func (c *Context) snapshot() []layer {
	site := make([]layer, len(c.layers))
	copy(site, c.layers)
	return site
}

// isolatedScope builds the context an isolated fill body resolves against,
// from a snapshot of the stack taken where the fill was supplied. It keeps
// the defining component's data layer, iteration layers that lexically wrap
// the fill inside the defining template, provide layers, and the ambient
// base layer unless the invocation locally requested isolation. Data layers
// of intermediate components never survive.
func isolatedScope(site []layer, includeAmbient bool) *Context {
	defIdx := -1
	for i := len(site) - 1; i >= 0; i-- {
		if site[i].kind == layerComponent {
			defIdx = i
			break
		}
	}
	scope := &Context{}
	for i, l := range site {
		switch l.kind {
		case layerRoot:
			if includeAmbient {
				scope.push(l)
			}
		case layerComponent:
			if i == defIdx {
				scope.push(l)
			}
		case layerIteration:
			if i > defIdx {
				scope.push(l)
			}
		case layerProvide:
			scope.push(l)
		}
	}
	return scope
}
