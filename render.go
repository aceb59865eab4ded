package components

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Invocation is one component call site: positional values, keyword values,
// slot fills, ambient context and an optional local isolation override. It
// lives for the duration of one render.
type Invocation struct {
	// Args are ordered positional values handed to the data hook.
	Args []any

	// Kwargs are keyword values handed to the data hook.
	Kwargs map[string]any

	// Fills maps slot names to fill content. The key ImplicitFillName
	// targets whichever slot the template marks default.
	Fills map[string]Fill

	// Data is the ambient context of a top-level render call. It forms the
	// base context layer.
	Data map[string]any

	// Isolated overrides the engine's context behavior for this call. A
	// true override additionally withholds the ambient base layer from
	// isolated fill bodies.
	Isolated *bool
}

// RenderResult is a completed render: the output plus the static assets the
// rendered components depend on, resolved to URLs.
type RenderResult struct {
	HTML string
	CSS  []string
	JS   []string
}

// frame is the per-render state: the context stack, the chain of component
// frames, collected assets and the recursion depth. Frames are never shared
// between renders.
type frame struct {
	goCtx  context.Context
	eng    *Engine
	scope  *Context
	depth  int
	comps  []*componentFrame
	assets *assetSet
}

// componentFrame is the render state of one component on the frame's chain.
type componentFrame struct {
	name          string
	parsed        *parsedTemplate
	data          map[string]any
	fills         map[string]*suppliedFill
	policy        string
	localIsolated bool
}

func (e *Engine) newFrame(ctx context.Context, ambient map[string]any) *frame {
	return &frame{
		goCtx:  ctx,
		eng:    e,
		scope:  NewContext(ambient),
		assets: newAssetSet(),
	}
}

// frameOf returns the innermost component frame rendering the given
// template. Slot occurrences resolve against their lexically owning
// template, not whatever component happens to be innermost.
func (f *frame) frameOf(pt *parsedTemplate) *componentFrame {
	for i := len(f.comps) - 1; i >= 0; i-- {
		if f.comps[i].parsed == pt {
			return f.comps[i]
		}
	}
	return nil
}

// RenderComponent renders one registered component to completion. A failed
// render returns no partial output.
func (e *Engine) RenderComponent(ctx context.Context, name string, inv Invocation) (*RenderResult, error) {
	f := e.newFrame(ctx, inv.Data)
	var b strings.Builder
	if err := e.renderInto(f, name, inv, nil, &b); err != nil {
		return nil, err
	}
	return &RenderResult{HTML: b.String(), CSS: f.assets.css, JS: f.assets.js}, nil
}

// Render renders a component into w. Nothing is written on failure.
func (e *Engine) Render(ctx context.Context, w io.Writer, name string, inv Invocation) error {
	res, err := e.RenderComponent(ctx, name, inv)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, res.HTML)
	return err
}

// RenderString renders root template source that may invoke @component
// tags, against the given ambient data.
func (e *Engine) RenderString(ctx context.Context, src string, data map[string]any) (string, error) {
	key := templateKey("", src)
	pt, ok := e.cache.get(key)
	if !ok {
		p := &parser{componentName: "inline", funcs: e.funcs}
		var err error
		pt, err = p.parse(src)
		if err != nil {
			return "", err
		}
		e.cache.add(key, pt)
	}
	f := e.newFrame(ctx, data)
	var b strings.Builder
	if err := execNodes(f, pt.nodes, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// renderInto drives one component render on an existing frame: data hook,
// fill resolution, context layer push, template execution. Pushed layers
// and the component frame are released on every exit path.
func (e *Engine) renderInto(f *frame, name string, inv Invocation, sup []*suppliedFill, w *strings.Builder) (err error) {
	f.depth++
	defer func() { f.depth-- }()
	if f.depth > e.settings.MaxRenderDepth {
		return configErrf(name, "", "render depth exceeded %d, likely cyclic component references", e.settings.MaxRenderDepth)
	}

	comp, ok := e.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}

	goCtx, span := e.tracer.Start(f.goCtx, "component.render",
		trace.WithAttributes(attribute.String("component.name", name)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	prevCtx := f.goCtx
	f.goCtx = goCtx
	defer func() { f.goCtx = prevCtx }()

	parsed, err := e.compile(f.goCtx, name, comp)
	if err != nil {
		return err
	}

	data, err := comp.Data(Input{Args: inv.Args, Kwargs: inv.Kwargs, inject: f.scope.injected})
	if err != nil {
		return fmt.Errorf("[component: %s] data hook: %w", name, err)
	}
	if data == nil {
		data = map[string]any{}
	}

	if sup == nil && len(inv.Fills) > 0 {
		sup, err = e.invocationFills(name, inv.Fills, f.scope.snapshot())
		if err != nil {
			return err
		}
	}
	fills, err := resolveFills(name, parsed, sup)
	if err != nil {
		return err
	}

	if mp, ok := comp.(MediaProvider); ok {
		f.assets.add(mp, e.static)
	}

	policy := e.settings.ContextBehavior
	localIsolated := false
	if inv.Isolated != nil {
		if *inv.Isolated {
			policy = ContextBehaviorIsolated
			localIsolated = true
		} else {
			policy = ContextBehaviorDjango
		}
	}

	mark := f.scope.mark()
	defer f.scope.unwind(mark)
	f.scope.push(layer{kind: layerComponent, vars: data, owner: name})

	f.comps = append(f.comps, &componentFrame{
		name:          name,
		parsed:        parsed,
		data:          data,
		fills:         fills,
		policy:        policy,
		localIsolated: localIsolated,
	})
	defer func() { f.comps = f.comps[:len(f.comps)-1] }()

	logger(f.goCtx).Debug("rendering component", "component", name, "context_behavior", policy)
	return execNodes(f, parsed.nodes, w)
}

// invocationFills normalizes the Invocation.Fills map. Content fills are
// parsed with the directive grammar; names are processed in sorted order so
// validation failures are deterministic.
func (e *Engine) invocationFills(component string, m map[string]Fill, site []layer) ([]*suppliedFill, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	sup := make([]*suppliedFill, 0, len(m))
	for _, name := range names {
		s := &suppliedFill{name: name, implicit: name == ImplicitFillName, site: site}
		switch fl := m[name].(type) {
		case Content:
			p := &parser{componentName: component + "#" + name, funcs: e.funcs}
			pt, err := p.parse(string(fl))
			if err != nil {
				return nil, err
			}
			s.body = pt.nodes
		case FillFunc:
			s.fn = fl
		default:
			return nil, configErrf(component, name, "unsupported fill type %T", m[name])
		}
		sup = append(sup, s)
	}
	return sup, nil
}

// assetSet accumulates MediaProvider assets in first-seen order without
// duplicates.
type assetSet struct {
	seen map[string]struct{}
	css  []string
	js   []string
}

func newAssetSet() *assetSet {
	return &assetSet{seen: map[string]struct{}{}}
}

func (a *assetSet) add(mp MediaProvider, resolve StaticResolver) {
	for _, p := range mp.CSS() {
		url := resolve(p)
		if _, dup := a.seen["css:"+url]; dup {
			continue
		}
		a.seen["css:"+url] = struct{}{}
		a.css = append(a.css, url)
	}
	for _, p := range mp.JS() {
		url := resolve(p)
		if _, dup := a.seen["js:"+url]; dup {
			continue
		}
		a.seen["js:"+url] = struct{}{}
		a.js = append(a.js, url)
	}
}
