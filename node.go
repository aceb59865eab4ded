package components

import (
	"fmt"
	"html/template"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// node is one executable element of a parsed component template. Text
// between directives is handed to html/template; directives execute against
// the frame's context stack.
type node interface {
	exec(f *frame, w *strings.Builder) error
}

func execNodes(f *frame, nodes []node, w *strings.Builder) error {
	for _, n := range nodes {
		if err := n.exec(f, w); err != nil {
			return err
		}
	}
	return nil
}

type textNode struct {
	src  string
	tmpl *template.Template
}

func (n *textNode) exec(f *frame, w *strings.Builder) error {
	return n.tmpl.Execute(w, f.scope.Flatten())
}

func (n *textNode) whitespaceOnly() bool {
	return strings.TrimSpace(n.src) == ""
}

type scopedExpr struct {
	name string
	e    expr
}

// slotNode is one @slot occurrence. Occurrences sharing a name form one
// logical slot for fill matching but render independently.
type slotNode struct {
	name      string
	required  bool
	isDefault bool
	data      []scopedExpr
	body      []node
	owner     *parsedTemplate
}

func (n *slotNode) exec(f *frame, w *strings.Builder) error {
	cf := f.frameOf(n.owner)
	if cf == nil {
		return configErrf("", n.name, "@slot used outside a component template")
	}
	return renderSlot(f, cf, n, w)
}

// fillNode is one @fill block inside a @component body.
type fillNode struct {
	target       string
	dataAlias    string
	defaultAlias string
	body         []node
	refsDefault  bool
}

func (n *fillNode) exec(f *frame, w *strings.Builder) error {
	return configErrf("", n.target, "@fill outside a @component block")
}

type kwarg struct {
	name string
	e    expr
}

// componentNode is a nested @component invocation.
type componentNode struct {
	name     string
	args     []expr
	kwargs   []kwarg
	isolated bool
	fills    []*fillNode
	implicit []node
}

func (n *componentNode) exec(f *frame, w *strings.Builder) error {
	inv := Invocation{
		Args:   make([]any, 0, len(n.args)),
		Kwargs: make(map[string]any, len(n.kwargs)),
	}
	for _, a := range n.args {
		inv.Args = append(inv.Args, a.eval(f.scope))
	}
	for _, kw := range n.kwargs {
		inv.Kwargs[kw.name] = kw.e.eval(f.scope)
	}
	if n.isolated {
		iso := true
		inv.Isolated = &iso
	}

	site := f.scope.snapshot()
	var sup []*suppliedFill
	for _, fl := range n.fills {
		sup = append(sup, &suppliedFill{
			name:         fl.target,
			body:         fl.body,
			dataAlias:    fl.dataAlias,
			defaultAlias: fl.defaultAlias,
			refsDefault:  fl.refsDefault,
			site:         site,
		})
	}
	if len(n.implicit) > 0 {
		sup = append(sup, &suppliedFill{
			name:     ImplicitFillName,
			implicit: true,
			body:     n.implicit,
			site:     site,
		})
	}
	return f.eng.renderInto(f, n.name, inv, sup, w)
}

// foreachNode pushes one iteration layer per element, so fills supplied
// inside the loop can see the loop variables under either context behavior.
type foreachNode struct {
	indexVar string
	itemVar  string
	coll     expr
	body     []node
}

func (n *foreachNode) exec(f *frame, w *strings.Builder) error {
	coll := n.coll.eval(f.scope)
	if coll == nil {
		return nil
	}
	iter := func(idx, item any) error {
		vars := map[string]any{n.itemVar: item}
		if n.indexVar != "" {
			vars[n.indexVar] = idx
		}
		f.scope.push(layer{kind: layerIteration, vars: vars, owner: n.itemVar})
		err := execNodes(f, n.body, w)
		f.scope.pop()
		return err
	}
	rv := reflect.ValueOf(coll)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := iter(i, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("@foreach: cannot iterate %T", coll)
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := iter(k, rv.MapIndex(reflect.ValueOf(k)).Interface()); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("@foreach: cannot iterate %T", coll)
	}
	return nil
}

// provideNode binds an injectable record for its subtree.
type provideNode struct {
	key   string
	pairs []scopedExpr
	body  []node
}

func (n *provideNode) exec(f *frame, w *strings.Builder) error {
	names := make([]string, 0, len(n.pairs))
	vals := make(map[string]any, len(n.pairs))
	for _, p := range n.pairs {
		names = append(names, p.name)
		vals[p.name] = p.e.eval(f.scope)
	}
	rec := newRecord(names, vals)
	f.scope.push(layer{kind: layerProvide, owner: n.key, vars: map[string]any{n.key: rec}})
	err := execNodes(f, n.body, w)
	f.scope.pop()
	return err
}

// DefaultContent is a lazy handle on a slot's declared default body, exposed
// to fills under their requested default-content alias. The body is rendered
// on first use only; a fill that never touches the handle never evaluates
// the default content.
type DefaultContent struct {
	render func() (string, error)
	once   sync.Once
	html   string
	err    error
}

// Render evaluates the default body once and memoizes the result. It is the
// only accessor: a render failure must reach the caller, not vanish into
// empty output.
func (d *DefaultContent) Render() (string, error) {
	d.once.Do(func() {
		d.html, d.err = d.render()
	})
	return d.html, d.err
}
