package components

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"text/template/parse"
)

var (
	reTag = regexp.MustCompile(
		`@component\(([^)]*)\)(\s*/)?` +
			`|@(slot|fill|foreach|provide)\(([^)]*)\)` +
			`|@(endcomponent|endslot|endfill|endforeach|endprovide)\b`)
	reForeachHeader = regexp.MustCompile(`^(?:([A-Za-z_][A-Za-z0-9_]*)\s*,\s*)?([A-Za-z_][A-Za-z0-9_]*)\s+in\s+(.+)$`)
)

// parsedTemplate is one compiled component template: the executable node
// tree plus the slot registry built from its @slot declarations.
type parsedTemplate struct {
	name  string
	nodes []node
	slots *slotRegistry
}

type parser struct {
	componentName string
	funcs         template.FuncMap
}

type blockBuilder struct {
	kind     string
	openEnd  int
	children []node
	slot     *slotNode
	fill     *fillNode
	comp     *componentNode
	loop     *foreachNode
	provide  *provideNode
}

func (p *parser) parse(src string) (*parsedTemplate, error) {
	pt := &parsedTemplate{
		name:  p.componentName,
		slots: newSlotRegistry(p.componentName),
	}

	stack := []*blockBuilder{{kind: "root"}}
	top := func() *blockBuilder { return stack[len(stack)-1] }
	appendChild := func(n node) { top().children = append(top().children, n) }

	matches := reTag.FindAllStringSubmatchIndex(src, -1)
	pos := 0
	textIndex := 0
	flushText := func(end int) error {
		if end <= pos {
			return nil
		}
		tn, err := p.compileText(src[pos:end], textIndex)
		if err != nil {
			return err
		}
		textIndex++
		appendChild(tn)
		return nil
	}

	for _, m := range matches {
		if err := flushText(m[0]); err != nil {
			return nil, err
		}
		pos = m[1]

		switch {
		case m[2] != -1: // @component(...)
			comp, err := p.parseComponentHeader(src[m[2]:m[3]])
			if err != nil {
				return nil, err
			}
			if m[4] != -1 { // self-closing
				appendChild(comp)
				continue
			}
			stack = append(stack, &blockBuilder{kind: "component", comp: comp, openEnd: m[1]})

		case m[6] != -1: // @slot / @fill / @foreach / @provide
			kind := src[m[6]:m[7]]
			args := src[m[8]:m[9]]
			b := &blockBuilder{kind: kind, openEnd: m[1]}
			var err error
			switch kind {
			case "slot":
				b.slot, err = p.parseSlotHeader(args)
			case "fill":
				if top().kind != "component" {
					return nil, configErrf(p.componentName, "", "@fill outside a @component block")
				}
				b.fill, err = p.parseFillHeader(args)
			case "foreach":
				b.loop, err = p.parseForeachHeader(args)
			case "provide":
				b.provide, err = p.parseProvideHeader(args)
			}
			if err != nil {
				return nil, err
			}
			stack = append(stack, b)

		default: // closer
			closer := src[m[10]:m[11]]
			kind := strings.TrimPrefix(closer, "end")
			b := top()
			if b.kind != kind {
				return nil, configErrf(p.componentName, "", "unexpected @%s", closer)
			}
			stack = stack[:len(stack)-1]
			switch kind {
			case "component":
				finishComponent(b)
				appendChild(b.comp)
			case "slot":
				b.slot.body = b.children
				appendChild(b.slot)
			case "fill":
				b.fill.body = b.children
				if b.fill.defaultAlias != "" {
					b.fill.refsDefault = refsIdent(b.fill.body, b.fill.defaultAlias)
				}
				appendChild(b.fill)
			case "foreach":
				b.loop.body = b.children
				appendChild(b.loop)
			case "provide":
				b.provide.body = b.children
				appendChild(b.provide)
			}
		}
	}
	if err := flushText(len(src)); err != nil {
		return nil, err
	}
	if len(stack) != 1 {
		return nil, configErrf(p.componentName, "", "missing @end%s", top().kind)
	}

	pt.nodes = stack[0].children
	if err := collectSlots(pt, pt.nodes); err != nil {
		return nil, err
	}
	pt.slots.finalize()
	return pt, nil
}

// finishComponent splits a component block's children into @fill blocks and
// implicit default-fill content. Whitespace-only text around fills is
// dropped; whether mixing the two modes is an error is the fill resolver's
// call at render time.
func finishComponent(b *blockBuilder) {
	var implicit []node
	hasContent := false
	for _, child := range b.children {
		if fl, ok := child.(*fillNode); ok {
			b.comp.fills = append(b.comp.fills, fl)
			continue
		}
		if tn, ok := child.(*textNode); ok && tn.whitespaceOnly() {
			continue
		}
		hasContent = true
		implicit = append(implicit, child)
	}
	if hasContent {
		b.comp.implicit = implicit
	}
}

// collectSlots registers every @slot occurrence in document order, wherever
// it lexically appears in this template, and wires each occurrence back to
// its owning template.
func collectSlots(pt *parsedTemplate, nodes []node) error {
	for _, n := range nodes {
		switch t := n.(type) {
		case *slotNode:
			t.owner = pt
			if err := pt.slots.declare(t.name, t.required, t.isDefault); err != nil {
				return err
			}
			if err := collectSlots(pt, t.body); err != nil {
				return err
			}
		case *fillNode:
			if err := collectSlots(pt, t.body); err != nil {
				return err
			}
		case *componentNode:
			for _, fl := range t.fills {
				if err := collectSlots(pt, fl.body); err != nil {
					return err
				}
			}
			if err := collectSlots(pt, t.implicit); err != nil {
				return err
			}
		case *foreachNode:
			if err := collectSlots(pt, t.body); err != nil {
				return err
			}
		case *provideNode:
			if err := collectSlots(pt, t.body); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) compileText(src string, idx int) (*textNode, error) {
	name := fmt.Sprintf("%s:%d", p.componentName, idx)
	tmpl, err := template.New(name).Funcs(p.funcs).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("[component: %s] %w", p.componentName, err)
	}
	return &textNode{src: src, tmpl: tmpl}, nil
}

func (p *parser) parseComponentHeader(args string) (*componentNode, error) {
	parts := splitArgs(args)
	if len(parts) == 0 {
		return nil, configErrf(p.componentName, "", "@component requires a name")
	}
	name, err := p.quotedName(parts[0], "@component")
	if err != nil {
		return nil, err
	}
	comp := &componentNode{name: name}
	seen := map[string]struct{}{}
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "isolated" {
			comp.isolated = true
			continue
		}
		if key, val, ok := splitKeyValue(part); ok {
			if _, dup := seen[key]; dup {
				return nil, configErrf(p.componentName, "", "duplicate keyword argument %q for component %q", key, name)
			}
			seen[key] = struct{}{}
			e, err := parseExpr(val)
			if err != nil {
				return nil, configErrf(p.componentName, "", "component %q: %v", name, err)
			}
			comp.kwargs = append(comp.kwargs, kwarg{name: key, e: e})
			continue
		}
		if len(comp.kwargs) > 0 {
			return nil, configErrf(p.componentName, "", "component %q: positional argument after keyword argument", name)
		}
		e, err := parseExpr(part)
		if err != nil {
			return nil, configErrf(p.componentName, "", "component %q: %v", name, err)
		}
		comp.args = append(comp.args, e)
	}
	return comp, nil
}

func (p *parser) parseSlotHeader(args string) (*slotNode, error) {
	parts := splitArgs(args)
	if len(parts) == 0 {
		return nil, configErrf(p.componentName, "", "@slot requires a name")
	}
	name, err := p.quotedName(parts[0], "@slot")
	if err != nil {
		return nil, err
	}
	sn := &slotNode{name: name}
	for _, part := range parts[1:] {
		switch strings.TrimSpace(part) {
		case "required":
			sn.required = true
			continue
		case "default":
			sn.isDefault = true
			continue
		}
		key, val, ok := splitKeyValue(part)
		if !ok {
			return nil, configErrf(p.componentName, name, "invalid slot argument %q", strings.TrimSpace(part))
		}
		e, err := parseExpr(val)
		if err != nil {
			return nil, configErrf(p.componentName, name, "%v", err)
		}
		sn.data = append(sn.data, scopedExpr{name: key, e: e})
	}
	return sn, nil
}

func (p *parser) parseFillHeader(args string) (*fillNode, error) {
	parts := splitArgs(args)
	if len(parts) == 0 {
		return nil, configErrf(p.componentName, "", "@fill requires a slot name")
	}
	name, err := p.quotedName(parts[0], "@fill")
	if err != nil {
		return nil, err
	}
	fn := &fillNode{target: name}
	for _, part := range parts[1:] {
		key, val, ok := splitKeyValue(part)
		if !ok {
			return nil, configErrf(p.componentName, name, "invalid fill argument %q", strings.TrimSpace(part))
		}
		e, err := parseExpr(val)
		if err != nil {
			return nil, configErrf(p.componentName, name, "%v", err)
		}
		alias, ok := e.lit.(string)
		if !e.isLit || !ok || !reIdent.MatchString(alias) {
			return nil, configErrf(p.componentName, name, "fill %s alias must be a quoted identifier", key)
		}
		switch key {
		case "data":
			fn.dataAlias = alias
		case "default":
			fn.defaultAlias = alias
		default:
			return nil, configErrf(p.componentName, name, "unknown fill argument %q", key)
		}
	}
	return fn, nil
}

func (p *parser) parseForeachHeader(args string) (*foreachNode, error) {
	m := reForeachHeader.FindStringSubmatch(strings.TrimSpace(args))
	if m == nil {
		return nil, configErrf(p.componentName, "", "invalid @foreach header %q", args)
	}
	e, err := parseExpr(m[3])
	if err != nil {
		return nil, configErrf(p.componentName, "", "@foreach: %v", err)
	}
	return &foreachNode{indexVar: m[1], itemVar: m[2], coll: e}, nil
}

func (p *parser) parseProvideHeader(args string) (*provideNode, error) {
	parts := splitArgs(args)
	if len(parts) == 0 {
		return nil, configErrf(p.componentName, "", "@provide requires a key")
	}
	key, err := p.quotedName(parts[0], "@provide")
	if err != nil {
		return nil, err
	}
	pn := &provideNode{key: key}
	for _, part := range parts[1:] {
		k, val, ok := splitKeyValue(part)
		if !ok {
			return nil, configErrf(p.componentName, "", "invalid @provide argument %q", strings.TrimSpace(part))
		}
		e, err := parseExpr(val)
		if err != nil {
			return nil, configErrf(p.componentName, "", "@provide %q: %v", key, err)
		}
		pn.pairs = append(pn.pairs, scopedExpr{name: k, e: e})
	}
	return pn, nil
}

func (p *parser) quotedName(arg, directive string) (string, error) {
	e, err := parseExpr(arg)
	if err != nil {
		return "", configErrf(p.componentName, "", "%s: %v", directive, err)
	}
	name, ok := e.lit.(string)
	if !e.isLit || !ok || name == "" {
		return "", configErrf(p.componentName, "", "%s name must be a quoted string, got %q", directive, strings.TrimSpace(arg))
	}
	return name, nil
}

// splitArgs splits a directive argument list on commas outside quotes.
func splitArgs(s string) []string {
	var parts []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
			cur.WriteByte(ch)
		case ch == ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	return parts
}

// splitKeyValue splits "key=value" on the first '=' outside quotes; ok is
// false for bare arguments.
func splitKeyValue(s string) (key, val string, ok bool) {
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '=':
			key = strings.TrimSpace(s[:i])
			if !reIdent.MatchString(key) {
				return "", "", false
			}
			return key, s[i+1:], true
		}
	}
	return "", "", false
}

// refsIdent reports whether any template fragment under nodes reads ident as
// a top-level context variable (a ".ident" field access in the compiled
// parse tree). Used to decide if a fill body references its default-content
// alias; the name appearing as plain text is not a reference.
func refsIdent(nodes []node, ident string) bool {
	for _, n := range nodes {
		switch t := n.(type) {
		case *textNode:
			if t.tmpl.Tree != nil && treeRefsIdent(t.tmpl.Tree.Root, ident) {
				return true
			}
		case *slotNode:
			if refsIdent(t.body, ident) {
				return true
			}
		case *fillNode:
			if refsIdent(t.body, ident) {
				return true
			}
		case *componentNode:
			for _, fl := range t.fills {
				if refsIdent(fl.body, ident) {
					return true
				}
			}
			if refsIdent(t.implicit, ident) {
				return true
			}
		case *foreachNode:
			if refsIdent(t.body, ident) {
				return true
			}
		case *provideNode:
			if refsIdent(t.body, ident) {
				return true
			}
		}
	}
	return false
}

func treeRefsIdent(n parse.Node, ident string) bool {
	switch t := n.(type) {
	case *parse.ListNode:
		if t == nil {
			return false
		}
		for _, c := range t.Nodes {
			if treeRefsIdent(c, ident) {
				return true
			}
		}
	case *parse.ActionNode:
		return treeRefsIdent(t.Pipe, ident)
	case *parse.PipeNode:
		if t == nil {
			return false
		}
		for _, c := range t.Cmds {
			if treeRefsIdent(c, ident) {
				return true
			}
		}
	case *parse.CommandNode:
		for _, a := range t.Args {
			if treeRefsIdent(a, ident) {
				return true
			}
		}
	case *parse.FieldNode:
		return len(t.Ident) > 0 && t.Ident[0] == ident
	case *parse.ChainNode:
		return treeRefsIdent(t.Node, ident)
	case *parse.IfNode:
		return branchRefsIdent(&t.BranchNode, ident)
	case *parse.RangeNode:
		return branchRefsIdent(&t.BranchNode, ident)
	case *parse.WithNode:
		return branchRefsIdent(&t.BranchNode, ident)
	case *parse.TemplateNode:
		return treeRefsIdent(t.Pipe, ident)
	}
	return false
}

func branchRefsIdent(b *parse.BranchNode, ident string) bool {
	return treeRefsIdent(b.Pipe, ident) ||
		treeRefsIdent(b.List, ident) ||
		treeRefsIdent(b.ElseList, ident)
}
