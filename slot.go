package components

import (
	"html/template"
	"strings"
)

// ImplicitFillName is the sentinel under which content placed directly in a
// @component body (or supplied under this key in Invocation.Fills) targets
// the template's default slot.
const ImplicitFillName = "default"

// slotRegistry collects the @slot declarations of one template in document
// order. Occurrences sharing a name form one group; required/default are
// group-level markers, so repeating a marker on a same-named occurrence is
// tolerated. Marking a second group default is a configuration error,
// caught here at template-parse time.
type slotRegistry struct {
	component   string
	order       []string
	groups      map[string]*slotGroup
	defaultName string
	frozen      bool
}

type slotGroup struct {
	required  bool
	isDefault bool
}

func newSlotRegistry(component string) *slotRegistry {
	return &slotRegistry{component: component, groups: map[string]*slotGroup{}}
}

func (r *slotRegistry) declare(name string, required, isDefault bool) error {
	g := r.groups[name]
	if g == nil {
		g = &slotGroup{}
		r.groups[name] = g
		r.order = append(r.order, name)
	}
	if isDefault {
		if r.defaultName != "" && r.defaultName != name {
			return configErrf(r.component, name,
				"only one slot may be marked default, %q already is", r.defaultName)
		}
		r.defaultName = name
		g.isDefault = true
	}
	if required {
		g.required = true
	}
	return nil
}

// finalize freezes the declared name set for fill validation.
func (r *slotRegistry) finalize() {
	r.frozen = true
}

func (r *slotRegistry) has(name string) bool {
	_, ok := r.groups[name]
	return ok
}

// suppliedFill is one fill after normalization, from either a @fill block,
// implicit @component body content, or the Invocation.Fills map. site is a
// snapshot of the context stack where the fill was supplied, which the
// isolated context behavior resolves against.
type suppliedFill struct {
	name         string
	implicit     bool
	body         []node
	fn           FillFunc
	dataAlias    string
	defaultAlias string
	refsDefault  bool
	site         []layer
}

// resolveFills matches supplied fills to the template's declared slots.
// Resolution is static per render: it runs once, before any slot body
// executes, and every failure mode here is a ConfigError.
func resolveFills(component string, parsed *parsedTemplate, sup []*suppliedFill) (map[string]*suppliedFill, error) {
	var hasImplicit, hasExplicit bool
	for _, s := range sup {
		if s.implicit {
			hasImplicit = true
		} else {
			hasExplicit = true
		}
	}
	if hasImplicit && hasExplicit {
		return nil, configErrf(component, "",
			"cannot combine implicit default content with named @fill blocks in one invocation")
	}

	fills := make(map[string]*suppliedFill, len(sup))
	for _, s := range sup {
		target := s.name
		if s.implicit {
			if parsed.slots.defaultName == "" {
				return nil, configErrf(component, "",
					"default content supplied but no slot is marked default")
			}
			target = parsed.slots.defaultName
		} else if !parsed.slots.has(target) {
			return nil, configErrf(component, target, "fill targets unknown slot")
		}
		if s.dataAlias != "" && s.dataAlias == s.defaultAlias {
			return nil, configErrf(component, target,
				"fill data alias and default-content alias are both %q", s.dataAlias)
		}
		if _, dup := fills[target]; dup {
			return nil, configErrf(component, target, "slot filled more than once")
		}
		fills[target] = s
	}

	for _, name := range parsed.slots.order {
		if parsed.slots.groups[name].required && fills[name] == nil {
			return nil, configErrf(component, name, "required slot has no fill")
		}
	}
	return fills, nil
}

// renderSlot renders one slot occurrence: the resolved fill when the slot is
// filled, the slot's own default body otherwise. Same-named occurrences each
// come through here independently with the same resolved fill.
func renderSlot(f *frame, cf *componentFrame, s *slotNode, w *strings.Builder) error {
	fill := cf.fills[s.name]
	if fill == nil {
		// unfilled: default body in the component's own scope
		return execNodes(f, s.body, w)
	}

	var rec Record
	if fill.fn != nil || fill.dataAlias != "" {
		names := make([]string, 0, len(s.data))
		vals := make(map[string]any, len(s.data))
		for _, se := range s.data {
			names = append(names, se.name)
			vals[se.name] = se.e.evalData(cf.data)
		}
		rec = newRecord(names, vals)
	}

	// Lazy handle on the default body; it captures the component scope as it
	// is right now, before any fill-scope swap.
	def := &DefaultContent{render: func() (string, error) {
		var b strings.Builder
		if err := execNodes(f, s.body, &b); err != nil {
			return "", err
		}
		return b.String(), nil
	}}

	if fill.fn != nil {
		out, err := fill.fn(fillScope(f, cf, fill), rec, def)
		if err != nil {
			return err
		}
		w.WriteString(out)
		return nil
	}

	bindings := map[string]any{}
	if fill.dataAlias != "" {
		bindings[fill.dataAlias] = rec.asMap()
	}
	if fill.defaultAlias != "" && fill.refsDefault {
		// The body references the alias, so the default content is actually
		// needed. Bodies that never mention it never evaluate it.
		html, err := def.Render()
		if err != nil {
			return err
		}
		bindings[fill.defaultAlias] = template.HTML(html)
	}
	fillLayer := layer{kind: layerFill, vars: bindings, owner: s.name}

	if cf.policy == ContextBehaviorIsolated {
		scope := isolatedScope(fill.site, !cf.localIsolated)
		scope.push(fillLayer)
		saved := f.scope
		f.scope = scope
		err := execNodes(f, fill.body, w)
		f.scope = saved
		return err
	}

	// django behavior: the full stack at the slot, fill-local bindings
	// strictly shadowing ambient names.
	f.scope.push(fillLayer)
	err := execNodes(f, fill.body, w)
	f.scope.pop()
	return err
}

// fillScope is the read-only context handed to a FillFunc.
func fillScope(f *frame, cf *componentFrame, fill *suppliedFill) *Context {
	if cf.policy == ContextBehaviorIsolated {
		return isolatedScope(fill.site, !cf.localIsolated)
	}
	return &Context{layers: f.scope.snapshot()}
}
