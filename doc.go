// Package components adds reusable template components on top of
// html/template.
//
// A component couples a template with a data hook. The template is ordinary
// html/template text extended with a handful of @-directives: @slot declares
// a named insertion point with optional default content, @component invokes
// another registered component, @fill overrides one of its slots, @foreach
// iterates while keeping the loop variable visible to nested fills, and
// @provide passes values down to components that inject them.
//
//	type Calendar struct{}
//
//	func (Calendar) Template() string {
//	    return `<div class="calendar">
//	        @slot('header')Today@endslot
//	        <span>{{.date}}</span>
//	    </div>`
//	}
//
//	func (Calendar) Data(in components.Input) (map[string]any, error) {
//	    return map[string]any{"date": in.Kwargs["date"]}, nil
//	}
//
// Components are registered by name and rendered through an Engine, either
// directly (Engine.RenderComponent), from a root template string containing
// @component tags (Engine.RenderString), or through the gin adapter
// (HTMLRender).
//
// How much of the surrounding context a fill body can see is controlled by
// Settings.ContextBehavior: "django" resolves fills against the full context
// stack at the slot, "isolated" restricts them to the data of the component
// whose template supplied the fill.
package components
