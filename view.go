package components

import (
	"context"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin/render"
)

// View is a component invocation plus an HTTP status, for handlers that
// want to choose the status alongside the template.
type View interface {
	Component() string
	Invocation() Invocation
	Status() int
}

type view struct {
	component string
	inv       Invocation
	status    int
}

// NewView creates a View for a component. Status defaults to 200.
func NewView(component string, inv Invocation, status ...int) View {
	statusCode := http.StatusOK
	if len(status) > 0 {
		statusCode = status[0]
	}
	return view{component: component, inv: inv, status: statusCode}
}

func (v view) Component() string {
	return v.component
}

func (v view) Invocation() Invocation {
	return v.inv
}

func (v view) Status() int {
	return v.status
}

var _ render.HTMLRender = (*HTMLRender)(nil)

// HTMLRender makes an Engine usable as gin's HTMLRender, so handlers can
// c.HTML(200, "calendar", gin.H{"date": d}) straight into a component.
type HTMLRender struct {
	e *Engine
}

// NewHTMLRender creates a gin-compatible renderer backed by an engine.
func NewHTMLRender(e *Engine) *HTMLRender {
	return &HTMLRender{e: e}
}

// Instance returns a render.Render for one response. data may be an
// Invocation, a View, or a string-keyed map used as keyword arguments.
func (h *HTMLRender) Instance(name string, data any) render.Render {
	switch t := data.(type) {
	case Invocation:
		return &Render{e: h.e, name: name, inv: t}
	case View:
		return &Render{e: h.e, name: t.Component(), inv: t.Invocation()}
	}
	inv := Invocation{}
	if m, ok := stringMap(data); ok {
		inv.Kwargs = m
	}
	return &Render{e: h.e, name: name, inv: inv}
}

// Render renders one component invocation into an HTTP response.
type Render struct {
	e    *Engine
	name string
	inv  Invocation
}

// Render writes the rendered component to w. On render failure nothing is
// written beyond headers already set by gin.
func (r *Render) Render(w http.ResponseWriter) error {
	res, err := r.e.RenderComponent(context.Background(), r.name, r.inv)
	if err != nil {
		return err
	}
	r.WriteContentType(w)
	_, err = w.Write([]byte(res.HTML))
	return err
}

// WriteContentType writes an HTML content type to the response header if
// not set.
func (r *Render) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{"text/html; charset=utf-8"}
	}
}

// stringMap converts any string-keyed map (gin.H included) to
// map[string]any.
func stringMap(data any) (map[string]any, bool) {
	if m, ok := data.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(data)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	for _, k := range rv.MapKeys() {
		out[k.String()] = rv.MapIndex(k).Interface()
	}
	return out, true
}
