package components

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGinRouter(t *testing.T) (*gin.Engine, *Registry) {
	t.Helper()
	eng, reg := newTestEngine(t, ContextBehaviorDjango)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HTMLRender = NewHTMLRender(eng)
	return r, reg
}

func TestHTMLRenderWithGinH(t *testing.T) {
	r, reg := newGinRouter(t)
	reg.Register("greeting", testComponent{tmpl: `<p>hello {{.name}}</p>`})
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "greeting", gin.H{"name": "ana"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<p>hello ana</p>", w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestHTMLRenderWithInvocation(t *testing.T) {
	r, reg := newGinRouter(t)
	reg.Register("card", testComponent{tmpl: `<c>@slot('body', default)empty@endslot</c>`})
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "card", Invocation{
			Fills: map[string]Fill{ImplicitFillName: Content("filled")},
		})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "<c>filled</c>", w.Body.String())
}

func TestHTMLRenderWithView(t *testing.T) {
	r, reg := newGinRouter(t)
	reg.Register("missing", testComponent{tmpl: `gone`})
	r.GET("/", func(c *gin.Context) {
		v := NewView("missing", Invocation{}, http.StatusNotFound)
		c.HTML(v.Status(), "", v)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "gone", w.Body.String())
}

func TestHTMLRenderInstanceDirect(t *testing.T) {
	eng, reg := newTestEngine(t, ContextBehaviorDjango)
	reg.Register("greeting", testComponent{tmpl: `hi {{.name}}`})
	h := NewHTMLRender(eng)

	w := httptest.NewRecorder()
	require.NoError(t, h.Instance("greeting", map[string]any{"name": "bo"}).Render(w))
	assert.Equal(t, "hi bo", w.Body.String())

	// unknown component: render fails, nothing written
	w = httptest.NewRecorder()
	err := h.Instance("ghost", nil).Render(w)
	assert.ErrorIs(t, err, ErrComponentNotFound)
	assert.Empty(t, w.Body.String())
}

func TestNewViewDefaultsStatus(t *testing.T) {
	v := NewView("card", Invocation{})
	assert.Equal(t, http.StatusOK, v.Status())
	assert.Equal(t, "card", v.Component())
}
