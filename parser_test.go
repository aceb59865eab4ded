package components

import (
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSrc(t *testing.T, src string) *parsedTemplate {
	t.Helper()
	p := &parser{componentName: "test", funcs: template.FuncMap{}}
	pt, err := p.parse(src)
	require.NoError(t, err)
	return pt
}

func TestParseCollectsSlotDeclarationsInOrder(t *testing.T) {
	pt := parseSrc(t, `
		@slot('header')H@endslot
		<main>@slot('body', default, required)B@endslot</main>
		@slot('footer')F@endslot
	`)
	assert.Equal(t, []string{"header", "body", "footer"}, pt.slots.order)
	assert.Equal(t, "body", pt.slots.defaultName)
	assert.True(t, pt.slots.groups["body"].required)
	assert.False(t, pt.slots.groups["header"].required)
}

func TestParseSameNamedSlotsFormOneGroup(t *testing.T) {
	pt := parseSrc(t, `@slot('image', default, required)a@endslot @slot('image')b@endslot`)
	assert.Equal(t, []string{"image"}, pt.slots.order)
	assert.Equal(t, "image", pt.slots.defaultName)
}

func TestParseDuplicateDefaultSlotFails(t *testing.T) {
	p := &parser{componentName: "dup", funcs: template.FuncMap{}}
	_, err := p.parse(`@slot('a', default)x@endslot @slot('b', default)y@endslot`)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "dup", ce.Component)
	assert.Equal(t, "b", ce.Slot)
}

func TestParseSameNameSharingDefaultMarkerIsFine(t *testing.T) {
	pt := parseSrc(t, `@slot('a', default)x@endslot @slot('a', default)y@endslot`)
	assert.Equal(t, "a", pt.slots.defaultName)
}

func TestParseSlotScopedData(t *testing.T) {
	pt := parseSrc(t, `@slot('body', input=value, label='fixed')x@endslot`)
	sn := findSlot(t, pt.nodes, "body")
	require.Len(t, sn.data, 2)
	assert.Equal(t, "input", sn.data[0].name)
	assert.Equal(t, "label", sn.data[1].name)
	assert.Equal(t, "fixed", sn.data[1].e.lit)
}

func TestParseFillOutsideComponentFails(t *testing.T) {
	p := &parser{componentName: "test", funcs: template.FuncMap{}}
	_, err := p.parse(`@fill('body')x@endfill`)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, "@fill outside")
}

func TestParseComponentWithFillsAndImplicitContent(t *testing.T) {
	pt := parseSrc(t, `@component('card', 1, title='hi')
		@fill('body', data='d', default='orig')uses {{.orig}} here@endfill
	@endcomponent`)
	require.Len(t, pt.nodes, 1)
	comp, ok := pt.nodes[0].(*componentNode)
	require.True(t, ok)
	assert.Equal(t, "card", comp.name)
	require.Len(t, comp.args, 1)
	require.Len(t, comp.kwargs, 1)
	assert.Equal(t, "title", comp.kwargs[0].name)
	require.Len(t, comp.fills, 1)
	assert.Equal(t, "body", comp.fills[0].target)
	assert.Equal(t, "d", comp.fills[0].dataAlias)
	assert.Equal(t, "orig", comp.fills[0].defaultAlias)
	assert.True(t, comp.fills[0].refsDefault)
	assert.Nil(t, comp.implicit, "whitespace around fills is not implicit content")
}

func TestParseFillDefaultAliasNotReferenced(t *testing.T) {
	pt := parseSrc(t, `@component('card')@fill('body', default='orig')plain@endfill@endcomponent`)
	comp := pt.nodes[0].(*componentNode)
	assert.False(t, comp.fills[0].refsDefault)
}

func TestParseSelfClosingComponent(t *testing.T) {
	pt := parseSrc(t, `before @component('icon', name='x') / after`)
	require.Len(t, pt.nodes, 3)
	comp, ok := pt.nodes[1].(*componentNode)
	require.True(t, ok)
	assert.Equal(t, "icon", comp.name)
	assert.Empty(t, comp.fills)
}

func TestParseComponentIsolatedFlag(t *testing.T) {
	pt := parseSrc(t, `@component('card', isolated) /`)
	comp := pt.nodes[0].(*componentNode)
	assert.True(t, comp.isolated)
}

func TestParseForeachHeaders(t *testing.T) {
	pt := parseSrc(t, `@foreach(item in items)x@endforeach`)
	loop := pt.nodes[0].(*foreachNode)
	assert.Equal(t, "item", loop.itemVar)
	assert.Empty(t, loop.indexVar)

	pt = parseSrc(t, `@foreach(i, item in page.items)x@endforeach`)
	loop = pt.nodes[0].(*foreachNode)
	assert.Equal(t, "i", loop.indexVar)
	assert.Equal(t, "item", loop.itemVar)
	assert.Equal(t, []string{"page", "items"}, loop.coll.path)

	p := &parser{componentName: "test", funcs: template.FuncMap{}}
	_, err := p.parse(`@foreach(items)x@endforeach`)
	assert.Error(t, err)
}

func TestParseUnbalancedBlocksFail(t *testing.T) {
	p := &parser{componentName: "test", funcs: template.FuncMap{}}

	_, err := p.parse(`@slot('a')unclosed`)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, "missing @endslot")

	_, err = p.parse(`@slot('a')x@endcomponent`)
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, "unexpected @endcomponent")
}

func TestSplitArgsRespectsQuotes(t *testing.T) {
	parts := splitArgs(`'a,b', key='x,y', 1`)
	require.Len(t, parts, 3)
	assert.Equal(t, `'a,b'`, parts[0])

	key, val, ok := splitKeyValue(parts[1])
	require.True(t, ok)
	assert.Equal(t, "key", key)
	assert.Equal(t, `'x,y'`, val)

	assert.Empty(t, splitArgs("   "))
}

func TestParseFillDefaultAliasDetection(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"plain text", `plain text`, false},
		{"alias as prose word", `keep orig as prose, never rendered`, false},
		{"action", `[{{.orig}}]`, true},
		{"if condition", `{{if .orig}}x{{end}}`, true},
		{"with block", `{{with .orig}}{{.}}{{end}}`, true},
		{"chained field", `{{.orig.inner}}`, true},
		{"other variable", `{{.other}}`, false},
		{"inside foreach", `@foreach(i in items){{.orig}}@endforeach`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt := parseSrc(t, `@component('card')@fill('body', default='orig')`+tt.body+`@endfill@endcomponent`)
			comp := pt.nodes[0].(*componentNode)
			assert.Equal(t, tt.want, comp.fills[0].refsDefault)
		})
	}
}

func findSlot(t *testing.T, nodes []node, name string) *slotNode {
	t.Helper()
	for _, n := range nodes {
		if sn, ok := n.(*slotNode); ok && sn.name == name {
			return sn
		}
	}
	t.Fatalf("slot %q not found", name)
	return nil
}
