package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFillsMatchesByName(t *testing.T) {
	pt := parseSrc(t, `@slot('header')h@endslot @slot('body', default)b@endslot`)
	sup := []*suppliedFill{{name: "header"}}

	fills, err := resolveFills("card", pt, sup)
	require.NoError(t, err)
	assert.Same(t, sup[0], fills["header"])
	assert.Nil(t, fills["body"])
}

func TestResolveFillsImplicitTargetsDefaultSlot(t *testing.T) {
	pt := parseSrc(t, `@slot('header')h@endslot @slot('body', default)b@endslot`)
	sup := []*suppliedFill{{name: ImplicitFillName, implicit: true}}

	fills, err := resolveFills("card", pt, sup)
	require.NoError(t, err)
	assert.Same(t, sup[0], fills["body"])
}

func TestResolveFillsImplicitWithoutDefaultSlotFails(t *testing.T) {
	pt := parseSrc(t, `@slot('header')h@endslot`)
	_, err := resolveFills("card", pt, []*suppliedFill{{name: ImplicitFillName, implicit: true}})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, "no slot is marked default")
}

func TestResolveFillsUnknownSlotFails(t *testing.T) {
	pt := parseSrc(t, `@slot('body', default)b@endslot`)
	_, err := resolveFills("card", pt, []*suppliedFill{{name: "nope"}})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "nope", ce.Slot)
	assert.Contains(t, ce.Msg, "unknown slot")
}

func TestResolveFillsMixedImplicitAndExplicitFails(t *testing.T) {
	pt := parseSrc(t, `@slot('header')h@endslot @slot('body', default)b@endslot`)
	_, err := resolveFills("card", pt, []*suppliedFill{
		{name: "header"},
		{name: ImplicitFillName, implicit: true},
	})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, "cannot combine")
}

func TestResolveFillsRequiredUnfilledFails(t *testing.T) {
	pt := parseSrc(t, `@slot('header', required)h@endslot @slot('body', default)b@endslot`)
	_, err := resolveFills("card", pt, []*suppliedFill{{name: "body"}})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "header", ce.Slot)
	assert.Contains(t, ce.Msg, "required slot")
}

func TestResolveFillsAliasCollisionFails(t *testing.T) {
	pt := parseSrc(t, `@slot('body', default)b@endslot`)
	_, err := resolveFills("card", pt, []*suppliedFill{
		{name: "body", dataAlias: "d", defaultAlias: "d"},
	})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, `both "d"`)
}

func TestResolveFillsDuplicateFillFails(t *testing.T) {
	pt := parseSrc(t, `@slot('body', default)b@endslot`)
	_, err := resolveFills("card", pt, []*suppliedFill{
		{name: "body"},
		{name: "body"},
	})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Msg, "filled more than once")
}

func TestSlotRegistryDeclare(t *testing.T) {
	r := newSlotRegistry("card")
	require.NoError(t, r.declare("a", false, false))
	require.NoError(t, r.declare("a", true, true), "markers may arrive on a later occurrence")
	require.NoError(t, r.declare("a", false, true), "repeating a marker on the same group is tolerated")

	err := r.declare("b", false, true)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)

	assert.True(t, r.has("a"))
	assert.False(t, r.has("c"))
	assert.Equal(t, "a", r.defaultName)
	assert.True(t, r.groups["a"].required)
}
