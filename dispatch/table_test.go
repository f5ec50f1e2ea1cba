package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/variant"
)

func recorder(log *[]string, tag string) abi.CallVirtual {
	return func(abi.InstancePtr, []variant.Variant, *variant.Variant) {
		*log = append(*log, tag)
	}
}

func TestTable_AddRejectsDuplicates(t *testing.T) {
	tbl := NewTable("Player", nil)
	require.NoError(t, tbl.Add(Entry{Name: variant.Name("_process"), Hash: 1, Call: Noop}))

	err := tbl.Add(Entry{Name: variant.Name("_process"), Hash: 2, Call: Noop})
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindRegistration, e.Kind)
	assert.Equal(t, "Player", e.Class)
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_AddValidates(t *testing.T) {
	tbl := NewTable("Player", nil)
	assert.Error(t, tbl.Add(Entry{Call: Noop}))
	assert.Error(t, tbl.Add(Entry{Name: variant.Name("_process")}))
	assert.NoError(t, tbl.Add(Entry{Name: variant.Name("_ready"), Before: OnlyBefore}))
}

func TestTable_MissingMethodIsNone(t *testing.T) {
	tbl := NewTable("Player", nil)
	_, ok := tbl.Lookup(variant.Name("_process"), 123)
	assert.False(t, ok)
}

func TestTable_Declared(t *testing.T) {
	tbl := NewTable("Player", nil)
	require.NoError(t, tbl.Add(Entry{Name: variant.Name("_draw"), Hash: 5, Call: Noop}))
	e, ok := tbl.Declared(variant.Name("_draw"))
	require.True(t, ok)
	assert.EqualValues(t, 5, e.Hash)
	assert.Equal(t, "Player", tbl.Class())
}

func TestTable_Entries(t *testing.T) {
	tbl := NewTable("Player", nil)
	for _, n := range []string{"_process", "_draw", "_input"} {
		require.NoError(t, tbl.Add(Entry{Name: variant.Name(n), Call: Noop}))
	}
	var names []string
	for _, e := range tbl.Entries() {
		names = append(names, e.Name.String())
	}
	assert.Equal(t, []string{"_draw", "_input", "_process"}, names)
}

func TestCompose(t *testing.T) {
	var log []string
	hook := func(abi.InstancePtr) { log = append(log, "hook") }
	body := recorder(&log, "body")

	tests := []struct {
		kind BeforeKind
		want []string
	}{
		{Without, []string{"body"}},
		{WithBefore, []string{"hook", "body"}},
		{OnlyBefore, []string{"hook"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			log = nil
			Compose(hook, body, tt.kind)(1, nil, nil)
			assert.Equal(t, tt.want, log)
		})
	}

	log = nil
	Compose(nil, body, WithBefore)(1, nil, nil)
	assert.Equal(t, []string{"body"}, log)

	assert.NotPanics(t, func() { Compose(nil, nil, Without)(1, nil, nil) })
}

func TestTable_BeforeHookEveryCall(t *testing.T) {
	var log []string
	tbl := NewTable("Player", func(abi.InstancePtr) { log = append(log, "hook") })
	require.NoError(t, tbl.Add(Entry{
		Name:   variant.Name(ReadyMethod),
		Hash:   ReadyHash(),
		Before: WithBefore,
		Call:   recorder(&log, "ready"),
	}))

	e, ok := tbl.Lookup(variant.Name(ReadyMethod), ReadyHash())
	require.True(t, ok)
	e.Call(1, nil, nil)
	e.Call(1, nil, nil)
	assert.Equal(t, []string{"hook", "ready", "hook", "ready"}, log)
}

func TestTable_InjectReady(t *testing.T) {
	hooks := 0
	tbl := NewTable("Player", func(abi.InstancePtr) { hooks++ })
	require.True(t, tbl.InjectReady(ReadyHash()))
	require.False(t, tbl.InjectReady(ReadyHash()), "second injection must be a no-op")

	e, ok := tbl.Lookup(variant.Name(ReadyMethod), ReadyHash())
	require.True(t, ok)
	assert.Equal(t, OnlyBefore, e.Before)
	e.Call(7, nil, nil)
	assert.Equal(t, 1, hooks)
}

func TestTable_InjectReadyKeepsOverride(t *testing.T) {
	var log []string
	tbl := NewTable("Player", func(abi.InstancePtr) { log = append(log, "hook") })
	require.NoError(t, tbl.Add(Entry{Name: variant.Name(ReadyMethod), Hash: ReadyHash(), Before: WithBefore, Call: recorder(&log, "user")}))
	assert.False(t, tbl.InjectReady(ReadyHash()))

	e, _ := tbl.Lookup(variant.Name(ReadyMethod), ReadyHash())
	e.Call(1, nil, nil)
	assert.Equal(t, []string{"hook", "user"}, log)
}

func TestDefaultTable(t *testing.T) {
	hooks := 0
	tbl := DefaultTable("Player", "Node2D", func(abi.InstancePtr) { hooks++ })

	drawHash, _ := abi.KnownVirtualHash("Node2D", "_draw")
	e, ok := tbl.Lookup(variant.Name("_draw"), drawHash)
	require.True(t, ok)
	e.Call(1, nil, nil)
	assert.Zero(t, hooks)

	e, ok = tbl.Lookup(variant.Name(ReadyMethod), ReadyHash())
	require.True(t, ok)
	assert.Equal(t, OnlyBefore, e.Before)
	e.Call(1, nil, nil)
	assert.Equal(t, 1, hooks)

	_, ok = tbl.Lookup(variant.Name("_not_a_virtual"), 0)
	assert.False(t, ok)
}

func TestDefaultTable_NonNodeBase(t *testing.T) {
	tbl := DefaultTable("Counter", "RefCounted", func(abi.InstancePtr) {})
	_, ok := tbl.Declared(variant.Name(ReadyMethod))
	assert.False(t, ok)
	assert.Equal(t, 1, tbl.Len(), "only Object._init is visible")

	res := DefaultTable("Item", "Resource", nil)
	_, ok = res.Declared(variant.Name("_setup_local_to_scene"))
	assert.True(t, ok)
	_, ok = res.Declared(variant.Name(ReadyMethod))
	assert.False(t, ok)
}

func TestVirtualName(t *testing.T) {
	tests := map[string]string{
		"ready":      "_ready",
		"init_ext":   "_init",
		"process":    "_process",
		"_draw":      "_draw",
		"enter_tree": "_enter_tree",
	}
	for in, want := range tests {
		assert.Equal(t, want, VirtualName(in), in)
	}
}

func TestBeforeKind_String(t *testing.T) {
	assert.Equal(t, "unknown", BeforeKind(9).String())
}
