package hostsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/bridge"
	"github.com/wippyai/classbridge/variant"
)

type gauge struct {
	Value int
}

func setup(t *testing.T) (*Host, *bridge.Library) {
	t.Helper()
	h := New()
	lib, err := bridge.NewLibrary(h.Interface(), bridge.WithAbortHandler(func(err error) { panic(err) }))
	require.NoError(t, err)
	require.NoError(t, bridge.Define(lib, bridge.ClassDef[gauge]{
		Name:  "Gauge",
		Base:  "Node",
		Level: abi.InitScene,
		Vars:  []bridge.Var{{Name: "value", Field: "Value"}},
	}))
	require.NoError(t, lib.Initialize(abi.InitScene))
	return h, lib
}

func TestHost_Registration(t *testing.T) {
	h, lib := setup(t)
	assert.Equal(t, []string{"Gauge"}, h.Registered())
	info, ok := h.ClassInfo("Gauge")
	require.True(t, ok)
	assert.Equal(t, "Node", info.ParentName.String())

	lib.Deinitialize(abi.InitScene)
	assert.Empty(t, h.Registered())
}

func TestHost_UnknownTargets(t *testing.T) {
	h, _ := setup(t)

	_, err := h.Instantiate("Missing")
	assert.Error(t, err)
	assert.Error(t, h.Free(0x42))
	_, err = h.Reload("Missing")
	assert.Error(t, err)
	_, _, err = h.Get(0x42, "value")
	assert.Error(t, err)
	assert.Error(t, h.Notify(0x42, abi.NotificationReady))
}

func TestHost_ObjectLifecycle(t *testing.T) {
	h, lib := setup(t)

	obj, err := h.Instantiate("Gauge")
	require.NoError(t, err)
	assert.Equal(t, []abi.ObjectPtr{obj}, h.Objects())

	o, ok := h.Object(obj)
	require.True(t, ok)
	assert.Equal(t, "Gauge", o.Class)
	assert.NotZero(t, o.Instance)

	require.NoError(t, h.Set(obj, "value", variant.Int(9)))
	v, ok, err := h.Get(obj, "value")
	require.NoError(t, err)
	require.True(t, ok)
	n, _ := v.AsInt()
	assert.EqualValues(t, 9, n)

	s, err := h.ToString(obj)
	require.NoError(t, err)
	assert.Contains(t, s, "<Gauge#")

	n2, err := h.Reload("Gauge")
	require.NoError(t, err)
	assert.Equal(t, 1, n2)
	v, _, _ = h.Get(obj, "value")
	n, _ = v.AsInt()
	assert.Zero(t, n, "reload rebuilds the instance")

	require.NoError(t, h.Free(obj))
	assert.Empty(t, h.Objects())
	instances, _ := lib.Leaks()
	assert.Zero(t, instances)
}

func TestHost_ConstructObject(t *testing.T) {
	h := New(WithVersion(abi.APIVersion{Major: 4, Minor: 9}))
	assert.Equal(t, abi.APIVersion{Major: 4, Minor: 9}, h.Version())

	hi := h.Interface()
	assert.Empty(t, hi.Validate())
	assert.Zero(t, hi.ClassDBConstructObject(variant.StringName{}))

	obj := hi.ClassDBConstructObject(variant.Name("Node"))
	require.NotZero(t, obj)
	o, _ := h.Object(obj)
	assert.Equal(t, "Node", o.BaseClass)

	h.FailNextConstruct()
	assert.Zero(t, hi.ClassDBConstructObject(variant.Name("Node")))
	assert.NotZero(t, hi.ClassDBConstructObject(variant.Name("Node")))

	assert.Panics(t, func() { hi.ObjectSetInstance(0x1, variant.Name("X"), 1) })

	require.NotNil(t, hi.ObjectDestroy)
	hi.ObjectDestroy(obj)
	_, ok := h.Object(obj)
	assert.False(t, ok)
	assert.Panics(t, func() { hi.ObjectDestroy(obj) })
}

func TestHost_NoPropertyList(t *testing.T) {
	h, _ := setup(t)
	obj, err := h.Instantiate("Gauge")
	require.NoError(t, err)
	list, err := h.PropertyList(obj)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "value", list[0].Name)

	can, err := h.CanRevert(obj, "value")
	require.NoError(t, err)
	assert.False(t, can)
}
