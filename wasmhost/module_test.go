package wasmhost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/bridge"
	"github.com/wippyai/classbridge/hostsim"
	"github.com/wippyai/classbridge/variant"
)

// memoryModule is a guest with one exported page of memory.
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: min 1 page
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00, // export "memory"
}

type lamp struct {
	Lit   bool
	Level int64
	Ready int
}

type fixture struct {
	ctx   context.Context
	mod   *Module
	host  api.Module
	guest api.Module
	sim   *hostsim.Host
	lib   *bridge.Library
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	sim := hostsim.New()
	lib, err := bridge.NewLibrary(sim.Interface(), bridge.WithAbortHandler(func(err error) { panic(err) }))
	require.NoError(t, err)
	require.NoError(t, bridge.Define(lib, bridge.ClassDef[lamp]{
		Name:  "Lamp",
		Base:  "Control",
		Level: abi.InitScene,
		Virtuals: map[string]any{
			"ready": func(l *lamp) { l.Ready++ },
			"_has_point": func(l *lamp, x float64) bool {
				return l.Lit && x > 0
			},
		},
		Vars: []bridge.Var{
			{Name: "lit", Field: "Lit"},
			{Name: "level", Field: "Level", Default: 3},
			{Name: "ready_count", Field: "Ready", Access: bridge.ReadOnly},
		},
		ToString: func(l *lamp) string {
			if l.Lit {
				return "lamp:on"
			}
			return "lamp:off"
		},
	}))
	require.NoError(t, lib.Initialize(abi.InitScene))

	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = r.Close(ctx) })

	core, logs := observer.New(zap.DebugLevel)
	m := New(sim, WithLogger(zap.New(core)))
	host, err := m.Instantiate(ctx, r)
	require.NoError(t, err)
	guest, err := r.Instantiate(ctx, memoryModule)
	require.NoError(t, err)
	require.NotNil(t, guest.Memory())

	return &fixture{ctx: ctx, mod: m, host: host, guest: guest, sim: sim, lib: lib, logs: logs}
}

// call runs an exported gdext function with the guest as its caller, the way
// an imported call from guest code arrives.
func (f *fixture) call(t *testing.T, name string, params ...uint64) uint64 {
	t.Helper()
	def, ok := f.host.ExportedFunctionDefinitions()[name]
	require.True(t, ok, name)
	require.Len(t, params, len(def.ParamTypes()), name)
	require.Len(t, def.ResultTypes(), 1, name)
	fn, ok := def.GoFunction().(api.GoModuleFunction)
	require.True(t, ok, name)

	stack := make([]uint64, max(len(params), 1))
	copy(stack, params)
	fn.Call(f.ctx, f.guest, stack)
	return stack[0]
}

func (f *fixture) code(t *testing.T, name string, params ...uint64) int32 {
	t.Helper()
	return api.DecodeI32(f.call(t, name, params...))
}

// intern writes s at a fixed scratch offset and interns it through the guest
// call path.
func (f *fixture) intern(t *testing.T, s string) uint64 {
	t.Helper()
	const scratch = 1024
	require.True(t, f.guest.Memory().Write(scratch, []byte(s)))
	id := f.call(t, "intern", scratch, uint64(len(s)))
	require.NotZero(t, id)
	return id
}

func (f *fixture) putVariant(t *testing.T, offset uint32, v variant.Variant) uint64 {
	t.Helper()
	data, err := variant.Marshal(v)
	require.NoError(t, err)
	require.True(t, f.guest.Memory().Write(offset, data))
	return uint64(len(data))
}

func (f *fixture) readVariant(t *testing.T, offset uint32, n int32) variant.Variant {
	t.Helper()
	require.Positive(t, n)
	data, ok := f.guest.Memory().Read(offset, uint32(n))
	require.True(t, ok)
	v, err := variant.Unmarshal(data)
	require.NoError(t, err)
	return v
}

const outBuf = 4096

func TestIntern(t *testing.T) {
	f := newFixture(t)

	a := f.intern(t, "Lamp")
	b := f.intern(t, "Lamp")
	assert.Equal(t, a, b)

	name, ok := f.mod.Name(uint32(a))
	require.True(t, ok)
	assert.Equal(t, "Lamp", name)

	_, ok = f.mod.Name(0)
	assert.False(t, ok)
	assert.Zero(t, f.call(t, "intern", 0, 0))
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)

	obj := f.call(t, "create_instance", f.intern(t, "Lamp"))
	require.NotZero(t, obj)
	assert.Len(t, f.sim.Objects(), 1)

	assert.Equal(t, resultOK, f.code(t, "free_instance", obj))
	assert.Empty(t, f.sim.Objects())
	assert.Equal(t, resultFailed, f.code(t, "free_instance", obj))

	instances, lists := f.lib.Leaks()
	assert.Zero(t, instances)
	assert.Zero(t, lists)
}

func TestCreate_UnknownClass(t *testing.T) {
	f := newFixture(t)
	assert.Zero(t, f.call(t, "create_instance", f.intern(t, "Missing")))
	assert.Zero(t, f.call(t, "create_instance", 999))

	failed := f.logs.FilterMessage("create_instance failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "Missing", failed[0].ContextMap()["class"])
}

func TestVirtuals(t *testing.T) {
	f := newFixture(t)
	obj := f.call(t, "create_instance", f.intern(t, "Lamp"))

	hasPoint := f.intern(t, "_has_point")
	assert.Equal(t, resultOK, f.code(t, "get_virtual", obj, hasPoint))
	assert.Equal(t, resultNone, f.code(t, "get_virtual", obj, f.intern(t, "_draw")))

	lit := f.intern(t, "lit")
	n := f.putVariant(t, 0, variant.Bool(true))
	require.Equal(t, resultOK, f.code(t, "set_property", obj, lit, 0, n))

	n = f.putVariant(t, 0, variant.Array(variant.Float(2.5)))
	got := f.code(t, "call_virtual", obj, hasPoint, 0, n, 512, outBuf)
	v := f.readVariant(t, 512, got)
	b, ok := v.AsBool()
	require.True(t, ok)
	assert.True(t, b)

	assert.Equal(t, resultNone, f.code(t, "call_virtual", obj, f.intern(t, "_draw"), 0, 0, 512, outBuf))
	assert.Equal(t, resultTooSmall, f.code(t, "call_virtual", obj, hasPoint, 0, n, 512, 0))
}

func TestNotification_Ready(t *testing.T) {
	f := newFixture(t)
	obj := f.call(t, "create_instance", f.intern(t, "Lamp"))

	assert.Equal(t, resultOK, f.code(t, "notification", obj, uint64(abi.NotificationReady)))
	assert.Equal(t, resultOK, f.code(t, "notification", obj, uint64(abi.NotificationReady)))

	got := f.code(t, "get_property", obj, f.intern(t, "ready_count"), 0, outBuf)
	v := f.readVariant(t, 0, got)
	n, _ := v.AsInt()
	assert.EqualValues(t, 2, n)
}

func TestProperties(t *testing.T) {
	f := newFixture(t)
	obj := f.call(t, "create_instance", f.intern(t, "Lamp"))
	level := f.intern(t, "level")

	assert.EqualValues(t, 3, f.code(t, "property_list_count", obj))

	n := f.putVariant(t, 0, variant.Int(42))
	require.Equal(t, resultOK, f.code(t, "set_property", obj, level, 0, n))

	got := f.code(t, "get_property", obj, level, 256, outBuf)
	v := f.readVariant(t, 256, got)
	i, _ := v.AsInt()
	assert.EqualValues(t, 42, i)

	assert.EqualValues(t, 1, f.code(t, "property_can_revert", obj, level))
	got = f.code(t, "property_get_revert", obj, level, 256, outBuf)
	v = f.readVariant(t, 256, got)
	i, _ = v.AsInt()
	assert.EqualValues(t, 3, i)

	assert.Equal(t, resultFailed, f.code(t, "get_property", obj, 999, 256, outBuf))
}

func TestSetProperty_BadPayload(t *testing.T) {
	f := newFixture(t)
	obj := f.call(t, "create_instance", f.intern(t, "Lamp"))
	level := f.intern(t, "level")

	require.True(t, f.guest.Memory().Write(0, []byte{0xff, 0xff}))
	assert.Equal(t, resultBadMem, f.code(t, "set_property", obj, level, 0, 2))
	assert.Equal(t, resultBadMem, f.code(t, "set_property", obj, level, 1<<20, 4))
}

func TestToString(t *testing.T) {
	f := newFixture(t)
	obj := f.call(t, "create_instance", f.intern(t, "Lamp"))

	got := f.code(t, "to_string", obj, 128, outBuf)
	require.Positive(t, got)
	data, ok := f.guest.Memory().Read(128, uint32(got))
	require.True(t, ok)
	assert.Equal(t, "lamp:off", string(data))
}

func TestInstantiate_Exports(t *testing.T) {
	f := newFixture(t)
	defs := f.host.ExportedFunctionDefinitions()
	for _, name := range []string{
		"intern", "create_instance", "free_instance", "reference", "unreference",
		"get_virtual", "call_virtual", "notification", "get_property", "set_property",
		"property_can_revert", "property_get_revert", "property_list_count", "to_string",
	} {
		assert.Contains(t, defs, name)
	}
	assert.Equal(t, []api.ValueType{api.ValueTypeI64}, defs["create_instance"].ResultTypes())
	assert.Len(t, defs["call_virtual"].ParamTypes(), 6)
}

func TestUnknownObject(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, resultFailed, f.code(t, "reference", 0x42))
	assert.Equal(t, resultFailed, f.code(t, "unreference", 0x42))
	assert.Equal(t, resultFailed, f.code(t, "notification", 0x42, uint64(abi.NotificationReady)))
	assert.Equal(t, resultFailed, f.code(t, "property_list_count", 0x42))
	assert.Equal(t, resultFailed, f.code(t, "to_string", 0x42, 0, outBuf))
}
