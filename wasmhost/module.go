package wasmhost

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/hostsim"
	"github.com/wippyai/classbridge/variant"
)

// ModuleName is the import module guests link against.
const ModuleName = "gdext"

// Result codes returned in place of a length or status.
const (
	resultOK       int32 = 0
	resultNone     int32 = -1 // no override, or the property is absent
	resultFailed   int32 = -2
	resultTooSmall int32 = -3
	resultBadMem   int32 = -4
)

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// Module exposes a simulated engine to WebAssembly guests. Guests refer to
// strings by interned ids and pass values as CBOR-encoded variants in their
// own linear memory.
type Module struct {
	host  *hostsim.Host
	log   *zap.Logger
	ids   map[string]uint32
	names []string
	mu    sync.Mutex
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the logger for failed guest calls.
func WithLogger(l *zap.Logger) Option {
	return func(m *Module) { m.log = l }
}

// New wraps host.
func New(host *hostsim.Host, opts ...Option) *Module {
	m := &Module{
		host: host,
		log:  zap.NewNop(),
		ids:  make(map[string]uint32),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Intern returns the id of name, assigning one on first use. Ids start at 1.
func (m *Module) Intern(name string) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[name]; ok {
		return id
	}
	m.names = append(m.names, name)
	id := uint32(len(m.names))
	m.ids[name] = id
	return id
}

// Name resolves an interned id.
func (m *Module) Name(id uint32) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || int(id) > len(m.names) {
		return "", false
	}
	return m.names[id-1], true
}

// Instantiate registers the gdext host module in r.
func (m *Module) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	b := r.NewHostModuleBuilder(ModuleName)
	fn := func(name string, f api.GoModuleFunc, params, results []api.ValueType) {
		b.NewFunctionBuilder().WithGoModuleFunction(f, params, results).Export(name)
	}

	fn("intern", m.intern, []api.ValueType{i32, i32}, []api.ValueType{i32})
	fn("create_instance", m.createInstance, []api.ValueType{i32}, []api.ValueType{i64})
	fn("free_instance", m.objectOp(m.host.Free), []api.ValueType{i64}, []api.ValueType{i32})
	fn("reference", m.objectOp(m.host.Reference), []api.ValueType{i64}, []api.ValueType{i32})
	fn("unreference", m.objectOp(m.host.Unreference), []api.ValueType{i64}, []api.ValueType{i32})
	fn("get_virtual", m.getVirtual, []api.ValueType{i64, i32}, []api.ValueType{i32})
	fn("call_virtual", m.callVirtual, []api.ValueType{i64, i32, i32, i32, i32, i32}, []api.ValueType{i32})
	fn("notification", m.notification, []api.ValueType{i64, i32}, []api.ValueType{i32})
	fn("get_property", m.getProperty, []api.ValueType{i64, i32, i32, i32}, []api.ValueType{i32})
	fn("set_property", m.setProperty, []api.ValueType{i64, i32, i32, i32}, []api.ValueType{i32})
	fn("property_can_revert", m.canRevert, []api.ValueType{i64, i32}, []api.ValueType{i32})
	fn("property_get_revert", m.getRevert, []api.ValueType{i64, i32, i32, i32}, []api.ValueType{i32})
	fn("property_list_count", m.propertyListCount, []api.ValueType{i64}, []api.ValueType{i32})
	fn("to_string", m.toString, []api.ValueType{i64, i32, i32}, []api.ValueType{i32})

	return b.Instantiate(ctx)
}

func (m *Module) memory(caller api.Module) api.Memory {
	if caller == nil {
		return nil
	}
	return caller.Memory()
}

func (m *Module) read(caller api.Module, ptr, n uint32) ([]byte, bool) {
	mem := m.memory(caller)
	if mem == nil {
		return nil, false
	}
	return mem.Read(ptr, n)
}

// write copies data to the guest buffer and returns its length or a
// negative result code.
func (m *Module) write(caller api.Module, ptr, capacity uint32, data []byte) int32 {
	if uint32(len(data)) > capacity {
		return resultTooSmall
	}
	mem := m.memory(caller)
	if mem == nil || !mem.Write(ptr, data) {
		return resultBadMem
	}
	return int32(len(data))
}

func (m *Module) writeVariant(caller api.Module, ptr, capacity uint32, v variant.Variant) int32 {
	data, err := variant.Marshal(v)
	if err != nil {
		m.log.Warn("encode result", zap.Error(err))
		return resultFailed
	}
	return m.write(caller, ptr, capacity, data)
}

func (m *Module) readVariant(caller api.Module, ptr, n uint32) (variant.Variant, bool) {
	data, ok := m.read(caller, ptr, n)
	if !ok {
		return variant.Nil(), false
	}
	v, err := variant.Unmarshal(data)
	if err != nil {
		m.log.Warn("decode argument", zap.Error(err))
		return variant.Nil(), false
	}
	return v, true
}

func (m *Module) status(err error) int32 {
	if err != nil {
		m.log.Debug("guest call failed", zap.Error(err))
		return resultFailed
	}
	return resultOK
}

func objectArg(stack []uint64, i int) abi.ObjectPtr {
	return abi.ObjectPtr(stack[i])
}

func (m *Module) nameArg(stack []uint64, i int) (string, bool) {
	return m.Name(api.DecodeU32(stack[i]))
}

func (m *Module) intern(_ context.Context, caller api.Module, stack []uint64) {
	data, ok := m.read(caller, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
	if !ok || len(data) == 0 {
		stack[0] = 0
		return
	}
	stack[0] = api.EncodeU32(m.Intern(string(data)))
}

func (m *Module) createInstance(_ context.Context, _ api.Module, stack []uint64) {
	class, ok := m.nameArg(stack, 0)
	if !ok {
		stack[0] = 0
		return
	}
	obj, err := m.host.Instantiate(class)
	if err != nil {
		m.log.Debug("create_instance failed", zap.String("class", class), zap.Error(err))
		stack[0] = 0
		return
	}
	stack[0] = uint64(obj)
}

func (m *Module) objectOp(op func(abi.ObjectPtr) error) api.GoModuleFunc {
	return func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = api.EncodeI32(m.status(op(objectArg(stack, 0))))
	}
}

func (m *Module) getVirtual(_ context.Context, _ api.Module, stack []uint64) {
	method, ok := m.nameArg(stack, 1)
	if !ok {
		stack[0] = api.EncodeI32(resultFailed)
		return
	}
	call, err := m.host.ResolveVirtual(objectArg(stack, 0), method)
	switch {
	case err != nil:
		stack[0] = api.EncodeI32(m.status(err))
	case call == nil:
		stack[0] = api.EncodeI32(resultNone)
	default:
		stack[0] = api.EncodeI32(resultOK)
	}
}

// callVirtual: (obj, method, args_ptr, args_len, out_ptr, out_cap) -> len.
// Arguments are one CBOR array variant; args_len 0 means no arguments.
func (m *Module) callVirtual(_ context.Context, caller api.Module, stack []uint64) {
	obj := objectArg(stack, 0)
	method, ok := m.nameArg(stack, 1)
	if !ok {
		stack[0] = api.EncodeI32(resultFailed)
		return
	}

	var args []variant.Variant
	if n := api.DecodeU32(stack[3]); n > 0 {
		v, ok := m.readVariant(caller, api.DecodeU32(stack[2]), n)
		if !ok {
			stack[0] = api.EncodeI32(resultBadMem)
			return
		}
		if args, ok = v.AsArray(); !ok {
			stack[0] = api.EncodeI32(resultFailed)
			return
		}
	}

	ret, called, err := m.host.CallVirtual(obj, method, args...)
	switch {
	case err != nil:
		stack[0] = api.EncodeI32(m.status(err))
	case !called:
		stack[0] = api.EncodeI32(resultNone)
	default:
		stack[0] = api.EncodeI32(m.writeVariant(caller, api.DecodeU32(stack[4]), api.DecodeU32(stack[5]), ret))
	}
}

func (m *Module) notification(_ context.Context, _ api.Module, stack []uint64) {
	stack[0] = api.EncodeI32(m.status(m.host.Notify(objectArg(stack, 0), api.DecodeI32(stack[1]))))
}

func (m *Module) getProperty(_ context.Context, caller api.Module, stack []uint64) {
	m.readOp(caller, stack, m.host.Get)
}

func (m *Module) getRevert(_ context.Context, caller api.Module, stack []uint64) {
	m.readOp(caller, stack, m.host.GetRevert)
}

// readOp serves (obj, name, out_ptr, out_cap) -> len functions.
func (m *Module) readOp(caller api.Module, stack []uint64, get func(abi.ObjectPtr, string) (variant.Variant, bool, error)) {
	name, ok := m.nameArg(stack, 1)
	if !ok {
		stack[0] = api.EncodeI32(resultFailed)
		return
	}
	v, found, err := get(objectArg(stack, 0), name)
	switch {
	case err != nil:
		stack[0] = api.EncodeI32(m.status(err))
	case !found:
		stack[0] = api.EncodeI32(resultNone)
	default:
		stack[0] = api.EncodeI32(m.writeVariant(caller, api.DecodeU32(stack[2]), api.DecodeU32(stack[3]), v))
	}
}

func (m *Module) setProperty(_ context.Context, caller api.Module, stack []uint64) {
	name, ok := m.nameArg(stack, 1)
	if !ok {
		stack[0] = api.EncodeI32(resultFailed)
		return
	}
	v, ok := m.readVariant(caller, api.DecodeU32(stack[2]), api.DecodeU32(stack[3]))
	if !ok {
		stack[0] = api.EncodeI32(resultBadMem)
		return
	}
	stack[0] = api.EncodeI32(m.status(m.host.Set(objectArg(stack, 0), name, v)))
}

func (m *Module) canRevert(_ context.Context, _ api.Module, stack []uint64) {
	name, ok := m.nameArg(stack, 1)
	if !ok {
		stack[0] = api.EncodeI32(resultFailed)
		return
	}
	can, err := m.host.CanRevert(objectArg(stack, 0), name)
	switch {
	case err != nil:
		stack[0] = api.EncodeI32(m.status(err))
	case can:
		stack[0] = api.EncodeI32(1)
	default:
		stack[0] = api.EncodeI32(0)
	}
}

func (m *Module) propertyListCount(_ context.Context, _ api.Module, stack []uint64) {
	list, err := m.host.PropertyList(objectArg(stack, 0))
	if err != nil {
		stack[0] = api.EncodeI32(m.status(err))
		return
	}
	stack[0] = api.EncodeI32(int32(len(list)))
}

func (m *Module) toString(_ context.Context, caller api.Module, stack []uint64) {
	s, err := m.host.ToString(objectArg(stack, 0))
	if err != nil {
		stack[0] = api.EncodeI32(m.status(err))
		return
	}
	stack[0] = api.EncodeI32(m.write(caller, api.DecodeU32(stack[1]), api.DecodeU32(stack[2]), []byte(s)))
}
