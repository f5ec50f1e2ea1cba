package hostsim

import (
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/property"
	"github.com/wippyai/classbridge/variant"
)

// Object is the simulated host's view of one native object.
type Object struct {
	Binding   *abi.InstanceBindingCallbacks
	props     map[string]variant.Variant
	BaseClass string
	Class     string
	ID        abi.ObjectPtr
	Instance  abi.InstancePtr
	Library   abi.LibraryPtr
}

type registration struct {
	info    *abi.ClassCreationInfo
	library abi.LibraryPtr
}

// Host is an in-process stand-in for the engine. It implements the host
// functions the bridge calls and drives a library's callbacks the way the
// engine does.
type Host struct {
	objects  map[abi.ObjectPtr]*Object
	classes  map[string]*registration
	hashSkew map[string]uint32
	log      *zap.Logger
	version  abi.APIVersion
	nextID   abi.ObjectPtr
	mu       sync.Mutex
	failNext bool
}

// Option configures a Host.
type Option func(*Host)

// WithVersion sets the API version the host reports.
func WithVersion(v abi.APIVersion) Option {
	return func(h *Host) { h.version = v }
}

// WithLogger sets the host's logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) { h.log = l }
}

// New creates an empty host.
func New(opts ...Option) *Host {
	h := &Host{
		objects:  make(map[abi.ObjectPtr]*Object),
		classes:  make(map[string]*registration),
		hashSkew: make(map[string]uint32),
		log:      zap.NewNop(),
		version:  abi.Version,
		nextID:   0x1000,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Version returns the API version the host reports.
func (h *Host) Version() abi.APIVersion { return h.version }

// Interface returns the host functions to hand to a library.
func (h *Host) Interface() abi.HostInterface {
	return abi.HostInterface{
		ClassDBConstructObject:          h.constructObject,
		ObjectDestroy:                   h.destroyObject,
		ObjectSetInstance:               h.setInstance,
		ObjectSetInstanceBinding:        h.setInstanceBinding,
		ClassDBRegisterExtensionClass:   h.registerClass,
		ClassDBUnregisterExtensionClass: h.unregisterClass,
	}
}

// FailNextConstruct makes the next object construction return a null
// handle.
func (h *Host) FailNextConstruct() {
	h.mu.Lock()
	h.failNext = true
	h.mu.Unlock()
}

// SkewHash makes the host send hash instead of the known signature hash
// when resolving method, as an older or newer engine would.
func (h *Host) SkewHash(method string, hash uint32) {
	h.mu.Lock()
	h.hashSkew[method] = hash
	h.mu.Unlock()
}

func (h *Host) constructObject(base variant.StringName) abi.ObjectPtr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failNext || base.IsEmpty() {
		h.failNext = false
		return 0
	}
	h.nextID += 8
	obj := &Object{
		ID:        h.nextID,
		BaseClass: base.String(),
		props:     make(map[string]variant.Variant),
	}
	h.objects[obj.ID] = obj
	h.log.Debug("object constructed", zap.String("base", obj.BaseClass), zap.Uintptr("id", uintptr(obj.ID)))
	return obj.ID
}

func (h *Host) destroyObject(obj abi.ObjectPtr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.objects[obj]; !ok {
		panic(errors.ContractViolation(errors.PhaseHost, "object_destroy on unknown object %#x", uintptr(obj)))
	}
	delete(h.objects, obj)
	h.log.Debug("object destroyed", zap.Uintptr("id", uintptr(obj)))
}

func (h *Host) setInstance(obj abi.ObjectPtr, class variant.StringName, inst abi.InstancePtr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.objects[obj]
	if !ok {
		panic(errors.ContractViolation(errors.PhaseHost, "object_set_instance on unknown object %#x", uintptr(obj)))
	}
	o.Class = class.String()
	o.Instance = inst
}

func (h *Host) setInstanceBinding(obj abi.ObjectPtr, lib abi.LibraryPtr, _ abi.InstancePtr, cb *abi.InstanceBindingCallbacks) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if o, ok := h.objects[obj]; ok {
		o.Library = lib
		o.Binding = cb
	}
}

func (h *Host) registerClass(lib abi.LibraryPtr, name, parent variant.StringName, info *abi.ClassCreationInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.classes[name.String()] = &registration{info: info, library: lib}
	h.log.Debug("class registered", zap.Stringer("class", name), zap.Stringer("parent", parent))
}

func (h *Host) unregisterClass(_ abi.LibraryPtr, name variant.StringName) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.classes, name.String())
}

// Registered returns the names of registered extension classes, sorted.
func (h *Host) Registered() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.classes))
	for n := range h.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ClassInfo returns the descriptor a class was registered with.
func (h *Host) ClassInfo(class string) (*abi.ClassCreationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.classes[class]
	if !ok {
		return nil, false
	}
	return r.info, true
}

// Object returns a copy of the host's record for obj.
func (h *Host) Object(obj abi.ObjectPtr) (Object, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.objects[obj]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// Objects returns every live object id, sorted.
func (h *Host) Objects() []abi.ObjectPtr {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]abi.ObjectPtr, 0, len(h.objects))
	for id := range h.objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// lookup returns obj's record and its class descriptor.
func (h *Host) lookup(obj abi.ObjectPtr) (*Object, *abi.ClassCreationInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.objects[obj]
	if !ok {
		return nil, nil, errors.NotFound(errors.PhaseHost, "object", fmt.Sprintf("%#x", uintptr(obj)))
	}
	r, ok := h.classes[o.Class]
	if !ok {
		return nil, nil, errors.NotFound(errors.PhaseHost, "class", o.Class)
	}
	return o, r.info, nil
}

// Instantiate creates an object of an extension class through its create
// callback.
func (h *Host) Instantiate(class string) (abi.ObjectPtr, error) {
	info, ok := h.ClassInfo(class)
	if !ok {
		return 0, errors.NotFound(errors.PhaseHost, "class", class)
	}
	if info.CreateInstanceFunc == nil {
		return 0, errors.Unsupported(errors.PhaseHost, "class "+class+" cannot be instantiated")
	}
	obj := info.Create()
	if obj == 0 {
		return 0, errors.New(errors.PhaseHost, errors.KindUserFailure).
			Class(class).
			Detail("create returned a null object").
			Build()
	}
	o, ok := h.Object(obj)
	if !ok || o.Instance == 0 {
		return 0, errors.New(errors.PhaseHost, errors.KindContractViolation).
			Class(class).
			Detail("object %#x was not linked to an instance", uintptr(obj)).
			Build()
	}
	return obj, nil
}

// Free destroys obj, calling the class's free callback.
func (h *Host) Free(obj abi.ObjectPtr) error {
	o, info, err := h.lookup(obj)
	if err != nil {
		return err
	}
	if info.NotificationFunc != nil {
		info.Notify(o.Instance, abi.NotificationPredelete, true)
	}
	info.FreeInstanceFunc(info.ClassUserdata, o.Instance)

	h.mu.Lock()
	delete(h.objects, obj)
	h.mu.Unlock()
	return nil
}

// Reload simulates hot reload of class: every live object of the class has
// its instance freed and rebuilt through recreate. Host objects survive,
// except one whose recreate fails, which is destroyed.
func (h *Host) Reload(class string) (int, error) {
	info, ok := h.ClassInfo(class)
	if !ok {
		return 0, errors.NotFound(errors.PhaseHost, "class", class)
	}
	if info.RecreateInstanceFunc == nil {
		return 0, errors.Unsupported(errors.PhaseHost, "class "+class+" does not support recreate")
	}

	var targets []*Object
	h.mu.Lock()
	for _, o := range h.objects {
		if o.Class == class {
			targets = append(targets, o)
		}
	}
	h.mu.Unlock()
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })

	for _, o := range targets {
		info.FreeInstanceFunc(info.ClassUserdata, o.Instance)
		h.mu.Lock()
		o.Instance = 0
		h.mu.Unlock()

		inst := info.RecreateInstanceFunc(info.ClassUserdata, o.ID)
		if inst == 0 {
			// The old instance is gone, so the object cannot be kept.
			h.destroyObject(o.ID)
			return 0, errors.New(errors.PhaseHost, errors.KindUserFailure).
				Class(class).
				Detail("recreate of object %#x returned a null instance", uintptr(o.ID)).
				Build()
		}
		h.mu.Lock()
		linked := o.Instance == inst
		h.mu.Unlock()
		if !linked {
			return 0, errors.New(errors.PhaseHost, errors.KindContractViolation).
				Class(class).
				Detail("recreated instance was not linked to its object").
				Build()
		}
	}
	return len(targets), nil
}

// hashFor returns the hash this host sends when resolving method on a
// class derived from base.
func (h *Host) hashFor(base, method string) uint32 {
	h.mu.Lock()
	skew, ok := h.hashSkew[method]
	h.mu.Unlock()
	if ok {
		return skew
	}
	lookupBase := base
	if !abi.IsEngineClass(base) && abi.IsPossiblyNodeClass(base) {
		lookupBase = "Node"
	}
	hash, _ := abi.KnownVirtualHash(lookupBase, method)
	return hash
}

// ResolveVirtual asks the class for a thunk for method.
func (h *Host) ResolveVirtual(obj abi.ObjectPtr, method string) (abi.CallVirtual, error) {
	o, info, err := h.lookup(obj)
	if err != nil {
		return nil, err
	}
	if info.GetVirtualFunc == nil {
		return nil, nil
	}
	return info.ResolveVirtual(variant.Name(method), h.hashFor(o.BaseClass, method)), nil
}

// CallVirtual calls method on obj if the class provides it. The boolean
// reports whether an override ran.
func (h *Host) CallVirtual(obj abi.ObjectPtr, method string, args ...variant.Variant) (variant.Variant, bool, error) {
	call, err := h.ResolveVirtual(obj, method)
	if err != nil || call == nil {
		return variant.Nil(), false, err
	}
	o, _ := h.Object(obj)
	ret := variant.Nil()
	call(o.Instance, args, &ret)
	return ret, true, nil
}

// Notify delivers a notification. For NotificationReady the engine first
// calls the _ready virtual, then the notification callback.
func (h *Host) Notify(obj abi.ObjectPtr, what int32) error {
	if what == abi.NotificationReady {
		if _, _, err := h.CallVirtual(obj, "_ready"); err != nil {
			return err
		}
	}
	o, info, err := h.lookup(obj)
	if err != nil {
		return err
	}
	info.Notify(o.Instance, what, false)
	return nil
}

// Get reads a property: the dynamic callback first, then typed
// properties, then the host's own storage.
func (h *Host) Get(obj abi.ObjectPtr, name string) (variant.Variant, bool, error) {
	o, info, err := h.lookup(obj)
	if err != nil {
		return variant.Nil(), false, err
	}
	sn := variant.Name(name)
	if info.GetFunc != nil {
		ret := variant.Nil()
		if info.GetFunc(o.Instance, sn, &ret) {
			return ret, true, nil
		}
	}
	if p, ok := info.Property(sn); ok && p.Get != nil {
		return p.Get(o.Instance), true, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := o.props[name]
	return v, ok, nil
}

// Set writes a property with the same fallback order as Get. Names nobody
// claims are kept in the host's own storage.
func (h *Host) Set(obj abi.ObjectPtr, name string, value variant.Variant) error {
	o, info, err := h.lookup(obj)
	if err != nil {
		return err
	}
	sn := variant.Name(name)
	if info.SetFunc != nil && info.SetFunc(o.Instance, sn, value) {
		return nil
	}
	if p, ok := info.Property(sn); ok {
		if p.Set == nil {
			return errors.Unsupported(errors.PhaseHost, "property "+name+" is read-only")
		}
		p.Set(o.Instance, value)
		return nil
	}
	h.mu.Lock()
	o.props[name] = value
	h.mu.Unlock()
	return nil
}

// PropertyList returns the typed properties of obj followed by its dynamic
// list. The dynamic array is copied out and handed back through the free
// callback before returning.
func (h *Host) PropertyList(obj abi.ObjectPtr) ([]property.Info, error) {
	o, info, err := h.lookup(obj)
	if err != nil {
		return nil, err
	}
	var out []property.Info
	for i := range info.Properties {
		p := &info.Properties[i]
		out = append(out, property.Info{
			Name:       p.Name.String(),
			ClassName:  p.ClassName.String(),
			HintString: p.HintString,
			Hint:       property.Hint(p.Hint),
			Usage:      property.Usage(p.Usage),
			Type:       p.Type,
		})
	}
	if info.GetPropertyListFunc == nil {
		return out, nil
	}

	var count uint32
	head := info.GetPropertyListFunc(o.Instance, &count)
	if head != nil {
		for _, sys := range unsafe.Slice(head, count) {
			out = append(out, property.FromSys(&sys))
		}
	}
	info.FreePropertyListFunc(o.Instance, head, count)
	return out, nil
}

// CanRevert asks whether a property has a default value.
func (h *Host) CanRevert(obj abi.ObjectPtr, name string) (bool, error) {
	o, info, err := h.lookup(obj)
	if err != nil || info.PropertyCanRevertFunc == nil {
		return false, err
	}
	return info.PropertyCanRevertFunc(o.Instance, variant.Name(name)), nil
}

// GetRevert returns a property's default value, if any.
func (h *Host) GetRevert(obj abi.ObjectPtr, name string) (variant.Variant, bool, error) {
	o, info, err := h.lookup(obj)
	if err != nil || info.PropertyGetRevertFunc == nil {
		return variant.Nil(), false, err
	}
	ret := variant.Nil()
	ok := info.PropertyGetRevertFunc(o.Instance, variant.Name(name), &ret)
	return ret, ok, nil
}

// ToString renders obj through the class's to_string callback, falling
// back to the host's default form.
func (h *Host) ToString(obj abi.ObjectPtr) (string, error) {
	o, info, err := h.lookup(obj)
	if err != nil {
		return "", err
	}
	if info.ToStringFunc != nil {
		var valid bool
		var s string
		info.ToStringFunc(o.Instance, &valid, &s)
		if valid {
			return s, nil
		}
	}
	return fmt.Sprintf("<%s#%d>", o.Class, uint64(o.ID)), nil
}

// Reference increments obj's external reference count.
func (h *Host) Reference(obj abi.ObjectPtr) error {
	o, info, err := h.lookup(obj)
	if err != nil {
		return err
	}
	if info.ReferenceFunc != nil {
		info.ReferenceFunc(o.Instance)
	}
	return nil
}

// Unreference decrements obj's external reference count.
func (h *Host) Unreference(obj abi.ObjectPtr) error {
	o, info, err := h.lookup(obj)
	if err != nil {
		return err
	}
	if info.UnreferenceFunc != nil {
		info.UnreferenceFunc(o.Instance)
	}
	return nil
}
