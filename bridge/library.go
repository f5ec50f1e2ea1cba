package bridge

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/property"
	"github.com/wippyai/classbridge/storage"
	"github.com/wippyai/classbridge/variant"
)

// Library is one loaded extension: its classes, the host functions it calls
// and the state shared by all of its callbacks.
type Library struct {
	host        abi.HostInterface
	classes     map[string]*class
	byUserdata  []*class
	initialized map[abi.InitLevel]bool
	store       *storage.Table
	ledger      *property.Ledger
	onAbort     AbortFunc
	ptr         abi.LibraryPtr
	mu          sync.RWMutex
	policy      UnwindPolicy
}

// Option configures a Library.
type Option func(*Library)

// WithUnwindPolicy sets how failures in extension code are handled.
func WithUnwindPolicy(p UnwindPolicy) Option {
	return func(l *Library) { l.policy = p }
}

// WithAbortHandler replaces the handler called for contract violations.
func WithAbortHandler(fn AbortFunc) Option {
	return func(l *Library) { l.onAbort = fn }
}

// WithLibraryPtr sets the token identifying this library to the host.
func WithLibraryPtr(p abi.LibraryPtr) Option {
	return func(l *Library) { l.ptr = p }
}

// NewLibrary creates a library bound to the given host functions.
func NewLibrary(host abi.HostInterface, opts ...Option) (*Library, error) {
	if missing := host.Validate(); len(missing) > 0 {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Detail("host interface is missing %v", missing).
			Build()
	}
	l := &Library{
		host:        host,
		classes:     make(map[string]*class),
		initialized: make(map[abi.InitLevel]bool),
		store:       storage.NewTable(storage.WithLogger(Logger().Named("storage"))),
		ledger:      property.NewLedger(),
		onAbort:     defaultAbort,
		ptr:         1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Policy returns the library's unwind policy.
func (l *Library) Policy() UnwindPolicy { return l.policy }

// Ptr returns the token identifying this library to the host.
func (l *Library) Ptr() abi.LibraryPtr { return l.ptr }

// Instances returns the library's instance storage.
func (l *Library) Instances() *storage.Table { return l.store }

// Ledger returns the property-list loan ledger.
func (l *Library) Ledger() *property.Ledger { return l.ledger }

// Classes returns the names of all defined classes in definition order.
func (l *Library) Classes() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, len(l.byUserdata))
	for i, c := range l.byUserdata {
		names[i] = c.name
	}
	return names
}

// ClassesAt returns the classes registered at level in definition order.
func (l *Library) ClassesAt(level abi.InitLevel) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var names []string
	for _, c := range l.byUserdata {
		if c.level == level {
			names = append(names, c.name)
		}
	}
	return names
}

// ClassTable returns the registration descriptor for one class.
func (l *Library) ClassTable(name string) (*abi.ClassCreationInfo, error) {
	l.mu.RLock()
	c, ok := l.classes[name]
	l.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseRegister, "class", name)
	}
	return c.descriptor(), nil
}

// Initialize registers every class defined for level with the host.
func (l *Library) Initialize(level abi.InitLevel) error {
	l.mu.Lock()
	if l.initialized[level] {
		l.mu.Unlock()
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Detail("init level %s already initialized", level).
			Build()
	}
	l.initialized[level] = true
	l.mu.Unlock()

	for _, name := range l.ClassesAt(level) {
		info, err := l.ClassTable(name)
		if err != nil {
			return err
		}
		if l.host.ClassDBRegisterExtensionClass != nil {
			l.host.ClassDBRegisterExtensionClass(l.ptr, info.ClassName, info.ParentName, info)
		}
		Logger().Info("class registered",
			zap.String("class", name),
			zap.String("base", info.ParentName.String()),
			zap.Stringer("level", level))
	}
	return nil
}

// Deinitialize unregisters the classes of level in reverse order.
func (l *Library) Deinitialize(level abi.InitLevel) {
	l.mu.Lock()
	if !l.initialized[level] {
		l.mu.Unlock()
		return
	}
	delete(l.initialized, level)
	l.mu.Unlock()

	names := l.ClassesAt(level)
	for i := len(names) - 1; i >= 0; i-- {
		if l.host.ClassDBUnregisterExtensionClass != nil {
			l.host.ClassDBUnregisterExtensionClass(l.ptr, variant.Name(names[i]))
		}
		Logger().Info("class unregistered", zap.String("class", names[i]))
	}
}

// Leaks reports instances still alive and property lists still on loan.
// Both are expected to be zero once the host has shut down.
func (l *Library) Leaks() (instances, lists int) {
	lists, _ = l.ledger.Outstanding()
	return l.store.Len(), lists
}

func (l *Library) addClass(c *class) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.classes[c.name]; dup {
		return errors.Registration(c.name, "class defined twice")
	}
	if l.initialized[c.level] {
		return errors.Registration(c.name, "init level %s is already initialized", c.level)
	}
	l.byUserdata = append(l.byUserdata, c)
	c.userdata = abi.ClassUserdata(len(l.byUserdata))
	l.classes[c.name] = c
	return nil
}

// classFor resolves the userdata the host echoes back on class callbacks.
func (l *Library) classFor(ud abi.ClassUserdata) *class {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if ud == 0 || int(ud) > len(l.byUserdata) {
		panic(errors.ContractViolation(errors.PhaseLifecycle, "unknown class userdata %d", ud))
	}
	return l.byUserdata[ud-1]
}

// ClassSummary describes a defined class.
type ClassSummary struct {
	Name       string
	Base       string
	Virtuals   []string
	Vars       []string
	Level      abi.InitLevel
	RefCounted bool
	Abstract   bool
}

// Summaries returns every defined class, sorted by name.
func (l *Library) Summaries() []ClassSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ClassSummary, 0, len(l.classes))
	for _, c := range l.classes {
		s := ClassSummary{
			Name:       c.name,
			Base:       c.base,
			Level:      c.level,
			RefCounted: c.refCounted,
			Abstract:   c.abstract,
		}
		for _, e := range c.virtuals.Entries() {
			s.Virtuals = append(s.Virtuals, e.Name.String())
		}
		sort.Strings(s.Virtuals)
		for _, bv := range c.vars {
			s.Vars = append(s.Vars, bv.info.Name)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Describe returns a one-line summary of each class, sorted by name.
func (l *Library) Describe() []string {
	sums := l.Summaries()
	out := make([]string, 0, len(sums))
	for _, s := range sums {
		out = append(out, fmt.Sprintf("%s : %s [%s] virtuals=%d vars=%d", s.Name, s.Base, s.Level, len(s.Virtuals), len(s.Vars)))
	}
	return out
}

// DefaultVirtuals returns the default_get_virtual callback of a class. It
// resolves the base class's known virtuals to built-in no-ops and never
// reaches user code, so a host can call a known method even when it does
// not know the concrete extension class.
func (l *Library) DefaultVirtuals(name string) (abi.GetVirtualFunc, abi.ClassUserdata, error) {
	l.mu.RLock()
	c, ok := l.classes[name]
	l.mu.RUnlock()
	if !ok {
		return nil, 0, errors.NotFound(errors.PhaseRegister, "class", name)
	}
	return c.defaultVirtualFunc(), c.userdata, nil
}
