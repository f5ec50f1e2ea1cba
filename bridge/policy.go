package bridge

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
)

// UnwindPolicy decides what happens when extension code fails inside a
// callback, either by panicking or by returning an error.
type UnwindPolicy uint8

const (
	// UnwindRecover logs the failure and reports the callback's negative
	// outcome (none / false / null) to the host.
	UnwindRecover UnwindPolicy = iota
	// UnwindAbort treats the failure like a contract violation.
	UnwindAbort
)

func (p UnwindPolicy) String() string {
	switch p {
	case UnwindRecover:
		return "recover"
	case UnwindAbort:
		return "abort"
	}
	return fmt.Sprintf("UnwindPolicy(%d)", uint8(p))
}

// ParseUnwindPolicy maps "recover" or "abort" to a policy.
func ParseUnwindPolicy(s string) (UnwindPolicy, error) {
	switch s {
	case "", "recover":
		return UnwindRecover, nil
	case "abort":
		return UnwindAbort, nil
	}
	return 0, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown unwind policy %q", s))
}

// AbortFunc is called for contract violations. It must not return normally
// into the host; the default logs at fatal level, which exits the process.
type AbortFunc func(err error)

func defaultAbort(err error) {
	Logger().Fatal("contract violation", zap.Error(err))
}

// invoke runs one callback body at the ABI boundary. Contract violations go
// to the abort handler; other failures go through the unwind policy. It
// reports whether fn completed without failure.
func (l *Library) invoke(class, callback string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			l.fail(class, callback, errors.FromPanic(r))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		l.fail(class, callback, err)
		return false
	}
	return true
}

func (l *Library) fail(class, callback string, err error) {
	if errors.IsFatal(err) {
		l.abort(err)
		return
	}
	failure := errors.UserFailure(phaseOf(callback), class, callback, err)
	if l.policy == UnwindAbort {
		l.abort(failure)
		return
	}
	Logger().Error("extension callback failed",
		zap.String("class", class),
		zap.String("callback", callback),
		zap.Error(err))
}

func (l *Library) abort(err error) {
	Logger().Error("aborting on contract violation", zap.Error(err))
	l.onAbort(err)
}

// discard hands back a host object whose instance could not be bound. A
// host without object_destroy cannot take it back, which leaves an object
// nothing owns.
func (l *Library) discard(class string, obj abi.ObjectPtr) {
	if l.host.ObjectDestroy == nil {
		l.abort(errors.New(errors.PhaseLifecycle, errors.KindContractViolation).
			Class(class).
			Detail("host object %#x left without an instance and the host cannot destroy it", uintptr(obj)).
			Build())
		return
	}
	Logger().Warn("destroying host object after failed create",
		zap.String("class", class),
		zap.Uintptr("object", uintptr(obj)))
	l.host.ObjectDestroy(obj)
}

func phaseOf(callback string) errors.Phase {
	switch callback {
	case "create", "recreate", "free", "reference", "unreference":
		return errors.PhaseLifecycle
	case "get_property", "set_property", "get_property_list", "free_property_list",
		"property_can_revert", "property_get_revert":
		return errors.PhaseProperty
	}
	return errors.PhaseDispatch
}
