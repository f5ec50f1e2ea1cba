package bridge

import (
	"reflect"

	"github.com/wippyai/classbridge/errors"
)

// OnReady is a field whose value is produced right before the ready
// virtual runs, when the host object is fully set up.
type OnReady[V any] struct {
	init  func() V
	value V
	ready bool
}

// NewOnReady defers init until the instance becomes ready.
func NewOnReady[V any](init func() V) OnReady[V] {
	return OnReady[V]{init: init}
}

// Get returns the value. Reading before ready is a programming error and
// panics.
func (o *OnReady[V]) Get() V {
	if !o.ready {
		panic(errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			GoType(reflect.TypeFor[V]().String()).
			Detail("OnReady value read before ready").
			Build())
	}
	return o.value
}

// Set assigns the value directly, marking the field ready.
func (o *OnReady[V]) Set(v V) {
	o.value = v
	o.ready = true
}

// IsReady reports whether the value has been produced.
func (o *OnReady[V]) IsReady() bool { return o.ready }

// initReady runs the initializer once; later calls keep the first value.
func (o *OnReady[V]) initReady() {
	if o.ready || o.init == nil {
		return
	}
	o.Set(o.init())
}

type readyInitializer interface {
	initReady()
}

var readyInitializerType = reflect.TypeFor[readyInitializer]()

// readyFields finds the exported OnReady fields of struct type t.
func readyFields(t reflect.Type) ([][]int, error) {
	var out [][]int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !reflect.PointerTo(f.Type).Implements(readyInitializerType) {
			continue
		}
		if !f.IsExported() {
			return nil, errors.Registration(t.Name(), "OnReady field %s must be exported", f.Name)
		}
		out = append(out, f.Index)
	}
	return out, nil
}
