package demo

import (
	"go.uber.org/zap"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/bridge"
	"github.com/wippyai/classbridge/hostsim"
)

// Session is a library with the demo classes registered on a simulated
// host.
type Session struct {
	Host    *hostsim.Host
	Library *bridge.Library
	level   abi.InitLevel
}

// NewSession registers the demo classes and initializes the library up to
// level.
func NewSession(log *zap.Logger, level abi.InitLevel, opts ...bridge.Option) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	host := hostsim.New(hostsim.WithLogger(log))
	lib, err := bridge.NewLibrary(host.Interface(), opts...)
	if err != nil {
		return nil, err
	}
	if err := Register(lib); err != nil {
		return nil, err
	}
	for l := abi.InitCore; l <= level; l++ {
		if err := lib.Initialize(l); err != nil {
			return nil, err
		}
	}
	return &Session{Host: host, Library: lib, level: level}, nil
}

// Close frees every live object and deinitializes the library. It returns
// the instance and property-list counts left behind.
func (s *Session) Close() (instances, lists int) {
	for _, obj := range s.Host.Objects() {
		_ = s.Host.Free(obj)
	}
	for l := s.level; ; l-- {
		s.Library.Deinitialize(l)
		if l == abi.InitCore {
			break
		}
	}
	return s.Library.Leaks()
}
