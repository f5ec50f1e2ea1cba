package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/bridge"
	"github.com/wippyai/classbridge/variant"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(nil, abi.InitScene, bridge.WithAbortHandler(func(err error) { panic(err) }))
	require.NoError(t, err)
	return s
}

func getInt(t *testing.T, s *Session, obj abi.ObjectPtr, name string) int64 {
	t.Helper()
	v, ok, err := s.Host.Get(obj, name)
	require.NoError(t, err)
	require.True(t, ok, name)
	switch v.Type() {
	case variant.TypeFloat:
		f, _ := v.AsFloat()
		return int64(f)
	default:
		n, ok := v.AsInt()
		require.True(t, ok, name)
		return n
	}
}

func TestSession_Registers(t *testing.T) {
	s := newSession(t)
	assert.ElementsMatch(t, Classes, s.Host.Registered())

	instances, lists := s.Close()
	assert.Zero(t, instances)
	assert.Zero(t, lists)
	assert.Empty(t, s.Host.Registered())
}

func TestShip(t *testing.T) {
	s := newSession(t)
	defer s.Close()

	obj, err := s.Host.Instantiate("Ship")
	require.NoError(t, err)
	assert.EqualValues(t, 100, getInt(t, s, obj, "hull"))

	require.NoError(t, s.Host.Notify(obj, abi.NotificationReady))
	status, ok, err := s.Host.Get(obj, "status")
	require.NoError(t, err)
	require.True(t, ok)
	str, _ := status.AsString()
	assert.Contains(t, str, "launched SHIP-")

	for range 3 {
		_, called, err := s.Host.CallVirtual(obj, "_process", variant.Float(0.5))
		require.NoError(t, err)
		require.True(t, called)
	}
	assert.EqualValues(t, 3, getInt(t, s, obj, "distance"))

	_, called, err := s.Host.CallVirtual(obj, "_draw")
	require.NoError(t, err)
	assert.True(t, called)
	_, called, err = s.Host.CallVirtual(obj, "_input")
	require.NoError(t, err)
	assert.False(t, called)

	require.NoError(t, s.Host.Set(obj, "hull", variant.Int(40)))
	can, err := s.Host.CanRevert(obj, "hull")
	require.NoError(t, err)
	assert.True(t, can)
	def, ok, err := s.Host.GetRevert(obj, "hull")
	require.NoError(t, err)
	require.True(t, ok)
	n, _ := def.AsInt()
	assert.EqualValues(t, 100, n)

	assert.Error(t, s.Host.Set(obj, "distance", variant.Float(1)), "read-only")

	text, err := s.Host.ToString(obj)
	require.NoError(t, err)
	assert.Equal(t, "Ship(hull=40, distance=3.0)", text)
}

func TestTally_Refcount(t *testing.T) {
	s := newSession(t)
	defer s.Close()

	obj, err := s.Host.Instantiate("Tally")
	require.NoError(t, err)
	for range 4 {
		require.NoError(t, s.Host.Reference(obj))
	}
	for range 4 {
		require.NoError(t, s.Host.Unreference(obj))
	}
	assert.EqualValues(t, 1, getInt(t, s, obj, "step"))

	_, called, err := s.Host.CallVirtual(obj, "_init")
	require.NoError(t, err)
	assert.True(t, called)
}

func TestCargo_DynamicProperties(t *testing.T) {
	s := newSession(t)
	defer s.Close()

	obj, err := s.Host.Instantiate("Cargo")
	require.NoError(t, err)

	require.NoError(t, s.Host.Set(obj, "ore", variant.Int(7)))
	list, err := s.Host.PropertyList(obj)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, p := range list {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"fuel", "ore"}, names)
	assert.EqualValues(t, 7, getInt(t, s, obj, "ore"))

	def, ok, err := s.Host.GetRevert(obj, "ore")
	require.NoError(t, err)
	require.True(t, ok)
	n, _ := def.AsInt()
	assert.Zero(t, n)

	_, lists := s.Library.Leaks()
	assert.Zero(t, lists)
}
