package variant

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/classbridge/errors"
)

func TestName_Interning(t *testing.T) {
	a := Name("ready")
	b := Name("ready")
	c := Name("process")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "ready", a.String())
	assert.True(t, Name("").IsEmpty())
	assert.Equal(t, "", StringName{}.String())

	m := map[StringName]int{a: 1}
	assert.Equal(t, 1, m[Name("ready")])
}

func TestVariant_Accessors(t *testing.T) {
	i, ok := Int(7).AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(7), i)

	f, ok := Int(3).AsFloat()
	require.True(t, ok, "int widens to float")
	assert.Equal(t, 3.0, f)

	_, ok = Float(1.5).AsInt()
	assert.False(t, ok, "float does not narrow to int")

	s, ok := FromName(Name("hp")).AsString()
	require.True(t, ok)
	assert.Equal(t, "hp", s)

	n, ok := String("hp").AsName()
	require.True(t, ok)
	assert.Equal(t, Name("hp"), n)

	assert.True(t, Nil().IsNil())
	assert.True(t, Variant{}.IsNil())
	assert.Equal(t, TypeObject, Object(9).Type())
}

func TestVariant_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Variant
		want bool
	}{
		{"nil", Nil(), Nil(), true},
		{"ints", Int(1), Int(1), true},
		{"int vs float", Int(1), Float(1), false},
		{"nan", Float(math.NaN()), Float(math.NaN()), true},
		{"arrays", Array(Int(1), String("a")), Array(Int(1), String("a")), true},
		{"arrays differ", Array(Int(1)), Array(Int(2)), false},
		{"dicts", Dictionary(map[string]Variant{"a": Bool(true)}), Dictionary(map[string]Variant{"a": Bool(true)}), true},
		{"dicts differ", Dictionary(map[string]Variant{"a": Bool(true)}), Dictionary(map[string]Variant{"b": Bool(true)}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestVariant_String(t *testing.T) {
	assert.Equal(t, "<null>", Nil().String())
	assert.Equal(t, "42", Int(42).String())
	assert.Equal(t, `&"ready"`, FromName(Name("ready")).String())
	assert.Equal(t, "[1, x]", Array(Int(1), String("x")).String())
	assert.Equal(t, `{"a": 1, "b": true}`, Dictionary(map[string]Variant{"b": Bool(true), "a": Int(1)}).String())
}

func TestFrom(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Variant
	}{
		{"nil", nil, Nil()},
		{"bool", true, Bool(true)},
		{"int8", int8(-3), Int(-3)},
		{"uint16", uint16(9), Int(9)},
		{"float32", float32(0.5), Float(0.5)},
		{"string", "hi", String("hi")},
		{"name", Name("n"), FromName(Name("n"))},
		{"object", ObjectID(4), Object(4)},
		{"slice", []int{1, 2}, Array(Int(1), Int(2))},
		{"nil slice", []string(nil), Array()},
		{"map", map[string]float64{"x": 1}, Dictionary(map[string]Variant{"x": Float(1)})},
		{"variant", Int(5), Int(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := From(tt.in)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %v want %v", got, tt.want)
		})
	}
}

func TestFrom_Errors(t *testing.T) {
	_, err := From(uint64(math.MaxUint64))
	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindOverflow})

	_, err = From(struct{ X int }{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindTypeMismatch})

	_, err = From(map[int]string{1: "a"})
	assert.Error(t, err)
}

func TestInto(t *testing.T) {
	i32, err := Into[int32](Int(12))
	require.NoError(t, err)
	assert.Equal(t, int32(12), i32)

	_, err = Into[int8](Int(1000))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindOverflow})

	_, err = Into[uint](Int(-1))
	assert.Error(t, err)

	f, err := Into[float64](Int(2))
	require.NoError(t, err)
	assert.Equal(t, 2.0, f)

	s, err := Into[string](FromName(Name("abc")))
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	_, err = Into[string](Int(1))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindTypeMismatch})

	xs, err := Into[[]int](Array(Int(1), Int(2)))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, xs)

	m, err := Into[map[string]bool](Dictionary(map[string]Variant{"on": Bool(true)}))
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"on": true}, m)

	a, err := Into[any](Array(Int(1), String("x")))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "x"}, a)

	v, err := Into[Variant](Float(1.25))
	require.NoError(t, err)
	assert.True(t, Equal(Float(1.25), v))

	id, err := Into[ObjectID](Nil())
	require.NoError(t, err)
	assert.Equal(t, ObjectID(0), id)
}

func TestTo_UnsupportedKind(t *testing.T) {
	_, err := To(Int(1), reflect.TypeOf(struct{}{}))
	assert.Error(t, err)
}

func TestCodec_RoundTrip(t *testing.T) {
	values := []Variant{
		Nil(),
		Bool(true),
		Bool(false),
		Int(-42),
		Float(3.25),
		String("hello"),
		FromName(Name("speed")),
		Object(77),
		Array(Int(1), Array(String("nested")), Nil()),
		Dictionary(map[string]Variant{"hp": Int(10), "tags": Array(String("a"))}),
	}
	for _, v := range values {
		t.Run(v.Type().String(), func(t *testing.T) {
			data, err := Marshal(v)
			require.NoError(t, err)
			got, err := Unmarshal(data)
			require.NoError(t, err)
			assert.True(t, Equal(v, got), "got %v want %v", got, v)
		})
	}
}

func TestCodec_Deterministic(t *testing.T) {
	d := Dictionary(map[string]Variant{"b": Int(2), "a": Int(1), "c": Int(3)})
	first, err := Marshal(d)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCodec_Garbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xff, 0x00})
	assert.Error(t, err)
}
