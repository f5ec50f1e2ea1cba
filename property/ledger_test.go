package property

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/variant"
)

func requireViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a contract violation")
		err, ok := r.(*errors.Error)
		require.True(t, ok, "panic value %T", r)
		assert.True(t, err.Fatal())
		assert.Equal(t, errors.PhaseProperty, err.Phase)
	}()
	fn()
}

func infos(n int) []Info {
	out := make([]Info, n)
	for i := range out {
		out[i] = Info{
			Name:       fmt.Sprintf("prop_%d", i),
			ClassName:  "Player",
			HintString: "0,100,1",
			Hint:       HintRange,
			Usage:      UsageDefault,
			Type:       variant.TypeInt,
		}
	}
	return out
}

func TestLedger_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 64} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			l := NewLedger()
			head, count := l.Lend(infos(n))
			require.EqualValues(t, n, count)

			if n == 0 {
				assert.Nil(t, head)
			} else {
				require.NotNil(t, head)
				lists, allocs := l.Outstanding()
				assert.Equal(t, 1, lists)
				assert.Equal(t, 3*n, allocs)

				view := l.View(head, count)
				require.Len(t, view, n)
				assert.Equal(t, "prop_0", FromSys(&view[0]).Name)
				assert.Equal(t, fmt.Sprintf("prop_%d", n-1), FromSys(&view[n-1]).Name)
			}

			l.Reclaim(head, count)
			lists, allocs := l.Outstanding()
			assert.Zero(t, lists)
			assert.Zero(t, allocs)
		})
	}
}

func TestLedger_DoubleReclaim(t *testing.T) {
	l := NewLedger()
	head, count := l.Lend(infos(3))
	l.Reclaim(head, count)
	requireViolation(t, func() { l.Reclaim(head, count) })
}

func TestLedger_ReclaimUnknown(t *testing.T) {
	l := NewLedger()
	foreign := &abi.PropertyInfoSys{}
	requireViolation(t, func() { l.Reclaim(foreign, 1) })
}

func TestLedger_ReclaimCountMismatch(t *testing.T) {
	l := NewLedger()
	head, _ := l.Lend(infos(3))
	requireViolation(t, func() { l.Reclaim(head, 2) })

	// the loan is still intact after the rejected call
	lists, _ := l.Outstanding()
	assert.Equal(t, 1, lists)
	l.Reclaim(head, 3)
}

func TestLedger_NilListWithCount(t *testing.T) {
	l := NewLedger()
	assert.NotPanics(t, func() { l.Reclaim(nil, 0) })
	requireViolation(t, func() { l.Reclaim(nil, 4) })
}

func TestLedger_OwnedFreedOnce(t *testing.T) {
	l := NewLedger()
	sys := l.IntoOwned(Info{Name: "health", Type: variant.TypeInt})
	assert.Equal(t, "health", sys.Name.String())

	dup := sys
	l.FreeOwned(&sys)
	assert.Nil(t, sys.Name)
	requireViolation(t, func() { l.FreeOwned(&dup) })
}

func TestListCountOverflow(t *testing.T) {
	if math.MaxInt == math.MaxInt32 {
		t.Skip("int is 32 bits wide")
	}
	limit := uint64(math.MaxUint32)
	assert.EqualValues(t, math.MaxUint32, listCount(int(limit)))
	requireViolation(t, func() { listCount(int(limit + 1)) })
}

func TestFromSys(t *testing.T) {
	name := variant.Name("speed")
	hint := "0,10"
	info := FromSys(&abi.PropertyInfoSys{
		Name:       &name,
		HintString: &hint,
		Hint:       uint32(HintRange),
		Usage:      uint32(UsageEditor),
		Type:       variant.TypeFloat,
	})
	assert.Equal(t, Info{Name: "speed", HintString: "0,10", Hint: HintRange, Usage: UsageEditor, Type: variant.TypeFloat}, info)
}

func TestInfo_Accessor(t *testing.T) {
	acc := Info{Name: "health", Type: variant.TypeInt, Usage: UsageDefault}.Accessor(
		func(abi.InstancePtr) variant.Variant { return variant.Int(5) }, nil)
	assert.Equal(t, variant.Name("health"), acc.Name)
	assert.EqualValues(t, UsageDefault, acc.Usage)
	assert.Nil(t, acc.Set)
	got := acc.Get(1)
	n, _ := got.AsInt()
	assert.EqualValues(t, 5, n)
}
