package property

import (
	"math"
	"sync"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/variant"
)

// Ledger tracks property-list arrays on loan to the host, together with the
// owned allocations inside each descriptor. Every allocation it hands out
// must come back exactly once.
type Ledger struct {
	lists map[*abi.PropertyInfoSys][]abi.PropertyInfoSys
	owned map[any]struct{}
	mu    sync.Mutex
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		lists: make(map[*abi.PropertyInfoSys][]abi.PropertyInfoSys),
		owned: make(map[any]struct{}),
	}
}

// IntoOwned converts a borrowed descriptor into a host-facing one whose
// name, class name and hint string are fresh allocations owned by the
// ledger. Release it with FreeOwned.
func (l *Ledger) IntoOwned(info Info) abi.PropertyInfoSys {
	name := variant.Name(info.Name)
	class := variant.Name(info.ClassName)
	hint := info.HintString
	sys := abi.PropertyInfoSys{
		Name:       &name,
		ClassName:  &class,
		HintString: &hint,
		Hint:       uint32(info.Hint),
		Usage:      uint32(info.Usage),
		Type:       info.Type,
	}

	l.mu.Lock()
	l.owned[sys.Name] = struct{}{}
	l.owned[sys.ClassName] = struct{}{}
	l.owned[sys.HintString] = struct{}{}
	l.mu.Unlock()
	return sys
}

// FreeOwned releases the allocations inside a descriptor produced by
// IntoOwned. Releasing anything twice is a contract violation.
func (l *Ledger) FreeOwned(sys *abi.PropertyInfoSys) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.freeOwnedLocked(sys)
}

func (l *Ledger) freeOwnedLocked(sys *abi.PropertyInfoSys) {
	for _, p := range []any{sys.Name, sys.ClassName, sys.HintString} {
		if _, ok := l.owned[p]; !ok {
			panic(errors.ContractViolation(errors.PhaseProperty,
				"property descriptor field freed twice or never allocated"))
		}
		delete(l.owned, p)
	}
	sys.Name = nil
	sys.ClassName = nil
	sys.HintString = nil
}

// Lend builds a fresh array from infos and puts it on loan to the host.
// An empty list lends nothing and returns (nil, 0).
func (l *Ledger) Lend(infos []Info) (*abi.PropertyInfoSys, uint32) {
	count := listCount(len(infos))
	if count == 0 {
		return nil, 0
	}

	list := make([]abi.PropertyInfoSys, len(infos))
	for i, info := range infos {
		list[i] = l.IntoOwned(info)
	}
	head := &list[0]

	l.mu.Lock()
	l.lists[head] = list
	l.mu.Unlock()
	return head, count
}

// Reclaim ends the loan of an array returned by Lend and frees every owned
// field in it. (nil, 0) is accepted as the empty list. An unknown array, a
// second reclaim or a count different from the one lent is a contract
// violation.
func (l *Ledger) Reclaim(head *abi.PropertyInfoSys, count uint32) {
	if head == nil {
		if count != 0 {
			panic(errors.ContractViolation(errors.PhaseProperty,
				"free_property_list: nil list with count %d", count))
		}
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	list, ok := l.lists[head]
	if !ok {
		panic(errors.ContractViolation(errors.PhaseProperty,
			"free_property_list: list was not lent by this library or was already freed"))
	}
	if uint64(len(list)) != uint64(count) {
		panic(errors.ContractViolation(errors.PhaseProperty,
			"free_property_list: count %d does not match lent length %d", count, len(list)))
	}
	delete(l.lists, head)
	for i := range list {
		l.freeOwnedLocked(&list[i])
	}
}

// View returns the lent array behind head without affecting the loan.
func (l *Ledger) View(head *abi.PropertyInfoSys, count uint32) []abi.PropertyInfoSys {
	if head == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	list := l.lists[head]
	if uint64(len(list)) != uint64(count) {
		return nil
	}
	return list
}

// Outstanding reports how many arrays are on loan and how many owned
// allocations are live.
func (l *Ledger) Outstanding() (lists, allocations int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lists), len(l.owned)
}

// listCount narrows a list length to the host's count width.
func listCount(n int) uint32 {
	if uint64(n) > math.MaxUint32 {
		panic(errors.New(errors.PhaseProperty, errors.KindContractViolation).
			Value(n).
			Detail("property list length %d overflows uint32", n).
			Build())
	}
	return uint32(n)
}
