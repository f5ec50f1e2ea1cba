package property

import (
	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/variant"
)

// Hint refines how the host's editor presents a property.
type Hint uint32

const (
	HintNone Hint = iota
	HintRange
	HintEnum
	HintEnumSuggestion
	HintExpEasing
	HintLink
	HintFlags
)

// Usage is a bit set describing where a property is used.
type Usage uint32

const (
	UsageNone    Usage = 0
	UsageStorage Usage = 1 << 1
	UsageEditor  Usage = 1 << 2
	UsageDefault Usage = UsageStorage | UsageEditor
)

// Info is a borrowed property descriptor. It is a plain Go value and is
// never freed by the bridge.
type Info struct {
	Name       string
	ClassName  string
	HintString string
	Hint       Hint
	Usage      Usage
	Type       variant.Type
}

// FromSys reads a host-facing descriptor without taking ownership of it.
func FromSys(s *abi.PropertyInfoSys) Info {
	info := Info{
		Hint:  Hint(s.Hint),
		Usage: Usage(s.Usage),
		Type:  s.Type,
	}
	if s.Name != nil {
		info.Name = s.Name.String()
	}
	if s.ClassName != nil {
		info.ClassName = s.ClassName.String()
	}
	if s.HintString != nil {
		info.HintString = *s.HintString
	}
	return info
}

// Accessor builds the typed-property registration for a declared field.
func (i Info) Accessor(get func(abi.InstancePtr) variant.Variant, set func(abi.InstancePtr, variant.Variant)) abi.PropertyAccessor {
	return abi.PropertyAccessor{
		Get:        get,
		Set:        set,
		Name:       variant.Name(i.Name),
		ClassName:  variant.Name(i.ClassName),
		HintString: i.HintString,
		Hint:       uint32(i.Hint),
		Usage:      uint32(i.Usage),
		Type:       i.Type,
	}
}
