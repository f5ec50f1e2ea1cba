// Package demo holds the sample extension classes used by the gdx tool and
// the examples.
package demo

import (
	"fmt"
	"sort"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/bridge"
	"github.com/wippyai/classbridge/property"
	"github.com/wippyai/classbridge/variant"
)

// Ship is a Node2D that flies at a fixed thrust.
type Ship struct {
	bridge.Base
	Callsign bridge.OnReady[string]
	Status   string
	Hull     int
	Thrust   float64
	Distance float64
	Frames   int
}

func (s *Ship) Ready() {
	s.Status = "launched " + s.Callsign.Get()
}

func (s *Ship) Process(delta float64) {
	s.Distance += s.Thrust * delta
}

func (s *Ship) Draw() {
	s.Frames++
}

// Tally is a reference-counted counter.
type Tally struct {
	Count int
	Step  int
}

// Cargo is a Resource with one dynamic property per item.
type Cargo struct {
	items map[string]int64
}

// Stow adds n of item.
func (c *Cargo) Stow(item string, n int64) {
	c.items[item] += n
}

func (c *Cargo) names() []string {
	out := make([]string, 0, len(c.items))
	for name := range c.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Classes lists the class names Register defines.
var Classes = []string{"Ship", "Tally", "Cargo"}

// Register defines the demo classes on lib at the scene level.
func Register(lib *bridge.Library) error {
	if err := bridge.Define(lib, shipDef()); err != nil {
		return err
	}
	if err := bridge.Define(lib, tallyDef()); err != nil {
		return err
	}
	return bridge.Define(lib, cargoDef())
}

func shipDef() bridge.ClassDef[Ship] {
	return bridge.ClassDef[Ship]{
		Name:  "Ship",
		Base:  "Node2D",
		Level: abi.InitScene,
		Init: func(base bridge.Base) *Ship {
			return &Ship{
				Hull:   100,
				Thrust: 2,
				Callsign: bridge.NewOnReady(func() string {
					return fmt.Sprintf("SHIP-%d", uint64(base.Object())%1000)
				}),
			}
		},
		Virtuals: map[string]any{
			"ready":   (*Ship).Ready,
			"process": (*Ship).Process,
			"_draw":   (*Ship).Draw,
		},
		Vars: []bridge.Var{
			{Name: "hull", Field: "Hull", Default: 100, Hint: property.HintRange, HintString: "0,100"},
			{Name: "thrust", Field: "Thrust", Default: 2.0},
			{Name: "distance", Field: "Distance", Access: bridge.ReadOnly},
			{Name: "status", Field: "Status", Access: bridge.ReadOnly},
		},
		ToString: func(s *Ship) string {
			return fmt.Sprintf("Ship(hull=%d, distance=%.1f)", s.Hull, s.Distance)
		},
	}
}

func tallyDef() bridge.ClassDef[Tally] {
	return bridge.ClassDef[Tally]{
		Name:  "Tally",
		Base:  "RefCounted",
		Level: abi.InitScene,
		Init:  func(bridge.Base) *Tally { return &Tally{Step: 1} },
		Virtuals: map[string]any{
			"init_ext": func(t *Tally) { t.Count = 0 },
		},
		Vars: []bridge.Var{
			{Name: "count", Field: "Count"},
			{Name: "step", Field: "Step", Default: 1},
		},
	}
}

func cargoDef() bridge.ClassDef[Cargo] {
	return bridge.ClassDef[Cargo]{
		Name:  "Cargo",
		Base:  "Resource",
		Level: abi.InitScene,
		Init: func(bridge.Base) *Cargo {
			c := &Cargo{items: map[string]int64{}}
			c.Stow("fuel", 10)
			return c
		},
		GetProperty: func(c *Cargo, name string) (variant.Variant, bool) {
			n, ok := c.items[name]
			if !ok {
				return variant.Nil(), false
			}
			return variant.Int(n), true
		},
		SetProperty: func(c *Cargo, name string, value variant.Variant) bool {
			n, ok := value.AsInt()
			if !ok || n < 0 {
				return false
			}
			c.items[name] = n
			return true
		},
		GetPropertyList: func(c *Cargo) []property.Info {
			names := c.names()
			out := make([]property.Info, 0, len(names))
			for _, name := range names {
				out = append(out, property.Info{Name: name, Type: variant.TypeInt, Usage: property.UsageDefault})
			}
			return out
		},
		PropertyGetRevert: func(c *Cargo, name string) (variant.Variant, bool) {
			if _, ok := c.items[name]; !ok {
				return variant.Nil(), false
			}
			return variant.Int(0), true
		},
		ToString: func(c *Cargo) string {
			return fmt.Sprintf("Cargo(%d kinds)", len(c.items))
		},
	}
}
