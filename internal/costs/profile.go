package costs

import (
	"sort"

	"github.com/pkg/errors"
)

// Profile is a cost table plus the scanning passes it enables.
type Profile struct {
	Name  string
	Table Table

	// Primitives are counted in a dedicated pass before the table pass.
	Primitives []string

	// Arithmetic names the construct charged for each assign statement
	// with a + or - on its right-hand side. Empty disables the pass.
	Arithmetic string

	// TrackDelay reports whether delay totals are meaningful.
	TrackDelay bool
}

// Validate checks that every construct the profile refers to is in its table.
func (p Profile) Validate() error {
	if p.Name == "" {
		return errors.New("profile has no name")
	}
	for _, prim := range p.Primitives {
		if _, ok := p.Table.Lookup(prim); !ok {
			return errors.Errorf("profile %s: primitive %q is not in the cost table", p.Name, prim)
		}
	}
	if p.Arithmetic != "" {
		if _, ok := p.Table.Lookup(p.Arithmetic); !ok {
			return errors.Errorf("profile %s: arithmetic construct %q is not in the cost table", p.Name, p.Arithmetic)
		}
	}
	return nil
}

const (
	// FPMul is the gate and delay profile for the floating point multiplier.
	FPMul = "fpmul"

	// Multiplier is the gate-only profile for the 64-bit multiplier.
	Multiplier = "multiplier"

	// Default is the profile used when none is configured.
	Default = FPMul
)

var builtins = map[string]Profile{
	FPMul: {
		Name: FPMul,
		Table: MustTable([]Entry{
			{"and", Cost{Gates: 1, Delay: 1}},
			{"or", Cost{Gates: 1, Delay: 1}},
			{"xor", Cost{Gates: 2, Delay: 2}},
			{"not", Cost{Gates: 1, Delay: 1}},
			{"FullAdder", Cost{Gates: 6, Delay: 3}},
			{"HalfAdder", Cost{Gates: 3, Delay: 2}},
			{"Adder8Bit", Cost{Gates: 48, Delay: 12}},
			{"Subtractor8Bit", Cost{Gates: 56, Delay: 12}},
			{"Multiplier24x24", Cost{Gates: 3016, Delay: 40}},
			{"Normalize", Cost{Gates: 546, Delay: 15}},
			{"Rounding", Cost{Gates: 20, Delay: 5}},
			{"SpecialCases", Cost{Gates: 50, Delay: 8}},
			{"ExponentCalculation", Cost{Gates: 3000, Delay: 20}},
		}),
		Primitives: []string{"and", "or", "xor", "not"},
		Arithmetic: "FullAdder",
		TrackDelay: true,
	},
	Multiplier: {
		Name: Multiplier,
		Table: MustTable([]Entry{
			{"fulladder", Cost{Gates: 6}},
			{"halfadder", Cost{Gates: 3}},
			{"adder_64", Cost{Gates: 381}},
			{"wallace", Cost{Gates: 330}},
		}),
	},
}

// Builtin returns a built-in profile by name.
func Builtin(name string) (Profile, bool) {
	p, ok := builtins[name]
	return p, ok
}

// BuiltinNames lists the built-in profiles, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
