package costs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinProfiles(t *testing.T) {
	assert.Equal(t, []string{FPMul, Multiplier}, BuiltinNames())

	for _, name := range BuiltinNames() {
		p, ok := Builtin(name)
		require.True(t, ok)
		assert.NoError(t, p.Validate(), name)
	}

	fp, _ := Builtin(FPMul)
	assert.Equal(t, 13, fp.Table.Len())
	assert.True(t, fp.TrackDelay)
	cost, ok := fp.Table.Lookup("Multiplier24x24")
	require.True(t, ok)
	assert.Equal(t, Cost{Gates: 3016, Delay: 40}, cost)

	mul, _ := Builtin(Multiplier)
	assert.False(t, mul.TrackDelay)
	assert.Empty(t, mul.Primitives)
	assert.Empty(t, mul.Arithmetic)
	cost, ok = mul.Table.Lookup("adder_64")
	require.True(t, ok)
	assert.Equal(t, 381, cost.Gates)

	_, ok = Builtin("nope")
	assert.False(t, ok)
}

func TestTableKeepsOrder(t *testing.T) {
	fp, _ := Builtin(FPMul)
	entries := fp.Table.Entries()
	names := make([]string, 0, 4)
	for _, e := range entries[:4] {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"and", "or", "xor", "not"}, names)

	// Entries hands out a copy.
	entries[0].Cost.Gates = 999
	cost, _ := fp.Table.Lookup("and")
	assert.Equal(t, 1, cost.Gates)
}

func TestNewTableRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"duplicate", []Entry{{"and", Cost{1, 1}}, {"and", Cost{2, 2}}}},
		{"not a word", []Entry{{"full adder", Cost{6, 3}}}},
		{"empty name", []Entry{{"", Cost{1, 1}}}},
		{"negative", []Entry{{"x", Cost{-1, 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.entries)
			assert.Error(t, err)
		})
	}
}

func TestFromMapSortsNames(t *testing.T) {
	table, err := FromMap(map[string]Cost{"zeta": {Gates: 1}, "alpha": {Gates: 2}})
	require.NoError(t, err)
	entries := table.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.Equal(t, "zeta", entries[1].Name)
}

func TestProfileValidate(t *testing.T) {
	table := MustTable([]Entry{{"and", Cost{1, 1}}})

	assert.NoError(t, Profile{Name: "ok", Table: table, Primitives: []string{"and"}}.Validate())
	assert.Error(t, Profile{Table: table}.Validate())
	assert.Error(t, Profile{Name: "p", Table: table, Primitives: []string{"or"}}.Validate())
	assert.Error(t, Profile{Name: "p", Table: table, Arithmetic: "FullAdder"}.Validate())
}
