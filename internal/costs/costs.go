// Package costs holds the per-construct cost tables used by the estimator.
package costs

import (
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

// Cost is the gate and delay weight of one occurrence of a construct.
type Cost struct {
	Gates int `json:"gates"`
	Delay int `json:"delay"`
}

// Entry is a named row of a Table.
type Entry struct {
	Name string
	Cost Cost
}

// Table is an ordered, read-only mapping from construct name to Cost.
type Table struct {
	entries []Entry
	index   map[string]int
}

// constructName matches names that can be found by whole-word scanning.
var constructName = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

// NewTable builds a Table, keeping the order of entries.
func NewTable(entries []Entry) (Table, error) {
	t := Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if !constructName.MatchString(e.Name) {
			return Table{}, errors.Errorf("construct name %q is not a single word", e.Name)
		}
		if _, dup := t.index[e.Name]; dup {
			return Table{}, errors.Errorf("duplicate construct %q", e.Name)
		}
		if e.Cost.Gates < 0 || e.Cost.Delay < 0 {
			return Table{}, errors.Errorf("construct %q has a negative cost", e.Name)
		}
		t.index[e.Name] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// MustTable is NewTable for tables known to be valid at compile time.
func MustTable(entries []Entry) Table {
	t, err := NewTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// FromMap builds a Table from an unordered map; entries are sorted by name.
func FromMap(m map[string]Cost) (Table, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Name: name, Cost: m[name]})
	}
	return NewTable(entries)
}

// Lookup returns the cost of a construct.
func (t Table) Lookup(name string) (Cost, bool) {
	i, ok := t.index[name]
	if !ok {
		return Cost{}, false
	}
	return t.entries[i].Cost, true
}

// Entries returns a copy of the table rows in declaration order.
func (t Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of constructs.
func (t Table) Len() int {
	return len(t.entries)
}
