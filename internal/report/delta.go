package report

import (
	"fmt"
	"io"
	"sort"
)

// Delta captures per-file changes between two reports.
type Delta struct {
	Files       []FileDelta `json:"files"`
	GatesChange int         `json:"gates_change"`
	DelayChange int         `json:"delay_change"`
}

// FileDelta is the change of a single file's estimate.
type FileDelta struct {
	File        string `json:"file"`
	Status      string `json:"status"` // added, removed, changed
	GatesBefore int    `json:"gates_before"`
	GatesAfter  int    `json:"gates_after"`
	DelayBefore int    `json:"delay_before"`
	DelayAfter  int    `json:"delay_after"`
}

// ComputeDelta compares two reports file by file. Unchanged files are left out.
func ComputeDelta(prev, next *Report) Delta {
	before := totalsByFile(prev)
	after := totalsByFile(next)

	d := Delta{
		Files:       []FileDelta{},
		GatesChange: next.TotalGates - prev.TotalGates,
		DelayChange: next.TotalDelay - prev.TotalDelay,
	}

	for file, a := range after {
		b, ok := before[file]
		switch {
		case !ok:
			d.Files = append(d.Files, FileDelta{File: file, Status: "added", GatesAfter: a[0], DelayAfter: a[1]})
		case a != b:
			d.Files = append(d.Files, FileDelta{File: file, Status: "changed",
				GatesBefore: b[0], GatesAfter: a[0], DelayBefore: b[1], DelayAfter: a[1]})
		}
	}
	for file, b := range before {
		if _, ok := after[file]; !ok {
			d.Files = append(d.Files, FileDelta{File: file, Status: "removed", GatesBefore: b[0], DelayBefore: b[1]})
		}
	}

	sort.Slice(d.Files, func(i, j int) bool { return d.Files[i].File < d.Files[j].File })
	return d
}

func totalsByFile(r *Report) map[string][2]int {
	out := make(map[string][2]int, len(r.Files))
	for _, f := range r.Files {
		out[f.File] = [2]int{f.TotalGates, f.TotalDelay}
	}
	return out
}

// WriteDeltaText prints a delta, one line per changed file.
func WriteDeltaText(w io.Writer, d Delta, trackDelay bool) {
	fmt.Fprintf(w, "\n=== Delta ===\n")
	for _, f := range d.Files {
		if trackDelay {
			fmt.Fprintf(w, "  %-8s %s: gates %d -> %d, delay %d -> %d\n", f.Status, f.File, f.GatesBefore, f.GatesAfter, f.DelayBefore, f.DelayAfter)
		} else {
			fmt.Fprintf(w, "  %-8s %s: gates %d -> %d\n", f.Status, f.File, f.GatesBefore, f.GatesAfter)
		}
	}
	if trackDelay {
		fmt.Fprintf(w, "  total: gates %+d, delay %+d\n", d.GatesChange, d.DelayChange)
	} else {
		fmt.Fprintf(w, "  total: gates %+d\n", d.GatesChange)
	}
}
