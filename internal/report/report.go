// Package report renders estimates as text or JSON and compares JSON reports.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/robert-at-pretension-io/gate-estimate/internal/costs"
	"github.com/robert-at-pretension-io/gate-estimate/internal/estimator"
	"github.com/robert-at-pretension-io/gate-estimate/internal/policy"
)

// Report is the outcome of one run over one or more files.
type Report struct {
	Profile               string              `json:"profile"`
	TrackDelay            bool                `json:"track_delay"`
	DoubleCountPrimitives bool                `json:"double_count_primitives"`
	Files                 []*estimator.Result `json:"files"`
	Missing               []string            `json:"missing"`
	TotalGates            int                 `json:"total_gates"`
	TotalDelay            int                 `json:"total_delay"`
	Violations            []policy.Violation  `json:"violations"`
	Summary               *policy.Summary     `json:"summary,omitempty"`
	Delta                 *Delta              `json:"delta,omitempty"`
}

// Build sums per-file results into a Report.
func Build(profile costs.Profile, doubleCount bool, results []*estimator.Result, missing []string) *Report {
	r := &Report{
		Profile:               profile.Name,
		TrackDelay:            profile.TrackDelay,
		DoubleCountPrimitives: doubleCount,
		Files:                 []*estimator.Result{},
		Missing:               []string{},
		Violations:            []policy.Violation{},
	}
	for _, res := range results {
		r.Files = append(r.Files, res)
		r.TotalGates += res.TotalGates
		r.TotalDelay += res.TotalDelay
	}
	r.Missing = append(r.Missing, missing...)
	return r
}

// HasTotals reports whether at least one file was estimated.
func (r *Report) HasTotals() bool {
	return len(r.Files) > 0
}

// PolicyInput converts the report into the budget policy input.
func (r *Report) PolicyInput(budget policy.Budget) policy.Input {
	in := policy.Input{
		Profile:    r.Profile,
		TrackDelay: r.TrackDelay,
		TotalGates: r.TotalGates,
		TotalDelay: r.TotalDelay,
		Files:      make([]policy.FileTotals, 0, len(r.Files)),
		Budget:     budget,
	}
	for _, f := range r.Files {
		in.Files = append(in.Files, policy.FileTotals{File: f.File, Gates: f.TotalGates, Delay: f.TotalDelay})
	}
	return in
}

// ApplyPolicy records a policy evaluation on the report.
func (r *Report) ApplyPolicy(res *policy.Result) {
	if res == nil {
		return
	}
	r.Violations = append(r.Violations, res.Violations...)
	summary := res.Summary
	r.Summary = &summary
}

// NotFoundMessage is the diagnostic printed for an input path that does not exist.
func NotFoundMessage(path string) string {
	return fmt.Sprintf("Error: File '%s' not found.", path)
}

// WriteText prints the report the way the estimate has always been shown:
// one diagnostic per missing file, then the totals if anything was scanned.
func WriteText(w io.Writer, r *Report, verbose bool) error {
	for _, path := range r.Missing {
		if _, err := fmt.Fprintln(w, NotFoundMessage(path)); err != nil {
			return err
		}
	}
	if !r.HasTotals() {
		return nil
	}

	if verbose {
		for _, f := range r.Files {
			fmt.Fprintf(w, "\n=== Breakdown: %s ===\n", f.File)
			if len(f.Contributions) == 0 {
				fmt.Fprintln(w, "  (no constructs matched)")
			}
			for _, c := range f.Contributions {
				if r.TrackDelay {
					fmt.Fprintf(w, "  %-10s %-20s x%-5d gates=%-6d delay=%d\n", c.Pass, c.Construct, c.Count, c.Gates, c.Delay)
				} else {
					fmt.Fprintf(w, "  %-10s %-20s x%-5d gates=%d\n", c.Pass, c.Construct, c.Count, c.Gates)
				}
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Estimated Gate Count: %d\n", r.TotalGates)
	if r.TrackDelay {
		fmt.Fprintf(w, "Total Estimated Delay: %d\n", r.TotalDelay)
	}

	if len(r.Violations) > 0 {
		fmt.Fprintf(w, "\n=== Budget Violations ===\n")
		for _, v := range r.Violations {
			if v.File != "" {
				fmt.Fprintf(w, "  [%s] %s: %s (%s)\n", v.Severity, v.Rule, v.Message, v.File)
			} else {
				fmt.Fprintf(w, "  [%s] %s: %s\n", v.Severity, v.Rule, v.Message)
			}
		}
	}

	if r.Delta != nil {
		WriteDeltaText(w, *r.Delta, r.TrackDelay)
	}
	return nil
}

// WriteJSON prints the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening report")
	}
	defer func() { _ = f.Close() }()

	var r Report
	if err := json.NewDecoder(f).Decode(&r); err != nil {
		return nil, errors.Wrapf(err, "decoding report %s", path)
	}
	return &r, nil
}
