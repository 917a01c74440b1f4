// =============================================================================
// gate-estimate - Main Entry Point
// =============================================================================
//
// A rough static estimator: it counts whole-word occurrences of known
// constructs in HDL source text and weights them with a cost table. There is
// no parsing and no timing graph; comments and strings count like code.
//
// THE PIPELINE:
//   1. Config is loaded (JSON/YAML) and checked against the CUE schema
//   2. The cost profile is resolved (built-in fpmul/multiplier or custom)
//   3. Inputs are resolved (a file, or a directory expanded through globs)
//   4. The estimator scans each file and sums weighted counts
//   5. OPA budget rules run when a budget or policy dir is configured
//   6. Totals are printed as text or schema-checked JSON
// =============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errBudgetExceeded) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
