package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/gate-estimate/internal/costs"
	"github.com/robert-at-pretension-io/gate-estimate/internal/estimator"
	"github.com/robert-at-pretension-io/gate-estimate/internal/policy"
	"github.com/robert-at-pretension-io/gate-estimate/internal/validator"
)

func profile(t *testing.T, name string) costs.Profile {
	t.Helper()
	p, ok := costs.Builtin(name)
	require.True(t, ok)
	return p
}

func estimate(t *testing.T, p costs.Profile, name, src string) *estimator.Result {
	t.Helper()
	res, err := estimator.New(p).EstimateBytes(name, []byte(src))
	require.NoError(t, err)
	return res
}

func TestWriteTextFPMul(t *testing.T) {
	p := profile(t, costs.FPMul)
	r := Build(p, true, []*estimator.Result{estimate(t, p, "top.v", "assign out = a + b;")}, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r, false))
	assert.Equal(t, "Total Estimated Gate Count: 6\nTotal Estimated Delay: 3\n", buf.String())
}

func TestWriteTextMultiplierOmitsDelay(t *testing.T) {
	p := profile(t, costs.Multiplier)
	r := Build(p, true, []*estimator.Result{estimate(t, p, "mul.v", "fulladder fulladder wallace")}, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r, false))
	assert.Equal(t, "Total Estimated Gate Count: 342\n", buf.String())
}

func TestWriteTextMissingFile(t *testing.T) {
	r := Build(profile(t, costs.FPMul), true, nil, []string{"does/not/exist.v"})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r, false))
	assert.Equal(t, "Error: File 'does/not/exist.v' not found.\n", buf.String())
	assert.False(t, r.HasTotals())
}

func TestWriteTextVerboseAndViolations(t *testing.T) {
	p := profile(t, costs.FPMul)
	r := Build(p, true, []*estimator.Result{estimate(t, p, "g.v", "and xor")}, nil)
	r.ApplyPolicy(&policy.Result{
		Violations: []policy.Violation{{Rule: "gate_budget", Severity: "error", Message: "too big"}},
		Summary:    policy.Summary{TotalViolations: 1, Errors: 1},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r, true))
	out := buf.String()
	assert.Contains(t, out, "=== Breakdown: g.v ===")
	assert.Contains(t, out, "primitive")
	assert.Contains(t, out, "Total Estimated Gate Count: 6\n")
	assert.Contains(t, out, "[error] gate_budget: too big")
	require.NotNil(t, r.Summary)
	assert.Equal(t, 1, r.Summary.Errors)
}

func TestBuildSumsFilesAndFeedsPolicy(t *testing.T) {
	p := profile(t, costs.Multiplier)
	r := Build(p, false, []*estimator.Result{
		estimate(t, p, "a.v", "wallace"),
		estimate(t, p, "b.v", "halfadder"),
	}, []string{"c.v"})

	assert.Equal(t, 333, r.TotalGates)
	assert.Equal(t, []string{"c.v"}, r.Missing)

	in := r.PolicyInput(policy.Budget{MaxGates: 300})
	assert.Equal(t, 333, in.TotalGates)
	require.Len(t, in.Files, 2)
	assert.Equal(t, policy.FileTotals{File: "a.v", Gates: 330}, in.Files[0])
}

func TestJSONReportMatchesSchemaAndRoundTrips(t *testing.T) {
	p := profile(t, costs.FPMul)
	r := Build(p, true, []*estimator.Result{
		estimate(t, p, "top.v", "FullAdder fa(); assign s = a - b;"),
		estimate(t, p, "empty.v", ""),
	}, []string{"gone.v"})

	v, err := validator.New()
	require.NoError(t, err)
	require.NoError(t, v.ValidateReport(r))

	path := filepath.Join(t.TempDir(), "report.json")
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	back, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, r.TotalGates, back.TotalGates)
	assert.Equal(t, r.TotalDelay, back.TotalDelay)
	assert.Equal(t, r.Missing, back.Missing)
	require.Len(t, back.Files, 2)
	assert.Equal(t, r.Files[0].Contributions, back.Files[0].Contributions)
}

func TestComputeDelta(t *testing.T) {
	p := profile(t, costs.FPMul)
	prev := Build(p, true, []*estimator.Result{
		estimate(t, p, "a.v", "and"),
		estimate(t, p, "b.v", "or"),
		estimate(t, p, "same.v", "not"),
	}, nil)
	next := Build(p, true, []*estimator.Result{
		estimate(t, p, "a.v", "and and"),
		estimate(t, p, "c.v", "HalfAdder"),
		estimate(t, p, "same.v", "not"),
	}, nil)

	d := ComputeDelta(prev, next)
	require.Len(t, d.Files, 3)
	assert.Equal(t, FileDelta{File: "a.v", Status: "changed", GatesBefore: 2, GatesAfter: 4, DelayBefore: 2, DelayAfter: 4}, d.Files[0])
	assert.Equal(t, "removed", d.Files[1].Status)
	assert.Equal(t, "b.v", d.Files[1].File)
	assert.Equal(t, "added", d.Files[2].Status)
	assert.Equal(t, next.TotalGates-prev.TotalGates, d.GatesChange)

	var buf bytes.Buffer
	WriteDeltaText(&buf, d, true)
	assert.Equal(t, 6, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "total: gates +3, delay +2")
}
