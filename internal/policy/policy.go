// Package policy checks estimates against Rego budget rules.
package policy

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/open-policy-agent/opa/rego"
	"github.com/pkg/errors"
)

//go:embed budget.rego
var budgetPolicy string

const (
	violationsQuery = "data.gates.budget.violations"
	summaryQuery    = "data.gates.budget.summary"
)

// Engine evaluates the budget policy, plus any user policies, against an estimate
type Engine struct {
	queries map[string]rego.PreparedEvalQuery
}

// Violation represents a policy violation
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	File     string `json:"file,omitempty"`
	Message  string `json:"message"`
}

// Result contains the evaluation results
type Result struct {
	Violations []Violation
	Summary    Summary
}

// HasErrors reports whether any violation has error severity
func (r *Result) HasErrors() bool {
	return r != nil && r.Summary.Errors > 0
}

// Summary provides aggregate counts
type Summary struct {
	TotalViolations int `json:"total_violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
}

// Input is the data structure passed to OPA
type Input struct {
	Profile    string       `json:"profile"`
	TrackDelay bool         `json:"track_delay"`
	TotalGates int          `json:"total_gates"`
	TotalDelay int          `json:"total_delay"`
	Files      []FileTotals `json:"files"`
	Budget     Budget       `json:"budget"`
}

// FileTotals is the per-file part of Input
type FileTotals struct {
	File  string `json:"file"`
	Gates int    `json:"gates"`
	Delay int    `json:"delay"`
}

// Budget holds the limits; 0 disables a limit
type Budget struct {
	MaxGates int `json:"max_gates"`
	MaxDelay int `json:"max_delay"`
}

// New creates a policy engine from the built-in budget policy and the .rego
// files in policyDir, if policyDir is not empty. User policies extend the
// gates.budget package.
func New(policyDir string) (*Engine, error) {
	engine := &Engine{
		queries: make(map[string]rego.PreparedEvalQuery),
	}

	modules := []func(*rego.Rego){rego.Module("budget.rego", budgetPolicy)}

	if policyDir != "" {
		files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
		if err != nil {
			return nil, errors.Wrap(err, "finding policy files")
		}
		if len(files) == 0 {
			return nil, errors.Errorf("no policy files found in %s", policyDir)
		}
		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s", f)
			}
			modules = append(modules, rego.Module(f, string(content)))
		}
	}

	for name, q := range map[string]string{"violations": violationsQuery, "summary": summaryQuery} {
		opts := append(append([]func(*rego.Rego){}, modules...), rego.Query(q))
		query, err := rego.New(opts...).PrepareForEval(context.Background())
		if err != nil {
			return nil, errors.Wrapf(err, "preparing %s query", name)
		}
		engine.queries[name] = query
	}

	return engine, nil
}

// Evaluate runs the policies against the input data
func (e *Engine) Evaluate(ctx context.Context, input Input) (*Result, error) {
	inputMap, err := structToMap(input)
	if err != nil {
		return nil, errors.Wrap(err, "converting input")
	}

	result := &Result{Violations: []Violation{}}

	rs, err := e.queries["violations"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, errors.Wrap(err, "evaluating violations")
	}

	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		violations, ok := rs[0].Expressions[0].Value.([]interface{})
		if ok {
			for _, v := range violations {
				vmap, ok := v.(map[string]interface{})
				if !ok {
					continue
				}
				result.Violations = append(result.Violations, Violation{
					Rule:     getString(vmap, "rule"),
					Severity: getString(vmap, "severity"),
					File:     getString(vmap, "file"),
					Message:  getString(vmap, "message"),
				})
			}
		}
	}

	rs, err = e.queries["summary"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, errors.Wrap(err, "evaluating summary")
	}

	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		smap, ok := rs[0].Expressions[0].Value.(map[string]interface{})
		if ok {
			result.Summary = Summary{
				TotalViolations: getInt(smap, "total_violations"),
				Errors:          getInt(smap, "errors"),
				Warnings:        getInt(smap, "warnings"),
				Info:            getInt(smap, "info"),
			}
		}
	}

	return result, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	// Keep numbers exact so sprintf %d renders large budgets as integers.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var result map[string]interface{}
	err = dec.Decode(&result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
	}
	return 0
}
