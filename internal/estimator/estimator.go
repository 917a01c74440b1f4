// Package estimator turns HDL source text into rough gate and delay totals
// by counting whole-word occurrences of the constructs in a cost table.
package estimator

import (
	"os"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/robert-at-pretension-io/gate-estimate/internal/costs"
)

// ErrFileNotFound is returned when the input path does not exist.
var ErrFileNotFound = errors.New("file not found")

// Pass identifies which scan produced a contribution.
type Pass string

const (
	PassPrimitive  Pass = "primitive"
	PassConstruct  Pass = "construct"
	PassArithmetic Pass = "arithmetic"
)

// Contribution is the weight one construct added to a Result in one pass.
type Contribution struct {
	Construct string `json:"construct"`
	Pass      Pass   `json:"pass"`
	Count     int    `json:"count"`
	Gates     int    `json:"gates"`
	Delay     int    `json:"delay"`
}

// Result holds the estimate for a single file.
type Result struct {
	File          string         `json:"file"`
	TotalGates    int            `json:"total_gates"`
	TotalDelay    int            `json:"total_delay"`
	Contributions []Contribution `json:"contributions"`
}

func (r *Result) add(construct string, pass Pass, count int, cost costs.Cost, trackDelay bool) {
	if count == 0 {
		return
	}
	if !trackDelay {
		cost.Delay = 0
	}
	c := Contribution{
		Construct: construct,
		Pass:      pass,
		Count:     count,
		Gates:     count * cost.Gates,
		Delay:     count * cost.Delay,
	}
	r.TotalGates += c.Gates
	r.TotalDelay += c.Delay
	r.Contributions = append(r.Contributions, c)
}

// Estimator scans files against a cost profile.
type Estimator struct {
	Profile costs.Profile

	// DoubleCountPrimitives keeps primitives in the table pass after they were
	// already counted in the primitive pass.
	DoubleCountPrimitives bool

	// TimingPath, when set, receives one JSON line per scanned file.
	TimingPath string

	Logger logrus.FieldLogger
}

// New creates an Estimator for the given profile.
func New(profile costs.Profile) *Estimator {
	return &Estimator{
		Profile:               profile,
		DoubleCountPrimitives: true,
		Logger:                logrus.StandardLogger(),
	}
}

// Estimate reads the file at path and returns its estimate. A path that does
// not exist yields an error matching ErrFileNotFound; any other read failure
// is returned as is.
func (e *Estimator) Estimate(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrFileNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return e.EstimateBytes(path, content)
}

// EstimateBytes runs the estimate over in-memory content. Content that is not
// valid UTF-8 is rejected.
func (e *Estimator) EstimateBytes(name string, content []byte) (*Result, error) {
	if !utf8.Valid(content) {
		return nil, errors.Errorf("%s: not valid UTF-8", name)
	}

	words, err := countWords(name, content)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %s", name)
	}

	res := &Result{File: name, Contributions: []Contribution{}}
	table := e.Profile.Table
	track := e.Profile.TrackDelay

	isPrimitive := make(map[string]bool, len(e.Profile.Primitives))
	for _, prim := range e.Profile.Primitives {
		isPrimitive[prim] = true
		cost, _ := table.Lookup(prim)
		res.add(prim, PassPrimitive, words[prim], cost, track)
	}

	for _, entry := range table.Entries() {
		if isPrimitive[entry.Name] && !e.DoubleCountPrimitives {
			continue
		}
		res.add(entry.Name, PassConstruct, words[entry.Name], entry.Cost, track)
	}

	if e.Profile.Arithmetic != "" {
		cost, _ := table.Lookup(e.Profile.Arithmetic)
		res.add(e.Profile.Arithmetic, PassArithmetic, countArithmeticAssigns(content), cost, track)
	}

	e.logger().WithFields(logrus.Fields{
		"file":    name,
		"profile": e.Profile.Name,
		"gates":   res.TotalGates,
		"delay":   res.TotalDelay,
	}).Debug("estimated file")

	return res, nil
}

// EstimateAll estimates every path. Paths that do not exist are returned in
// missing instead of failing the run; any other error stops it.
func (e *Estimator) EstimateAll(paths []string) (results []*Result, missing []string, err error) {
	start := time.Now()
	timing := newTimingRecorder(start, e.resolveTimingPath())
	defer timing.Close()
	if timing.Err() != nil {
		e.logger().WithError(timing.Err()).Warn("timing output disabled")
	}

	for _, path := range paths {
		fileStart := time.Now()
		res, err := e.Estimate(path)
		switch {
		case errors.Is(err, ErrFileNotFound):
			timing.RecordFile("scan", path, "missing", fileStart, time.Since(fileStart))
			missing = append(missing, path)
			continue
		case err != nil:
			timing.RecordFile("scan", path, "error", fileStart, time.Since(fileStart))
			return nil, nil, err
		}
		timing.RecordFile("scan", path, "ok", fileStart, time.Since(fileStart))
		results = append(results, res)
	}

	timing.RecordStage("total", start, time.Since(start), "ok")
	return results, missing, nil
}

func (e *Estimator) logger() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}
