package replay

import (
	"fmt"
	"io"
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"

	"git.lost.host/meutraa/encore/internal/engine"
)

// StatDiff is one statistic of a verified frame.
type StatDiff struct {
	Name     string
	Original any
	Result   any
	Equal    bool
}

// statReporter records every compared leaf, equal or not.
type statReporter struct {
	path  cmp.Path
	diffs []StatDiff
}

func (r *statReporter) PushStep(ps cmp.PathStep) {
	r.path = append(r.path, ps)
}

func (r *statReporter) Report(rs cmp.Result) {
	vx, vy := r.path.Last().Values()
	r.diffs = append(r.diffs, StatDiff{
		Name:     r.name(),
		Original: valueOf(vx),
		Result:   valueOf(vy),
		Equal:    rs.Equal(),
	})
}

func (r *statReporter) PopStep() {
	r.path = r.path[:len(r.path)-1]
}

func (r *statReporter) name() string {
	for i := len(r.path) - 1; i >= 0; i-- {
		if sf, ok := r.path[i].(cmp.StructField); ok {
			return sf.Name()
		}
	}
	return r.path.String()
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

func compareValues(x, y any) []StatDiff {
	r := &statReporter{}
	cmp.Equal(x, y, cmp.Reporter(r))
	return r.diffs
}

// Compare lists every statistic of both snapshots, followed by the derived
// total score and hit percentage.
func Compare(original, result engine.Snapshot) []StatDiff {
	var diffs []StatDiff
	if original == nil || result == nil || reflect.TypeOf(original) != reflect.TypeOf(result) {
		var ob, rb engine.Stats
		if original != nil {
			ob = original.BaseStats()
		}
		if result != nil {
			rb = result.BaseStats()
		}
		diffs = compareValues(ob, rb)
		diffs = append(diffs, StatDiff{
			Name:     "StatsType",
			Original: fmt.Sprintf("%T", original),
			Result:   fmt.Sprintf("%T", result),
		})
	} else {
		diffs = compareValues(original, result)
	}

	var ob, rb engine.Stats
	if original != nil {
		ob = original.BaseStats()
	}
	if result != nil {
		rb = result.BaseStats()
	}
	return append(diffs,
		StatDiff{Name: "TotalScore", Original: ob.TotalScore(), Result: rb.TotalScore(), Equal: ob.TotalScore() == rb.TotalScore()},
		StatDiff{Name: "Percent", Original: ob.Percent(), Result: rb.Percent(), Equal: ob.Percent() == rb.Percent()},
	)
}

// Mismatches keeps the statistics that were not reproduced.
func Mismatches(diffs []StatDiff) []StatDiff {
	return lo.Filter(diffs, func(d StatDiff, _ int) bool { return !d.Equal })
}

// Render writes the per statistic report of every result.
func Render(w io.Writer, results []AnalysisResult) error {
	for i, r := range results {
		verdict := "passed"
		if !r.Passed {
			verdict = "FAILED"
		}
		p := r.Frame.Profile
		if _, err := fmt.Fprintf(w, "Frame %d (%s, %v %v %v): %s\n", i, p.Name, p.Mode, p.Instrument, p.Difficulty, verdict); nil != err {
			return err
		}
		for _, d := range r.Diffs {
			var err error
			if d.Equal {
				_, err = fmt.Fprintf(w, "- %-31s %-12v (identical)\n", d.Name+":", d.Original)
			} else {
				_, err = fmt.Fprintf(w, "- %-31s %-10v -> %v\n", d.Name+":", d.Original, d.Result)
			}
			if nil != err {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); nil != err {
			return err
		}
	}
	return nil
}
