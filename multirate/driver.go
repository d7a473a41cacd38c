package multirate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rollingthunder/differential/util"
)

// DriverConfig tunes the build/solve/check/shift outer loop.
type DriverConfig struct {
	MaxRejections int
	// TracePath, if non-empty, writes one row per accepted step (via
	// util.WriteTablesFile) describing the slab's arena sizes.
	TracePath string
}

func DefaultDriverConfig() DriverConfig {
	return DriverConfig{MaxRejections: 32}
}

// Statistics summarizes one Driver.Run. KMin is the smallest sub-slab
// length over all accepted slabs.
type Statistics struct {
	Steps      int
	Rejections int
	KMin       float64
}

// Driver iterates build/solve/check/shift over a TimeSlab until the ODE's
// end time is reached, tightening the interval and retrying whenever a
// slab is rejected.
type Driver struct {
	ts     *TimeSlab
	cfg    DriverConfig
	logger *slog.Logger
}

func NewDriver(ts *TimeSlab, cfg DriverConfig, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{ts: ts, cfg: cfg, logger: logger}
}

// Run drives the slab from t=0 to ode.EndTime(). ctx, if non-nil, is
// checked only between outer iterations — never inside build/solve/feval,
// which remain single-threaded straight-line code.
func (d *Driver) Run(ctx context.Context) (Statistics, error) {
	var stats Statistics
	ts := d.ts

	a := 0.0
	end := ts.ode.EndTime()
	first := true

	var traceRows [][]float64

	for a < end-ts.eps {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			default:
			}
		}

		target := end
		rejections := 0
		for {
			bEnd := ts.Build(a, target)
			if !ts.Solve() {
				return stats, fatalf("Run", "nonlinear solver failed to converge on [%v, %v]", a, bEnd)
			}
			if ts.Check(first) {
				isLast := bEnd >= end-ts.eps
				if !ts.Shift(isLast) {
					return stats, nil
				}
				stats.Steps++
				if stats.Steps == 1 || ts.kmin < stats.KMin {
					stats.KMin = ts.kmin
				}
				traceRows = append(traceRows, []float64{a, bEnd, float64(ts.ne), float64(ts.nd)})
				a = bEnd
				first = false
				break
			}

			rejections++
			stats.Rejections++
			if rejections > d.cfg.MaxRejections {
				return stats, fatalf("Run", "exceeded %d rejections on [%v, %v]", d.cfg.MaxRejections, a, target)
			}
			target = a + (bEnd-a)*0.5
		}
	}

	if d.cfg.TracePath != "" {
		rowHeaders := make([]string, len(traceRows))
		for i := range rowHeaders {
			rowHeaders[i] = fmt.Sprintf("%d", i)
		}
		table := util.Table{
			Title:      "multirate steps",
			ColHeaders: []string{"a", "b", "ne", "nd"},
			RowHeaders: rowHeaders,
			Data:       map[string][][]float64{"steps": traceRows},
		}
		if err := util.WriteTablesFile([]util.Table{table}, d.cfg.TracePath); err != nil {
			d.logger.Warn("writing trace file", "err", err)
		}
	}

	return stats, nil
}
