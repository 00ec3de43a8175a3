package bundle

import (
	"fmt"
	"math"
	"sort"
)

const (
	calibratorSigmoid  = "sigmoid"
	calibratorIsotonic = "isotonic"
)

// calibrator maps a raw ensemble margin to a probability. The pipeline never
// reports an uncalibrated score as risk, so every bundle must declare one.
type calibrator struct {
	typ        string
	a, b       float64
	thresholds []float64
	outputs    []float64
}

func newCalibrator(art Artifact) (calibrator, error) {
	c := calibrator{
		typ:        art.Calibrator.Type,
		a:          art.Calibrator.A,
		b:          art.Calibrator.B,
		thresholds: art.Calibrator.Thresholds,
		outputs:    art.Calibrator.Outputs,
	}
	switch c.typ {
	case calibratorSigmoid:
		if c.a == 0 {
			return calibrator{}, fmt.Errorf("sigmoid calibrator has zero slope")
		}
	case calibratorIsotonic:
		if len(c.thresholds) == 0 || len(c.thresholds) != len(c.outputs) {
			return calibrator{}, fmt.Errorf("isotonic calibrator has %d thresholds and %d outputs", len(c.thresholds), len(c.outputs))
		}
		if !sort.Float64sAreSorted(c.thresholds) {
			return calibrator{}, fmt.Errorf("isotonic thresholds not sorted")
		}
		for i, out := range c.outputs {
			if out < 0 || out > 1 {
				return calibrator{}, fmt.Errorf("isotonic output %d out of [0,1]: %f", i, out)
			}
			if i > 0 && out < c.outputs[i-1] {
				return calibrator{}, fmt.Errorf("isotonic outputs not monotonic at %d", i)
			}
		}
	case "":
		return calibrator{}, fmt.Errorf("missing calibrator")
	default:
		return calibrator{}, fmt.Errorf("unknown calibrator type %q", c.typ)
	}
	return c, nil
}

// Apply converts a raw margin into a probability in [0,1].
func (c calibrator) Apply(raw float64) float64 {
	switch c.typ {
	case calibratorSigmoid:
		// Platt scaling: p = 1 / (1 + exp(a*raw + b)).
		return clamp01(1 / (1 + math.Exp(c.a*raw+c.b)))
	case calibratorIsotonic:
		return clamp01(c.interpolate(raw))
	}
	return clamp01(raw)
}

func (c calibrator) interpolate(raw float64) float64 {
	n := len(c.thresholds)
	if raw <= c.thresholds[0] {
		return c.outputs[0]
	}
	if raw >= c.thresholds[n-1] {
		return c.outputs[n-1]
	}
	i := sort.SearchFloat64s(c.thresholds, raw)
	lo, hi := c.thresholds[i-1], c.thresholds[i]
	if hi == lo {
		return c.outputs[i]
	}
	frac := (raw - lo) / (hi - lo)
	return c.outputs[i-1] + frac*(c.outputs[i]-c.outputs[i-1])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
