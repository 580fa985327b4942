package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	mlerrors "github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// Distribution draws one column's worth of values from a shared random source.
type Distribution interface {
	kind() Kind
	sampleFloats(rng *rand.Rand, n int) []float64
	sampleLabels(rng *rand.Rand, n int) []string
}

// UniformInt draws integers uniformly from [Low, High] (inclusive).
type UniformInt struct {
	Low, High int
}

func (UniformInt) kind() Kind { return Numeric }

func (u UniformInt) sampleFloats(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	span := u.High - u.Low + 1
	for i := range out {
		out[i] = float64(u.Low + rng.IntN(span))
	}
	return out
}

func (UniformInt) sampleLabels(*rand.Rand, int) []string { return nil }

// Normal draws from a Gaussian distribution.
type Normal struct {
	Mean, StdDev float64
}

func (Normal) kind() Kind { return Numeric }

func (d Normal) sampleFloats(rng *rand.Rand, n int) []float64 {
	dist := distuv.Normal{Mu: d.Mean, Sigma: d.StdDev, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

func (Normal) sampleLabels(*rand.Rand, int) []string { return nil }

// Choice draws categorical labels. Weights default to equal when nil.
type Choice struct {
	Values  []string
	Weights []float64
}

func (Choice) kind() Kind { return Categorical }

func (Choice) sampleFloats(*rand.Rand, int) []float64 { return nil }

func (c Choice) sampleLabels(rng *rand.Rand, n int) []string {
	weights := c.Weights
	if weights == nil {
		weights = make([]float64, len(c.Values))
		for i := range weights {
			weights[i] = 1
		}
	}
	dist := distuv.NewCategorical(weights, rng)
	out := make([]string, n)
	for i := range out {
		out[i] = c.Values[int(dist.Rand())]
	}
	return out
}

// ColumnSpec declares one generated column.
type ColumnSpec struct {
	Name string
	Dist Distribution
}

// Generator produces a Frame from column specs using a single PCG source
// seeded with Seed. Columns are drawn in declaration order, so the same seed
// and declaration always yield the same frame.
type Generator struct {
	Seed    uint64
	Rows    int
	Columns []ColumnSpec
	Labels  []RiskRule
	Targets []LinearTarget
}

func (g Generator) validate() error {
	if g.Rows <= 0 {
		return mlerrors.NewValidationError("rows", "must be positive", g.Rows)
	}
	for _, spec := range g.Columns {
		switch d := spec.Dist.(type) {
		case UniformInt:
			if d.High < d.Low {
				return mlerrors.NewValidationError(spec.Name, "high must be >= low", d)
			}
		case Normal:
			if d.StdDev < 0 || math.IsNaN(d.StdDev) {
				return mlerrors.NewValidationError(spec.Name, "standard deviation must be non-negative", d.StdDev)
			}
		case Choice:
			if len(d.Values) == 0 {
				return mlerrors.NewValidationError(spec.Name, "choice needs at least one value", d.Values)
			}
			if d.Weights != nil && len(d.Weights) != len(d.Values) {
				return mlerrors.NewValidationError(spec.Name, "weights and values differ in length", len(d.Weights))
			}
			if d.Weights != nil {
				sum := 0.0
				for _, w := range d.Weights {
					if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
						return mlerrors.NewValidationError(spec.Name, "weights must be finite and non-negative", w)
					}
					sum += w
				}
				if sum <= 0 {
					return mlerrors.NewValidationError(spec.Name, "weights must have a positive sum", d.Weights)
				}
			}
		case nil:
			return mlerrors.NewValidationError(spec.Name, "missing distribution", nil)
		}
	}
	return nil
}

// Generate builds the frame: feature columns first, then label rules, then
// linear targets (whose noise is drawn after every feature column).
func (g Generator) Generate() (*Frame, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(g.Seed, g.Seed))

	f := NewFrame()
	for _, spec := range g.Columns {
		var err error
		if spec.Dist.kind() == Categorical {
			err = f.AddCategorical(spec.Name, spec.Dist.sampleLabels(rng, g.Rows))
		} else {
			err = f.AddNumeric(spec.Name, spec.Dist.sampleFloats(rng, g.Rows))
		}
		if err != nil {
			return nil, err
		}
	}
	for _, rule := range g.Labels {
		if err := rule.apply(f); err != nil {
			return nil, err
		}
	}
	for _, target := range g.Targets {
		if err := target.apply(f, rng); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Op is a comparison operator used by Threshold.
type Op string

// Supported comparison operators. OpEq compares categorical labels.
const (
	OpGT Op = ">"
	OpGE Op = ">="
	OpLT Op = "<"
	OpLE Op = "<="
	OpEq Op = "=="
)

// Threshold is one risk factor: Column Op Value for numeric columns, or
// Column == Label for categorical ones.
type Threshold struct {
	Column string
	Op     Op
	Value  float64
	Label  string
}

func (t Threshold) holds(r Row) (bool, error) {
	if t.Op == OpEq {
		return r.String(t.Column) == t.Label, nil
	}
	v := r.Float(t.Column)
	switch t.Op {
	case OpGT:
		return v > t.Value, nil
	case OpGE:
		return v >= t.Value, nil
	case OpLT:
		return v < t.Value, nil
	case OpLE:
		return v <= t.Value, nil
	default:
		return false, mlerrors.NewValidationError("op", "unknown comparison operator", string(t.Op))
	}
}

func (t Threshold) String() string {
	if t.Op == OpEq {
		return fmt.Sprintf("%s == %q", t.Column, t.Label)
	}
	return fmt.Sprintf("%s %s %g", t.Column, t.Op, t.Value)
}

// RiskRule derives a binary label: 1 when at least Cutoff factors hold.
type RiskRule struct {
	Name    string
	Factors []Threshold
	Cutoff  int
}

// Evaluate returns the label for one row.
func (rule RiskRule) Evaluate(r Row) (float64, error) {
	count := 0
	for _, factor := range rule.Factors {
		ok, err := factor.holds(r)
		if err != nil {
			return 0, err
		}
		if ok {
			count++
		}
	}
	if count >= rule.Cutoff {
		return 1, nil
	}
	return 0, nil
}

func (rule RiskRule) apply(f *Frame) error {
	var ruleErr error
	err := f.Derive(rule.Name, func(r Row) float64 {
		label, err := rule.Evaluate(r)
		if err != nil && ruleErr == nil {
			ruleErr = err
		}
		return label
	})
	if ruleErr != nil {
		return ruleErr
	}
	return err
}

// LinearTarget derives a continuous target:
// Intercept + Σ Coefficients[c]·column c + N(0, NoiseStd).
type LinearTarget struct {
	Name         string
	Intercept    float64
	Columns      []string
	Coefficients []float64
	NoiseStd     float64
}

func (t LinearTarget) apply(f *Frame, rng *rand.Rand) error {
	if len(t.Columns) != len(t.Coefficients) {
		return mlerrors.NewDimensionError("LinearTarget", len(t.Columns), len(t.Coefficients), 1)
	}
	noise := Normal{Mean: 0, StdDev: t.NoiseStd}.sampleFloats(rng, f.NumRows())
	return f.Derive(t.Name, func(r Row) float64 {
		v := t.Intercept + noise[r.Index()]
		for j, name := range t.Columns {
			v += t.Coefficients[j] * r.Float(name)
		}
		return v
	})
}
