package workflow

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/dataset"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
	"github.com/YuminosukeSato/mlworkflow/pkg/log"
	"github.com/YuminosukeSato/mlworkflow/sklearn/impute"
)

// Imputation strategies.
const (
	StrategyKNN        = "knn"
	StrategyRegression = "regression"
)

// MissingSpec describes the nulls injected into one column: either Count rows
// drawn from a seeded permutation, or the explicit Rows.
type MissingSpec struct {
	Column string `mapstructure:"column" yaml:"column"`
	Count  int    `mapstructure:"count" yaml:"count"`
	Rows   []int  `mapstructure:"rows" yaml:"rows,omitempty"`
}

// ImputationConfig configures RunImputation.
type ImputationConfig struct {
	Rows      int
	Seed      uint64
	Strategy  string
	Neighbors int
	Weights   string
	Missing   []MissingSpec
}

// DefaultImputationConfig returns the configuration used by the CLI.
func DefaultImputationConfig() ImputationConfig {
	return ImputationConfig{
		Rows:      100,
		Seed:      42,
		Strategy:  StrategyKNN,
		Neighbors: 5,
		Weights:   impute.WeightsUniform,
		Missing: []MissingSpec{
			{Column: "income", Count: 10},
			{Column: "credit_score", Count: 8},
		},
	}
}

// Validate checks the configuration before any work is done.
func (c ImputationConfig) Validate() error {
	if c.Rows <= 0 {
		return errors.NewValidationError("rows", "must be positive", c.Rows)
	}
	switch c.Strategy {
	case StrategyKNN:
		if c.Neighbors < 1 {
			return errors.NewValidationError("neighbors", "must be at least 1", c.Neighbors)
		}
		if c.Weights != impute.WeightsUniform && c.Weights != impute.WeightsDistance {
			return errors.NewValidationError("weights", "must be uniform or distance", c.Weights)
		}
	case StrategyRegression:
	default:
		return errors.NewValidationError("strategy", "must be knn or regression", c.Strategy)
	}
	if len(c.Missing) == 0 {
		return errors.NewValidationError("missing", "at least one column must receive missing values", c.Missing)
	}
	seen := make(map[string]bool, len(c.Missing))
	for _, m := range c.Missing {
		if seen[m.Column] {
			return errors.NewValidationError("missing", "column listed twice", m.Column)
		}
		seen[m.Column] = true
		if m.Column == dataset.Approved {
			return errors.NewValidationError("missing", "the label column cannot be imputed", m.Column)
		}
		if len(m.Rows) == 0 && (m.Count <= 0 || m.Count >= c.Rows) {
			return errors.NewValidationError("missing.count", "must be within [1, rows)", m.Count)
		}
	}
	return nil
}

// NullCount records the nulls of one column before and after imputation.
type NullCount struct {
	Column string
	Before int
	After  int
}

// ImputedColumn summarises the imputed values of one column against its
// observed values.
type ImputedColumn struct {
	Column string
	Rows   []int
	Min    float64
	Max    float64
	Mean   float64

	ObservedMin  float64
	ObservedMax  float64
	ObservedMean float64
}

// ImputationResult is the outcome of RunImputation.
type ImputationResult struct {
	RunID      string
	Config     ImputationConfig
	Strategy   string
	RowsBefore int
	RowsAfter  int
	Nulls      []NullCount
	Columns    []ImputedColumn
	// Frame is the completed dataset.
	Frame *dataset.Frame
}

// RunImputation generates the applicant dataset, injects missing values and
// fills them with the configured strategy.
func RunImputation(ctx context.Context, cfg ImputationConfig, opts ...Option) (*ImputationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := newRun(log.PipelineImputation, cfg.Seed, opts)
	res := &ImputationResult{RunID: r.id, Config: cfg, Strategy: cfg.Strategy}

	var (
		frame    *dataset.Frame
		features []string
		injected = make(map[string][]int, len(cfg.Missing))
	)
	err := r.stage(ctx, log.OperationGenerate, func() error {
		var err error
		if frame, err = dataset.Applicants(cfg.Rows, cfg.Seed); err != nil {
			return err
		}
		if err = encodeCategorical(frame, "education"); err != nil {
			return err
		}
		features = featureNames(frame.Names(), dataset.Approved)
		res.RowsBefore = frame.NumRows()

		for i, m := range cfg.Missing {
			rows := m.Rows
			if len(rows) == 0 {
				// 列ごとに独立した順列から選ぶので、同じ行が複数列で欠損することがある
				if rows, err = dataset.SampleRows(frame.NumRows(), m.Count, cfg.Seed+uint64(i)+1); err != nil {
					return err
				}
			}
			if err = frame.InjectMissing(m.Column, rows); err != nil {
				return err
			}
			injected[m.Column], _ = frame.MissingRows(m.Column)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	before := frame.NullCounts()
	for _, name := range frame.Names() {
		if before[name] > 0 {
			r.logger.Info("missing values injected",
				log.ColumnKey, name,
				log.MissingCountKey, before[name],
			)
		}
	}
	observed := frame.Clone()

	err = r.stage(ctx, log.OperationTransform, func() error {
		X, err := frame.Matrix(features...)
		if err != nil {
			return err
		}
		var completed *mat.Dense
		switch cfg.Strategy {
		case StrategyKNN:
			completed, err = imputeKNN(X, cfg)
		case StrategyRegression:
			completed, err = imputeRegression(X, features, cfg)
		}
		if err != nil {
			return err
		}
		for j, name := range features {
			if before[name] == 0 {
				continue
			}
			if err := frame.SetFloat64s(name, mat.Col(nil, j, completed)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	after := frame.NullCounts()
	res.RowsAfter = frame.NumRows()
	res.Frame = frame
	for _, name := range frame.Names() {
		if before[name] == 0 {
			continue
		}
		res.Nulls = append(res.Nulls, NullCount{Column: name, Before: before[name], After: after[name]})
		if after[name] != 0 {
			return nil, errors.NewValueError("RunImputation",
				fmt.Sprintf("column %s still has %d missing value(s)", name, after[name]))
		}
		col, err := summariseImputed(name, injected[name], observed, frame)
		if err != nil {
			return nil, err
		}
		res.Columns = append(res.Columns, col)
	}
	r.logger.Info("imputation completed",
		log.ModelNameKey, cfg.Strategy,
		log.SamplesKey, res.RowsAfter,
	)
	return res, nil
}

func imputeKNN(X *mat.Dense, cfg ImputationConfig) (*mat.Dense, error) {
	imp := impute.NewKNNImputer(impute.WithNeighbors(cfg.Neighbors), impute.WithWeights(cfg.Weights))
	out, err := imp.FitTransform(X)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(out), nil
}

// imputeRegression completes each column with missing values independently,
// using only the columns that had no missing values as predictors.
func imputeRegression(X *mat.Dense, features []string, cfg ImputationConfig) (*mat.Dense, error) {
	predictors := impute.CompleteColumns(X)
	counts := impute.CountMissing(X)
	result := mat.DenseCopyOf(X)
	for j, n := range counts {
		if n == 0 {
			continue
		}
		imp := impute.NewRegressionImputer(j, predictors, impute.WithColumnNames(features))
		out, err := imp.FitTransform(X)
		if err != nil {
			return nil, err
		}
		result.SetCol(j, mat.Col(nil, j, out))
	}
	return result, nil
}

func summariseImputed(name string, rows []int, observed, completed *dataset.Frame) (ImputedColumn, error) {
	before, err := observed.Float64s(name)
	if err != nil {
		return ImputedColumn{}, err
	}
	after, err := completed.Float64s(name)
	if err != nil {
		return ImputedColumn{}, err
	}

	obs := dataset.Summarize(name, before)
	col := ImputedColumn{
		Column:       name,
		Rows:         rows,
		ObservedMin:  obs.Min,
		ObservedMax:  obs.Max,
		ObservedMean: obs.Mean,
		Min:          math.Inf(1),
		Max:          math.Inf(-1),
	}
	for _, i := range rows {
		v := after[i]
		col.Min = math.Min(col.Min, v)
		col.Max = math.Max(col.Max, v)
		col.Mean += v
	}
	if len(rows) > 0 {
		col.Mean /= float64(len(rows))
	}
	return col, nil
}
