// Package workflow runs the three evaluation pipelines end to end:
// cross-validation of a classifier, a regularization comparison of linear
// regressors, and missing-value imputation.
//
// Each pipeline is one blocking call that takes an explicit configuration and
// returns a result record. Nothing is shared between runs; every run is
// tagged with its own run id in the log output.
package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/dataset"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
	"github.com/YuminosukeSato/mlworkflow/pkg/log"
	"github.com/YuminosukeSato/mlworkflow/preprocessing"
	"github.com/YuminosukeSato/mlworkflow/sklearn/model_selection"
)

// Option configures a pipeline run.
type Option func(*runOptions)

type runOptions struct {
	logger log.Logger
}

// WithLogger sets the logger a run writes to. The default discards output.
func WithLogger(l log.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// run carries the per-invocation state of a pipeline.
type run struct {
	id     string
	logger log.Logger
}

func newRun(pipeline string, seed uint64, opts []Option) *run {
	o := runOptions{logger: log.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	id := uuid.NewString()
	return &run{
		id: id,
		logger: o.logger.With(
			log.RunIDKey, id,
			log.PipelineKey, pipeline,
			log.RandomSeedKey, seed,
		),
	}
}

// stage runs fn unless ctx is done. Panics from gonum are returned as
// PanicError and abort the pipeline like any other error.
func (r *run) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	if err := errors.SafeExecute(name, fn); err != nil {
		r.logger.Error("stage failed", err, log.OperationKey, name)
		return err
	}
	r.logger.Debug("stage completed",
		log.OperationKey, name,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// partition holds a split of X and y, scaled with parameters fitted on train only.
type partition struct {
	split  model_selection.Split
	xTrain mat.Matrix
	xTest  mat.Matrix
	yTrain *mat.VecDense
	yTest  *mat.VecDense
}

func splitAndScale(X mat.Matrix, y *mat.VecDense, split model_selection.Split, scaling string) (*partition, error) {
	scaler, err := preprocessing.NewScaler(scaling)
	if err != nil {
		return nil, err
	}
	p := &partition{
		split:  split,
		yTrain: model_selection.TakeVec(y, split.Train),
		yTest:  model_selection.TakeVec(y, split.Test),
	}
	if p.xTrain, err = scaler.FitTransform(model_selection.TakeRows(X, split.Train)); err != nil {
		return nil, err
	}
	if p.xTest, err = scaler.Transform(model_selection.TakeRows(X, split.Test)); err != nil {
		return nil, err
	}
	return p, nil
}

// encodeCategorical label-encodes a categorical feature in place so it can
// enter the design matrix, and reports the conversion as a warning.
func encodeCategorical(frame *dataset.Frame, name string) error {
	classes, err := frame.LabelEncode(name)
	if err != nil {
		return err
	}
	errors.Warn(errors.NewDataConversionWarning("string", "float64",
		fmt.Sprintf("column %q label-encoded into %d ordinal codes", name, len(classes))))
	return nil
}

// featureNames returns every column except the excluded ones, in frame order.
func featureNames(names []string, exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	var out []string
	for _, n := range names {
		if !skip[n] {
			out = append(out, n)
		}
	}
	return out
}

// ClassShare is the count and fraction of one label in a partition.
type ClassShare struct {
	Label    float64
	Count    int
	Fraction float64
}

func classBalance(y *mat.VecDense) []ClassShare {
	counts := make(map[float64]int)
	var labels []float64
	for i := 0; i < y.Len(); i++ {
		l := y.AtVec(i)
		if counts[l] == 0 {
			labels = append(labels, l)
		}
		counts[l]++
	}
	sort.Float64s(labels)
	shares := make([]ClassShare, len(labels))
	for i, l := range labels {
		shares[i] = ClassShare{Label: l, Count: counts[l], Fraction: float64(counts[l]) / float64(y.Len())}
	}
	return shares
}

// column copies column j of m.
func column(m mat.Matrix, j int) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, j))
	}
	return v
}
