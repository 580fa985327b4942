package model_selection

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/metrics"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// ScoreFunc scores a fitted estimator on held-out data
type ScoreFunc func(est model.Estimator, X, y mat.Matrix) (float64, error)

// AccuracyScorer scores classifiers by accuracy
func AccuracyScorer(est model.Estimator, X, y mat.Matrix) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// R2Scorer scores regressors by the coefficient of determination
func R2Scorer(est model.Estimator, X, y mat.Matrix) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(column(y), column(pred))
}

// NegMSEScorer scores regressors by the negated mean squared error (higher is better)
func NegMSEScorer(est model.Estimator, X, y mat.Matrix) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}
	mse, err := metrics.MSEMatrix(y, pred)
	return -mse, err
}

// defaultScorer uses the estimator's own Score method
func defaultScorer(est model.Estimator, X, y mat.Matrix) (float64, error) {
	s, ok := est.(model.Scorer)
	if !ok {
		return 0, errors.NewValueError("CrossValScore", "estimator has no Score method and no scorer was given")
	}
	return s.Score(X, y)
}

func vecRows(m mat.Matrix) int {
	r, _ := m.Dims()
	return r
}

// column copies the first column of m
func column(m mat.Matrix) *mat.VecDense {
	idx := make([]int, vecRows(m))
	for i := range idx {
		idx[i] = i
	}
	return TakeVec(m, idx)
}

// CVResult stores cross-validation results
type CVResult struct {
	// Scores holds the held-out score of each fold, in fold order
	Scores []float64
	Mean   float64
	// Std is the population standard deviation of Scores
	Std   float64
	Folds []Fold
}

// CrossValScore fits a fresh estimator per fold and scores it on the held-out rows.
//
// Folds run concurrently; scores are stored by fold index so the result is
// independent of scheduling. The first fold error cancels the rest and is
// returned without partial results. A nil scorer uses the estimator's Score.
func CrossValScore(ctx context.Context, factory model.Factory, X, y mat.Matrix,
	splitter Splitter, scorer ScoreFunc) (*CVResult, error) {
	if factory == nil {
		return nil, errors.NewValueError("CrossValScore", "estimator factory is nil")
	}
	if scorer == nil {
		scorer = defaultScorer
	}
	xRows, _ := X.Dims()
	if yRows := vecRows(y); yRows != xRows {
		return nil, errors.NewDimensionError("CrossValScore", xRows, yRows, 0)
	}

	folds, err := splitter.Split(X, y)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(folds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, fold := range folds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return errors.SafeExecute("CrossValScore", func() error {
				est := factory()
				if err := est.Fit(TakeRows(X, fold.Train), TakeVec(y, fold.Train)); err != nil {
					return errors.Wrapf(err, "fold %d: fit", i)
				}
				s, err := scorer(est, TakeRows(X, fold.Test), TakeVec(y, fold.Test))
				if err != nil {
					return errors.Wrapf(err, "fold %d: score", i)
				}
				scores[i] = s
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mean, std := stat.PopMeanStdDev(scores, nil)
	return &CVResult{Scores: scores, Mean: mean, Std: std, Folds: folds}, nil
}
