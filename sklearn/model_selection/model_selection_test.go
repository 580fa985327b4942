package model_selection

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/linear"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
	"github.com/YuminosukeSato/mlworkflow/sklearn/linear_model"
)

func imbalancedLabels(n int, positiveEvery int) []float64 {
	y := make([]float64, n)
	for i := range y {
		if i%positiveEvery == 0 {
			y[i] = 1
		}
	}
	return y
}

func proportion(y []float64, idx []int, label float64) float64 {
	count := 0
	for _, i := range idx {
		if y[i] == label {
			count++
		}
	}
	return float64(count) / float64(len(idx))
}

func assertPartition(t *testing.T, n int, parts ...[]int) {
	t.Helper()
	seen := make([]int, n)
	for _, p := range parts {
		for _, i := range p {
			seen[i]++
		}
	}
	for i, c := range seen {
		assert.Equal(t, 1, c, "row %d appears %d times", i, c)
	}
}

func TestTrainTestSplit(t *testing.T) {
	t.Run("fraction rounds the test partition up", func(t *testing.T) {
		s, err := TrainTestSplit(10, 0.25, 42, nil)
		require.NoError(t, err)
		assert.Len(t, s.Test, 3)
		assert.Len(t, s.Train, 7)
		assertPartition(t, 10, s.Train, s.Test)
	})

	t.Run("absolute count", func(t *testing.T) {
		s, err := TrainTestSplit(50, 5, 1, nil)
		require.NoError(t, err)
		assert.Len(t, s.Test, 5)
		assertPartition(t, 50, s.Train, s.Test)
	})

	t.Run("deterministic for a seed", func(t *testing.T) {
		a, err := TrainTestSplit(100, 0.2, 7, nil)
		require.NoError(t, err)
		b, err := TrainTestSplit(100, 0.2, 7, nil)
		require.NoError(t, err)
		c, err := TrainTestSplit(100, 0.2, 8, nil)
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.NotEqual(t, a.Test, c.Test)
	})

	t.Run("invalid sizes", func(t *testing.T) {
		for _, size := range []float64{0, -0.1, 10, 12, 2.5, math.NaN()} {
			_, err := TrainTestSplit(10, size, 0, nil)
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve), "size %v: %v", size, err)
		}
		_, err := TrainTestSplit(1, 0.5, 0, nil)
		assert.Error(t, err)
	})
}

func TestTrainTestSplitStratified(t *testing.T) {
	for _, tc := range []struct {
		n, every int
		size     float64
	}{
		{100, 3, 0.2},
		{100, 7, 0.3},
		{37, 4, 0.25},
		{160, 5, 0.2},
	} {
		y := imbalancedLabels(tc.n, tc.every)
		s, err := TrainTestSplit(tc.n, tc.size, 42, y)
		require.NoError(t, err)
		assertPartition(t, tc.n, s.Train, s.Test)

		all := make([]int, tc.n)
		for i := range all {
			all[i] = i
		}
		overall := proportion(y, all, 1)
		assert.LessOrEqual(t, math.Abs(proportion(y, s.Test, 1)-overall), 1/float64(len(s.Test)))
		assert.LessOrEqual(t, math.Abs(proportion(y, s.Train, 1)-overall), 1/float64(len(s.Train)))
	}

	_, err := TrainTestSplit(10, 0.2, 0, []float64{0, 1})
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestKFold(t *testing.T) {
	X := mat.NewDense(23, 2, nil)

	t.Run("exhaustive and non overlapping", func(t *testing.T) {
		for _, shuffle := range []bool{false, true} {
			folds, err := NewKFold(5, shuffle, 3).Split(X, nil)
			require.NoError(t, err)
			require.Len(t, folds, 5)

			tests := make([][]int, len(folds))
			for i, f := range folds {
				tests[i] = f.Test
				assert.Len(t, f.Train, 23-len(f.Test))
				assertPartition(t, 23, f.Train, f.Test)
			}
			assertPartition(t, 23, tests...)
			assert.Len(t, folds[0].Test, 5)
			assert.Len(t, folds[4].Test, 4)
		}
	})

	t.Run("deterministic for seed and k", func(t *testing.T) {
		a, _ := NewKFold(4, true, 11).Split(X, nil)
		b, _ := NewKFold(4, true, 11).Split(X, nil)
		c, _ := NewKFold(4, true, 12).Split(X, nil)
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, c)
	})

	t.Run("invalid number of splits", func(t *testing.T) {
		_, err := NewKFold(1, false, 0).Split(X, nil)
		assert.Error(t, err)
		_, err = NewKFold(24, false, 0).Split(X, nil)
		assert.Error(t, err)
	})
}

func TestStratifiedKFold(t *testing.T) {
	labels := imbalancedLabels(50, 4)
	X := mat.NewDense(50, 1, nil)
	y := mat.NewVecDense(50, labels)

	folds, err := NewStratifiedKFold(5, true, 42).Split(X, y)
	require.NoError(t, err)

	tests := make([][]int, len(folds))
	positives := 0
	for _, l := range labels {
		if l == 1 {
			positives++
		}
	}
	for i, f := range folds {
		tests[i] = f.Test
		assert.Len(t, f.Test, 10)
		count := 0
		for _, idx := range f.Test {
			if labels[idx] == 1 {
				count++
			}
		}
		assert.InDelta(t, float64(positives)/5, float64(count), 1)
	}
	assertPartition(t, 50, tests...)

	_, err = NewStratifiedKFold(5, false, 0).Split(X, nil)
	assert.Error(t, err)
}

func TestCrossValScoreRegression(t *testing.T) {
	n := 40
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		a, b := float64(i), float64((i*7)%11)
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.SetVec(i, 3*a-2*b+5)
	}

	factory := func() model.Estimator { return linear.NewLinearRegression() }
	res, err := CrossValScore(context.Background(), factory, X, y, NewKFold(4, true, 42), R2Scorer)
	require.NoError(t, err)
	require.Len(t, res.Scores, 4)
	for _, s := range res.Scores {
		assert.InDelta(t, 1.0, s, 1e-9)
	}
	assert.InDelta(t, 1.0, res.Mean, 1e-9)
	assert.InDelta(t, 0.0, res.Std, 1e-9)

	neg, err := CrossValScore(context.Background(), factory, X, y, NewKFold(4, true, 42), NegMSEScorer)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, neg.Mean, 1e-9)
}

func TestCrossValScoreClassifier(t *testing.T) {
	n := 60
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x := float64(i) - 30
		X.Set(i, 0, x)
		if x > 0 {
			y.SetVec(i, 1)
		}
	}

	factory := func() model.Estimator { return linear_model.NewLogisticRegression() }
	a, err := CrossValScore(context.Background(), factory, X, y, NewStratifiedKFold(5, true, 42), AccuracyScorer)
	require.NoError(t, err)
	b, err := CrossValScore(context.Background(), factory, X, y, NewStratifiedKFold(5, true, 42), nil)
	require.NoError(t, err)

	assert.Equal(t, a.Scores, b.Scores)
	assert.GreaterOrEqual(t, a.Mean, 0.9)
}

type failingEstimator struct{}

func (failingEstimator) Fit(X, y mat.Matrix) error {
	return errors.NewValueError("failingEstimator.Fit", "always fails")
}

func (failingEstimator) Predict(X mat.Matrix) (mat.Matrix, error) { return nil, nil }

func TestCrossValScoreErrors(t *testing.T) {
	X := mat.NewDense(10, 1, nil)
	y := mat.NewVecDense(10, nil)
	factory := func() model.Estimator { return failingEstimator{} }

	res, err := CrossValScore(context.Background(), factory, X, y, NewKFold(2, false, 0), AccuracyScorer)
	assert.Nil(t, res)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	_, err = CrossValScore(context.Background(), nil, X, y, NewKFold(2, false, 0), nil)
	assert.Error(t, err)

	_, err = CrossValScore(context.Background(), factory, X, mat.NewVecDense(3, nil), NewKFold(2, false, 0), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lr := func() model.Estimator { return linear.NewLinearRegression() }
	_, err = CrossValScore(ctx, lr, X, y, NewKFold(2, false, 0), R2Scorer)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTakeRows(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	sub := TakeRows(X, []int{2, 0})
	assert.Equal(t, []float64{5, 6, 1, 2}, sub.RawMatrix().Data)

	v := TakeVec(mat.NewVecDense(3, []float64{7, 8, 9}), []int{1})
	assert.Equal(t, 8.0, v.AtVec(0))
	assert.Equal(t, []float64{9, 7}, TakeFloats([]float64{7, 8, 9}, []int{2, 0}))
}
