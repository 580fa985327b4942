package workflow

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/mlworkflow/dataset"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
	"github.com/YuminosukeSato/mlworkflow/pkg/log"
	"github.com/YuminosukeSato/mlworkflow/sklearn/impute"
)

func init() {
	errors.SetWarningHandler(func(error) {})
}

func TestRunCrossValidation(t *testing.T) {
	cfg := DefaultCrossValidationConfig()
	cfg.Rows = 100

	logger, _ := log.NewTestLogger(log.LevelDebug)
	res, err := RunCrossValidation(context.Background(), cfg, WithLogger(logger))
	require.NoError(t, err)

	// 6 features + 1 binary label
	assert.Equal(t, 100, res.Rows)
	assert.Equal(t, 7, res.Columns)
	assert.Len(t, res.Features, 6)
	assert.NotContains(t, res.Features, dataset.HeartDisease)
	for _, s := range append(res.TrainBalance, res.TestBalance...) {
		assert.Contains(t, []float64{0, 1}, s.Label)
	}

	assert.Equal(t, 80, res.TrainSize)
	assert.Equal(t, 20, res.TestSize)
	require.Len(t, res.FoldScores, cfg.Folds)
	var sum float64
	for _, s := range res.FoldScores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
		sum += s
	}
	assert.InDelta(t, sum/float64(cfg.Folds), res.MeanScore, 1e-12)
	assert.GreaterOrEqual(t, res.TestAccuracy, 0.0)
	assert.Len(t, res.Coef, 6)
	require.NotNil(t, res.Report)
	assert.Equal(t, res.TestSize, res.Report.Support)

	total := 0.0
	r, c := res.Confusion.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			total += res.Confusion.At(i, j)
		}
	}
	assert.Equal(t, float64(res.TestSize), total)

	assert.True(t, logger.ContainsField(log.RunIDKey, res.RunID))
	assert.True(t, logger.ContainsField(log.PipelineKey, log.PipelineCrossValidation))
	assert.True(t, logger.ContainsMessage("cross-validation completed"))
	assert.True(t, logger.ContainsMessage("fold scored"))
}

func TestRunCrossValidationDeterministic(t *testing.T) {
	for _, stratify := range []bool{true, false} {
		cfg := DefaultCrossValidationConfig()
		cfg.Stratify = stratify

		a, err := RunCrossValidation(context.Background(), cfg)
		require.NoError(t, err)
		b, err := RunCrossValidation(context.Background(), cfg)
		require.NoError(t, err)

		assert.NotEqual(t, a.RunID, b.RunID)
		assert.Equal(t, a.FoldScores, b.FoldScores)
		assert.Equal(t, a.TestAccuracy, b.TestAccuracy)
		assert.Equal(t, a.Coef, b.Coef)
	}
}

func TestRunCrossValidationStratifiedBalance(t *testing.T) {
	cfg := DefaultCrossValidationConfig()
	res, err := RunCrossValidation(context.Background(), cfg)
	require.NoError(t, err)

	frame, err := dataset.PatientRisk(cfg.Rows, cfg.Seed)
	require.NoError(t, err)
	labels, err := frame.Float64s(dataset.HeartDisease)
	require.NoError(t, err)
	positives := 0.0
	for _, l := range labels {
		positives += l
	}
	overall := positives / float64(len(labels))

	share := func(shares []ClassShare) float64 {
		for _, s := range shares {
			if s.Label == 1 {
				return s.Fraction
			}
		}
		return 0
	}
	assert.LessOrEqual(t, math.Abs(share(res.TrainBalance)-overall), 1/float64(res.TrainSize))
	assert.LessOrEqual(t, math.Abs(share(res.TestBalance)-overall), 1/float64(res.TestSize))
}

func TestRunRegularization(t *testing.T) {
	cfg := DefaultRegularizationConfig()
	res, err := RunRegularization(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, res.Variants, 3)
	assert.Equal(t, dataset.Price, res.Target)
	assert.Len(t, res.Features, 7)
	assert.Equal(t, cfg.Rows, res.TrainSize+res.TestSize)

	ols, ok := res.Variant(VariantOLS)
	require.True(t, ok)
	ridge, _ := res.Variant(VariantRidge)
	lasso, _ := res.Variant(VariantLasso)

	assert.GreaterOrEqual(t, lasso.Zeros, ols.Zeros)
	for _, v := range res.Variants {
		assert.Len(t, v.Coef, 7)
		assert.False(t, math.IsNaN(v.MSE))
		assert.InDelta(t, math.Sqrt(v.MSE), v.RMSE, 1e-6)
		// sqft dominates the price on every variant
		assert.Greater(t, v.Coef[0], 0.0)
		assert.Greater(t, v.R2, 0.5)
	}

	var olsNorm, ridgeNorm float64
	for i := range ols.Coef {
		olsNorm += ols.Coef[i] * ols.Coef[i]
		ridgeNorm += ridge.Coef[i] * ridge.Coef[i]
	}
	assert.Less(t, ridgeNorm, olsNorm)
}

func TestRegularizationVariantsShareOnePartition(t *testing.T) {
	cfg := DefaultRegularizationConfig()
	cfg.RidgeAlpha = 0
	cfg.LassoAlpha = 0
	cfg.LassoTol = 1e-10
	cfg.LassoMaxIter = 100000

	res, err := RunRegularization(context.Background(), cfg)
	require.NoError(t, err)
	ols, _ := res.Variant(VariantOLS)
	for _, v := range res.Variants {
		assert.InDelta(t, ols.MSE, v.MSE, ols.MSE*1e-6, v.Name)
	}
}

func TestCompareRegularizationRejectsCategorical(t *testing.T) {
	frame, err := dataset.Applicants(50, 1)
	require.NoError(t, err)

	logger, _ := log.NewTestLogger(log.LevelDebug)
	_, err = CompareRegularization(context.Background(), frame, "income",
		[]string{"age", "education"}, DefaultRegularizationConfig(), WithLogger(logger))

	var cfe *errors.CategoricalFeatureError
	require.True(t, errors.As(err, &cfe))
	assert.Equal(t, "education", cfe.Column)
	assert.False(t, logger.ContainsMessage("variant evaluated"), "no model may be fitted")
	assert.True(t, logger.ContainsMessage("stage failed"))
}

func disjointScenario(strategy string) ImputationConfig {
	cfg := DefaultImputationConfig()
	cfg.Strategy = strategy
	cfg.Missing = []MissingSpec{
		{Column: "income", Rows: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{Column: "credit_score", Rows: []int{10, 11, 12, 13, 14, 15, 16, 17}},
	}
	return cfg
}

func TestRunImputationScenario(t *testing.T) {
	for _, strategy := range []string{StrategyKNN, StrategyRegression} {
		t.Run(strategy, func(t *testing.T) {
			res, err := RunImputation(context.Background(), disjointScenario(strategy))
			require.NoError(t, err)

			assert.Equal(t, 100, res.RowsBefore)
			assert.Equal(t, 100, res.RowsAfter)
			require.Len(t, res.Nulls, 2)
			assert.Equal(t, NullCount{Column: "income", Before: 10, After: 0}, res.Nulls[0])
			assert.Equal(t, NullCount{Column: "credit_score", Before: 8, After: 0}, res.Nulls[1])

			for name, n := range res.Frame.NullCounts() {
				assert.Zero(t, n, name)
			}
			require.Len(t, res.Columns, 2)
			assert.Len(t, res.Columns[0].Rows, 10)
			assert.Len(t, res.Columns[1].Rows, 8)
		})
	}
}

func TestRunImputationKNNStaysInObservedRange(t *testing.T) {
	for _, weights := range []string{impute.WeightsUniform, impute.WeightsDistance} {
		cfg := DefaultImputationConfig()
		cfg.Weights = weights
		res, err := RunImputation(context.Background(), cfg)
		require.NoError(t, err)

		for _, c := range res.Columns {
			assert.GreaterOrEqual(t, c.Min, c.ObservedMin, c.Column)
			assert.LessOrEqual(t, c.Max, c.ObservedMax, c.Column)
		}
		assert.Equal(t, 10, res.Nulls[0].Before)
		assert.Equal(t, 8, res.Nulls[1].Before)
	}
}

func TestRunImputationDeterministic(t *testing.T) {
	a, err := RunImputation(context.Background(), DefaultImputationConfig())
	require.NoError(t, err)
	b, err := RunImputation(context.Background(), DefaultImputationConfig())
	require.NoError(t, err)
	assert.Equal(t, a.Columns, b.Columns)
}

func TestRunImputationWarnsOnEncoding(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(error) {})

	_, err := RunImputation(context.Background(), DefaultImputationConfig())
	require.NoError(t, err)

	var found bool
	for _, w := range warnings {
		var conv *errors.DataConversionWarning
		if errors.As(w, &conv) {
			found = true
			assert.Contains(t, conv.Reason, "education")
		}
	}
	assert.True(t, found, "expected a DataConversionWarning for the education column")
}

func TestConfigValidation(t *testing.T) {
	cv := DefaultCrossValidationConfig()
	cv.Folds = 1
	_, err := RunCrossValidation(context.Background(), cv)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	reg := DefaultRegularizationConfig()
	reg.Scaling = "robust"
	_, err = RunRegularization(context.Background(), reg)
	assert.True(t, errors.As(err, &ve))

	imp := DefaultImputationConfig()
	imp.Strategy = "mice"
	assert.Error(t, imp.Validate())

	imp = DefaultImputationConfig()
	imp.Missing = append(imp.Missing, MissingSpec{Column: "income", Count: 3})
	assert.Error(t, imp.Validate())

	imp = DefaultImputationConfig()
	imp.Missing = []MissingSpec{{Column: dataset.Approved, Count: 3}}
	assert.Error(t, imp.Validate())

	imp = DefaultImputationConfig()
	imp.Missing = []MissingSpec{{Column: "no_such_column", Count: 3}}
	_, err = RunImputation(context.Background(), imp)
	assert.Error(t, err)
}

func TestPipelinesHonourCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunCrossValidation(ctx, DefaultCrossValidationConfig())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = RunRegularization(ctx, DefaultRegularizationConfig())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = RunImputation(ctx, DefaultImputationConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender(t *testing.T) {
	cv, err := RunCrossValidation(context.Background(), DefaultCrossValidationConfig())
	require.NoError(t, err)
	reg, err := RunRegularization(context.Background(), DefaultRegularizationConfig())
	require.NoError(t, err)
	imp, err := RunImputation(context.Background(), DefaultImputationConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, cv.Render(&buf))
	assert.Contains(t, buf.String(), "mean")
	assert.Contains(t, buf.String(), "confusion matrix")
	assert.Contains(t, buf.String(), "weighted avg")

	buf.Reset()
	require.NoError(t, reg.Render(&buf))
	for _, want := range []string{VariantOLS, VariantRidge, VariantLasso, "sqft", "noise_b", "(intercept)"} {
		assert.Contains(t, buf.String(), want)
	}

	buf.Reset()
	require.NoError(t, imp.Render(&buf))
	assert.Contains(t, buf.String(), "credit_score")
	assert.Contains(t, buf.String(), "nulls after")
}
