package workflow

import (
	"context"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/dataset"
	"github.com/YuminosukeSato/mlworkflow/linear"
	"github.com/YuminosukeSato/mlworkflow/metrics"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
	"github.com/YuminosukeSato/mlworkflow/pkg/log"
	"github.com/YuminosukeSato/mlworkflow/preprocessing"
	"github.com/YuminosukeSato/mlworkflow/sklearn/model_selection"
)

// RegularizationConfig configures RunRegularization.
type RegularizationConfig struct {
	Rows       int
	Seed       uint64
	TestSize   float64
	RidgeAlpha float64
	LassoAlpha float64
	Scaling    string
	// LassoMaxIter and LassoTol bound the coordinate descent.
	LassoMaxIter int
	LassoTol     float64
}

// DefaultRegularizationConfig returns the configuration used by the CLI.
// The lasso strength is on the scale of the price target, large enough to
// drop the pure-noise features of the housing dataset.
func DefaultRegularizationConfig() RegularizationConfig {
	return RegularizationConfig{
		Rows:         200,
		Seed:         42,
		TestSize:     0.2,
		RidgeAlpha:   10,
		LassoAlpha:   2500,
		Scaling:      preprocessing.ScalingStandard,
		LassoMaxIter: 1000,
		LassoTol:     1e-4,
	}
}

// Validate checks the configuration before any work is done.
func (c RegularizationConfig) Validate() error {
	if c.Rows <= 0 {
		return errors.NewValidationError("rows", "must be positive", c.Rows)
	}
	if c.RidgeAlpha < 0 {
		return errors.NewValidationError("ridge_alpha", "must be non-negative", c.RidgeAlpha)
	}
	if c.LassoAlpha < 0 {
		return errors.NewValidationError("lasso_alpha", "must be non-negative", c.LassoAlpha)
	}
	if c.LassoMaxIter <= 0 {
		return errors.NewValidationError("lasso_max_iter", "must be positive", c.LassoMaxIter)
	}
	if c.LassoTol <= 0 {
		return errors.NewValidationError("lasso_tol", "must be positive", c.LassoTol)
	}
	if _, err := preprocessing.NewScaler(c.Scaling); err != nil {
		return err
	}
	return nil
}

// VariantResult is the test-partition outcome of one regression variant.
type VariantResult struct {
	Name      string
	Alpha     float64
	MSE       float64
	RMSE      float64
	R2        float64
	Coef      []float64
	Intercept float64
	// Zeros counts coefficients that are exactly zero.
	Zeros int
}

// RegularizationResult is the outcome of RunRegularization.
type RegularizationResult struct {
	RunID     string
	Config    RegularizationConfig
	Features  []string
	Target    string
	TrainSize int
	TestSize  int
	Variants  []VariantResult
}

// Variant returns the result with the given name.
func (r *RegularizationResult) Variant(name string) (VariantResult, bool) {
	for _, v := range r.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return VariantResult{}, false
}

// Names of the compared variants.
const (
	VariantOLS   = "LinearRegression"
	VariantRidge = "Ridge"
	VariantLasso = "Lasso"
)

// RunRegularization generates the housing dataset and compares the three
// variants with CompareRegularization.
func RunRegularization(ctx context.Context, cfg RegularizationConfig, opts ...Option) (*RegularizationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := dataset.Housing(cfg.Rows, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return CompareRegularization(ctx, frame, dataset.Price, nil, cfg, opts...)
}

// CompareRegularization fits an unregularized, an L2 and an L1 linear model
// on one train partition of frame and scores each on the same test partition.
// With no features every column except target is used. Categorical features
// abort the comparison before any model is fitted.
func CompareRegularization(ctx context.Context, frame *dataset.Frame, target string, features []string,
	cfg RegularizationConfig, opts ...Option) (*RegularizationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := newRun(log.PipelineRegularization, cfg.Seed, opts)
	if len(features) == 0 {
		features = featureNames(frame.Names(), target)
	}
	res := &RegularizationResult{RunID: r.id, Config: cfg, Features: features, Target: target}

	var p *partition
	err := r.stage(ctx, log.OperationSplit, func() error {
		X, err := frame.Matrix(features...)
		if err != nil {
			return err
		}
		y, err := frame.Vector(target)
		if err != nil {
			return err
		}
		rows, _ := frame.Shape()
		split, err := model_selection.TrainTestSplit(rows, cfg.TestSize, cfg.Seed, nil)
		if err != nil {
			return err
		}
		p, err = splitAndScale(X, y, split, cfg.Scaling)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.TrainSize, res.TestSize = len(p.split.Train), len(p.split.Test)
	r.logger.Info("data split",
		log.SamplesKey, res.TrainSize+res.TestSize,
		log.FeaturesKey, len(features),
		log.TrainSizeKey, res.TrainSize,
		log.TestSizeKey, res.TestSize,
	)

	lassoOpts := []linear.Option{linear.WithMaxIter(cfg.LassoMaxIter), linear.WithTol(cfg.LassoTol)}
	variants := []struct {
		name  string
		alpha float64
		est   model.LinearModel
	}{
		{VariantOLS, 0, linear.NewLinearRegression()},
		{VariantRidge, cfg.RidgeAlpha, linear.NewRidge(cfg.RidgeAlpha)},
		{VariantLasso, cfg.LassoAlpha, linear.NewLasso(cfg.LassoAlpha, lassoOpts...)},
	}
	for _, v := range variants {
		var vr VariantResult
		err := r.stage(ctx, v.name, func() error {
			var err error
			vr, err = evaluateVariant(v.name, v.alpha, v.est, p)
			return err
		})
		if err != nil {
			return nil, err
		}
		r.logger.Info("variant evaluated",
			log.ModelNameKey, vr.Name,
			log.RegularizationKey, vr.Alpha,
			log.MSEKey, vr.MSE,
			log.R2ScoreKey, vr.R2,
			"model.zero_coefficients", vr.Zeros,
		)
		res.Variants = append(res.Variants, vr)
	}
	return res, nil
}

func evaluateVariant(name string, alpha float64, est model.LinearModel, p *partition) (VariantResult, error) {
	if err := est.Fit(p.xTrain, p.yTrain); err != nil {
		return VariantResult{}, err
	}
	predM, err := est.Predict(p.xTest)
	if err != nil {
		return VariantResult{}, err
	}
	pred := column(predM, 0)

	vr := VariantResult{Name: name, Alpha: alpha, Coef: est.Coef(), Intercept: est.Intercept()}
	if vr.MSE, err = metrics.MSE(p.yTest, pred); err != nil {
		return VariantResult{}, err
	}
	if vr.RMSE, err = metrics.RMSE(p.yTest, pred); err != nil {
		return VariantResult{}, err
	}
	if vr.R2, err = metrics.R2Score(p.yTest, pred); err != nil {
		return VariantResult{}, err
	}
	for _, c := range vr.Coef {
		if c == 0 {
			vr.Zeros++
		}
	}
	return vr, nil
}
