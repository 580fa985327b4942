package workflow

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/dataset"
	"github.com/YuminosukeSato/mlworkflow/metrics"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
	"github.com/YuminosukeSato/mlworkflow/pkg/log"
	"github.com/YuminosukeSato/mlworkflow/preprocessing"
	"github.com/YuminosukeSato/mlworkflow/sklearn/linear_model"
	"github.com/YuminosukeSato/mlworkflow/sklearn/model_selection"
)

// CrossValidationConfig configures RunCrossValidation.
type CrossValidationConfig struct {
	Rows     int
	Seed     uint64
	TestSize float64
	Folds    int
	// Stratify applies to both the train/test split and the folds.
	Stratify bool
	Scaling  string
	C        float64
	MaxIter  int
}

// DefaultCrossValidationConfig returns the configuration used by the CLI.
func DefaultCrossValidationConfig() CrossValidationConfig {
	return CrossValidationConfig{
		Rows:     200,
		Seed:     42,
		TestSize: 0.2,
		Folds:    5,
		Stratify: true,
		Scaling:  preprocessing.ScalingStandard,
		C:        1.0,
		MaxIter:  100,
	}
}

// Validate checks the configuration before any work is done.
func (c CrossValidationConfig) Validate() error {
	if c.Rows <= 0 {
		return errors.NewValidationError("rows", "must be positive", c.Rows)
	}
	if c.Folds < 2 {
		return errors.NewValidationError("folds", "must be at least 2", c.Folds)
	}
	if c.C <= 0 {
		return errors.NewValidationError("c", "must be positive", c.C)
	}
	if c.MaxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", c.MaxIter)
	}
	if _, err := preprocessing.NewScaler(c.Scaling); err != nil {
		return err
	}
	return nil
}

// CrossValidationResult is the outcome of RunCrossValidation.
type CrossValidationResult struct {
	RunID    string
	Config   CrossValidationConfig
	Rows     int
	Columns  int
	Features []string

	TrainSize    int
	TestSize     int
	TrainBalance []ClassShare
	TestBalance  []ClassShare

	// FoldScores holds the held-out accuracy of each fold, in fold order.
	FoldScores []float64
	MeanScore  float64
	StdScore   float64

	TestAccuracy float64
	AUC          float64
	Report       *metrics.Report
	Confusion    *mat.Dense
	Labels       []float64
	Coef         []float64
	Intercept    float64
}

// RunCrossValidation generates the patient risk dataset, holds out a test
// partition, scores a logistic regression with k-fold cross-validation on the
// training partition, and evaluates a final fit on the test partition.
func RunCrossValidation(ctx context.Context, cfg CrossValidationConfig, opts ...Option) (*CrossValidationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := newRun(log.PipelineCrossValidation, cfg.Seed, opts)
	res := &CrossValidationResult{RunID: r.id, Config: cfg}

	var (
		frame *dataset.Frame
		X     *mat.Dense
		y     *mat.VecDense
	)
	err := r.stage(ctx, log.OperationGenerate, func() error {
		var err error
		if frame, err = dataset.PatientRisk(cfg.Rows, cfg.Seed); err != nil {
			return err
		}
		res.Rows, res.Columns = frame.Shape()
		if err = encodeCategorical(frame, "smoker"); err != nil {
			return err
		}
		res.Features = featureNames(frame.Names(), dataset.HeartDisease)
		if X, err = frame.Matrix(res.Features...); err != nil {
			return err
		}
		y, err = frame.Vector(dataset.HeartDisease)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("dataset generated",
		log.SamplesKey, res.Rows,
		log.FeaturesKey, len(res.Features),
	)

	var p *partition
	err = r.stage(ctx, log.OperationSplit, func() error {
		var stratify []float64
		if cfg.Stratify {
			stratify = y.RawVector().Data
		}
		split, err := model_selection.TrainTestSplit(res.Rows, cfg.TestSize, cfg.Seed, stratify)
		if err != nil {
			return err
		}
		if p, err = splitAndScale(X, y, split, cfg.Scaling); err != nil {
			return err
		}
		res.TrainSize, res.TestSize = len(split.Train), len(split.Test)
		res.TrainBalance = classBalance(p.yTrain)
		res.TestBalance = classBalance(p.yTest)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("data split",
		log.TrainSizeKey, res.TrainSize,
		log.TestSizeKey, res.TestSize,
	)

	factory := func() model.Estimator {
		return linear_model.NewLogisticRegression(
			linear_model.WithLRC(cfg.C),
			linear_model.WithLRMaxIter(cfg.MaxIter),
		)
	}

	err = r.stage(ctx, "cross_validate", func() error {
		var splitter model_selection.Splitter = model_selection.NewKFold(cfg.Folds, true, cfg.Seed)
		if cfg.Stratify {
			splitter = model_selection.NewStratifiedKFold(cfg.Folds, true, cfg.Seed)
		}
		cv, err := model_selection.CrossValScore(ctx, factory, p.xTrain, p.yTrain, splitter, model_selection.AccuracyScorer)
		if err != nil {
			return err
		}
		res.FoldScores, res.MeanScore, res.StdScore = cv.Scores, cv.Mean, cv.Std
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, s := range res.FoldScores {
		r.logger.Debug("fold scored", log.FoldKey, i, log.AccuracyKey, s)
	}
	r.logger.Info("cross-validation completed",
		log.AccuracyKey, res.MeanScore,
		"cv.std", res.StdScore,
	)

	err = r.stage(ctx, log.OperationFit, func() error {
		clf := linear_model.NewLogisticRegression(
			linear_model.WithLRC(cfg.C),
			linear_model.WithLRMaxIter(cfg.MaxIter),
		)
		if err := clf.Fit(p.xTrain, p.yTrain); err != nil {
			return err
		}
		res.Coef, res.Intercept = clf.Coef(), clf.Intercept()

		predM, err := clf.Predict(p.xTest)
		if err != nil {
			return err
		}
		pred := column(predM, 0)
		if res.TestAccuracy, err = metrics.Accuracy(p.yTest, pred); err != nil {
			return err
		}
		if res.Report, err = metrics.ClassificationReport(p.yTest, pred, nil); err != nil {
			return err
		}
		if res.Confusion, res.Labels, err = metrics.ConfusionMatrix(p.yTest, pred, clf.Classes()); err != nil {
			return err
		}
		proba, err := clf.PredictProba(p.xTest)
		if err != nil {
			return err
		}
		if len(clf.Classes()) == 2 {
			res.AUC, err = metrics.AUC(p.yTest, column(proba, 1))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("test partition scored",
		log.PhaseKey, log.PhaseTesting,
		log.AccuracyKey, res.TestAccuracy,
		"metrics.auc", res.AUC,
	)
	return res, nil
}
