// Package mlworkflow runs three standard machine-learning workflow patterns
// on small synthetic datasets generated in-process with a fixed seed.
//
// The patterns are:
//
//   - cross-validation of a logistic regression on a "patient risk" dataset
//     with a derived binary label
//   - a regularization comparison of unregularized, ridge and lasso linear
//     regression on a "housing" dataset with a derived continuous target
//   - missing-value imputation (K-nearest-neighbour averaging or
//     regression-based prediction) on an "applicant" dataset
//
// Each pipeline is a single blocking call taking an explicit configuration
// and returning a result record:
//
//	res, err := workflow.RunCrossValidation(ctx, workflow.DefaultCrossValidationConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = res.Render(os.Stdout)
//
// # Packages
//
//   - dataset: tabular Frame, seeded column generators, presets
//   - core/model: estimator interfaces and StateManager
//   - core/parallel: chunked parallel loops
//   - linear: LinearRegression, Ridge, Lasso
//   - sklearn/linear_model: LogisticRegression
//   - sklearn/model_selection: TrainTestSplit, KFold, StratifiedKFold, CrossValScore
//   - sklearn/impute: KNNImputer, RegressionImputer
//   - preprocessing: StandardScaler, MinMaxScaler, LabelEncoder
//   - metrics: regression and classification metrics
//   - workflow: the three pipelines and their text reports
//   - plotting: gonum/plot charts of coefficients and fold scores
//   - pkg/errors, pkg/log: structured errors and logging
//
// The mlworkflow command (cmd/mlworkflow) drives the pipelines from the
// command line; see examples/walkthrough for programmatic use.
package mlworkflow
