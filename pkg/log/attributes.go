// Package log defines standard attribute keys for machine learning operations.
//
// Using these keys keeps the structured output of every pipeline stage
// consistent, so a run can be filtered by operation, component or run id.
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "LinearRegression", "Lasso", "KNNImputer"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	EstimatorIDKey = "estimator.id"

	// RunIDKey tags every record emitted by one pipeline run (a UUID string).
	RunIDKey = "run.id"

	// PipelineKey names the workflow being executed.
	// Standard values: PipelineCrossValidation, PipelineRegularization, PipelineImputation
	PipelineKey = "run.pipeline"

	// OperationKey specifies the machine learning operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	// Examples: "linear", "impute", "model_selection"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ColumnKey names a single dataset column.
	ColumnKey = "data.column"

	// MissingCountKey is the number of null entries in a column.
	MissingCountKey = "data.missing"

	// TrainSizeKey and TestSizeKey record partition sizes.
	TrainSizeKey = "data.train_size"
	TestSizeKey  = "data.test_size"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy, range [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// MSEKey records the mean squared error of a regression.
	MSEKey = "metrics.mse"

	// LossKey records loss value during training or evaluation.
	LossKey = "metrics.loss"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// FoldKey records the cross-validation fold index (0-based).
	FoldKey = "cv.fold"

	// IterationKey records the current iteration number during iterative processes.
	IterationKey = "training.iteration"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// RegularizationKey records regularization strength (alpha or C).
	RegularizationKey = "hyperparams.regularization"

	// NeighborsKey records k for neighbour-based estimators.
	NeighborsKey = "hyperparams.n_neighbors"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationSplit        = "split"
	OperationGenerate     = "generate"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhasePreprocessing = "preprocessing"

	PipelineCrossValidation = "cross_validation"
	PipelineRegularization  = "regularization"
	PipelineImputation      = "imputation"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
