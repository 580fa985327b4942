// Package linear_model provides scikit-learn compatible linear classifiers.
package linear_model

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// LogisticRegression implements logistic regression for classification.
// Compatible with scikit-learn's LogisticRegression: the L2 objective is
//
//	sum_i logloss(y_i, x_i·w + b) + ||w||² / (2C)
//
// minimised per class (one-vs-rest for more than two classes) by Newton
// iterations with a backtracking line search, starting from zero weights so
// that fitting is deterministic.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty      string  // Regularization: "l2", "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	maxIter      int     // Maximum iterations
	tol          float64 // Tolerance for stopping

	// Model parameters
	coef_      [][]float64 // Coefficients (1 x n_features for binary, n_classes x n_features otherwise)
	intercept_ []float64   // Intercept terms
	classes_   []float64   // Unique class labels, ascending
	nIter_     []int       // Actual iterations per binary problem
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager("LogisticRegression"),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type ("l2" or "none")
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of Newton iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria (max gradient component per sample)
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

func (lr *LogisticRegression) validateParams() error {
	switch lr.penalty {
	case "l2":
		if lr.C <= 0 || math.IsNaN(lr.C) {
			return errors.NewValidationError("C", "must be positive", lr.C)
		}
	case "none":
	default:
		return errors.NewValidationError("penalty", "must be 'l2' or 'none'", lr.penalty)
	}
	if lr.maxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", lr.maxIter)
	}
	if lr.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	return nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	const op = "LogisticRegression.Fit"
	lr.state.Reset()

	if err := lr.validateParams(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError(op, "y must be a column vector")
	}
	if err := errors.CheckMatrix(op, X, nSamples, nFeatures, 0); err != nil {
		return err
	}
	if err := errors.CheckMatrix(op, y, yRows, yCols, 0); err != nil {
		return err
	}

	lr.extractClasses(y)
	if len(lr.classes_) < 2 {
		return errors.NewValueError(op, fmt.Sprintf("needs samples of at least 2 classes in the data, but the data contains only one class: %v", lr.classes_[0]))
	}

	design := lr.designMatrix(X)

	// Binary: one problem for classes_[1]. Multiclass: one-vs-rest.
	targets := lr.classes_[1:]
	if len(lr.classes_) > 2 {
		targets = lr.classes_
	}

	lr.coef_ = make([][]float64, len(targets))
	lr.intercept_ = make([]float64, len(targets))
	lr.nIter_ = make([]int, len(targets))
	for k, class := range targets {
		yBinary := make([]float64, nSamples)
		for i := range yBinary {
			if y.At(i, 0) == class {
				yBinary[i] = 1
			}
		}

		theta, iters, err := lr.newton(design, yBinary)
		if err != nil {
			return errors.Wrapf(err, "failed to fit class %v", class)
		}
		lr.coef_[k] = theta[:nFeatures]
		if lr.fitIntercept {
			lr.intercept_[k] = theta[nFeatures]
		}
		lr.nIter_[k] = iters
	}

	lr.state.SetFitted(nFeatures, nSamples)
	return nil
}

// extractClasses identifies unique class labels
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	seen := make(map[float64]bool)
	lr.classes_ = lr.classes_[:0]
	for i := 0; i < rows; i++ {
		label := y.At(i, 0)
		if !seen[label] {
			seen[label] = true
			lr.classes_ = append(lr.classes_, label)
		}
	}
	sort.Float64s(lr.classes_)
}

// designMatrix returns X, augmented with a column of ones when an intercept is fitted.
func (lr *LogisticRegression) designMatrix(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	cols := c
	if lr.fitIntercept {
		cols++
	}
	design := mat.NewDense(r, cols, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			design.Set(i, j, X.At(i, j))
		}
		if lr.fitIntercept {
			design.Set(i, c, 1)
		}
	}
	return design
}

// penaltyWeight returns the L2 coefficient 1/C, or 0 without penalty.
func (lr *LogisticRegression) penaltyWeight() float64 {
	if lr.penalty == "none" {
		return 0
	}
	return 1 / lr.C
}

// softplus computes log(1 + exp(z)) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// objective returns the penalised negative log-likelihood.
func (lr *LogisticRegression) objective(design *mat.Dense, y, theta []float64, nFeatures int) float64 {
	var z mat.VecDense
	z.MulVec(design, mat.NewVecDense(len(theta), theta))
	var loss float64
	for i, zi := range z.RawVector().Data {
		loss += softplus(zi) - y[i]*zi
	}
	lambda := lr.penaltyWeight()
	for j := 0; j < nFeatures; j++ {
		loss += 0.5 * lambda * theta[j] * theta[j]
	}
	return loss
}

// newton minimises the objective of one binary problem.
func (lr *LogisticRegression) newton(design *mat.Dense, y []float64) ([]float64, int, error) {
	const op = "LogisticRegression.Fit"
	nSamples, p := design.Dims()
	nFeatures := p
	if lr.fitIntercept {
		nFeatures--
	}
	lambda := lr.penaltyWeight()

	theta := make([]float64, p)
	grad := make([]float64, p)
	weights := make([]float64, nSamples)
	probs := make([]float64, nSamples)

	loss := lr.objective(design, y, theta, nFeatures)
	for iter := 1; iter <= lr.maxIter; iter++ {
		var z mat.VecDense
		z.MulVec(design, mat.NewVecDense(p, theta))
		for i, zi := range z.RawVector().Data {
			probs[i] = sigmoid(zi)
			weights[i] = probs[i] * (1 - probs[i])
		}

		// gradient = Xᵀ(p - y) + λw
		for j := range grad {
			grad[j] = 0
		}
		for i := 0; i < nSamples; i++ {
			floats.AddScaled(grad, probs[i]-y[i], design.RawRowView(i))
		}
		for j := 0; j < nFeatures; j++ {
			grad[j] += lambda * theta[j]
		}
		if floats.Norm(grad, math.Inf(1))/float64(nSamples) < lr.tol {
			return theta, iter - 1, nil
		}

		// hessian = Xᵀ S X + λI (intercept unpenalised); a small jitter keeps it positive definite
		hess := mat.NewSymDense(p, nil)
		for i := 0; i < nSamples; i++ {
			row := design.RawRowView(i)
			for a := 0; a < p; a++ {
				wa := weights[i] * row[a]
				for b := a; b < p; b++ {
					hess.SetSym(a, b, hess.At(a, b)+wa*row[b])
				}
			}
		}
		for j := 0; j < p; j++ {
			d := 1e-10
			if j < nFeatures {
				d += lambda
			}
			hess.SetSym(j, j, hess.At(j, j)+d)
		}

		step := make([]float64, p)
		var chol mat.Cholesky
		if chol.Factorize(hess) {
			var s mat.VecDense
			if err := chol.SolveVecTo(&s, mat.NewVecDense(p, grad)); err == nil {
				copy(step, s.RawVector().Data)
			} else {
				copy(step, grad)
			}
		} else {
			copy(step, grad)
		}

		// backtracking line search (Armijo)
		slope := floats.Dot(grad, step)
		t := 1.0
		candidate := make([]float64, p)
		accepted := false
		for k := 0; k < 40; k++ {
			copy(candidate, theta)
			floats.AddScaled(candidate, -t, step)
			newLoss := lr.objective(design, y, candidate, nFeatures)
			if newLoss <= loss-1e-4*t*slope {
				copy(theta, candidate)
				loss = newLoss
				accepted = true
				break
			}
			t /= 2
		}
		if err := errors.CheckNumericalStability(op, theta, iter); err != nil {
			return nil, iter, err
		}
		if err := errors.CheckScalar(op, loss, iter); err != nil {
			return nil, iter, err
		}
		if !accepted {
			// no further decrease is possible at floating point precision
			return theta, iter, nil
		}
	}

	errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter,
		"Newton iterations did not reach the tolerance; increase max_iter or scale the data"))
	return theta, lr.maxIter, nil
}

// DecisionFunction returns the linear scores x·w + b, one column per binary problem.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	nSamples, nFeatures := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.DecisionFunction", nFeatures); err != nil {
		return nil, err
	}

	scores := mat.NewDense(nSamples, len(lr.coef_), nil)
	for i := 0; i < nSamples; i++ {
		for k, coef := range lr.coef_ {
			z := lr.intercept_[k]
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * coef[j]
			}
			scores.Set(i, k, z)
		}
	}
	return scores, nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, nProblems := scores.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if nProblems == 1 {
			label := lr.classes_[0]
			if scores.At(i, 0) > 0 {
				label = lr.classes_[1]
			}
			predictions.Set(i, 0, label)
			continue
		}
		best := floats.MaxIdx(scores.RawRowView(i))
		predictions.Set(i, 0, lr.classes_[best])
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class, columns ordered as Classes().
// For one-vs-rest models the per-class sigmoids are normalised to sum to one.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, nProblems := scores.Dims()
	probas := mat.NewDense(nSamples, len(lr.classes_), nil)
	for i := 0; i < nSamples; i++ {
		if nProblems == 1 {
			p1 := sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1-p1)
			probas.Set(i, 1, p1)
			continue
		}
		row := probas.RawRowView(i)
		for k := range row {
			row[k] = sigmoid(scores.At(i, k))
		}
		floats.Scale(1/floats.Sum(row), row)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	yRows, _ := y.Dims()
	if yRows != nSamples {
		return 0, errors.NewDimensionError("LogisticRegression.Score", nSamples, yRows, 0)
	}
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Classes returns the class labels seen during fitting.
func (lr *LogisticRegression) Classes() []float64 {
	return append([]float64(nil), lr.classes_...)
}

// Coef returns the coefficients of the first binary problem (the positive
// class for binary models).
func (lr *LogisticRegression) Coef() []float64 {
	if len(lr.coef_) == 0 {
		return nil
	}
	return append([]float64(nil), lr.coef_[0]...)
}

// Intercept returns the intercept of the first binary problem.
func (lr *LogisticRegression) Intercept() float64 {
	if len(lr.intercept_) == 0 {
		return 0
	}
	return lr.intercept_[0]
}

// NIter returns the number of Newton iterations used per binary problem.
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter_...)
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			lr.penalty, ok = value.(string)
		case "C":
			lr.C, ok = value.(float64)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "max_iter":
			lr.maxIter, ok = value.(int)
		case "tol":
			lr.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, "wrong type", value)
		}
	}
	return nil
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

var (
	_ model.Classifier  = (*LogisticRegression)(nil)
	_ model.LinearModel = (*LogisticRegression)(nil)
)
