package impute

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/linear"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// RegressionImputer は1つの対象列の欠損を、予測列から学習した回帰モデルで補完する。
//
// 対象列が観測されている行でモデルを学習し、欠損している位置にだけ予測値を書き込む。
// 予測列に欠損があってはならない。
type RegressionImputer struct {
	target     int
	predictors []int
	names      []string
	factory    model.Factory

	est model.Estimator
}

// RegressionOption configures a RegressionImputer.
type RegressionOption func(*RegressionImputer)

// WithEstimator replaces the default LinearRegression.
func WithEstimator(factory model.Factory) RegressionOption {
	return func(m *RegressionImputer) { m.factory = factory }
}

// WithColumnNames names the columns of X in error messages.
func WithColumnNames(names []string) RegressionOption {
	return func(m *RegressionImputer) { m.names = names }
}

// NewRegressionImputer imputes column target of X from the predictor columns.
func NewRegressionImputer(target int, predictors []int, opts ...RegressionOption) *RegressionImputer {
	m := &RegressionImputer{
		target:     target,
		predictors: append([]int(nil), predictors...),
		factory:    func() model.Estimator { return linear.NewLinearRegression() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *RegressionImputer) columnName(j int) string {
	if j < len(m.names) {
		return m.names[j]
	}
	return fmt.Sprintf("column %d", j)
}

// Estimator returns the fitted model, or nil when nothing was imputed.
func (m *RegressionImputer) Estimator() model.Estimator { return m.est }

func (m *RegressionImputer) validate(op string, X mat.Matrix) error {
	_, c := X.Dims()
	if m.target < 0 || m.target >= c {
		return errors.NewValidationError("target", "column index out of range", m.target)
	}
	if len(m.predictors) == 0 {
		return errors.NewValidationError("predictors", "at least one predictor column is required", m.predictors)
	}
	for _, p := range m.predictors {
		if p < 0 || p >= c || p == m.target {
			return errors.NewValidationError("predictors", "invalid predictor column", p)
		}
	}

	counts := CountMissing(X)
	for _, p := range m.predictors {
		if counts[p] > 0 {
			return errors.NewMissingValueError(op, m.columnName(p), counts[p])
		}
	}
	return nil
}

// FitTransform returns a copy of X with the target column completed.
// When the target has no missing values X is returned unchanged as a copy.
func (m *RegressionImputer) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	const op = "RegressionImputer.FitTransform"
	if err := m.validate(op, X); err != nil {
		return nil, err
	}
	result := mat.DenseCopyOf(X)

	missing := MissingRows(X, m.target)
	if len(missing) == 0 {
		return result, nil
	}
	r, _ := X.Dims()
	if len(missing) == r {
		return nil, errors.NewValueError(op, fmt.Sprintf("%s has no known values to learn from", m.columnName(m.target)))
	}

	isMissing := make([]bool, r)
	for _, i := range missing {
		isMissing[i] = true
	}
	known := make([]int, 0, r-len(missing))
	for i := 0; i < r; i++ {
		if !isMissing[i] {
			known = append(known, i)
		}
	}

	xKnown := m.design(X, known)
	yKnown := mat.NewVecDense(len(known), nil)
	for k, i := range known {
		yKnown.SetVec(k, X.At(i, m.target))
	}

	est := m.factory()
	if err := est.Fit(xKnown, yKnown); err != nil {
		return nil, errors.Wrapf(err, "fitting imputation model for %s", m.columnName(m.target))
	}
	pred, err := est.Predict(m.design(X, missing))
	if err != nil {
		return nil, err
	}
	for k, i := range missing {
		result.Set(i, m.target, pred.At(k, 0))
	}
	m.est = est
	return result, nil
}

func (m *RegressionImputer) design(X mat.Matrix, rows []int) *mat.Dense {
	d := mat.NewDense(len(rows), len(m.predictors), nil)
	for k, i := range rows {
		for p, j := range m.predictors {
			d.Set(k, p, X.At(i, j))
		}
	}
	return d
}
