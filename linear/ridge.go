package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// Ridge はL2正則化付き線形回帰
//
//	minimize ||y - Xw - b||² + alpha * ||w||²
//
// 切片は中心化によって推定されるため正則化されない。
type Ridge struct {
	state *model.StateManager
	opts  options
	alpha float64

	coef      []float64
	intercept float64
}

// NewRidge は正則化の強さ alpha を指定してRidgeモデルを作成する
func NewRidge(alpha float64, opts ...Option) *Ridge {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Ridge{
		state: model.NewStateManager("Ridge"),
		opts:  o,
		alpha: alpha,
	}
}

// Alpha は正則化の強さを返す
func (m *Ridge) Alpha() float64 { return m.alpha }

// Fit は (XᵀX + αI) w = Xᵀy をCholesky分解で解く
func (m *Ridge) Fit(X, y mat.Matrix) error {
	const op = "Ridge.Fit"
	m.state.Reset()

	if m.alpha < 0 || math.IsNaN(m.alpha) {
		return errors.NewValidationError("alpha", "must be non-negative", m.alpha)
	}
	xd, yv, err := validateXY(op, X, y)
	if err != nil {
		return err
	}
	r, c := xd.Dims()

	var xMean []float64
	var yMean float64
	if m.opts.fitIntercept {
		xMean, yMean = center(xd, yv)
	}

	gram := mat.NewSymDense(c, nil)
	gram.SymOuterK(1, xd.T())
	for j := 0; j < c; j++ {
		gram.SetSym(j, j, gram.At(j, j)+m.alpha)
	}

	var xty mat.VecDense
	xty.MulVec(xd.T(), yv)

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return errors.NewModelError(op, "singular matrix", errors.ErrSingularMatrix)
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &xty); err != nil {
		return errors.NewModelError(op, "singular matrix", errors.ErrSingularMatrix)
	}

	m.coef = append([]float64(nil), w.RawVector().Data...)
	if err := errors.CheckNumericalStability(op, m.coef, 0); err != nil {
		return err
	}
	m.intercept = 0
	if m.opts.fitIntercept {
		m.intercept = interceptFor(m.coef, xMean, yMean)
	}

	m.state.SetFitted(c, r)
	return nil
}

// Predict は入力データに対する予測を行う
func (m *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := m.state.RequireFeatures("Ridge.Predict", c); err != nil {
		return nil, err
	}
	return predictLinear(X, m.coef, m.intercept), nil
}

// Score はモデルの決定係数（R²）を計算する
func (m *Ridge) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2Score("Ridge.Score", y, yPred)
}

// Coef は学習された係数を返す
func (m *Ridge) Coef() []float64 { return append([]float64(nil), m.coef...) }

// Intercept は学習された切片を返す
func (m *Ridge) Intercept() float64 { return m.intercept }

var _ model.LinearModel = (*Ridge)(nil)
