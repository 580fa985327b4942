package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// Lasso はL1正則化付き線形回帰
//
//	minimize (1 / (2 * n_samples)) * ||y - Xw - b||² + alpha * ||w||₁
//
// 巡回座標降下法で解く。ソフト閾値処理により係数は厳密に0になり得る。
type Lasso struct {
	state *model.StateManager
	opts  options
	alpha float64

	coef      []float64
	intercept float64
	nIter     int
}

// NewLasso は正則化の強さ alpha を指定してLassoモデルを作成する
func NewLasso(alpha float64, opts ...Option) *Lasso {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Lasso{
		state: model.NewStateManager("Lasso"),
		opts:  o,
		alpha: alpha,
	}
}

// Alpha は正則化の強さを返す
func (m *Lasso) Alpha() float64 { return m.alpha }

// NIter は直前のFitで実行したスイープ回数を返す
func (m *Lasso) NIter() int { return m.nIter }

func softThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	default:
		return 0
	}
}

// Fit は座標降下法でモデルを学習させる。
// maxIter回で収束しなかった場合はConvergenceWarningを発行し、その時点の係数を保持する。
func (m *Lasso) Fit(X, y mat.Matrix) error {
	const op = "Lasso.Fit"
	m.state.Reset()

	if m.alpha < 0 || math.IsNaN(m.alpha) {
		return errors.NewValidationError("alpha", "must be non-negative", m.alpha)
	}
	if m.opts.maxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", m.opts.maxIter)
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

	n := float64(r)
	cols := make([][]float64, c)
	norms := make([]float64, c)
	for j := 0; j < c; j++ {
		cols[j] = mat.Col(nil, j, xd)
		for _, v := range cols[j] {
			norms[j] += v * v
		}
		norms[j] /= n
	}

	w := make([]float64, c)
	residual := append([]float64(nil), yv.RawVector().Data...)

	converged := false
	m.nIter = 0
	for iter := 0; iter < m.opts.maxIter; iter++ {
		m.nIter = iter + 1
		var maxDelta, maxW float64
		for j := 0; j < c; j++ {
			if norms[j] == 0 {
				continue
			}
			old := w[j]
			var rho float64
			for i, x := range cols[j] {
				rho += x * (residual[i] + x*old)
			}
			rho /= n

			w[j] = softThreshold(rho, m.alpha) / norms[j]
			if delta := w[j] - old; delta != 0 {
				for i, x := range cols[j] {
					residual[i] -= x * delta
				}
				maxDelta = math.Max(maxDelta, math.Abs(delta))
			}
			maxW = math.Max(maxW, math.Abs(w[j]))
		}
		if err := errors.CheckNumericalStability(op, w, iter); err != nil {
			return err
		}
		if maxW == 0 || maxDelta/maxW < m.opts.tol {
			converged = true
			break
		}
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("Lasso", m.nIter,
			"objective did not converge; consider increasing max_iter or scaling the features"))
	}

	m.coef = w
	m.intercept = 0
	if m.opts.fitIntercept {
		m.intercept = interceptFor(m.coef, xMean, yMean)
	}

	m.state.SetFitted(c, r)
	return nil
}

// Predict は入力データに対する予測を行う
func (m *Lasso) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := m.state.RequireFeatures("Lasso.Predict", c); err != nil {
		return nil, err
	}
	return predictLinear(X, m.coef, m.intercept), nil
}

// Score はモデルの決定係数（R²）を計算する
func (m *Lasso) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2Score("Lasso.Score", y, yPred)
}

// Coef は学習された係数を返す
func (m *Lasso) Coef() []float64 { return append([]float64(nil), m.coef...) }

// Intercept は学習された切片を返す
func (m *Lasso) Intercept() float64 { return m.intercept }

// SparseCount は厳密に0の係数の数を返す
func (m *Lasso) SparseCount() int { return countZeros(m.coef) }

var _ model.LinearModel = (*Lasso)(nil)
